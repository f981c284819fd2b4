package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/query"
)

// ErrorResponse is the generic error payload with a trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with the trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse is a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PageEnvelope is the uniform paged-list payload.
type PageEnvelope struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PageQuery binds the common paging query parameters.
type PageQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortField string `form:"sortField"`
	SortOrder string `form:"sortOrder"`
	StartTime string `form:"startTime"`
	EndTime   string `form:"endTime"`
}

// toPageRequest converts the bound query into an engine page request.
// Timestamps are RFC 3339; a bad timestamp is reported, not ignored.
func (q PageQuery) toPageRequest() (query.PageRequest, error) {
	req := query.PageRequest{
		Page:      q.Page,
		Limit:     q.Limit,
		SortField: q.SortField,
		SortOrder: q.SortOrder,
	}

	if q.StartTime != "" {
		start, err := time.Parse(time.RFC3339, q.StartTime)
		if err != nil {
			return req, err
		}
		req.StartTime = &start
	}
	if q.EndTime != "" {
		end, err := time.Parse(time.RFC3339, q.EndTime)
		if err != nil {
			return req, err
		}
		req.EndTime = &end
	}

	return req, nil
}

// UserView is the API representation of an account.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Nickname  *string   `json:"nickname,omitempty"`
	Email     *string   `json:"email,omitempty"`
	IsActive  bool      `json:"isActive"`
	UnitID    *string   `json:"unitId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserView(user domain.User) UserView {
	return UserView{
		ID:        user.ID,
		Username:  user.Username,
		Nickname:  user.Nickname,
		Email:     user.Email,
		IsActive:  user.IsActive,
		UnitID:    user.UnitID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toUserViews(users []domain.User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, toUserView(user))
	}
	return views
}

// RoleView is the API representation of a role.
type RoleView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	DataScope string    `json:"dataScope"`
	UnitIDs   []string  `json:"unitIds,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRoleView(role domain.Role) RoleView {
	return RoleView{
		ID:        role.ID,
		Name:      role.Name,
		Code:      role.Code,
		DataScope: string(role.DataScope),
		UnitIDs:   role.UnitIDs,
		CreatedAt: role.CreatedAt,
		UpdatedAt: role.UpdatedAt,
	}
}

func toRoleViews(roles []domain.Role) []RoleView {
	views := make([]RoleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, toRoleView(role))
	}
	return views
}

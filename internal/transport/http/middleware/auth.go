package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dkosarev/admincore/internal/usecase"
)

// ErrorResponse matches the handlers error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// Authenticate runs the guard chain for every request: public routes and
// bypassed paths pass through anonymously, everything else needs a valid,
// unrevoked bearer token. The resolved principal lands in the gin context.
func Authenticate(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request.Context(), c.Request.URL.Path, bearerToken(c))
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrRevoked):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "token revoked"))
			case errors.Is(err, usecase.ErrUnauthenticated):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "authentication required"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newErrorResponse(c, "authentication failed"))
			}
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// RequireRole allows the request through when the principal carries at least
// one of the role codes. No codes means no restriction.
func RequireRole(auth *usecase.AuthService, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if err := auth.Authorize(principal, roles...); err != nil {
			if principal.Anonymous() {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "authentication required"))
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "insufficient role"))
			return
		}
		c.Next()
	}
}

// bearerToken pulls the token out of the Authorization header. An empty
// result is fine: public and bypassed paths are admitted without one.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package domain

import "time"

// Event types published to the audit stream.
const (
	EventUserCreated      = "user.created"
	EventUserRolesChanged = "user.roles_changed"
	EventRoleScopeChanged = "role.scope_changed"
	EventSessionRevoked   = "session.revoked"
)

// Event is an audit record emitted on administrative state changes.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	SubjectID  string         `json:"subject_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

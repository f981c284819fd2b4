package port

import "context"

// Notifier delivers out-of-band messages (reset codes) to users. The
// concrete channel is a collaborator concern.
type Notifier interface {
	SendResetCode(ctx context.Context, email, code string) error
}

package port

import (
	"context"

	"github.com/dkosarev/admincore/internal/core/domain"
)

// EventPublisher delivers audit events to the event stream. Implementations
// must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

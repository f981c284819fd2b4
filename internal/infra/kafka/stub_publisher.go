package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// Publish logs the event at info level.
func (p *StubPublisher) Publish(_ context.Context, event domain.Event) error {
	p.logger.Info("stub event published",
		zap.String("event_type", event.Type),
		zap.String("actor_id", event.ActorID),
		zap.String("subject_id", event.SubjectID),
		zap.Any("payload", event.Payload),
	)
	return nil
}

// Close is a no-op.
func (p *StubPublisher) Close() error { return nil }

var _ port.EventPublisher = (*StubPublisher)(nil)

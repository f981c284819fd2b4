package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/infra/logger"
)

type noopNotifier struct{}

func (noopNotifier) SendResetCode(ctx context.Context, email, code string) error {
	return nil
}

// LoggingNotifier records reset-code dispatches for observability without
// delivering them. Production deployments swap in a real mail transport.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier constructs a notifier backed by structured logging.
func NewLoggingNotifier(log *zap.Logger) port.Notifier {
	if log == nil {
		return noopNotifier{}
	}
	return &LoggingNotifier{logger: log}
}

// SendResetCode logs the dispatch. The address is masked; the code itself is
// logged only so local environments can complete the flow without a mailer.
func (n *LoggingNotifier) SendResetCode(ctx context.Context, email, code string) error {
	if n == nil || n.logger == nil {
		return nil
	}

	n.logger.Info("dispatch password reset code",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("dev_code", code),
	)
	return nil
}

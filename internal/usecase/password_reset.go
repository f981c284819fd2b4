package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/infra/logger"
	"github.com/dkosarev/admincore/internal/infra/security"
	"github.com/dkosarev/admincore/internal/repository"
)

const (
	resetCodeLength = 6
	resetCodeTTL    = 5 * time.Minute
)

var (
	// ErrResetCodeInvalid indicates the supplied code does not match or was
	// never issued.
	ErrResetCodeInvalid = errors.New("reset code invalid")
)

// PasswordResetService drives the email-code password reset flow.
type PasswordResetService struct {
	users    port.UserRepository
	codes    port.ResetCodeStore
	notifier port.Notifier
	accounts *UserService
	logger   *zap.Logger
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(
	users port.UserRepository,
	codes port.ResetCodeStore,
	notifier port.Notifier,
	accounts *UserService,
	log *zap.Logger,
) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		users:    users,
		codes:    codes,
		notifier: notifier,
		accounts: accounts,
		logger:   log,
	}
}

// Request issues a one-time code to the address. Unknown addresses succeed
// silently so the endpoint does not reveal which accounts exist.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("reset requested for unknown address",
				zap.String("email", logger.MaskEmail(email)))
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	code, err := security.GenerateNumericCode(resetCodeLength)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	if err := s.codes.Put(ctx, email, code, resetCodeTTL); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if err := s.notifier.SendResetCode(ctx, email, code); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}

	s.logger.Info("reset code issued",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("user_id", user.ID))
	return nil
}

// Confirm consumes the code and sets the new password. The code is deleted
// only after a successful password update, so a rejected new password does
// not burn it.
func (s *PasswordResetService) Confirm(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	stored, err := s.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("load reset code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrResetCodeInvalid
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.accounts.ResetPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		s.logger.Warn("delete reset code failed", zap.Error(err))
	}

	return nil
}

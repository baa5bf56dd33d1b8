package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
	"github.com/SscSPs/ledger_recon/internal/middleware"
)

// DefaultOperationTimeout bounds every call a service makes to its
// collaborators when no timeout is configured.
const DefaultOperationTimeout = 10 * time.Second

// BaseService provides common functionality for all services
type BaseService struct {
	OperationTimeout time.Duration
	Now              func() time.Time
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// WithTimeout derives the context used for collaborator calls.
func (s *BaseService) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.OperationTimeout
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// NowUTC returns the current time from the injected clock.
func (s *BaseService) NowUTC() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// collaboratorError passes application errors through untouched and wraps
// anything else, turning deadline and cancellation into timeouts.
func (s *BaseService) collaboratorError(ctx context.Context, err error, msg string, keyvals ...any) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindInternal, apperrors.KindTimeout:
		s.LogError(ctx, err, msg, keyvals...)
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.NewInternalError(msg, err)
	default:
		return err
	}
}

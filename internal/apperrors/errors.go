package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an application error. Handlers map kinds to transport
// status codes and callers use them to decide whether a retry makes sense.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindState             Kind = "STATE"
	KindConflict          Kind = "CONFLICT"
	KindNotFound          Kind = "NOT_FOUND"
	KindToleranceExceeded Kind = "TOLERANCE_EXCEEDED"
	KindTimeout           Kind = "TIMEOUT"
	KindInternal          Kind = "INTERNAL"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrState indicates an operation that is not permitted from the current lifecycle state.
var ErrState = errors.New("invalid state for operation")

// ErrConflict indicates a stale write detected by an optimistic version check.
var ErrConflict = errors.New("concurrent modification")

// ErrToleranceExceeded indicates a disputed difference that has not been justified.
var ErrToleranceExceeded = errors.New("tolerance exceeded")

// ErrTimeout indicates that a collaborator did not answer before the deadline.
var ErrTimeout = errors.New("operation timed out")

// ErrInternal indicates an unexpected failure in a collaborator.
var ErrInternal = errors.New("internal error")

var sentinels = map[Kind]error{
	KindValidation:        ErrValidation,
	KindState:             ErrState,
	KindConflict:          ErrConflict,
	KindNotFound:          ErrNotFound,
	KindToleranceExceeded: ErrToleranceExceeded,
	KindTimeout:           ErrTimeout,
	KindInternal:          ErrInternal,
}

// AppError carries a Kind, an operator-facing message naming the violated
// rule, and an optional cause.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) and friends match on the kind.
func (e *AppError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// NewAppError builds an AppError of the given kind.
func NewAppError(kind Kind, msg string, err error) *AppError {
	return &AppError{Kind: kind, Message: msg, Err: err}
}

func NewValidationError(format string, args ...any) *AppError {
	return NewAppError(KindValidation, fmt.Sprintf(format, args...), nil)
}

func NewStateError(format string, args ...any) *AppError {
	return NewAppError(KindState, fmt.Sprintf(format, args...), nil)
}

func NewConflictError(format string, args ...any) *AppError {
	return NewAppError(KindConflict, fmt.Sprintf(format, args...), nil)
}

func NewNotFoundError(format string, args ...any) *AppError {
	return NewAppError(KindNotFound, fmt.Sprintf(format, args...), nil)
}

func NewToleranceExceededError(format string, args ...any) *AppError {
	return NewAppError(KindToleranceExceeded, fmt.Sprintf(format, args...), nil)
}

// NewInternalError wraps an unexpected collaborator failure. Context
// deadline and cancellation errors are reported as timeouts instead.
func NewInternalError(msg string, err error) *AppError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewAppError(KindTimeout, msg, err)
	}
	return NewAppError(KindInternal, msg, err)
}

// KindOf returns the kind of the first AppError in err's chain. Plain
// sentinel errors are recognised too; anything else is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry after refetching state.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConflict, KindTimeout:
		return true
	default:
		return false
	}
}

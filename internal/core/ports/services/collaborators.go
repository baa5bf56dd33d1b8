package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
)

// SequenceGenerator issues unique human readable reference numbers.
type SequenceGenerator interface {
	// Next returns the next reference for prefix in the year of at, e.g. JE-2024-0007.
	Next(ctx context.Context, prefix string, at time.Time) (string, error)
}

// AuditSink receives one record per state transition.
type AuditSink interface {
	Record(ctx context.Context, record domain.AuditRecord) error
}

// Locker serialises work on a key across processes.
type Locker interface {
	// Acquire takes the lock for key, held at most ttl. A lock already held
	// by someone else yields an error matching apperrors.ErrConflict. The
	// returned func releases the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

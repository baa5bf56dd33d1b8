package repositories

import (
	"context"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
)

// SequenceRepository hands out per-prefix, per-year counters.
type SequenceRepository interface {
	// NextSequenceValue atomically increments and returns the counter for (prefix, year).
	NextSequenceValue(ctx context.Context, prefix string, year int) (int64, error)
}

// AuditRepository stores audit records.
type AuditRepository interface {
	SaveAuditRecord(ctx context.Context, record domain.AuditRecord) error

	// ListAuditRecords returns the records of one entity, oldest first.
	ListAuditRecords(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditRecord, error)
}

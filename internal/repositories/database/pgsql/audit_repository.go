package pgsql

import (
	"context"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_recon/internal/models"
	"github.com/SscSPs/ledger_recon/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) *PgxAuditRepository {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepository = (*PgxAuditRepository)(nil)

// SaveAuditRecord appends a record. Saving the same audit id twice is a no-op,
// so a retried write cannot duplicate history.
func (r *PgxAuditRepository) SaveAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	m := mapping.ToModelAuditRecord(record)
	query := `
		INSERT INTO audit_records (audit_id, entity_type, entity_id, previous_status, new_status, actor_id, recorded_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (audit_id) DO NOTHING;
	`
	_, err := r.Pool.Exec(ctx, query, m.AuditID, m.EntityType, m.EntityID, m.PreviousStatus, m.NewStatus, m.ActorID, m.Timestamp, m.Reason)
	if err != nil {
		return dbError(err, "failed to save audit record for %s %s", m.EntityType, m.EntityID)
	}
	return nil
}

// ListAuditRecords returns the history of one entity, oldest first.
func (r *PgxAuditRepository) ListAuditRecords(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditRecord, error) {
	query := `
		SELECT audit_id, entity_type, entity_id, previous_status, new_status, actor_id, recorded_at, reason
		FROM audit_records
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY recorded_at, seq;
	`
	rows, err := r.Pool.Query(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, dbError(err, "failed to query audit records for %s %s", entityType, entityID)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var m models.AuditRecord
		if err := rows.Scan(&m.AuditID, &m.EntityType, &m.EntityID, &m.PreviousStatus, &m.NewStatus, &m.ActorID, &m.Timestamp, &m.Reason); err != nil {
			return nil, dbError(err, "failed to scan audit record")
		}
		out = append(out, mapping.ToDomainAuditRecord(m))
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "error iterating audit records")
	}
	return out, nil
}

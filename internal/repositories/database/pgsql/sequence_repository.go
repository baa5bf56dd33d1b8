package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSequenceRepository struct {
	BaseRepository
}

func newPgxSequenceRepository(pool *pgxpool.Pool) *PgxSequenceRepository {
	return &PgxSequenceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceRepository = (*PgxSequenceRepository)(nil)

// NextSequenceValue increments the (prefix, year) counter in a single statement,
// creating it at 1 on first use.
func (r *PgxSequenceRepository) NextSequenceValue(ctx context.Context, prefix string, year int) (int64, error) {
	query := `
		INSERT INTO sequences (prefix, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year)
		DO UPDATE SET last_value = sequences.last_value + 1
		RETURNING last_value;
	`
	var next int64
	if err := r.Pool.QueryRow(ctx, query, prefix, year).Scan(&next); err != nil {
		return 0, dbError(err, "failed to advance sequence %s-%d", prefix, year)
	}
	return next, nil
}

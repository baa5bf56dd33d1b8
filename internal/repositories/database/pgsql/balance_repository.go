package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxBalanceRepository reads the daily balance_effects totals maintained by
// the journal repository.
type PgxBalanceRepository struct {
	BaseRepository
}

func newPgxBalanceRepository(pool *pgxpool.Pool) *PgxBalanceRepository {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BalanceReader = (*PgxBalanceRepository)(nil)

func (r *PgxBalanceRepository) SumEffects(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM balance_effects
		WHERE account_id = $1 AND effect_date <= $2;
	`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID, domain.DateOf(asOf)).Scan(&total); err != nil {
		return decimal.Zero, dbError(err, "failed to sum balance effects for account %s", accountID)
	}
	return total, nil
}

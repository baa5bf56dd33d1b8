package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceReader reads the incrementally maintained balance-effect ledger
// written by JournalWriter.PostEntry and JournalWriter.VoidEntry.
type BalanceReader interface {
	// SumEffects returns the sum of all effects for accountID dated on or before asOf.
	SumEffects(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)
}

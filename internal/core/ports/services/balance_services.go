package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceSvc derives account balances from POSTED journal lines. Balances
// are signed by the account's normal side.
type BalanceSvc interface {
	// GetBalance returns the balance of accountID as of the end of asOf.
	GetBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)

	// GetMovement returns GetBalance(end) - GetBalance(start - 1 day).
	GetMovement(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error)

	// RecomputeBalance sums the posted lines from scratch instead of reading
	// the incrementally maintained totals.
	RecomputeBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)

	// VerifyBalance compares GetBalance with RecomputeBalance.
	VerifyBalance(ctx context.Context, accountID string, asOf time.Time) (*domain.BalanceCheck, error)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEffect is the net signed change a set of postings made to one
// account on one calendar date. Posting adds effects, voiding subtracts them.
type BalanceEffect struct {
	AccountID  string
	EffectDate time.Time
	Amount     decimal.Decimal
}

// BalanceCheck compares the incrementally maintained balance with a full
// recomputation from posted lines.
type BalanceCheck struct {
	AccountID   string          `json:"accountID"`
	AsOf        time.Time       `json:"asOf"`
	Incremental decimal.Decimal `json:"incremental"`
	Recomputed  decimal.Decimal `json:"recomputed"`
	Consistent  bool            `json:"consistent"`
}

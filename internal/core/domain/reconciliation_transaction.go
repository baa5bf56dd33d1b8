package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSource tells which side of a reconciliation a row came from.
type TransactionSource string

const (
	SourceLedger   TransactionSource = "LEDGER"
	SourceExternal TransactionSource = "EXTERNAL"
)

// MatchKind records how a pair of rows was matched.
type MatchKind string

const (
	MatchExact  MatchKind = "EXACT"
	MatchNear   MatchKind = "NEAR"
	MatchManual MatchKind = "MANUAL"
)

// ReconciliationTransaction is a ledger-side or external-side row tracked
// for matching under one reconciliation account. Matched rows point at
// each other through MatchedWithID.
type ReconciliationTransaction struct {
	ID                      string            `json:"id"`
	ReconciliationAccountID string            `json:"reconciliationAccountID"`
	Source                  TransactionSource `json:"source"`
	SourceRef               string            `json:"sourceRef"`
	TransactionDate         time.Time         `json:"transactionDate"`
	Reference               string            `json:"reference"`
	Amount                  decimal.Decimal   `json:"amount"`
	Type                    TransactionType   `json:"type"`
	Matched                 bool              `json:"matched"`
	MatchedWithID           *string           `json:"matchedWithID,omitempty"`
	MatchKind               *MatchKind        `json:"matchKind,omitempty"`
	MatchedAt               *time.Time        `json:"matchedAt,omitempty"`
	MatchedBy               *string           `json:"matchedBy,omitempty"`
	Notes                   string            `json:"notes"`
	CreatedAt               time.Time         `json:"createdAt"`
}

// SignedAmount returns the amount with debits positive and credits negative.
func (t ReconciliationTransaction) SignedAmount() decimal.Decimal {
	if t.Type == Credit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// MatchLink is one pair to persist as matched.
type MatchLink struct {
	LedgerID   string
	ExternalID string
	Kind       MatchKind
	Notes      string
}

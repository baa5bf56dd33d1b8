package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reconciliation is a row of the reconciliations table.
type Reconciliation struct {
	ReconciliationID   string          `db:"reconciliation_id"`
	ReferenceNumber    string          `db:"reference_number"`
	PeriodStart        time.Time       `db:"period_start"`
	PeriodEnd          time.Time       `db:"period_end"`
	Status             string          `db:"status"`
	TotalAccounts      int             `db:"total_accounts"`
	ReconciledAccounts int             `db:"reconciled_accounts"`
	PendingAccounts    int             `db:"pending_accounts"`
	DisputedAccounts   int             `db:"disputed_accounts"`
	TotalDifference    decimal.Decimal `db:"total_difference"`
	CompletedAt        *time.Time      `db:"completed_at"`
	CompletedBy        *string         `db:"completed_by"`
	ApprovedAt         *time.Time      `db:"approved_at"`
	ApprovedBy         *string         `db:"approved_by"`
	RejectedAt         *time.Time      `db:"rejected_at"`
	RejectedBy         *string         `db:"rejected_by"`
	RejectionReason    *string         `db:"rejection_reason"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	CancelledBy        *string         `db:"cancelled_by"`
	CancellationReason *string         `db:"cancellation_reason"`
	Version            int             `db:"version"`
	AuditFields
}

// ReconciliationAccount is a row of the reconciliation_accounts table.
type ReconciliationAccount struct {
	ID                string           `db:"id"`
	ReconciliationID  string           `db:"reconciliation_id"`
	AccountID         string           `db:"account_id"`
	Position          int              `db:"position"`
	OpeningBalance    decimal.Decimal  `db:"opening_balance"`
	ReconciledBalance *decimal.Decimal `db:"reconciled_balance"`
	Movement          decimal.Decimal  `db:"movement"`
	Difference        decimal.Decimal  `db:"difference"`
	Status            string           `db:"status"`
	Notes             string           `db:"notes"`
	ResolvedAt        *time.Time       `db:"resolved_at"`
	ResolvedBy        *string          `db:"resolved_by"`
	Version           int              `db:"version"`
}

// ReconciliationTransaction is a row of the reconciliation_transactions table.
type ReconciliationTransaction struct {
	ID                      string          `db:"id"`
	ReconciliationAccountID string          `db:"reconciliation_account_id"`
	Source                  string          `db:"source"`
	SourceRef               string          `db:"source_ref"`
	TransactionDate         time.Time       `db:"transaction_date"`
	Reference               string          `db:"reference"`
	Amount                  decimal.Decimal `db:"amount"`
	Type                    string          `db:"transaction_type"`
	Matched                 bool            `db:"matched"`
	MatchedWithID           *string         `db:"matched_with_id"`
	MatchKind               *string         `db:"match_kind"`
	MatchedAt               *time.Time      `db:"matched_at"`
	MatchedBy               *string         `db:"matched_by"`
	Notes                   string          `db:"notes"`
	CreatedAt               time.Time       `db:"created_at"`
}

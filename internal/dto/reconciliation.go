package dto

import (
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/matcher"
	"github.com/shopspring/decimal"
)

// CreateReconciliationRequest opens a reconciliation over a period.
type CreateReconciliationRequest struct {
	AccountIDs  []string  `json:"accountIDs" binding:"required,min=1,dive,required"`
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd" binding:"required"`
}

// ReconcileAccountRequest records the reviewer's closing balance for one account.
type ReconcileAccountRequest struct {
	ReconciledBalance decimal.Decimal `json:"reconciledBalance"`
	Notes             string          `json:"notes" binding:"max=2000"`
	Version           *int            `json:"version" binding:"omitempty,gte=1"`
}

// RejectReconciliationRequest carries the mandatory rejection reason.
type RejectReconciliationRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// CancelReconciliationRequest carries the cancellation reason.
type CancelReconciliationRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ListReconciliationsParams defines query parameters for listing reconciliations.
type ListReconciliationsParams struct {
	Status    *domain.ReconciliationStatus `form:"status" binding:"omitempty,oneof=DRAFT IN_PROGRESS COMPLETED APPROVED REJECTED CANCELLED"`
	AccountID *string                      `form:"accountID"`
	Limit     int                          `form:"limit" binding:"omitempty,gte=1,lte=200"`
	NextToken *string                      `form:"nextToken"`
}

// ExternalTransactionInput is one row of the external feed: the
// {date, amount, sign, reference} tuple the matcher needs.
type ExternalTransactionInput struct {
	Date      time.Time              `json:"date" binding:"required"`
	Amount    decimal.Decimal        `json:"amount"`
	Type      domain.TransactionType `json:"type" binding:"required,oneof=DEBIT CREDIT"`
	Reference string                 `json:"reference" binding:"max=255"`
}

// ImportExternalTransactionsRequest carries a batch of external rows.
type ImportExternalTransactionsRequest struct {
	Transactions []ExternalTransactionInput `json:"transactions" binding:"required,min=1,dive"`
}

// AutoMatchRequest tunes an automatic matching run. DryRun computes and
// returns the result without persisting it.
type AutoMatchRequest struct {
	DateWindowDays *int `json:"dateWindowDays" binding:"omitempty,gte=0,lte=31"`
	DryRun         bool `json:"dryRun"`
}

// ManualMatchRequest pairs two rows chosen by a reviewer.
type ManualMatchRequest struct {
	LedgerTransactionID   string `json:"ledgerTransactionID" binding:"required"`
	ExternalTransactionID string `json:"externalTransactionID" binding:"required"`
	Notes                 string `json:"notes" binding:"max=1000"`
}

// ReconciliationSummary is the aggregate view exposed to report collaborators.
type ReconciliationSummary struct {
	ReconciliationID   string                      `json:"reconciliationID"`
	ReferenceNumber    string                      `json:"referenceNumber"`
	PeriodStart        time.Time                   `json:"periodStart"`
	PeriodEnd          time.Time                   `json:"periodEnd"`
	Status             domain.ReconciliationStatus `json:"status"`
	TotalAccounts      int                         `json:"totalAccounts"`
	ReconciledAccounts int                         `json:"reconciledAccounts"`
	PendingAccounts    int                         `json:"pendingAccounts"`
	DisputedAccounts   int                         `json:"disputedAccounts"`
	TotalDifference    decimal.Decimal             `json:"totalDifference"`
}

// AccountReportRow is the per-account report shape.
type AccountReportRow struct {
	AccountID         string                             `json:"accountID"`
	OpeningBalance    decimal.Decimal                    `json:"openingBalance"`
	Movement          decimal.Decimal                    `json:"movement"`
	ReconciledBalance *decimal.Decimal                   `json:"reconciledBalance,omitempty"`
	Difference        decimal.Decimal                    `json:"difference"`
	Status            domain.AccountReconciliationStatus `json:"status"`
	Notes             string                             `json:"notes,omitempty"`
	ResolvedAt        *time.Time                         `json:"resolvedAt,omitempty"`
	ResolvedBy        *string                            `json:"resolvedBy,omitempty"`
}

// ReconciliationResponse defines the data returned for a reconciliation.
type ReconciliationResponse struct {
	ReconciliationSummary
	Accounts           []AccountReportRow `json:"accounts"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`
	CompletedBy        *string            `json:"completedBy,omitempty"`
	ApprovedAt         *time.Time         `json:"approvedAt,omitempty"`
	ApprovedBy         *string            `json:"approvedBy,omitempty"`
	RejectedAt         *time.Time         `json:"rejectedAt,omitempty"`
	RejectedBy         *string            `json:"rejectedBy,omitempty"`
	RejectionReason    *string            `json:"rejectionReason,omitempty"`
	CancelledAt        *time.Time         `json:"cancelledAt,omitempty"`
	CancelledBy        *string            `json:"cancelledBy,omitempty"`
	CancellationReason *string            `json:"cancellationReason,omitempty"`
	Version            int                `json:"version"`
	CreatedAt          time.Time          `json:"createdAt"`
	CreatedBy          string             `json:"createdBy"`
}

// ListReconciliationsResponse wraps a page of reconciliation summaries.
type ListReconciliationsResponse struct {
	Reconciliations []ReconciliationSummary `json:"reconciliations"`
	NextToken       *string                 `json:"nextToken,omitempty"`
}

// MatchPairResponse is one matched couple.
type MatchPairResponse struct {
	LedgerTransactionID   string           `json:"ledgerTransactionID"`
	ExternalTransactionID string           `json:"externalTransactionID"`
	Kind                  domain.MatchKind `json:"kind"`
	DateDelta             int              `json:"dateDelta"`
}

// MatchSuggestionResponse is a reference-similarity hint.
type MatchSuggestionResponse struct {
	LedgerTransactionID   string  `json:"ledgerTransactionID"`
	ExternalTransactionID string  `json:"externalTransactionID"`
	Similarity            float64 `json:"similarity"`
}

// MatchResultResponse is the full match result for display.
type MatchResultResponse struct {
	Matches           []MatchPairResponse       `json:"matches"`
	UnmatchedLedger   []string                  `json:"unmatchedLedger"`
	UnmatchedExternal []string                  `json:"unmatchedExternal"`
	Suggestions       []MatchSuggestionResponse `json:"suggestions,omitempty"`
	Applied           bool                      `json:"applied"`
}

// ReconciliationTransactionResponse is one tracked row.
type ReconciliationTransactionResponse struct {
	ID              string                   `json:"id"`
	Source          domain.TransactionSource `json:"source"`
	SourceRef       string                   `json:"sourceRef"`
	TransactionDate time.Time                `json:"transactionDate"`
	Reference       string                   `json:"reference"`
	Amount          decimal.Decimal          `json:"amount"`
	Type            domain.TransactionType   `json:"type"`
	Matched         bool                     `json:"matched"`
	MatchedWithID   *string                  `json:"matchedWithID,omitempty"`
	MatchKind       *domain.MatchKind        `json:"matchKind,omitempty"`
	MatchedAt       *time.Time               `json:"matchedAt,omitempty"`
	MatchedBy       *string                  `json:"matchedBy,omitempty"`
	Notes           string                   `json:"notes,omitempty"`
}

// MatchingStateResponse shows the rows of one account and how they pair up.
type MatchingStateResponse struct {
	ReconciliationID string                              `json:"reconciliationID"`
	AccountID        string                              `json:"accountID"`
	Transactions     []ReconciliationTransactionResponse `json:"transactions"`
	Result           MatchResultResponse                 `json:"result"`
}

// LoadTransactionsResponse reports how many rows a load or import stored.
type LoadTransactionsResponse struct {
	ReconciliationID string `json:"reconciliationID"`
	AccountID        string `json:"accountID"`
	Loaded           int    `json:"loaded"`
}

// ToReconciliationSummary builds the summary shape from a reconciliation.
func ToReconciliationSummary(r *domain.Reconciliation) ReconciliationSummary {
	return ReconciliationSummary{
		ReconciliationID:   r.ReconciliationID,
		ReferenceNumber:    r.ReferenceNumber,
		PeriodStart:        r.PeriodStart,
		PeriodEnd:          r.PeriodEnd,
		Status:             r.Status,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		PendingAccounts:    r.PendingAccounts,
		DisputedAccounts:   r.DisputedAccounts,
		TotalDifference:    r.TotalDifference,
	}
}

// ToAccountReportRows builds one report row per account sub-record.
func ToAccountReportRows(accounts []domain.ReconciliationAccount) []AccountReportRow {
	rows := make([]AccountReportRow, len(accounts))
	for i, a := range accounts {
		rows[i] = AccountReportRow{
			AccountID:         a.AccountID,
			OpeningBalance:    a.OpeningBalance,
			Movement:          a.Movement,
			ReconciledBalance: a.ReconciledBalance,
			Difference:        a.Difference,
			Status:            a.Status,
			Notes:             a.Notes,
			ResolvedAt:        a.ResolvedAt,
			ResolvedBy:        a.ResolvedBy,
		}
	}
	return rows
}

// ToReconciliationResponse converts a domain.Reconciliation to its response DTO.
func ToReconciliationResponse(r *domain.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ReconciliationSummary: ToReconciliationSummary(r),
		Accounts:              ToAccountReportRows(r.Accounts),
		CompletedAt:           r.CompletedAt,
		CompletedBy:           r.CompletedBy,
		ApprovedAt:            r.ApprovedAt,
		ApprovedBy:            r.ApprovedBy,
		RejectedAt:            r.RejectedAt,
		RejectedBy:            r.RejectedBy,
		RejectionReason:       r.RejectionReason,
		CancelledAt:           r.CancelledAt,
		CancelledBy:           r.CancelledBy,
		CancellationReason:    r.CancellationReason,
		Version:               r.Version,
		CreatedAt:             r.CreatedAt,
		CreatedBy:             r.CreatedBy,
	}
}

// ToMatchResultResponse converts a matcher result.
func ToMatchResultResponse(res matcher.Result, applied bool) MatchResultResponse {
	out := MatchResultResponse{
		Matches:           make([]MatchPairResponse, len(res.Matches)),
		UnmatchedLedger:   res.UnmatchedLedger,
		UnmatchedExternal: res.UnmatchedExternal,
		Applied:           applied,
	}
	for i, m := range res.Matches {
		out.Matches[i] = MatchPairResponse{
			LedgerTransactionID:   m.LedgerID,
			ExternalTransactionID: m.ExternalID,
			Kind:                  domain.MatchKind(m.Kind),
			DateDelta:             m.DateDelta,
		}
	}
	for _, s := range res.Suggestions {
		out.Suggestions = append(out.Suggestions, MatchSuggestionResponse{
			LedgerTransactionID:   s.LedgerID,
			ExternalTransactionID: s.ExternalID,
			Similarity:            s.Similarity,
		})
	}
	return out
}

// ToReconciliationTransactionResponses converts tracked rows.
func ToReconciliationTransactionResponses(rows []domain.ReconciliationTransaction) []ReconciliationTransactionResponse {
	out := make([]ReconciliationTransactionResponse, len(rows))
	for i, r := range rows {
		out[i] = ReconciliationTransactionResponse{
			ID:              r.ID,
			Source:          r.Source,
			SourceRef:       r.SourceRef,
			TransactionDate: r.TransactionDate,
			Reference:       r.Reference,
			Amount:          r.Amount,
			Type:            r.Type,
			Matched:         r.Matched,
			MatchedWithID:   r.MatchedWithID,
			MatchKind:       r.MatchKind,
			MatchedAt:       r.MatchedAt,
			MatchedBy:       r.MatchedBy,
			Notes:           r.Notes,
		}
	}
	return out
}

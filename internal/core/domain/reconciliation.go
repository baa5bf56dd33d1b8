package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the workflow state of a reconciliation.
type ReconciliationStatus string

const (
	ReconciliationDraft      ReconciliationStatus = "DRAFT"
	ReconciliationInProgress ReconciliationStatus = "IN_PROGRESS"
	ReconciliationCompleted  ReconciliationStatus = "COMPLETED"
	ReconciliationApproved   ReconciliationStatus = "APPROVED"
	ReconciliationRejected   ReconciliationStatus = "REJECTED"
	ReconciliationCancelled  ReconciliationStatus = "CANCELLED"
)

var reconciliationTransitions = map[ReconciliationStatus][]ReconciliationStatus{
	ReconciliationDraft:      {ReconciliationInProgress, ReconciliationCancelled},
	ReconciliationInProgress: {ReconciliationCompleted, ReconciliationCancelled},
	ReconciliationCompleted:  {ReconciliationApproved, ReconciliationRejected, ReconciliationCancelled},
	ReconciliationRejected:   {ReconciliationInProgress, ReconciliationCancelled},
}

// CanTransitionTo reports whether the workflow allows moving from s to next.
func (s ReconciliationStatus) CanTransitionTo(next ReconciliationStatus) bool {
	for _, allowed := range reconciliationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ReconciliationStatus) IsTerminal() bool {
	return len(reconciliationTransitions[s]) == 0
}

// AccountReconciliationStatus is the review state of one account within a reconciliation.
type AccountReconciliationStatus string

const (
	AccountPending    AccountReconciliationStatus = "PENDING"
	AccountInProgress AccountReconciliationStatus = "IN_PROGRESS"
	AccountReconciled AccountReconciliationStatus = "RECONCILED"
	AccountDisputed   AccountReconciliationStatus = "DISPUTED"
)

// IsResolved reports whether the account has a final review outcome.
func (s AccountReconciliationStatus) IsResolved() bool {
	return s == AccountReconciled || s == AccountDisputed
}

// Reconciliation confirms ledger balances for a set of accounts over a period
// against an external record.
type Reconciliation struct {
	ReconciliationID   string                  `json:"reconciliationID"`
	ReferenceNumber    string                  `json:"referenceNumber"`
	AccountIDs         []string                `json:"accountIDs"`
	PeriodStart        time.Time               `json:"periodStart"`
	PeriodEnd          time.Time               `json:"periodEnd"`
	Status             ReconciliationStatus    `json:"status"`
	Accounts           []ReconciliationAccount `json:"accounts"`
	TotalAccounts      int                     `json:"totalAccounts"`
	ReconciledAccounts int                     `json:"reconciledAccounts"`
	PendingAccounts    int                     `json:"pendingAccounts"`
	DisputedAccounts   int                     `json:"disputedAccounts"`
	TotalDifference    decimal.Decimal         `json:"totalDifference"`
	CompletedAt        *time.Time              `json:"completedAt,omitempty"`
	CompletedBy        *string                 `json:"completedBy,omitempty"`
	ApprovedAt         *time.Time              `json:"approvedAt,omitempty"`
	ApprovedBy         *string                 `json:"approvedBy,omitempty"`
	RejectedAt         *time.Time              `json:"rejectedAt,omitempty"`
	RejectedBy         *string                 `json:"rejectedBy,omitempty"`
	RejectionReason    *string                 `json:"rejectionReason,omitempty"`
	CancelledAt        *time.Time              `json:"cancelledAt,omitempty"`
	CancelledBy        *string                 `json:"cancelledBy,omitempty"`
	CancellationReason *string                 `json:"cancellationReason,omitempty"`
	Version            int                     `json:"version"`
	AuditFields
}

// Account returns a pointer to the sub-record for accountID, or nil.
func (r *Reconciliation) Account(accountID string) *ReconciliationAccount {
	for i := range r.Accounts {
		if r.Accounts[i].AccountID == accountID {
			return &r.Accounts[i]
		}
	}
	return nil
}

// Tally recomputes the aggregate counters from the account sub-records.
// Accounts still IN_PROGRESS count as pending.
func (r *Reconciliation) Tally() {
	r.TotalAccounts = len(r.Accounts)
	r.ReconciledAccounts, r.PendingAccounts, r.DisputedAccounts = 0, 0, 0
	r.TotalDifference = decimal.Zero
	for _, a := range r.Accounts {
		switch a.Status {
		case AccountReconciled:
			r.ReconciledAccounts++
		case AccountDisputed:
			r.DisputedAccounts++
			r.TotalDifference = r.TotalDifference.Add(a.Difference.Abs())
		default:
			r.PendingAccounts++
		}
	}
}

// Unresolved returns the accounts that are neither reconciled nor disputed.
func (r *Reconciliation) Unresolved() []ReconciliationAccount {
	var out []ReconciliationAccount
	for _, a := range r.Accounts {
		if !a.Status.IsResolved() {
			out = append(out, a)
		}
	}
	return out
}

// ReconciliationAccount is the per-account review record of a reconciliation.
// Difference is ReconciledBalance - (OpeningBalance + Movement).
type ReconciliationAccount struct {
	ID                string                      `json:"id"`
	ReconciliationID  string                      `json:"reconciliationID"`
	AccountID         string                      `json:"accountID"`
	OpeningBalance    decimal.Decimal             `json:"openingBalance"`
	ReconciledBalance *decimal.Decimal            `json:"reconciledBalance,omitempty"`
	Movement          decimal.Decimal             `json:"movement"`
	Difference        decimal.Decimal             `json:"difference"`
	Status            AccountReconciliationStatus `json:"status"`
	Notes             string                      `json:"notes"`
	ResolvedAt        *time.Time                  `json:"resolvedAt,omitempty"`
	ResolvedBy        *string                     `json:"resolvedBy,omitempty"`
	Version           int                         `json:"version"`
}

// ExpectedBalance is the closing balance implied by the ledger.
func (a ReconciliationAccount) ExpectedBalance() decimal.Decimal {
	return a.OpeningBalance.Add(a.Movement)
}

// Evaluate fills Movement, ReconciledBalance and Difference and decides the
// outcome: RECONCILED when |difference| <= tolerance, DISPUTED otherwise.
func (a *ReconciliationAccount) Evaluate(reconciled, movement, tolerance decimal.Decimal) AccountReconciliationStatus {
	a.Movement = movement
	a.ReconciledBalance = &reconciled
	a.Difference = reconciled.Sub(a.ExpectedBalance())
	if a.Difference.Abs().LessThanOrEqual(tolerance) {
		return AccountReconciled
	}
	return AccountDisputed
}

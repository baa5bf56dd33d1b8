package mapping

import (
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/models"
)

// ToModelReconciliation converts the header of a domain Reconciliation.
func ToModelReconciliation(d domain.Reconciliation) models.Reconciliation {
	return models.Reconciliation{
		ReconciliationID:   d.ReconciliationID,
		ReferenceNumber:    d.ReferenceNumber,
		PeriodStart:        domain.DateOf(d.PeriodStart),
		PeriodEnd:          domain.DateOf(d.PeriodEnd),
		Status:             string(d.Status),
		TotalAccounts:      d.TotalAccounts,
		ReconciledAccounts: d.ReconciledAccounts,
		PendingAccounts:    d.PendingAccounts,
		DisputedAccounts:   d.DisputedAccounts,
		TotalDifference:    d.TotalDifference,
		CompletedAt:        d.CompletedAt,
		CompletedBy:        d.CompletedBy,
		ApprovedAt:         d.ApprovedAt,
		ApprovedBy:         d.ApprovedBy,
		RejectedAt:         d.RejectedAt,
		RejectedBy:         d.RejectedBy,
		RejectionReason:    d.RejectionReason,
		CancelledAt:        d.CancelledAt,
		CancelledBy:        d.CancelledBy,
		CancellationReason: d.CancellationReason,
		Version:            d.Version,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainReconciliation assembles a domain Reconciliation from its header
// row and its account rows, which must already be in position order.
func ToDomainReconciliation(m models.Reconciliation, accounts []models.ReconciliationAccount) domain.Reconciliation {
	rec := domain.Reconciliation{
		ReconciliationID:   m.ReconciliationID,
		ReferenceNumber:    m.ReferenceNumber,
		PeriodStart:        domain.DateOf(m.PeriodStart),
		PeriodEnd:          domain.DateOf(m.PeriodEnd),
		Status:             domain.ReconciliationStatus(m.Status),
		AccountIDs:         make([]string, 0, len(accounts)),
		Accounts:           make([]domain.ReconciliationAccount, 0, len(accounts)),
		TotalAccounts:      m.TotalAccounts,
		ReconciledAccounts: m.ReconciledAccounts,
		PendingAccounts:    m.PendingAccounts,
		DisputedAccounts:   m.DisputedAccounts,
		TotalDifference:    m.TotalDifference,
		CompletedAt:        m.CompletedAt,
		CompletedBy:        m.CompletedBy,
		ApprovedAt:         m.ApprovedAt,
		ApprovedBy:         m.ApprovedBy,
		RejectedAt:         m.RejectedAt,
		RejectedBy:         m.RejectedBy,
		RejectionReason:    m.RejectionReason,
		CancelledAt:        m.CancelledAt,
		CancelledBy:        m.CancelledBy,
		CancellationReason: m.CancellationReason,
		Version:            m.Version,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
	for _, a := range accounts {
		rec.AccountIDs = append(rec.AccountIDs, a.AccountID)
		rec.Accounts = append(rec.Accounts, ToDomainReconciliationAccount(a))
	}
	return rec
}

// ToModelReconciliationAccount converts an account sub-record; position is
// its index within the reconciliation.
func ToModelReconciliationAccount(d domain.ReconciliationAccount, position int) models.ReconciliationAccount {
	return models.ReconciliationAccount{
		ID:                d.ID,
		ReconciliationID:  d.ReconciliationID,
		AccountID:         d.AccountID,
		Position:          position,
		OpeningBalance:    d.OpeningBalance,
		ReconciledBalance: d.ReconciledBalance,
		Movement:          d.Movement,
		Difference:        d.Difference,
		Status:            string(d.Status),
		Notes:             d.Notes,
		ResolvedAt:        d.ResolvedAt,
		ResolvedBy:        d.ResolvedBy,
		Version:           d.Version,
	}
}

// ToDomainReconciliationAccount converts an account row.
func ToDomainReconciliationAccount(m models.ReconciliationAccount) domain.ReconciliationAccount {
	return domain.ReconciliationAccount{
		ID:                m.ID,
		ReconciliationID:  m.ReconciliationID,
		AccountID:         m.AccountID,
		OpeningBalance:    m.OpeningBalance,
		ReconciledBalance: m.ReconciledBalance,
		Movement:          m.Movement,
		Difference:        m.Difference,
		Status:            domain.AccountReconciliationStatus(m.Status),
		Notes:             m.Notes,
		ResolvedAt:        m.ResolvedAt,
		ResolvedBy:        m.ResolvedBy,
		Version:           m.Version,
	}
}

// ToModelReconciliationTransaction converts a matching row.
func ToModelReconciliationTransaction(d domain.ReconciliationTransaction) models.ReconciliationTransaction {
	var kind *string
	if d.MatchKind != nil {
		k := string(*d.MatchKind)
		kind = &k
	}
	return models.ReconciliationTransaction{
		ID:                      d.ID,
		ReconciliationAccountID: d.ReconciliationAccountID,
		Source:                  string(d.Source),
		SourceRef:               d.SourceRef,
		TransactionDate:         domain.DateOf(d.TransactionDate),
		Reference:               d.Reference,
		Amount:                  d.Amount,
		Type:                    string(d.Type),
		Matched:                 d.Matched,
		MatchedWithID:           d.MatchedWithID,
		MatchKind:               kind,
		MatchedAt:               d.MatchedAt,
		MatchedBy:               d.MatchedBy,
		Notes:                   d.Notes,
		CreatedAt:               d.CreatedAt,
	}
}

// ToDomainReconciliationTransaction converts a matching row back.
func ToDomainReconciliationTransaction(m models.ReconciliationTransaction) domain.ReconciliationTransaction {
	var kind *domain.MatchKind
	if m.MatchKind != nil {
		k := domain.MatchKind(*m.MatchKind)
		kind = &k
	}
	return domain.ReconciliationTransaction{
		ID:                      m.ID,
		ReconciliationAccountID: m.ReconciliationAccountID,
		Source:                  domain.TransactionSource(m.Source),
		SourceRef:               m.SourceRef,
		TransactionDate:         domain.DateOf(m.TransactionDate),
		Reference:               m.Reference,
		Amount:                  m.Amount,
		Type:                    domain.TransactionType(m.Type),
		Matched:                 m.Matched,
		MatchedWithID:           m.MatchedWithID,
		MatchKind:               kind,
		MatchedAt:               m.MatchedAt,
		MatchedBy:               m.MatchedBy,
		Notes:                   m.Notes,
		CreatedAt:               m.CreatedAt,
	}
}

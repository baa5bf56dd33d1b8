package mapping

import (
	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry header to a model JournalEntry.
// Lines are mapped separately with ToModelJournalLines.
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:         d.EntryID,
		ReferenceNumber: d.ReferenceNumber,
		EntryDate:       domain.DateOf(d.EntryDate),
		Memo:            d.Memo,
		Status:          models.EntryStatus(d.Status),
		PostedAt:        d.PostedAt,
		PostedBy:        d.PostedBy,
		VoidedAt:        d.VoidedAt,
		VoidedBy:        d.VoidedBy,
		VoidReason:      d.VoidReason,
		Version:         d.Version,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry and its lines to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:         m.EntryID,
		ReferenceNumber: m.ReferenceNumber,
		EntryDate:       domain.DateOf(m.EntryDate),
		Memo:            m.Memo,
		Status:          domain.EntryStatus(m.Status),
		Lines:           ToDomainJournalLines(lines),
		PostedAt:        m.PostedAt,
		PostedBy:        m.PostedBy,
		VoidedAt:        m.VoidedAt,
		VoidedBy:        m.VoidedBy,
		VoidReason:      m.VoidReason,
		Version:         m.Version,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLines converts domain lines to model lines.
func ToModelJournalLines(ds []domain.JournalLine) []models.JournalLine {
	ms := make([]models.JournalLine, len(ds))
	for i, d := range ds {
		ms[i] = models.JournalLine{
			LineID:     d.LineID,
			EntryID:    d.EntryID,
			LineNumber: d.LineNumber,
			AccountID:  d.AccountID,
			Debit:      d.Debit,
			Credit:     d.Credit,
			Memo:       d.Memo,
		}
	}
	return ms
}

// ToDomainJournalLines converts model lines to domain lines.
func ToDomainJournalLines(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalLine(m)
	}
	return ds
}

// ToDomainJournalLine converts a single model line.
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:     m.LineID,
		EntryID:    m.EntryID,
		LineNumber: m.LineNumber,
		AccountID:  m.AccountID,
		Debit:      m.Debit,
		Credit:     m.Credit,
		Memo:       m.Memo,
	}
}

// ToDomainPostedLine converts a posted line row.
func ToDomainPostedLine(m models.PostedLine) domain.PostedLine {
	return domain.PostedLine{
		JournalLine:     ToDomainJournalLine(m.JournalLine),
		EntryDate:       domain.DateOf(m.EntryDate),
		ReferenceNumber: m.ReferenceNumber,
		EntryMemo:       m.EntryMemo,
	}
}

package dto

import (
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one debit or credit line. Exactly one of Debit and
// Credit must be non-zero; that rule is checked by the domain, not by tags.
type JournalLineRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo" binding:"max=500"`
}

// CreateJournalEntryRequest defines the payload for creating a draft entry.
type CreateJournalEntryRequest struct {
	EntryDate time.Time            `json:"entryDate" binding:"required"`
	Memo      string               `json:"memo" binding:"max=1000"`
	Lines     []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateJournalEntryRequest replaces the lines of a draft entry and
// optionally its date and memo. Version, when set, must match the stored
// version or the update is rejected as a conflict.
type UpdateJournalEntryRequest struct {
	EntryDate *time.Time           `json:"entryDate"`
	Memo      *string              `json:"memo" binding:"omitempty,max=1000"`
	Lines     []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
	Version   *int                 `json:"version" binding:"omitempty,gte=1"`
}

// VoidJournalEntryRequest carries the mandatory void reason.
type VoidJournalEntryRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ListJournalEntriesParams defines query parameters for listing entries.
type ListJournalEntriesParams struct {
	Status    *domain.EntryStatus `form:"status" binding:"omitempty,oneof=DRAFT POSTED VOID"`
	From      *time.Time          `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To        *time.Time          `form:"to" time_format:"2006-01-02" time_utc:"1"`
	Limit     int                 `form:"limit" binding:"omitempty,gte=1,lte=200"`
	NextToken *string             `form:"nextToken"`
}

// ToDomainLines converts request lines to domain lines numbered from 1.
func ToDomainLines(entryID string, lines []JournalLineRequest) []domain.JournalLine {
	out := make([]domain.JournalLine, len(lines))
	for i, l := range lines {
		out[i] = domain.JournalLine{
			EntryID:    entryID,
			LineNumber: i + 1,
			AccountID:  l.AccountID,
			Debit:      l.Debit,
			Credit:     l.Credit,
			Memo:       l.Memo,
		}
	}
	return out
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID     string          `json:"lineID"`
	LineNumber int             `json:"lineNumber"`
	AccountID  string          `json:"accountID"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Memo       string          `json:"memo,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID         string                `json:"entryID"`
	ReferenceNumber string                `json:"referenceNumber"`
	EntryDate       time.Time             `json:"entryDate"`
	Memo            string                `json:"memo"`
	Status          domain.EntryStatus    `json:"status"`
	TotalDebit      decimal.Decimal       `json:"totalDebit"`
	TotalCredit     decimal.Decimal       `json:"totalCredit"`
	Lines           []JournalLineResponse `json:"lines"`
	PostedAt        *time.Time            `json:"postedAt,omitempty"`
	PostedBy        *string               `json:"postedBy,omitempty"`
	VoidedAt        *time.Time            `json:"voidedAt,omitempty"`
	VoidedBy        *string               `json:"voidedBy,omitempty"`
	VoidReason      *string               `json:"voidReason,omitempty"`
	Version         int                   `json:"version"`
	CreatedAt       time.Time             `json:"createdAt"`
	CreatedBy       string                `json:"createdBy"`
	LastUpdatedAt   time.Time             `json:"lastUpdatedAt"`
	LastUpdatedBy   string                `json:"lastUpdatedBy"`
}

// ListJournalEntriesResponse wraps a page of entries.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to its response DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	debits, credits := e.Totals()
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			LineID:     l.LineID,
			LineNumber: l.LineNumber,
			AccountID:  l.AccountID,
			Debit:      l.Debit,
			Credit:     l.Credit,
			Memo:       l.Memo,
		}
	}
	return JournalEntryResponse{
		EntryID:         e.EntryID,
		ReferenceNumber: e.ReferenceNumber,
		EntryDate:       e.EntryDate,
		Memo:            e.Memo,
		Status:          e.Status,
		TotalDebit:      debits,
		TotalCredit:     credits,
		Lines:           lines,
		PostedAt:        e.PostedAt,
		PostedBy:        e.PostedBy,
		VoidedAt:        e.VoidedAt,
		VoidedBy:        e.VoidedBy,
		VoidReason:      e.VoidReason,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
		LastUpdatedAt:   e.LastUpdatedAt,
		LastUpdatedBy:   e.LastUpdatedBy,
	}
}

// ToJournalEntryResponses converts a slice of entries.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	out := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToJournalEntryResponse(&entries[i])
	}
	return out
}

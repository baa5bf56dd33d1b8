package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID         string      `db:"entry_id"`
	ReferenceNumber string      `db:"reference_number"`
	EntryDate       time.Time   `db:"entry_date"`
	Memo            string      `db:"memo"`
	Status          EntryStatus `db:"status"`
	PostedAt        *time.Time  `db:"posted_at"`
	PostedBy        *string     `db:"posted_by"`
	VoidedAt        *time.Time  `db:"voided_at"`
	VoidedBy        *string     `db:"voided_by"`
	VoidReason      *string     `db:"void_reason"`
	Version         int         `db:"version"`
	AuditFields
}

// JournalLine is a row of the journal_lines table. Exactly one of Debit and
// Credit is non-zero.
type JournalLine struct {
	LineID     string          `db:"line_id"`
	EntryID    string          `db:"entry_id"`
	LineNumber int             `db:"line_number"`
	AccountID  string          `db:"account_id"`
	Debit      decimal.Decimal `db:"debit"`
	Credit     decimal.Decimal `db:"credit"`
	Memo       string          `db:"memo"`
}

// PostedLine is a journal line joined with its posted entry header.
type PostedLine struct {
	JournalLine
	EntryDate       time.Time `db:"entry_date"`
	ReferenceNumber string    `db:"reference_number"`
	EntryMemo       string    `db:"entry_memo"`
}

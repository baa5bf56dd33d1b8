package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether an amount sits on the Debit or the Credit side.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// IsValid reports whether t is DEBIT or CREDIT.
func (t TransactionType) IsValid() bool {
	return t == Debit || t == Credit
}

// JournalLine is a single debit or credit against one account within an entry.
// Exactly one of Debit and Credit is non-zero.
type JournalLine struct {
	LineID     string          `json:"lineID"`
	EntryID    string          `json:"entryID"`
	LineNumber int             `json:"lineNumber"`
	AccountID  string          `json:"accountID"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Memo       string          `json:"memo"`
}

// Side returns the side carrying the line's amount.
func (l JournalLine) Side() TransactionType {
	if l.Debit.IsPositive() {
		return Debit
	}
	return Credit
}

// Amount returns the absolute amount of the line regardless of side.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// PostedLine is a journal line together with the header fields of its
// posted entry. It is the read model used for balance recomputation and
// for loading ledger-side reconciliation rows.
type PostedLine struct {
	JournalLine
	EntryDate       time.Time `json:"entryDate"`
	ReferenceNumber string    `json:"referenceNumber"`
	EntryMemo       string    `json:"entryMemo"`
}

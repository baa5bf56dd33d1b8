package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// JournalEntry is a balanced set of debit and credit lines recorded on one date.
// Entries move DRAFT -> POSTED -> VOID; only drafts may be edited or deleted.
type JournalEntry struct {
	EntryID         string        `json:"entryID"`
	ReferenceNumber string        `json:"referenceNumber"`
	EntryDate       time.Time     `json:"entryDate"`
	Memo            string        `json:"memo"`
	Status          EntryStatus   `json:"status"`
	Lines           []JournalLine `json:"lines"`
	PostedAt        *time.Time    `json:"postedAt,omitempty"`
	PostedBy        *string       `json:"postedBy,omitempty"`
	VoidedAt        *time.Time    `json:"voidedAt,omitempty"`
	VoidedBy        *string       `json:"voidedBy,omitempty"`
	VoidReason      *string       `json:"voidReason,omitempty"`
	Version         int           `json:"version"`
	AuditFields
}

// Totals returns the debit and credit sums of the entry's lines.
func (e JournalEntry) Totals() (debits, credits decimal.Decimal) {
	return SumLines(e.Lines)
}

// Validate checks the double-entry invariants: at least two lines, exactly
// one non-zero non-negative side per line, and debits equal to credits
// within BalanceEpsilon.
func (e JournalEntry) Validate() error {
	return ValidateLines(e.Lines)
}

// AccountIDs returns the distinct account ids referenced by the lines, in line order.
func (e JournalEntry) AccountIDs() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	return ids
}

// SumLines returns the debit and credit totals of lines.
func SumLines(lines []JournalLine) (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// ValidateLines returns a LineError describing the first broken invariant, or nil.
func ValidateLines(lines []JournalLine) error {
	if len(lines) < 2 {
		return &LineError{Reason: fmt.Sprintf("entry needs at least 2 lines, got %d", len(lines))}
	}
	for i, l := range lines {
		if l.AccountID == "" {
			return &LineError{Line: i + 1, Reason: "account is required"}
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return &LineError{Line: i + 1, Reason: "amounts must not be negative"}
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return &LineError{Line: i + 1, Reason: "exactly one of debit or credit must be non-zero"}
		}
	}
	debits, credits := SumLines(lines)
	if diff := debits.Sub(credits).Abs(); diff.GreaterThanOrEqual(BalanceEpsilon) {
		return &LineError{Reason: fmt.Sprintf("entry unbalanced by %s (debits %s, credits %s)",
			diff.StringFixed(2), debits.StringFixed(2), credits.StringFixed(2))}
	}
	return nil
}

// LineError describes a double-entry invariant violation. Line is 1-based
// and zero when the violation concerns the entry as a whole.
type LineError struct {
	Line   int
	Reason string
}

func (e *LineError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return e.Reason
}

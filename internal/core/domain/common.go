package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // Actor ID
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // Actor ID
}

// BalanceEpsilon is the largest debit/credit residue an entry may carry and
// still count as balanced.
var BalanceEpsilon = decimal.New(1, -2)

// DateOf truncates t to its calendar date in UTC. Entry dates, period bounds
// and as-of dates are all compared as calendar dates.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayBefore returns the calendar date preceding t.
func DayBefore(t time.Time) time.Time {
	return DateOf(t).AddDate(0, 0, -1)
}

// FormatReference renders a human readable reference number such as JE-2024-0001.
func FormatReference(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

// Reference number prefixes issued by the sequence generator.
const (
	JournalEntryPrefix   = "JE"
	ReconciliationPrefix = "REC"
)

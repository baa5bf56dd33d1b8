package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
)

// JournalEntryFilter narrows ListEntries.
type JournalEntryFilter struct {
	Status *domain.EntryStatus
	DateRange
}

// JournalReader defines read operations for journal entries.
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines ordered by line number.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries returns entries ordered by entry date then creation time,
	// newest first, plus the token for the next page.
	ListEntries(ctx context.Context, filter JournalEntryFilter, page PageRequest) ([]domain.JournalEntry, *string, error)
}

// PostedLineReader exposes the lines of POSTED entries for one account.
type PostedLineReader interface {
	// FindPostedLines returns the posted lines of accountID whose entry date
	// falls inside the range.
	FindPostedLines(ctx context.Context, accountID string, dates DateRange) ([]domain.PostedLine, error)
}

// JournalWriter defines write operations for journal entries. Each method
// commits atomically or not at all.
type JournalWriter interface {
	// SaveEntry persists a new DRAFT entry and its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// UpdateDraftEntry replaces the header fields and lines of a DRAFT entry.
	// It fails with a conflict error when the stored version is not
	// expectedVersion and with a state error when the entry left DRAFT.
	UpdateDraftEntry(ctx context.Context, entry domain.JournalEntry, expectedVersion int) error

	// PostEntry moves a DRAFT entry to POSTED and applies effects to the
	// per-account balance ledger in the same transaction. effects were
	// computed from the lines at expectedVersion; a conflict error is
	// returned when the stored version moved on.
	PostEntry(ctx context.Context, entryID string, expectedVersion int, effects []domain.BalanceEffect, postedBy string, postedAt time.Time) error

	// VoidEntry moves a POSTED entry to VOID and applies effects (the
	// negation of the posting effects) in the same transaction.
	VoidEntry(ctx context.Context, entryID string, effects []domain.BalanceEffect, reason, voidedBy string, voidedAt time.Time) error

	// DeleteDraftEntry removes a DRAFT entry and its lines.
	DeleteDraftEntry(ctx context.Context, entryID string) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	PostedLineReader
}

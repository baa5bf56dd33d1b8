package services

import (
	"context"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/dto"
)

// JournalReaderSvc defines read operations for journal entries
type JournalReaderSvc interface {
	// GetEntry retrieves a specific entry with its lines.
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of entries, newest first.
	ListEntries(ctx context.Context, params dto.ListJournalEntriesParams) (*dto.ListJournalEntriesResponse, error)
}

// JournalWriterSvc defines the operations allowed on DRAFT entries
type JournalWriterSvc interface {
	// CreateEntry validates and persists a new DRAFT entry.
	CreateEntry(ctx context.Context, req dto.CreateJournalEntryRequest, actorID string) (*domain.JournalEntry, error)

	// UpdateEntry replaces the lines (and optionally date and memo) of a DRAFT entry.
	UpdateEntry(ctx context.Context, entryID string, req dto.UpdateJournalEntryRequest, actorID string) (*domain.JournalEntry, error)

	// DeleteEntry hard-deletes a DRAFT entry.
	DeleteEntry(ctx context.Context, entryID string, actorID string) error
}

// JournalLifecycleSvc defines the status transitions that touch balances
type JournalLifecycleSvc interface {
	// PostEntry moves a DRAFT entry to POSTED and applies it to account balances.
	PostEntry(ctx context.Context, entryID string, actorID string) (*domain.JournalEntry, error)

	// VoidEntry moves a POSTED entry to VOID and removes its balance effects.
	VoidEntry(ctx context.Context, entryID string, req dto.VoidJournalEntryRequest, actorID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
	JournalLifecycleSvc
}

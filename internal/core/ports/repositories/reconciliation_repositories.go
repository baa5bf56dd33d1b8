package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
)

// ReconciliationFilter narrows ListReconciliations.
type ReconciliationFilter struct {
	Status    *domain.ReconciliationStatus
	AccountID *string
}

// ReconciliationReader defines read operations for reconciliations.
type ReconciliationReader interface {
	// FindReconciliationByID retrieves a reconciliation with its account sub-records.
	FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error)

	// ListReconciliations returns reconciliations newest first, plus the token for the next page.
	ListReconciliations(ctx context.Context, filter ReconciliationFilter, page PageRequest) ([]domain.Reconciliation, *string, error)
}

// ReconciliationWriter defines write operations for reconciliations.
// Updates are guarded by optimistic version checks: a stale expectedVersion
// fails with a conflict error and nothing is written.
type ReconciliationWriter interface {
	// SaveReconciliation persists a new reconciliation and its account sub-records.
	SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error

	// UpdateReconciliation writes the header fields (status, stamps, reasons, counters).
	UpdateReconciliation(ctx context.Context, rec domain.Reconciliation, expectedVersion int) error

	// UpdateReconciliationAccount writes one account sub-record and bumps the
	// version of its reconciliation, so a header write based on the old
	// account state fails. It fails with a state error unless the
	// reconciliation is IN_PROGRESS when the write commits.
	UpdateReconciliationAccount(ctx context.Context, acct domain.ReconciliationAccount, expectedVersion int) error
}

// ReconciliationTransactionRepository tracks the rows being matched for one
// reconciliation account. Every write fails with a state error unless the
// owning reconciliation is IN_PROGRESS when it commits. Writes that report
// started also moved a PENDING account sub-record to IN_PROGRESS in the same
// transaction.
type ReconciliationTransactionRepository interface {
	// FindReconciliationTransactions returns the rows of a reconciliation account ordered by id.
	FindReconciliationTransactions(ctx context.Context, reconciliationAccountID string) ([]domain.ReconciliationTransaction, error)

	// ReplaceLedgerTransactions drops the unmatched LEDGER rows of the account
	// and inserts rows whose SourceRef is not already present, atomically.
	ReplaceLedgerTransactions(ctx context.Context, reconciliationAccountID string, rows []domain.ReconciliationTransaction) (started bool, err error)

	// SaveExternalTransactions inserts EXTERNAL rows. Rows whose SourceRef is
	// already present for the account are skipped.
	SaveExternalTransactions(ctx context.Context, reconciliationAccountID string, rows []domain.ReconciliationTransaction) (stored int, started bool, err error)

	// ApplyMatches marks every pair as matched in one transaction. If any row
	// is already matched the whole call fails with a conflict error.
	ApplyMatches(ctx context.Context, reconciliationAccountID string, links []domain.MatchLink, matchedBy string, matchedAt time.Time) (started bool, err error)

	// ClearMatch unmatches a row and its counterpart.
	ClearMatch(ctx context.Context, reconciliationAccountID, transactionID string) error
}

// ReconciliationRepositoryFacade combines all reconciliation repository interfaces.
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
	ReconciliationTransactionRepository
}

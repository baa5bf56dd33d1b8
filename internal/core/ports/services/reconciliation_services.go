package services

import (
	"context"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	"github.com/SscSPs/ledger_recon/internal/dto"
)

// ReconciliationReaderSvc defines read operations for reconciliations
type ReconciliationReaderSvc interface {
	GetReconciliation(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error)
	ListReconciliations(ctx context.Context, params dto.ListReconciliationsParams) (*dto.ListReconciliationsResponse, error)

	// GetSummary returns the aggregate counters of a reconciliation.
	GetSummary(ctx context.Context, reconciliationID string) (*dto.ReconciliationSummary, error)

	// GetAccountReport returns one row per reconciled account.
	GetAccountReport(ctx context.Context, reconciliationID string) ([]dto.AccountReportRow, error)
}

// ReconciliationWorkflowSvc drives a reconciliation through its states.
//
//	DRAFT       -> IN_PROGRESS, CANCELLED
//	IN_PROGRESS -> COMPLETED, CANCELLED
//	COMPLETED   -> APPROVED, REJECTED, CANCELLED
//	REJECTED    -> IN_PROGRESS, CANCELLED
type ReconciliationWorkflowSvc interface {
	// CreateReconciliation opens a DRAFT reconciliation with one PENDING
	// sub-record per account, capturing each opening balance.
	CreateReconciliation(ctx context.Context, req dto.CreateReconciliationRequest, actorID string) (*domain.Reconciliation, error)

	// StartWork moves a DRAFT or REJECTED reconciliation to IN_PROGRESS.
	StartWork(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error)

	// ReconcileAccount records the reviewer's balance for one account and
	// marks it RECONCILED or DISPUTED.
	ReconcileAccount(ctx context.Context, reconciliationID, accountID string, req dto.ReconcileAccountRequest, actorID string) (*domain.Reconciliation, error)

	// Finalize moves an IN_PROGRESS reconciliation to COMPLETED once every account is resolved.
	Finalize(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error)

	Approve(ctx context.Context, reconciliationID string, approverID string) (*domain.Reconciliation, error)
	Reject(ctx context.Context, reconciliationID string, req dto.RejectReconciliationRequest, approverID string) (*domain.Reconciliation, error)
	Cancel(ctx context.Context, reconciliationID string, req dto.CancelReconciliationRequest, actorID string) (*domain.Reconciliation, error)
}

// ReconciliationMatchingSvc pairs ledger rows with external rows for one account
type ReconciliationMatchingSvc interface {
	// LoadLedgerTransactions snapshots the account's posted lines inside the period.
	LoadLedgerTransactions(ctx context.Context, reconciliationID, accountID string, actorID string) (*dto.LoadTransactionsResponse, error)

	// ImportExternalTransactions stores rows from the external record.
	ImportExternalTransactions(ctx context.Context, reconciliationID, accountID string, req dto.ImportExternalTransactionsRequest, actorID string) (*dto.LoadTransactionsResponse, error)

	// AutoMatch runs the matcher over unmatched rows and persists the pairs unless DryRun is set.
	AutoMatch(ctx context.Context, reconciliationID, accountID string, req dto.AutoMatchRequest, actorID string) (*dto.MatchResultResponse, error)

	ManualMatch(ctx context.Context, reconciliationID, accountID string, req dto.ManualMatchRequest, actorID string) (*dto.MatchingStateResponse, error)
	Unmatch(ctx context.Context, reconciliationID, accountID, transactionID string, actorID string) (*dto.MatchingStateResponse, error)
	GetMatchingState(ctx context.Context, reconciliationID, accountID string) (*dto.MatchingStateResponse, error)
}

// ReconciliationSvcFacade combines all reconciliation service interfaces
type ReconciliationSvcFacade interface {
	ReconciliationReaderSvc
	ReconciliationWorkflowSvc
	ReconciliationMatchingSvc
}

package services

import (
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// A nil locker keeps auto-match locking in-process.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, locker portssvc.Locker) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	sequence := NewSequenceGenerator(repos.SequenceRepo)
	auditSink := NewRepositoryAuditSink(repos.AuditRepo)

	container.Journal = NewJournalService(
		repos.AccountRepo,
		repos.JournalRepo,
		sequence,
		WithJournalAuditSink(auditSink, cfg.AuditMaxRetries),
		WithJournalTimeout(cfg.OperationTimeout),
	)

	// Balance service is shared by reconciliation for opening balances and movement
	container.Balance = NewBalanceService(
		repos.AccountRepo,
		repos.BalanceRepo,
		repos.JournalRepo,
		WithBalanceTimeout(cfg.OperationTimeout),
	)

	container.Reconciliation = NewReconciliationService(
		repos.AccountRepo,
		repos.ReconciliationRepo,
		repos.JournalRepo,
		container.Balance,
		sequence,
		WithTolerance(cfg.ReconciliationTolerance),
		WithMatchDateWindow(cfg.MatchDateWindowDays),
		WithMatchSuggestionThreshold(cfg.MatchSuggestionThreshold),
		WithLocker(locker, DefaultMatchLockTTL),
		WithReconciliationAuditSink(auditSink, cfg.AuditMaxRetries),
		WithReconciliationTimeout(cfg.OperationTimeout),
	)

	return container
}

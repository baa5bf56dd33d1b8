package pgsql

import (
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:        newPgxAccountRepository(dbPool),
		JournalRepo:        newPgxJournalRepository(dbPool),
		BalanceRepo:        newPgxBalanceRepository(dbPool),
		ReconciliationRepo: newPgxReconciliationRepository(dbPool),
		SequenceRepo:       newPgxSequenceRepository(dbPool),
		AuditRepo:          newPgxAuditRepository(dbPool),
	}
}

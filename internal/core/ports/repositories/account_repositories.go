package repositories

import (
	"context"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
)

// AccountReader defines read operations for account data. Accounts are
// maintained outside this service, so there is no writer.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing ids
	// are simply absent from the returned map.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
}

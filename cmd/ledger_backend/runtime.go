package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/SscSPs/ledger_recon/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_recon/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_recon/internal/core/ports/services"
	"github.com/SscSPs/ledger_recon/internal/core/services"
	"github.com/SscSPs/ledger_recon/internal/platform/config"
	"github.com/SscSPs/ledger_recon/internal/platform/lock"
	"github.com/SscSPs/ledger_recon/internal/repositories/database/pgsql"
	"github.com/SscSPs/ledger_recon/internal/repositories/memory"
	"github.com/SscSPs/ledger_recon/pkg/database"
)

// runtime is the wired application: services plus the shared clients
// whose lifetime ends with the process.
type runtime struct {
	services *portssvc.ServiceContainer
	redis    *redis.Client
	closers  []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime connects the configured store and optional Redis server and
// assembles the service container. accountsFile seeds the memory store.
func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, accountsFile string) (*runtime, error) {
	rt := &runtime{}

	var repos portsrepo.RepositoryProvider
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		if accountsFile != "" {
			n, err := seedAccounts(store, accountsFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Seeded accounts", slog.Int("count", n), slog.String("file", accountsFile))
		}
		repos = store.Provider()
	default:
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		rt.closers = append(rt.closers, func() { database.ClosePgxPool(dbPool) })
		logger.Info("Database connection pool established.")
		repos = pgsql.NewRepositoryProvider(dbPool)
	}

	var locker portssvc.Locker
	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(cfg.RedisURL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			rt.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		rt.redis = client
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		locker = lock.NewRedisLocker(client)
		logger.Info("Using redis for auto-match locks")
	}

	rt.services = services.NewServiceContainer(cfg, repos, locker)
	return rt, nil
}

type accountSeed struct {
	AccountID   string             `json:"accountID"`
	Name        string             `json:"name"`
	AccountType domain.AccountType `json:"accountType"`
	IsActive    *bool              `json:"isActive"`
}

// seedAccounts loads a JSON array of accounts into store. Accounts are
// active unless isActive is false.
func seedAccounts(store *memory.Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read accounts file: %w", err)
	}
	var seeds []accountSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("failed to parse accounts file: %w", err)
	}
	for i, s := range seeds {
		if s.AccountID == "" || !s.AccountType.IsValid() {
			return 0, fmt.Errorf("accounts[%d]: accountID and a valid accountType are required", i)
		}
		store.AddAccount(domain.Account{
			AccountID:   s.AccountID,
			Name:        s.Name,
			AccountType: s.AccountType,
			IsActive:    s.IsActive == nil || *s.IsActive,
		})
	}
	return len(seeds), nil
}

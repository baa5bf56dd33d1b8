package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/SscSPs/ledger_recon/internal/handlers"
	"github.com/SscSPs/ledger_recon/internal/middleware"
	"github.com/SscSPs/ledger_recon/internal/platform/config"
)

func serveCommand(a *app) *cobra.Command {
	var (
		runMigrate   bool
		accountsFile string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if runMigrate && a.cfg.StoreDriver == config.StoreDriverPostgres {
				if err := runMigrations(a.cfg, a.logger, true); err != nil {
					return err
				}
			}
			return serve(ctx, a.cfg, a.logger, accountsFile)
		},
	}
	cmd.Flags().BoolVar(&runMigrate, "migrate", true, "apply pending migrations before serving")
	cmd.Flags().StringVar(&accountsFile, "accounts", "", "JSON file of accounts to seed (memory store only)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, accountsFile string) error {
	rt, err := buildRuntime(ctx, cfg, logger, accountsFile)
	if err != nil {
		return err
	}
	defer rt.Close()

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit, rt.redis)
	if err != nil {
		return err
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	handlers.RegisterRoutes(r, cfg, rt.services, rateLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed to run: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

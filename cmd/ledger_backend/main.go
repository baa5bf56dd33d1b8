package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/ledger_recon/internal/platform/config"
)

// app carries what every command needs once config is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ledger_backend",
		Short:         "Double-entry ledger with period reconciliation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize structured logger
			a.logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(a.logger)

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	root.AddCommand(serveCommand(a))
	root.AddCommand(migrateCommand(a))
	root.AddCommand(importFeedCommand(a))
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("Command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

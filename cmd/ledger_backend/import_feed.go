package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/ledger_recon/internal/dto"
	"github.com/SscSPs/ledger_recon/internal/feed"
)

func importFeedCommand(a *app) *cobra.Command {
	var (
		reconciliationID string
		accountID        string
		file             string
		format           string
		actorID          string
	)
	cmd := &cobra.Command{
		Use:   "import-feed",
		Short: "Import an external statement file into a reconciliation account",
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := feed.ForFile(file)
			if format != "" {
				parser, err = feed.ForFormat(format)
			}
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open statement: %w", err)
			}
			defer f.Close()

			rows, err := parser.Parse(f)
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd.Context(), a.cfg, a.logger, "")
			if err != nil {
				return err
			}
			defer rt.Close()

			resp, err := rt.services.Reconciliation.ImportExternalTransactions(cmd.Context(), reconciliationID, accountID,
				dto.ImportExternalTransactionsRequest{Transactions: rows}, actorID)
			if err != nil {
				return err
			}
			a.logger.Info("Statement imported",
				slog.String("reconciliation_id", reconciliationID),
				slog.String("account_id", accountID),
				slog.Int("rows", len(rows)),
				slog.Int("stored", resp.Loaded),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d of %d rows\n", resp.Loaded, len(rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&reconciliationID, "reconciliation", "", "reconciliation id")
	cmd.Flags().StringVar(&accountID, "account", "", "account id inside the reconciliation")
	cmd.Flags().StringVar(&file, "file", "", "statement file (.csv or .json)")
	cmd.Flags().StringVar(&format, "format", "", "override the format implied by the file extension")
	cmd.Flags().StringVar(&actorID, "actor", "", "user id recorded as the importer")
	for _, name := range []string{"reconciliation", "account", "file", "actor"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

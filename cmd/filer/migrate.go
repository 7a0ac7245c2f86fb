package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Squareczm/DocumentationTool/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run ledger migrations",
		Long: `Initialize or update the ledger schema to the latest version.

The ledger keeps the version history of every filed document and the
placement history of every run.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := settings.KnowledgeBase.LedgerPath

	slog.Info("Starting ledger migration", "ledger", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer closeStore(store)

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		slog.Info("Ledger schema status",
			"ledger", dbPath,
			"current", current,
			"latest", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			slog.Warn("Ledger needs migration, run filer migrate")
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Ledger migrations completed",
		"from", current,
		"to", storage.ExpectedSchemaVersion)
	return nil
}

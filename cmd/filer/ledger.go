package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/storage"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger [subject]",
		Short: "List recorded document versions",
		Long: `List the versions recorded in the ledger, oldest first. With a subject only
that subject's versions are shown. --placements shows the most recent
placement attempts instead, including failures.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLedger,
	}

	cmd.Flags().Bool("placements", false, "Show recent placement history instead of versions")
	cmd.Flags().IntP("limit", "n", 20, "Number of placements to show")

	return cmd
}

func runLedger(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	placements, _ := cmd.Flags().GetBool("placements")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return common.NewUserError("--limit must be positive", fmt.Errorf("got %d", limit))
	}

	store, err := storage.NewSQLiteStorage(settings.KnowledgeBase.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer closeStore(store)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s := styler()
	out := cmd.OutOrStdout()

	if placements {
		records, err := store.RecentPlacements(ctx, limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(out, s.Subtle("No placements recorded yet"))
			return nil
		}
		fmt.Fprintln(out, s.Placements(records))
		return nil
	}

	var subject string
	if len(args) > 0 {
		subject = args[0]
	}
	records, err := store.History(ctx, subject)
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("no versions recorded for %q", subject), err)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, s.Subtle("No versions recorded yet"))
		return nil
	}
	fmt.Fprintln(out, s.Ledger(records))
	return nil
}

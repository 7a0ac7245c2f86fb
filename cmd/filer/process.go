package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Squareczm/DocumentationTool/internal/cli"
	"github.com/Squareczm/DocumentationTool/internal/engine"
	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/structure"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [dir]",
		Short: "File every document in the inbox",
		Long: `Process every supported document in the inbox once. Each document is
classified, given a folder and a versioned filename, and moved into the
knowledge base. structure.md is regenerated afterwards.

Examples:
  filer process                 # Process the configured inbox
  filer process ~/Downloads     # Process another directory
  filer process --dry-run       # Show where documents would go`,
		Args: cobra.MaximumNArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().Bool("dry-run", false, "Preview placements without moving files or touching the ledger")
	cmd.Flags().IntP("workers", "w", 0, "Number of documents processed concurrently (0 = config)")
	cmd.Flags().Bool("no-llm", false, "Skip the semantic labeler")
	cmd.Flags().BoolP("verbose", "v", false, "List every document in the summary")

	_ = viper.BindPFlag("output.verbose", cmd.Flags().Lookup("verbose"))

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	workers, _ := cmd.Flags().GetInt("workers")
	noLLM, _ := cmd.Flags().GetBool("no-llm")
	verbose := viper.GetBool("output.verbose")

	dir := inboxDir(args)
	if err := checkInbox(dir); err != nil {
		return err
	}

	w, err := buildEngine(ctx, engineOptions{workers: workers, dryRun: dryRun, noLLM: noLLM})
	if err != nil {
		return err
	}
	defer w.Close()

	paths, err := engine.CollectInbox(dir, inboxFilter(w.provider))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		slog.Info("Inbox is empty", "inbox", dir)
		return nil
	}

	slog.Info("Processing inbox", "inbox", dir, "documents", len(paths), "dry_run", dryRun)

	out := cmd.OutOrStdout()
	progress := cli.NewProgress(cmd.ErrOrStderr(), len(paths), settings.Output.ColoredOutput)
	summary, outcomes := w.engine.ProcessBatch(ctx, paths, progress.Observe)
	progress.Finish()

	s := styler()
	fmt.Fprintln(out, s.Summary(summary, outcomes, verbose || dryRun))

	if ctx.Err() != nil {
		fmt.Fprintln(out, s.Warning(fmt.Sprintf("Interrupted: %d of %d documents were not started", unstarted(outcomes), len(paths))))
	}

	if !dryRun && summary.Placed > 0 {
		path, err := structure.Write(settings.KnowledgeBase.RootPath, w.rules, settings.KnowledgeBase.StructureDepth, time.Now())
		if err != nil {
			slog.Warn("Failed to update structure report", "error", err)
		} else {
			slog.Debug("Updated structure report", "path", path)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Total)
	}
	return nil
}

func unstarted(outcomes []model.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == model.OutcomeSkipped && errors.Is(o.Err, context.Canceled) {
			n++
		}
	}
	return n
}

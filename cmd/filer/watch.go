package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Squareczm/DocumentationTool/internal/engine"
	"github.com/Squareczm/DocumentationTool/internal/metrics"
	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/structure"
	"github.com/Squareczm/DocumentationTool/internal/watch"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "File documents as they arrive in the inbox",
		Long: `Watch the inbox and file each new document once it has stopped changing.
Documents already in the inbox are processed first. Press Ctrl+C to stop;
the document being filed at that moment is finished first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	cmd.Flags().Bool("no-llm", false, "Skip the semantic labeler")
	cmd.Flags().Bool("skip-existing", false, "Do not process documents already in the inbox")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noLLM, _ := cmd.Flags().GetBool("no-llm")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		addr = settings.Metrics.Addr
	}

	collector := metrics.NewCollector()
	w, err := buildEngine(ctx, engineOptions{noLLM: noLLM, recorder: collector})
	if err != nil {
		return err
	}
	defer w.Close()

	dir := inboxDir(args)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}
	filter := inboxFilter(w.provider)
	if err := filter.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := styler()
	handle := func(ctx context.Context, path string) {
		o := w.engine.ProcessOne(ctx, path)
		fmt.Fprintln(out, s.Outcome(o))
		if o.Status == model.OutcomePlaced {
			if _, err := structure.Write(settings.KnowledgeBase.RootPath, w.rules, settings.KnowledgeBase.StructureDepth, time.Now()); err != nil {
				slog.Warn("Failed to update structure report", "error", err)
			}
		}
	}

	if !skipExisting {
		paths, err := engine.CollectInbox(dir, filter)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if ctx.Err() != nil {
				return nil
			}
			handle(context.WithoutCancel(ctx), p)
		}
	}

	watcher, err := watch.New(watch.Config{
		Dir:      dir,
		Filter:   filter.Match,
		Debounce: settings.FileProcessing.Debounce,
		Logger:   slog.Default(),
	}, handle)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if addr != "" {
		g.Go(func() error {
			return collector.Serve(gctx, addr, slog.Default())
		})
	}
	g.Go(func() error {
		return watcher.Run(gctx)
	})

	fmt.Fprintln(out, s.Title(fmt.Sprintf("Watching %s (Ctrl+C to stop)", dir)))
	return g.Wait()
}

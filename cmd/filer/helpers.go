package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Squareczm/DocumentationTool/internal/classification"
	"github.com/Squareczm/DocumentationTool/internal/cli"
	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/engine"
	"github.com/Squareczm/DocumentationTool/internal/extract"
	"github.com/Squareczm/DocumentationTool/internal/folder"
	"github.com/Squareczm/DocumentationTool/internal/llm"
	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/mover"
	"github.com/Squareczm/DocumentationTool/internal/naming"
	"github.com/Squareczm/DocumentationTool/internal/ruleset"
	"github.com/Squareczm/DocumentationTool/internal/service"
	"github.com/Squareczm/DocumentationTool/internal/storage"
	"github.com/Squareczm/DocumentationTool/internal/templates"
)

// initStorage opens the ledger, applies migrations and refuses a ledger
// written in another version format.
func initStorage(ctx context.Context, format model.VersionFormat) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.KnowledgeBase.LedgerPath, storage.WithVersionFormat(format))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		closeStore(store)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := store.CheckVersionFormat(ctx, format); err != nil {
		closeStore(store)
		return nil, err
	}
	return store, nil
}

func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close ledger", "error", err)
	}
}

func loadRules() (*ruleset.RuleSet, error) {
	rules, err := ruleset.LoadOrDefault(settings.KnowledgeBase.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load classification rules: %w", err)
	}
	return rules, nil
}

func loadTemplates() (*templates.Set, error) {
	set, err := templates.LoadOrDefault(settings.KnowledgeBase.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load folder templates: %w", err)
	}
	return set, nil
}

func styler() cli.Styler {
	return cli.NewStyler(settings.Output.ColoredOutput)
}

func newProvider() *extract.FileProvider {
	return extract.NewFileProvider(extract.WithMaxContentChars(settings.FileProcessing.MaxContentChars))
}

func inboxFilter(provider *extract.FileProvider) engine.InboxFilter {
	allowed := make(map[string]bool, len(settings.FileProcessing.SupportedExtensions))
	for _, ext := range settings.FileProcessing.SupportedExtensions {
		allowed[ext] = true
	}
	return engine.InboxFilter{
		Supports: func(ext string) bool {
			return allowed[ext] && provider.Supports(ext)
		},
		Include: settings.FileProcessing.Include,
		Exclude: settings.FileProcessing.Exclude,
	}
}

type engineOptions struct {
	recorder engine.Recorder
	workers  int
	dryRun   bool
	noLLM    bool
}

// wiring is a built engine plus what the commands need around it.
type wiring struct {
	engine   *engine.Engine
	rules    *ruleset.RuleSet
	provider *extract.FileProvider
	dryRun   *mover.DryRun
	closers  []func()
}

func (w *wiring) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

// buildEngine wires every component from the loaded settings. A dry run keeps
// versions in memory and records placements instead of moving files.
func buildEngine(ctx context.Context, opts engineOptions) (*wiring, error) {
	namingCfg, err := settings.Naming()
	if err != nil {
		return nil, err
	}
	rules, err := loadRules()
	if err != nil {
		return nil, err
	}
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	w := &wiring{rules: rules, provider: newProvider()}
	logger := slog.Default()

	index := folder.NewIndex(settings.KnowledgeBase.RootPath, 0)
	deps := engine.Deps{
		Provider:   w.provider,
		Classifier: classification.New(rules),
		Resolver:   folder.NewResolver(rules, tmpl, settings.KnowledgeBase.MaxFolderDepth),
		Index:      index,
		Recorder:   opts.recorder,
		Logger:     logger,
	}

	var ledger service.VersionLedger
	if opts.dryRun {
		ledger = naming.NewMemoryLedger(namingCfg.Format)
		w.dryRun = &mover.DryRun{}
		deps.Mover = w.dryRun
	} else {
		if err := index.EnsureRoot(); err != nil {
			return nil, fmt.Errorf("failed to create knowledge base root: %w", err)
		}
		store, err := initStorage(ctx, namingCfg.Format)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, func() { closeStore(store) })
		ledger = store
		deps.Storage = store
		deps.Mover = mover.New(
			mover.WithArchiveDir(settings.FileProcessing.ProcessedDir),
			mover.WithLogger(logger),
		)
	}

	deps.Namer, err = naming.New(namingCfg, ledger, naming.WithExistingFiles(func(f string) []string {
		return listFiles(index.OSPath(f))
	}))
	if err != nil {
		w.Close()
		return nil, err
	}

	if settings.LabelerEnabled() && !opts.noLLM {
		client, err := llm.NewClient(ctx, settings.Labeler())
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to create labeler client: %w", err)
		}
		labeler := llm.NewLabeler(client, settings.Labeler(), logger)
		w.closers = append(w.closers, labeler.Close)
		deps.Labeler = labeler
	}

	workers := settings.FileProcessing.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	w.engine, err = engine.New(engine.Config{
		FallbackSubject:    settings.Defaults.FallbackSubject,
		RefreshPolicy:      folder.RefreshPolicy(settings.KnowledgeBase.RefreshPolicy),
		Workers:            workers,
		LabelerConcurrency: settings.LLM.Concurrency,
	}, deps)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.engine.Refresh(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func listFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names
}

func inboxDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return settings.FileProcessing.Inbox
}

var errNotAFile = errors.New("not a regular file")

// checkInbox reports a user error when dir is not an existing directory.
func checkInbox(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", dir)
	}
	if err != nil {
		return common.NewUserError("inbox is not readable", err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

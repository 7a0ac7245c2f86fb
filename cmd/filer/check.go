package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Squareczm/DocumentationTool/internal/cli"
	"github.com/Squareczm/DocumentationTool/internal/llm"
	"github.com/Squareczm/DocumentationTool/internal/storage"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configuration, rule files, knowledge base and ledger",
		Long: `Run the same checks filer performs at startup and report each one.
Exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	checks := []cli.Check{configCheck()}
	checks = append(checks, rulesCheck(), templatesCheck())
	checks = append(checks, rootCheck(settings.KnowledgeBase.RootPath))
	checks = append(checks, inboxCheck())
	checks = append(checks, ledgerCheck(ctx))
	checks = append(checks, labelerCheck(ctx))

	fmt.Fprintln(cmd.OutOrStdout(), styler().Checks(checks))

	failed := 0
	for _, c := range checks {
		if !c.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

func configCheck() cli.Check {
	if used := viper.ConfigFileUsed(); used != "" {
		return cli.Check{Name: "config", OK: true, Detail: used}
	}
	return cli.Check{Name: "config", OK: true, Warn: true, Detail: "no config file, using defaults"}
}

func rulesCheck() cli.Check {
	rules, err := loadRules()
	if err != nil {
		return cli.Check{Name: "rules", Detail: err.Error()}
	}
	detail := fmt.Sprintf("%d rules", rules.Len())
	if !fileExists(settings.KnowledgeBase.RulesFile) {
		return cli.Check{Name: "rules", OK: true, Warn: true, Detail: detail + " (built-in, " + settings.KnowledgeBase.RulesFile + " not found)"}
	}
	return cli.Check{Name: "rules", OK: true, Detail: detail + " from " + settings.KnowledgeBase.RulesFile}
}

func templatesCheck() cli.Check {
	if _, err := loadTemplates(); err != nil {
		return cli.Check{Name: "templates", Detail: err.Error()}
	}
	if !fileExists(settings.KnowledgeBase.TemplatesFile) {
		return cli.Check{Name: "templates", OK: true, Warn: true, Detail: "built-in, " + settings.KnowledgeBase.TemplatesFile + " not found"}
	}
	return cli.Check{Name: "templates", OK: true, Detail: settings.KnowledgeBase.TemplatesFile}
}

// rootCheck verifies the knowledge base root can be created and written.
func rootCheck(root string) cli.Check {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return cli.Check{Name: "knowledge base", Detail: err.Error()}
	}
	probe, err := os.CreateTemp(root, ".filer-check-*")
	if err != nil {
		return cli.Check{Name: "knowledge base", Detail: "not writable: " + err.Error()}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	entries, err := os.ReadDir(root)
	if err != nil {
		return cli.Check{Name: "knowledge base", Detail: err.Error()}
	}
	folders := 0
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			folders++
		}
	}
	return cli.Check{Name: "knowledge base", OK: true, Detail: fmt.Sprintf("%s (%d top-level folders)", root, folders)}
}

func inboxCheck() cli.Check {
	filter := inboxFilter(newProvider())
	if err := filter.Validate(); err != nil {
		return cli.Check{Name: "inbox", Detail: err.Error()}
	}
	dir := settings.FileProcessing.Inbox
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return cli.Check{Name: "inbox", OK: true, Warn: true, Detail: dir + " does not exist yet"}
	case err != nil:
		return cli.Check{Name: "inbox", Detail: err.Error()}
	case !info.IsDir():
		return cli.Check{Name: "inbox", Detail: dir + " is not a directory"}
	}
	return cli.Check{Name: "inbox", OK: true, Detail: fmt.Sprintf("%s (%s)", dir, strings.Join(settings.FileProcessing.SupportedExtensions, " "))}
}

func ledgerCheck(ctx context.Context) cli.Check {
	cfg, err := settings.Naming()
	if err != nil {
		return cli.Check{Name: "ledger", Detail: err.Error()}
	}
	path := settings.KnowledgeBase.LedgerPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cli.Check{Name: "ledger", OK: true, Warn: true, Detail: path + " will be created on first run"}
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return cli.Check{Name: "ledger", Detail: err.Error()}
	}
	defer closeStore(store)

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return cli.Check{Name: "ledger", Detail: err.Error()}
	}
	if current < storage.ExpectedSchemaVersion {
		return cli.Check{Name: "ledger", OK: true, Warn: true,
			Detail: fmt.Sprintf("schema %d, latest %d; run filer migrate", current, storage.ExpectedSchemaVersion)}
	}
	if err := store.CheckVersionFormat(ctx, cfg.Format); err != nil {
		return cli.Check{Name: "ledger", Detail: err.Error()}
	}
	return cli.Check{Name: "ledger", OK: true, Detail: fmt.Sprintf("%s (%s versions)", filepath.Base(path), cfg.Format)}
}

func labelerCheck(ctx context.Context) cli.Check {
	if !settings.LabelerEnabled() {
		return cli.Check{Name: "labeler", OK: true, Warn: true,
			Detail: "disabled, set llm.provider (" + strings.Join(llm.Providers, ", ") + ") and llm.api_key"}
	}
	if _, err := llm.NewClient(ctx, settings.Labeler()); err != nil {
		return cli.Check{Name: "labeler", Detail: err.Error()}
	}
	detail := settings.LLM.Provider
	if settings.LLM.Model != "" {
		detail += " " + settings.LLM.Model
	}
	return cli.Check{Name: "labeler", OK: true, Detail: detail}
}

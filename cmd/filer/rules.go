package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List classification rules by priority",
		Args:  cobra.NoArgs,
		RunE:  runRules,
	}
}

func runRules(cmd *cobra.Command, _ []string) error {
	rules, err := loadRules()
	if err != nil {
		return err
	}

	s := styler()
	out := cmd.OutOrStdout()
	source := settings.KnowledgeBase.RulesFile
	if !fileExists(source) {
		source = "built-in defaults"
	}
	fmt.Fprintln(out, s.Subtle(fmt.Sprintf("%d rules from %s", rules.Len(), source)))
	fmt.Fprintln(out, s.Rules(rules.Rules()))

	if fallbacks := rules.FallbackFolders(); len(fallbacks) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, s.Subtle("Fallback folders: "+strings.Join(fallbacks, ", ")))
	}
	return nil
}

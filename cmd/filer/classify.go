package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Squareczm/DocumentationTool/internal/common"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Show how a document would be classified",
		Long: `Extract and classify a single document and print the winning category,
its tier and the score of every category. Nothing is moved and the ledger
is not touched.`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().Bool("no-llm", false, "Skip the semantic labeler")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noLLM, _ := cmd.Flags().GetBool("no-llm")
	if !fileExists(args[0]) {
		return common.NewUserError(fmt.Sprintf("cannot classify %s", args[0]), errNotAFile)
	}

	w, err := buildEngine(ctx, engineOptions{dryRun: true, noLLM: noLLM})
	if err != nil {
		return err
	}
	defer w.Close()

	doc, result, hint, err := w.engine.Classify(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to classify %s: %w", args[0], err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), styler().Classification(doc, result, hint))
	return nil
}

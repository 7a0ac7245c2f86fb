package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Squareczm/DocumentationTool/internal/structure"
)

func structureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Regenerate structure.md in the knowledge base root",
		Args:  cobra.NoArgs,
		RunE:  runStructure,
	}

	cmd.Flags().Int("depth", 0, "Tree depth (0 = knowledge_base.structure_depth)")

	return cmd
}

func runStructure(cmd *cobra.Command, _ []string) error {
	depth, _ := cmd.Flags().GetInt("depth")
	if depth <= 0 {
		depth = settings.KnowledgeBase.StructureDepth
	}

	rules, err := loadRules()
	if err != nil {
		return err
	}

	path, err := structure.Write(settings.KnowledgeBase.RootPath, rules, depth, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), styler().Success("Wrote "+path))
	return nil
}

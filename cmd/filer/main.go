// Package main contains the filer CLI commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/config"
)

var (
	cfgFile  string
	settings *config.Settings
	version  = "dev"
	rootCmd  = newRootCmd()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filer",
		Short: "📁 Classify documents and file them into a knowledge base",
		Long: `filer reads documents from an inbox, decides which category they belong to,
resolves a folder inside the knowledge base and gives each one a dated,
versioned filename before moving it there.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/filer/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	cmd.PersistentFlags().String("kb", "", "knowledge base root (overrides knowledge_base.root_path)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))

	cmd.AddCommand(processCmd())
	cmd.AddCommand(watchCmd())
	cmd.AddCommand(classifyCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(rulesCmd())
	cmd.AddCommand(ledgerCmd())
	cmd.AddCommand(structureCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, finishing documents in flight...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for mistakes in the invocation and 1 for everything else.
func exitCode(err error) int {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return 2
	}
	return 1
}

func initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()
	config.SetDefaults(v)
	if err := config.BindEnv(v); err != nil {
		return fmt.Errorf("failed to bind environment: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "filer"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if kb, _ := cmd.Flags().GetString("kb"); kb != "" {
		v.Set("knowledge_base.root_path", kb)
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		v.Set("output.colored_output", false)
	}

	if err := setupLogging(v); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	s, err := config.Load(v)
	if err != nil {
		return err
	}
	relocate(s, v.ConfigFileUsed())
	settings = s

	slog.Debug("Loaded configuration",
		"config", v.ConfigFileUsed(),
		"root", s.KnowledgeBase.RootPath,
		"ledger", s.KnowledgeBase.LedgerPath)
	return nil
}

func setupLogging(v *viper.Viper) error {
	return common.SetupLogger(v.GetString("logging.level"), v.GetString("logging.format"))
}

// relocate resolves the rule and template files relative to the config file
// that named them.
func relocate(s *config.Settings, configFile string) {
	if configFile == "" {
		return
	}
	base := filepath.Dir(configFile)
	s.KnowledgeBase.RulesFile = config.ResolveFrom(base, s.KnowledgeBase.RulesFile)
	s.KnowledgeBase.TemplatesFile = config.ResolveFrom(base, s.KnowledgeBase.TemplatesFile)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "filer", version)
		},
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dialogkeep/dialogkeep/internal/config"
	"github.com/dialogkeep/dialogkeep/internal/manager"
	"github.com/dialogkeep/dialogkeep/internal/store"
)

var (
	cfgFile string
	dirFlag string

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "dialogkeep",
		Short: "Save and load conversation history over MCP",
		Long: "dialogkeep stores dialogs as individual JSON files and exposes them to MCP\n" +
			"clients as tools and resources. Running it with no subcommand starts the\n" +
			"MCP server on stdio.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/dialogkeep/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "storage directory (default ~/Documents/saved_dialogs)")

	// Subcommands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if dirFlag != "" {
		cfg.StorageDir = dirFlag
	}

	return cfg
}

// buildManager creates the dialog manager over the configured storage root.
func buildManager() (*manager.Manager, *config.Config, error) {
	cfg := initConfig()
	st, err := store.New(cfg.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage %s: %w", cfg.StorageDir, err)
	}
	return manager.New(st), cfg, nil
}

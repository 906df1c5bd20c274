package main

import (
	"fmt"
	"os"

	"github.com/keyvigil/keyvigil/cmd/keyvigil/commands"
	"github.com/keyvigil/keyvigil/internal/config"
	"github.com/keyvigil/keyvigil/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "keyvigil",
		Short: "Credential rotation engine - rotate expiring secrets automatically",
		Long: `keyvigil tracks a credential inventory, finds credentials nearing
expiry and rotates them in the backing secret store: IAM access keys,
database and SMTP passwords, and API tokens.

Every write is re-read and verified before a rotation counts as done;
every attempt leaves an audit record.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "keyvigil.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewRotateCommand(cfg),
		commands.NewStatusCommand(cfg),
		commands.NewHistoryCommand(cfg),
	)

	return rootCmd.Execute()
}

// Package commands defines all Cobra CLI commands for the journal binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/audit"
	"github.com/Badar25/Journal-backend/internal/config"
	"github.com/Badar25/Journal-backend/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "journal",
		Short: "Journal: private entries with grounded chat and summaries",
		Long: `Journal stores short user-authored entries, indexes them as embeddings
and answers questions about them with a retrieve-and-rerank pipeline
feeding a generative model.

Providers and storage are selected through environment variables, a
.env file or a YAML config file (~/.journal/config.yaml).
See 'journal --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Env vars always override .env and YAML values.
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.journal/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewSearchCmd(),
		NewAskCmd(),
		NewSummaryCmd(),
		NewImportCmd(),
		NewSweepCmd(),
		NewVersionCmd(),
	)

	return root
}

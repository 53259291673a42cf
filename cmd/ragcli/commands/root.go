// Package commands defines the Cobra CLI command tree for the ragcli binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/offlinerag/ragcore/internal/app"
	"github.com/offlinerag/ragcore/internal/config"
	"github.com/offlinerag/ragcore/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// current holds the App wired during PersistentPreRunE, available to every
// subcommand's RunE.
var current *app.App

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragcli",
		Short: "ragcli — a local-first retrieval-augmented question answering engine",
		Long: `ragcli ingests local documents, embeds and indexes them, and answers
questions grounded in that corpus using a locally hosted model. No document
content ever leaves the machine: embedding and generation both run against a
local Ollama daemon on loopback.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			log := logging.NewDefault()
			cfg, _, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			log = logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ragcore/config.yaml)")

	root.AddCommand(
		NewIngestCmd(),
		NewAskCmd(),
		NewReindexCmd(),
		NewExportCmd(),
		NewImportCmd(),
		NewClearCmd(),
		NewServeCmd(),
		NewWatchCmd(),
		NewLoadGeneratorCmd(),
		NewVersionCmd(),
	)

	return root
}

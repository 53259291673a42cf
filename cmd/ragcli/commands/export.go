package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCmd constructs the `ragcli export` command.
func NewExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Export the corpus (documents and chunk text, embeddings stripped) as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := current.Reindexer.Export(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("export: marshal: %w", err)
			}
			if err := os.WriteFile(args[0], raw, 0o600); err != nil {
				return fmt.Errorf("export: write %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d documents, %d chunks to %s\n", len(payload.Docs), len(payload.Chunks), args[0])
			return nil
		},
	}
}

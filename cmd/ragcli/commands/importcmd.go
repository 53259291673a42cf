package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewImportCmd constructs the `ragcli import` command.
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [path]",
		Short: "Replace the corpus with an exported JSON payload (run reindex afterward)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("import: read %s: %w", args[0], err)
			}
			if err := current.Reindexer.Import(cmd.Context(), raw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "import complete; run 'ragcli reindex' to compute embeddings")
			return nil
		},
	}
}

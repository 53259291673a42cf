package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReindexCmd constructs the `ragcli reindex` command.
func NewReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Re-embed every chunk in the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.Reindexer.ReindexAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reindex complete")
			return nil
		},
	}
}

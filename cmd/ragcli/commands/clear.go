package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClearCmd constructs the `ragcli clear` command.
func NewClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every document and chunk from the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.Reindexer.Import(cmd.Context(), []byte(`{"docs":[],"chunks":[]}`)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "corpus cleared")
			return nil
		},
	}
}

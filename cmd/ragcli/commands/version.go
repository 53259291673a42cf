package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X ...commands.version=...".
var version = "dev"

// NewVersionCmd constructs the `ragcli version` command. It is the one
// command PersistentPreRunE skips app wiring for, since printing a version
// string needs no store, embedder, or generator.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ragcli version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

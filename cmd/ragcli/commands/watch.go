package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinerag/ragcore/internal/adapters/watcher"
)

// NewWatchCmd constructs the `ragcli watch` command, which ingests files
// dropped into a directory as they appear.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and ingest new or modified documents automatically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := watcher.New(current.Ingestor, current.Log, nil)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (ctrl-c to stop)\n", args[0])
			return w.Watch(cmd.Context(), args[0])
		},
	}
}

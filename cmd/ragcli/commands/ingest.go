package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewIngestCmd constructs the `ragcli ingest` command.
func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest one or more documents into the corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			results := current.Ingestor.IngestFiles(ctx, args)

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					current.Log.Error("ingest failed", slog.String("path", r.Path), slog.Any("error", r.Err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ingested %s (doc %s)\n", r.Path, r.DocID)
			}
			if failed == len(results) && failed > 0 {
				return fmt.Errorf("ingest: all %d files failed", failed)
			}
			return nil
		},
	}
}

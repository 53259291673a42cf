package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/offlinerag/ragcore/internal/httpapi"
)

// NewServeCmd constructs the `ragcli serve` command, which exposes the
// ingestion, QA, and reindex usecases over HTTP for a presentation shell.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := httpapi.New(
				current.Ingestor,
				current.Asker,
				current.Reindexer,
				current.Embedder,
				current.Generator,
				current.Index,
				current.Bus,
				current.Log,
			)

			addr := current.Config.Server.Addr
			current.Log.Info("serve: listening", "addr", addr)
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
			return http.ListenAndServe(addr, server)
		},
	}
}

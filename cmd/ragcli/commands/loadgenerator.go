package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinerag/ragcore/internal/domain/ports"
)

// NewLoadGeneratorCmd constructs the `ragcli load-generator` command, which
// explicitly pulls and warms the generative model. Unlike the embedder, the
// generator never auto-loads.
func NewLoadGeneratorCmd() *cobra.Command {
	var modelID string

	cmd := &cobra.Command{
		Use:   "load-generator",
		Short: "Pull and warm the generative model, requiring GPU residency",
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelID == "" {
				modelID = current.Config.Ollama.GenerateModel
			}
			out := cmd.OutOrStdout()
			err := current.Generator.Load(cmd.Context(), modelID, func(p ports.ProgressEvent) {
				fmt.Fprintf(out, "\r%-40s %5.1f%%", p.Text, p.Progress*100)
			})
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "generator ready: %s\n", modelID)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelID, "model", "", "model to load (default: configured generate model)")
	return cmd
}

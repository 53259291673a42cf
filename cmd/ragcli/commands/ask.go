package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinerag/ragcore/internal/events"
)

// NewAskCmd constructs the `ragcli ask` command, which sends a single
// question to the QA pipeline and streams the grounded answer to stdout.
func NewAskCmd() *cobra.Command {
	var strict bool
	var showContext bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question grounded in the ingested corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := args[0]
			for _, a := range args[1:] {
				question += " " + a
			}

			out := cmd.OutOrStdout()
			ch, unsubscribe := current.Bus.Subscribe()
			defer unsubscribe()

			done := make(chan struct{})
			go func() {
				defer close(done)
				for e := range ch {
					if e.Kind == events.KindMessageDelta {
						fmt.Fprint(out, e.Delta)
					}
				}
			}()

			result, err := current.Asker.Ask(cmd.Context(), question, strict, showContext)
			unsubscribe()
			<-done
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			if result.Message.Meta != nil && result.Message.Meta.Warning != "" {
				fmt.Fprintln(out, result.Message.Meta.Warning)
			}
			if showContext && result.Message.Meta != nil {
				fmt.Fprintln(out, "\n--- context ---")
				for i, entry := range result.Message.Meta.Context {
					marker := " "
					if entry.Used {
						marker = "*"
					}
					fmt.Fprintf(out, "[%s] C%d (%s / p.%d) score=%.3f\n", marker, i+1, entry.Chunk.Chunk.DocName, entry.Chunk.Chunk.Page, entry.Chunk.Score)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "refuse to answer beyond the retrieved evidence")
	cmd.Flags().BoolVar(&showContext, "show-context", false, "print the retrieved chunks alongside the answer")
	return cmd
}

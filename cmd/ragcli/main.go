// Command ragcli is the entry point for the local-first retrieval-augmented
// question answering engine: ingestion, reindexing, ad-hoc questions, and
// the HTTP API all run through this one binary.
package main

import (
	"fmt"
	"os"

	"github.com/offlinerag/ragcore/cmd/ragcli/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

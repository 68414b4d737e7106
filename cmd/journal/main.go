// Command journal is the entry point for the journal service. It runs the
// HTTP API and offers CLI access to retrieval, chat, summaries, imports and
// the retention sweep.
package main

import (
	"fmt"
	"os"

	"github.com/Badar25/Journal-backend/cmd/journal/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

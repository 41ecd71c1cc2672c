package main

import (
	"fmt"
	"os"

	"github.com/quarterwave/ledgerstone/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands that already reported through the output formatter
		// return a bare exit code with no message.
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, "error:", msg)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

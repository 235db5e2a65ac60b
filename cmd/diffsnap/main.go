// Package main is the entry point for the diffsnap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/thoreinstein/diffsnap/cmd/diffsnap/commands"
	"github.com/thoreinstein/diffsnap/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if s := errors.Suggestion(err); s != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", s)
		}
		os.Exit(errors.ExitCode(err))
	}
}

// Package main is the entry point for the schedly CLI.
// schedly provides command-line access to schedly calendars and its
// streaming shop recommendations.
package main

import (
	"os"

	"github.com/schedly/schedly-cli/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main is the entry point for the widget-estimate CLI.
package main

import (
	"os"

	"widget-estimate/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

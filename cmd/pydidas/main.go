// Package main implements the pydidas command line interface for inspecting
// the plugin catalogue, validating and running stored workflows, and
// resolving result selections.
package main

import (
	"fmt"
	"os"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "pydidas"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			os.Exit(2)
		}
	}()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

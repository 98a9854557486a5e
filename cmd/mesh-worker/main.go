// Package main is the entry point for mesh-worker.
//
// mesh-worker registers stream-processing functions as Function resources in a
// Kubernetes namespace and reports the status and metrics of their instances.
//
// Commands: serve, render.
package main

import (
	"fmt"
	"os"

	"mesh-worker-go/cmd/mesh-worker/commands"
)

// Version information set at build time.
var version = "dev"

func main() {
	commands.SetVersion(version)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

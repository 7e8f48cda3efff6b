// Package main is the entry point for the sentinel log triage tool.
package main

import (
	"fmt"
	"os"

	"github.com/JGorski-cyber/event-sentinel/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

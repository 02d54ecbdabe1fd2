// Package main is the entry point for bidwatch.
package main

import (
	"os"

	"github.com/dmfarley/bidwatch/cmd/bidwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

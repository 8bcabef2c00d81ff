// Package main provides the entry point for the zen CLI.
package main

import (
	"os"

	"github.com/wrath-codes/zenith/cmd/zen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

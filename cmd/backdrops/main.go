// Package main provides the entry point for the backdrops CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/backdrops/cmd/backdrops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

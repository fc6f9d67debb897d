// Package main is the entry point for the ampliflow CLI.
package main

import (
	"os"

	"github.com/ampliconworks/ampliflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

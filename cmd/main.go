// Package main runs the ledger command line interface.
package main

import (
	"os"

	"github.com/go-petr/pet-ledger/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

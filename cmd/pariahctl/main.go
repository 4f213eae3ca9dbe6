// Package main provides the entry point for the pariahctl CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/pariah/cmd/pariahctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

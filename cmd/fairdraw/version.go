package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set via -ldflags at build time
var (
	semver = "v0.0.0-dev"
	commit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version of the fairdraw binary",
	Run: func(*cobra.Command, []string) {
		fmt.Printf("fairdraw %s (%s)\n", semver, commit)
	},
}

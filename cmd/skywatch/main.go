// Package main is the entry point for the skywatch CLI.
//
// Skywatch can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	skywatch serve -c config.yaml    # Start the tracker and API server
//	skywatch track                   # Print live fixes to the terminal
//	skywatch check-update            # One-shot update check
//	skywatch validate -c config.yaml # Validate configuration
//	skywatch version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "skywatch",
	Short: "A satellite position tracker with update checking",
	Long: `Skywatch polls a public satellite-position API in the background,
retains a bounded trail of recent fixes, and can also watch a GitHub
repository for newer releases of itself.

Quick start:
  1. Create a config file (skywatch.yaml), or rely on defaults
  2. Run: skywatch serve -c skywatch.yaml
  3. Query http://localhost:8080/api/position

Example config:
  listen: :8080
  tracker:
    satellite_id: 25544
    interval: 5s
    history_size: 100
  update:
    repo: acme/skywatch
    current_version: 1.0.0`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this skywatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("skywatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"

	"github.com/skywatch-dev/skywatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a skywatch configuration file without starting the tracker.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  skywatch validate -c config.yaml
  skywatch validate --config /etc/skywatch/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Listen:         %s\n", cfg.Listen)
	fmt.Printf("  Satellite:      %d\n", cfg.Tracker.SatelliteID)
	fmt.Printf("  Track interval: %s\n", cfg.Tracker.Interval.Duration())
	fmt.Printf("  History size:   %d\n", *cfg.Tracker.HistorySize)
	if cfg.Update.Repo != "" {
		fmt.Printf("  Update repo:    %s (current %s, every %s)\n",
			cfg.Update.Repo, cfg.Update.CurrentVersion, cfg.Update.Interval.Duration())
	} else {
		fmt.Printf("  Update checks:  disabled\n")
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/skywatch-dev/skywatch/config"
	"github.com/spf13/cobra"
)

// checkUpdateCmd performs a one-shot update check and prints the result.
var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Check for a newer release",
	Long: `Check the configured GitHub repository for a release newer than the
running version, print the result, and exit.

Requires an update section in the config, or the --repo and
--current-version flags.

Exit codes:
  0 - Check succeeded (whether or not an update is available)
  1 - Check failed

Example:
  skywatch check-update -c config.yaml
  skywatch check-update --repo acme/skywatch --current-version 1.2.0`,
	RunE: runCheckUpdate,
}

func init() {
	rootCmd.AddCommand(checkUpdateCmd)

	checkUpdateCmd.Flags().StringP("config", "c", "", "path to config file")
	checkUpdateCmd.Flags().String("repo", "", "GitHub repository as owner/name")
	checkUpdateCmd.Flags().String("current-version", "", "version to compare against")
}

func runCheckUpdate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// flags override the config file
	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		cfg.Update.Repo = repo
	}
	if cur, _ := cmd.Flags().GetString("current-version"); cur != "" {
		cfg.Update.CurrentVersion = cur
	}
	if cfg.Update.Repo == "" {
		return fmt.Errorf("no update repo configured; set update.repo or pass --repo")
	}

	checker, err := config.BuildUpdateChecker(cfg, newLogger())
	if err != nil {
		return fmt.Errorf("failed to build update checker: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := checker.Check(ctx)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}

	if !status.Available {
		fmt.Printf("%s is up to date (latest release: %s)\n",
			status.CurrentVersion, status.LatestVersion)
		return nil
	}

	fmt.Printf("update available: %s -> %s\n", status.CurrentVersion, status.LatestVersion)
	if status.ReleaseURL != "" {
		fmt.Printf("  release:  %s\n", status.ReleaseURL)
	}
	if status.DownloadURL != "" {
		fmt.Printf("  download: %s\n", status.DownloadURL)
	}
	return nil
}

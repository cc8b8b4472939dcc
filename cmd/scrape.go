package cmd

import (
	"github.com/huangsam/devhealth/core"
	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/spf13/cobra"
)

// scrapeCmd runs a full scrape of every configured project.
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape configured projects and rate their repositories",
	Long: `Fetch repositories, branches, builds, pull requests, policies, releases,
test runs, coverage, Sonar measures and work items for every configured
project, then write the ratings to the output directory.

Every raw response is cached on disk. Projects are scraped concurrently and
fail independently: when some projects fail, the others are still reported
and a rerun only fetches what is missing or stale.

Exits with status 1 if any project failed.

Examples:
  # Scrape everything in .devhealth.yaml
  devhealth scrape

  # Retry one project with a shorter window
  devhealth scrape --only main/payments --lookback "30 days"

  # Write indicator rows for spreadsheets
  devhealth scrape --output csv --output-dir ./health`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteScrape(rootCtx, cfg, iocache.Manager)
	},
}

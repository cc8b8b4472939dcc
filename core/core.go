// Package core has the scrape orchestrator and the per-project analysis.
package core

import (
	"context"
	"os"
	"time"

	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/fetch"
	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/huangsam/devhealth/internal/outwriter"
	"github.com/huangsam/devhealth/internal/sonar"
)

// ExecuteScrape runs a full scrape against the configured hosts and prints
// the summary to stdout. It serves as the main entry point for 'scrape'.
func ExecuteScrape(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	logScrapeHeader(cfg)

	cache := iocache.NewDiskCache(cfg.CacheDir, cfg.CacheTTL)
	// Personal access tokens go in the password with an empty user name
	transport := fetch.NewTransport("", cfg.Token, cfg.RequestTimeout)
	client := azdo.NewClient(cfg.Host, cache, transport, cfg.Lookback).
		WithClock(func() time.Time { return cfg.EndTime })

	var sonarClient *sonar.Client
	if cfg.SonarHost != "" {
		// Sonar tokens go in the user name with an empty password
		sonarClient = sonar.NewClient(cfg.SonarHost, cache, fetch.NewTransport(cfg.SonarToken, "", cfg.RequestTimeout))
	}

	var store contract.RunStore
	if mgr != nil {
		store = mgr.GetRunStore()
	}
	out := outwriter.NewOutWriter(cfg.OutputDir, cfg.Output, os.Stderr)
	return NewScraper(cfg, client, sonarClient, store, out, os.Stdout).Run(ctx)
}

func logScrapeHeader(cfg *contract.Config) {
	contract.LogInfo("🩺 Scraping %s", cfg.Host)
	contract.LogInfo("📅 Window: %s to %s", cfg.StartTime.Format(contract.DateTimeFormat), cfg.EndTime.Format(contract.DateTimeFormat))
	contract.LogInfo("🗄️  Cache: %s (ttl %s)", cfg.CacheDir, cfg.CacheTTL)
	if cfg.SonarHost == "" {
		contract.LogInfo("Sonar is not configured; code quality is left out of repo ratings")
	}
}

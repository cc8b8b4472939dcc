// Package contract provides interfaces and shared utilities for devhealth's internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/devhealth/schema"
)

// StoreManager defines the interface for managing persistent stores.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking scrape runs and storing repo ratings.
type RunStore interface {
	// BeginRun creates a new scrape run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the scrape run with completion data
	EndRun(runID int64, endTime time.Time, projectsTotal, projectsFailed int) error

	// RecordRepoRating stores the final ratings of one repository
	RecordRepoRating(record schema.RepoRatingRecord) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStoreStatus, error)

	// GetAllRuns returns every stored run, newest first
	GetAllRuns() ([]schema.ScrapeRunRecord, error)

	// GetAllRepoRatings returns every stored repo rating
	GetAllRepoRatings() ([]schema.RepoRatingRecord, error)

	// GetRepoRatings returns the repo ratings of one run
	GetRepoRatings(runID int64) ([]schema.RepoRatingRecord, error)

	// LatestRunID returns the most recent run ID, or 0 when none exist
	LatestRunID() (int64, error)

	// Close closes the underlying connection
	Close() error
}

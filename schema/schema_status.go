package schema

import "time"

// DiskCacheStatus represents the status of the disk cache.
type DiskCacheStatus struct {
	Root         string    `json:"root"`
	TotalEntries int       `json:"total_entries"`
	TotalBytes   int64     `json:"total_bytes"`
	OldestEntry  time.Time `json:"oldest_entry"`
	NewestEntry  time.Time `json:"newest_entry"`
	CorruptFiles int       `json:"corrupt_files"`
}

// RunStoreStatus represents the status of the run store.
type RunStoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRatings  int              `json:"total_ratings"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

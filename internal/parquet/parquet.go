// Package parquet exports devhealth run data to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/devhealth/schema"
	"github.com/parquet-go/parquet-go"
)

// ScrapeRun is one scrape run. It maps to the devhealth_scrape_runs table.
type ScrapeRun struct {
	RunID int64 `parquet:"run_id,snappy"`

	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is nil for runs that never finished
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	ProjectsTotal  int32 `parquet:"projects_total,snappy"`
	ProjectsFailed int32 `parquet:"projects_failed,snappy"`

	// ConfigParams contains the JSON-encoded scrape settings
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// RepoRating is the rated view of one repository in one run.
// It maps to the devhealth_repo_ratings table.
type RepoRating struct {
	RunID        int64  `parquet:"run_id,snappy"`
	Collection   string `parquet:"collection,dict,snappy"`
	Project      string `parquet:"project,dict,snappy"`
	Repo         string `parquet:"repo,snappy"`
	Rating       int32  `parquet:"rating,snappy"`
	Branches     int32  `parquet:"branches,snappy"`
	PullRequests int32  `parquet:"pull_requests,snappy"`
	Builds       int32  `parquet:"builds,snappy"`
	CodeQuality  int32  `parquet:"code_quality,snappy"`
	TestCoverage int32  `parquet:"test_coverage,snappy"`
	HasSonar     bool   `parquet:"has_sonar,snappy"`
}

// WriteScrapeRunsParquet writes scrape runs to a Parquet file.
func WriteScrapeRunsParquet(data []ScrapeRun, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteRepoRatingsParquet writes repo ratings to a Parquet file.
func WriteRepoRatingsParquet(data []RepoRating, outputPath string) error {
	return writeRows(data, outputPath)
}

// writeRows writes rows with a schema inferred from the struct tags of T.
func writeRows[T any](data []T, outputPath string) (err error) {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertScrapeRunRecords converts store rows to Parquet rows.
func ConvertScrapeRunRecords(records []schema.ScrapeRunRecord) []ScrapeRun {
	result := make([]ScrapeRun, len(records))
	for i, r := range records {
		result[i] = ScrapeRun{
			RunID:          r.RunID,
			StartTime:      r.StartTime,
			EndTime:        r.EndTime,
			RunDurationMs:  r.RunDurationMs,
			ProjectsTotal:  r.ProjectsTotal,
			ProjectsFailed: r.ProjectsFailed,
			ConfigParams:   r.ConfigParams,
		}
	}
	return result
}

// ConvertRepoRatingRecords converts store rows to Parquet rows.
func ConvertRepoRatingRecords(records []schema.RepoRatingRecord) []RepoRating {
	result := make([]RepoRating, len(records))
	for i, r := range records {
		result[i] = RepoRating{
			RunID:        r.RunID,
			Collection:   r.Collection,
			Project:      r.Project,
			Repo:         r.Repo,
			Rating:       r.Rating,
			Branches:     r.Branches,
			PullRequests: r.PullRequests,
			Builds:       r.Builds,
			CodeQuality:  r.CodeQuality,
			TestCoverage: r.TestCoverage,
			HasSonar:     r.HasSonar,
		}
	}
	return result
}

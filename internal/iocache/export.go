package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/parquet"
)

// ExportRuns writes the run store's tables to Parquet files named
// <outputFile>.scrape_runs.parquet and <outputFile>.repo_ratings.parquet.
func ExportRuns(store contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run store status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve scrape runs: %w", err)
	}
	ratings, err := store.GetAllRepoRatings()
	if err != nil {
		return fmt.Errorf("failed to retrieve repo ratings: %w", err)
	}

	runsFile := outputFile + ".scrape_runs.parquet"
	if err := parquet.WriteScrapeRunsParquet(parquet.ConvertScrapeRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write scrape runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d scrape runs to: %s\n", len(runs), runsFile)

	ratingsFile := outputFile + ".repo_ratings.parquet"
	if err := parquet.WriteRepoRatingsParquet(parquet.ConvertRepoRatingRecords(ratings), ratingsFile); err != nil {
		return fmt.Errorf("failed to write repo ratings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d repo ratings to: %s\n", len(ratings), ratingsFile)

	return nil
}

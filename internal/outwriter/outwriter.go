// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/huangsam/devhealth/internal/parquet"
	"github.com/huangsam/devhealth/schema"
)

// Artifact file names inside the output directory.
const (
	ProjectsDir    = "projects"
	RollupJSONFile = "rollup.json"
	RollupCSVFile  = "rollup.csv"
	RollupParquet  = "rollup.parquet"
	IndicatorsCSV  = "indicators.csv"
	TracksFile     = "tracks.json"
	SummaryFile    = "summary.json"
)

// Artifacts is everything a successful run writes to disk.
type Artifacts struct {
	Projects []schema.ProjectAnalysis
	Rollup   []schema.RepoRatingRecord
	Tracks   map[string][]schema.TrackMetric // keyed by collection
	Summary  schema.RunSummary
}

// OutWriter writes run artifacts into one directory.
type OutWriter struct {
	dir  string
	mode schema.OutputMode
	log  io.Writer
}

// NewOutWriter creates a writer for dir. Progress lines go to log.
func NewOutWriter(dir string, mode schema.OutputMode, log io.Writer) *OutWriter {
	return &OutWriter{dir: dir, mode: mode, log: log}
}

// Dir returns the output directory.
func (ow *OutWriter) Dir() string {
	return ow.dir
}

// WriteArtifacts writes per-project JSON, the rollup, track metrics and the
// run summary. The output mode adds indicators.csv (csv) or rollup.parquet
// (parquet) next to the JSON and CSV rollups, which are always written.
func (ow *OutWriter) WriteArtifacts(a Artifacts) error {
	for _, p := range a.Projects {
		path := filepath.Join(ow.dir, ProjectsDir, safeName(p.Collection), safeName(p.Project)+".json")
		if err := ow.writeWithFile(path, func(w io.Writer) error {
			return writeJSON(w, p)
		}, "Wrote project "+p.UnitKey()); err != nil {
			return err
		}
	}

	rows := make([]schema.RollupRow, len(a.Rollup))
	for i, r := range a.Rollup {
		rows[i] = r.RollupRow()
	}
	if err := ow.writeWithFile(filepath.Join(ow.dir, RollupJSONFile), func(w io.Writer) error {
		return writeJSON(w, rows)
	}, "Wrote rollup JSON"); err != nil {
		return err
	}
	if err := ow.writeWithFile(filepath.Join(ow.dir, RollupCSVFile), func(w io.Writer) error {
		return writeRollupCSV(w, rows)
	}, "Wrote rollup CSV"); err != nil {
		return err
	}

	switch ow.mode {
	case schema.CSVOut:
		if err := ow.writeWithFile(filepath.Join(ow.dir, IndicatorsCSV), func(w io.Writer) error {
			return writeIndicatorsCSV(w, a.Projects)
		}, "Wrote indicators CSV"); err != nil {
			return err
		}
	case schema.ParquetOut:
		path := filepath.Join(ow.dir, RollupParquet)
		if err := parquet.WriteRepoRatingsParquet(parquet.ConvertRepoRatingRecords(a.Rollup), path); err != nil {
			return fmt.Errorf("failed to write rollup parquet: %w", err)
		}
		ow.logf("Wrote rollup Parquet", path)
	}

	tracks := a.Tracks
	if tracks == nil {
		tracks = map[string][]schema.TrackMetric{}
	}
	if err := ow.writeWithFile(filepath.Join(ow.dir, TracksFile), func(w io.Writer) error {
		return writeJSON(w, tracks)
	}, "Wrote track metrics"); err != nil {
		return err
	}
	return ow.WriteSummary(a.Summary)
}

// WriteSummary writes summary.json.
func (ow *OutWriter) WriteSummary(s schema.RunSummary) error {
	return ow.writeWithFile(filepath.Join(ow.dir, SummaryFile), func(w io.Writer) error {
		return writeJSON(w, s)
	}, "Wrote summary")
}

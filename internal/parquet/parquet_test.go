package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/devhealth/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(ScrapeRun))
	for _, colName := range []string{
		"run_id", "start_time", "end_time", "run_duration_ms",
		"projects_total", "projects_failed", "config_params",
	} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestRepoRatingStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(RepoRating))
	for _, colName := range []string{
		"run_id", "collection", "project", "repo", "rating", "branches",
		"pull_requests", "builds", "code_quality", "test_coverage", "has_sonar",
	} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestWriteScrapeRunsParquet(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(90 * time.Second)
	duration := int32(90000)
	params := `{"lookback":"90 days"}`

	records := []schema.ScrapeRunRecord{
		{RunID: 1, StartTime: start, EndTime: &end, RunDurationMs: &duration, ProjectsTotal: 3, ProjectsFailed: 1, ConfigParams: &params},
		{RunID: 2, StartTime: end},
	}

	out := filepath.Join(t.TempDir(), "nested", "runs.parquet")
	require.NoError(t, WriteScrapeRunsParquet(ConvertScrapeRunRecords(records), out))

	rows := readAll[ScrapeRun](t, out)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].RunID)
	assert.Equal(t, int32(3), rows[0].ProjectsTotal)
	assert.Equal(t, int32(1), rows[0].ProjectsFailed)
	require.NotNil(t, rows[0].EndTime)
	assert.WithinDuration(t, end, *rows[0].EndTime, time.Microsecond)
	require.NotNil(t, rows[0].ConfigParams)
	assert.Equal(t, params, *rows[0].ConfigParams)

	assert.Nil(t, rows[1].EndTime)
	assert.Nil(t, rows[1].RunDurationMs)
	assert.Nil(t, rows[1].ConfigParams)
}

func TestWriteRepoRatingsParquet(t *testing.T) {
	records := []schema.RepoRatingRecord{
		{RunID: 4, Collection: "c", Project: "p", Repo: "api", Rating: 77, Builds: 90, CodeQuality: 60, HasSonar: true},
		{RunID: 4, Collection: "c", Project: "p", Repo: "web", Rating: 51},
	}

	out := filepath.Join(t.TempDir(), "ratings.parquet")
	require.NoError(t, WriteRepoRatingsParquet(ConvertRepoRatingRecords(records), out))

	rows := readAll[RepoRating](t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, "api", rows[0].Repo)
	assert.Equal(t, int32(90), rows[0].Builds)
	assert.True(t, rows[0].HasSonar)
	assert.False(t, rows[1].HasSonar)
}

func TestWriteParquetEmptyData(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRepoRatingsParquet(nil, out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Empty(t, readAll[RepoRating](t, out))
}

func TestWriteParquetBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteScrapeRunsParquet(nil, filepath.Join(blocker, "runs.parquet"))
	assert.Error(t, err)
}

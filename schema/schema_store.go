package schema

import "time"

// ScrapeRunRecord represents a row from the devhealth_scrape_runs table.
type ScrapeRunRecord struct {
	RunID          int64
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	ProjectsTotal  int32
	ProjectsFailed int32
	ConfigParams   *string
}

// RepoRatingRecord represents a row from the devhealth_repo_ratings table.
type RepoRatingRecord struct {
	RunID        int64
	Collection   string
	Project      string
	Repo         string
	Rating       int32
	Branches     int32
	PullRequests int32
	Builds       int32
	CodeQuality  int32
	TestCoverage int32
	HasSonar     bool
}

// NewRepoRatingRecord flattens a repo analysis into a store row.
func NewRepoRatingRecord(runID int64, collection, project string, r RepoAnalysis) RepoRatingRecord {
	return RepoRatingRecord{
		RunID:        runID,
		Collection:   collection,
		Project:      project,
		Repo:         r.Name,
		Rating:       int32(r.Rating),
		Branches:     int32(r.CategoryRating(CategoryBranches)),
		PullRequests: int32(r.CategoryRating(CategoryPullRequests)),
		Builds:       int32(r.CategoryRating(CategoryBuilds)),
		CodeQuality:  int32(r.CategoryRating(CategoryCodeQuality)),
		TestCoverage: int32(r.CategoryRating(CategoryTestCoverage)),
		HasSonar:     r.HasSonar(),
	}
}

// RollupRow converts the record to a rollup line.
func (r RepoRatingRecord) RollupRow() RollupRow {
	return RollupRow{
		Collection:   r.Collection,
		Project:      r.Project,
		Repo:         r.Repo,
		Rating:       int(r.Rating),
		Branches:     int(r.Branches),
		PullRequests: int(r.PullRequests),
		Builds:       int(r.Builds),
		CodeQuality:  int(r.CodeQuality),
		TestCoverage: int(r.TestCoverage),
		HasSonar:     r.HasSonar,
	}
}

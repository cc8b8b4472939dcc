package schema

// Indicator is one rated measurement.
type Indicator struct {
	Name            string `json:"name"`
	Value           any    `json:"value"`
	Rating          int    `json:"rating"`
	AdditionalValue any    `json:"additionalValue,omitempty"`
}

// TopLevelIndicator groups indicators of one category.
type TopLevelIndicator struct {
	Name       Category    `json:"name"`
	Count      int         `json:"count"`
	Indicators []Indicator `json:"indicators"`
	Rating     int         `json:"rating"`
}

// LanguageShare is the line count of one language in a repository.
type LanguageShare struct {
	Language string `json:"language"`
	Lines    int    `json:"lines"`
}

// RepoAnalysis is the rated view of one repository.
type RepoAnalysis struct {
	Name       string              `json:"name"`
	ID         string              `json:"id"`
	Languages  []LanguageShare     `json:"languages"`
	Indicators []TopLevelIndicator `json:"indicators"`
	Rating     int                 `json:"rating"`
}

// CategoryRating returns the rating of the named category, or 0 when absent.
func (r RepoAnalysis) CategoryRating(name Category) int {
	for _, tli := range r.Indicators {
		if tli.Name == name {
			return tli.Rating
		}
	}
	return 0
}

// HasSonar reports whether code quality data was found for the repository.
func (r RepoAnalysis) HasSonar() bool {
	return r.CategoryRating(CategoryCodeQuality) != 0
}

// ReleaseAnalysis is the project-level release view.
type ReleaseAnalysis struct {
	Indicators []TopLevelIndicator `json:"indicators"`
	Rating     int                 `json:"rating"`
}

// ProjectAnalysis is the result of analyzing one project.
type ProjectAnalysis struct {
	Collection      string            `json:"collection"`
	Project         string            `json:"project"`
	RepoAnalysis    []RepoAnalysis    `json:"repoAnalysis"`
	ReleaseAnalysis ReleaseAnalysis   `json:"releaseAnalysis"`
	WorkItems       *WorkItemAnalysis `json:"workItems,omitempty"`
	Rating          int               `json:"rating"`
}

// UnitKey identifies the project as collection/project.
func (p ProjectAnalysis) UnitKey() string {
	return p.Collection + "/" + p.Project
}

// RollupRow is one repository line in the cross-project rollup.
type RollupRow struct {
	Collection   string `json:"collection"`
	Project      string `json:"project"`
	Repo         string `json:"repo"`
	Rating       int    `json:"rating"`
	Branches     int    `json:"branches"`
	PullRequests int    `json:"pullRequests"`
	Builds       int    `json:"builds"`
	CodeQuality  int    `json:"codeQuality"`
	TestCoverage int    `json:"testCoverage"`
	HasSonar     bool   `json:"hasSonar"`
}

// RunSummary is the content of the summary artifact.
type RunSummary struct {
	RunID     int64    `json:"runId"`
	State     RunState `json:"state"`
	Total     int      `json:"total"`
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
	Duration  string   `json:"duration"`
}

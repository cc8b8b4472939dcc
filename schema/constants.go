package schema

// Custom string types for type safety.
type (
	// Category is the name of a top-level indicator group.
	Category string

	// OutputMode represents the format of written artifacts.
	OutputMode string

	// DatabaseBackend represents the database backend for run tracking.
	DatabaseBackend string

	// RunState represents a phase of a scrape run.
	RunState string

	// AncestorKind tags the outcome of a group-ancestor search.
	AncestorKind string
)

// Indicator categories used in repo and project ratings.
const (
	CategoryBranches     Category = "Branches"
	CategoryPullRequests Category = "PR"
	CategoryBuilds       Category = "Builds"
	CategoryCodeQuality  Category = "Code quality"
	CategoryReleases     Category = "Releases"
	CategoryTestCoverage Category = "Test coverage"
)

// All output modes supported.
const (
	JSONOut    OutputMode = "json" // default
	CSVOut     OutputMode = "csv"
	ParquetOut OutputMode = "parquet"
)

// All run-store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Phases of a scrape run.
const (
	StateStart          RunState = "start"
	StateFanOut         RunState = "fan-out-projects"
	StateSummarize      RunState = "summarize"
	StateWriteArtifacts RunState = "write-artifacts"
	StateDone           RunState = "done"
	StateFailed         RunState = "failed"
)

// Outcomes of a group-ancestor search.
const (
	AncestorFound         AncestorKind = "found"
	AncestorNotFound      AncestorKind = "not-found"
	AncestorCycleDetected AncestorKind = "cycle-detected"
)

// RootWorkItemID is the synthetic root of the work-item display tree.
const RootWorkItemID = 0

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryBranches,
	CategoryPullRequests,
	CategoryBuilds,
	CategoryCodeQuality,
	CategoryReleases,
	CategoryTestCoverage,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	JSONOut:    {},
	CSVOut:     {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid run-store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// defaultWeights applies when Sonar data is present. Releases are rated per
// project, so they carry no weight at the repo level.
var defaultWeights = map[Category]float64{
	CategoryBranches:     0.15,
	CategoryPullRequests: 0.20,
	CategoryBuilds:       0.20,
	CategoryCodeQuality:  0.25,
	CategoryReleases:     0.00,
	CategoryTestCoverage: 0.20,
}

// GetCategoryWeights returns the weight vector for repo ratings. Without Sonar,
// the code quality weight is dropped and the rest are rescaled to sum to 1.
func GetCategoryWeights(withSonar bool) map[Category]float64 {
	weights := make(map[Category]float64, len(defaultWeights))
	if withSonar {
		for k, v := range defaultWeights {
			weights[k] = v
		}
		return weights
	}

	var remaining float64
	for k, v := range defaultWeights {
		if k != CategoryCodeQuality {
			remaining += v
		}
	}
	for k, v := range defaultWeights {
		if k == CategoryCodeQuality {
			continue
		}
		weights[k] = v / remaining
	}
	return weights
}

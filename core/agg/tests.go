package agg

import (
	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
)

// TestStats accumulates the test runs of one repository.
type TestStats struct {
	Runs   int
	Total  int
	Passed int
}

// AccumulateTestRuns groups test runs by the repository of their build.
// Runs whose build is unknown are dropped.
func AccumulateTestRuns(runs []azdo.TestRun, repoByBuildID map[string]string) map[string]*TestStats {
	stats := make(map[string]*TestStats)
	for _, r := range runs {
		repoID, ok := repoByBuildID[r.BuildID()]
		if !ok {
			continue
		}
		s, ok := stats[repoID]
		if !ok {
			s = &TestStats{}
			stats[repoID] = s
		}
		s.Runs++
		s.Total += r.TotalTests
		s.Passed += r.PassedTests
	}
	return stats
}

// Coverage is the line coverage of a repository's latest successful build.
type Coverage struct {
	Percent float64
	Found   bool
}

// TestCoverageIndicators rates the tests of one repository.
func TestCoverageIndicators(s *TestStats, cov Coverage, b contract.RatingBaselines) schema.TopLevelIndicator {
	if s == nil {
		s = &TestStats{}
	}
	line := indicator("Line coverage", cov.Percent, rating.Percent(b.LineCoverage))
	if !cov.Found {
		line.Value = nil
		line.Rating = 0
	}
	return category(schema.CategoryTestCoverage, s.Runs,
		indicator("Pass rate", ratio(float64(s.Passed)*100, float64(s.Total)), rating.Percent(b.TestPassRate)),
		indicator("Tests per run", ratio(float64(s.Total), float64(s.Runs)), rating.Percent(b.TestsPerRun)),
		line,
	)
}

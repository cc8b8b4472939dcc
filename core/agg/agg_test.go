package agg

import (
	"testing"
	"time"

	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/sonar"
	"github.com/huangsam/devhealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testEnd    = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	testWindow = NewWindow(testEnd, 4*24*time.Hour)
	baselines  = contract.DefaultRatingBaselines()
)

func findIndicator(t *testing.T, tli schema.TopLevelIndicator, name string) schema.Indicator {
	t.Helper()
	for _, ind := range tli.Indicators {
		if ind.Name == name {
			return ind
		}
	}
	t.Fatalf("indicator %q not found in %s", name, tli.Name)
	return schema.Indicator{}
}

func build(id int, repo string, result string, durationMs int64) azdo.Build {
	start := testEnd.Add(-time.Duration(id) * time.Hour)
	return azdo.Build{
		ID:         id,
		Result:     result,
		StartTime:  start,
		FinishTime: start.Add(time.Duration(durationMs) * time.Millisecond),
		Repository: azdo.RepositoryRef{ID: repo},
	}
}

func TestWindowDays(t *testing.T) {
	assert.InDelta(t, 4.0, testWindow.Days(), 1e-9)
	assert.True(t, testWindow.Before(testEnd.Add(-5*24*time.Hour)))
	assert.False(t, testWindow.Before(testEnd))
}

func TestBuildIndicatorsWorkedExample(t *testing.T) {
	builds := []azdo.Build{
		build(1, "r1", "succeeded", 60000),
		build(2, "r1", "succeeded", 120000),
		build(3, "r1", "failed", 90000),
		build(4, "r1", "succeeded", 300000),
		build(5, "r2", "failed", 1000),
	}
	stats := AccumulateBuilds(builds)
	require.Len(t, stats, 2)

	s := stats["r1"]
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 3, s.Success)
	assert.InDelta(t, 75.0, s.SuccessRate(), 1e-9)
	assert.InDelta(t, 2.375, s.AverageMinutes(), 1e-9)
	assert.Equal(t, 1, s.LatestSuccessID, "build 1 finished last")

	tli := BuildIndicators(s, testWindow, baselines)
	assert.Equal(t, schema.CategoryBuilds, tli.Name)
	assert.Equal(t, 4, tli.Count)

	success := findIndicator(t, tli, "Success rate")
	assert.Equal(t, 75.0, success.Value)
	assert.Equal(t, 84, success.Rating) // ceil(7500/90)

	duration := findIndicator(t, tli, "Average duration")
	assert.Equal(t, 2.38, duration.Value)
	assert.Equal(t, 100, duration.Rating) // min(ceil(300/2.375), 100)

	perDay := findIndicator(t, tli, "Builds per day")
	assert.Equal(t, 1.0, perDay.Value)
	assert.Equal(t, 100, perDay.Rating)

	assert.Equal(t, 95, tli.Rating) // (100+84+100)/3 = 94.67
	assert.Zero(t, stats["r2"].LatestSuccessID)
}

func TestBuildIndicatorsNoBuilds(t *testing.T) {
	tli := BuildIndicators(nil, testWindow, baselines)
	assert.Equal(t, 0, tli.Rating)
	assert.Equal(t, 0, tli.Count)
	assert.Len(t, tli.Indicators, 3)
}

func TestBranchIndicators(t *testing.T) {
	fresh := testEnd.Add(-time.Hour)
	old := testEnd.Add(-30 * 24 * time.Hour)
	branches := []azdo.BranchStat{
		{Name: "main", IsBaseVersion: true, Commit: azdo.BranchCommit{Committer: azdo.GitUserDate{Date: old}}},
		{Name: "feature-a", AheadCount: 2, Commit: azdo.BranchCommit{Committer: azdo.GitUserDate{Date: fresh}}},
		{Name: "feature-b", AheadCount: 0, Commit: azdo.BranchCommit{Committer: azdo.GitUserDate{Date: old}}},
		{Name: "feature-c", AheadCount: 5, Commit: azdo.BranchCommit{Committer: azdo.GitUserDate{Date: old}}},
	}
	kinds := []azdo.PolicyKind{azdo.PolicyMinimumReviewers, azdo.PolicyBuildValidation}

	tli := BranchIndicators(branches, kinds, testWindow)
	assert.Equal(t, 4, tli.Count)
	assert.Equal(t, 100, findIndicator(t, tli, "Total").Rating)
	assert.Equal(t, 2.0, findIndicator(t, tli, "Stale").Value)
	assert.Equal(t, 80, findIndicator(t, tli, "Stale").Rating)
	assert.Equal(t, 1.0, findIndicator(t, tli, "Abandoned").Value)
	assert.Equal(t, 80, findIndicator(t, tli, "Abandoned").Rating)

	policies := findIndicator(t, tli, "Default branch policies")
	assert.Equal(t, 2, policies.Value)
	assert.Equal(t, 67, policies.Rating)
	assert.Equal(t, kinds, policies.AdditionalValue)

	assert.Equal(t, 82, tli.Rating) // (100+80+80+67)/4 = 81.75
}

func TestPullRequestIndicators(t *testing.T) {
	created := testEnd.Add(-72 * time.Hour)
	prs := []azdo.PullRequest{
		{Status: "active", Repository: azdo.RepositoryRef{ID: "r1"}, CreationDate: created},
		{Status: "completed", Repository: azdo.RepositoryRef{ID: "r1"}, CreationDate: created, ClosedDate: created.Add(12 * time.Hour),
			Reviewers: []azdo.Reviewer{{Vote: 10}, {Vote: 0}}},
		{Status: "completed", Repository: azdo.RepositoryRef{ID: "r1"}, CreationDate: created, ClosedDate: created.Add(36 * time.Hour),
			Reviewers: []azdo.Reviewer{{Vote: 5}, {Vote: -5}, {Vote: 10}}},
		{Status: "abandoned", Repository: azdo.RepositoryRef{ID: "r1"}, CreationDate: created, ClosedDate: created.Add(time.Hour)},
		{Status: "completed", Repository: azdo.RepositoryRef{ID: "r2"}},
	}
	stats := AccumulatePullRequests(prs)
	s := stats["r1"]
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, 2, s.Approved)

	tli := PullRequestIndicators(s, baselines)
	assert.Equal(t, 100, findIndicator(t, tli, "Active").Rating)
	completion := findIndicator(t, tli, "Completion rate")
	assert.Equal(t, 66.67, completion.Value)
	assert.Equal(t, 84, completion.Rating) // ceil(66.67*100/80)
	approve := findIndicator(t, tli, "Average time to approve")
	assert.Equal(t, 24.0, approve.Value)
	assert.Equal(t, 100, approve.Rating)
	reviewers := findIndicator(t, tli, "Average reviewers")
	assert.Equal(t, 1.25, reviewers.Value)
	assert.Equal(t, 63, reviewers.Rating)

	empty := PullRequestIndicators(nil, baselines)
	assert.Equal(t, 0, findIndicator(t, empty, "Average time to approve").Rating)
}

func TestTestCoverageIndicators(t *testing.T) {
	one, two := "1", "2"
	runs := []azdo.TestRun{
		{TotalTests: 40, PassedTests: 38},
		{TotalTests: 60, PassedTests: 60},
		{TotalTests: 500, PassedTests: 0},
	}
	runs[0].Build = &struct {
		ID string `json:"id"`
	}{ID: one}
	runs[1].Build = &struct {
		ID string `json:"id"`
	}{ID: two}
	stats := AccumulateTestRuns(runs, map[string]string{one: "r1", two: "r1"})
	require.Len(t, stats, 1)
	s := stats["r1"]
	assert.Equal(t, TestStats{Runs: 2, Total: 100, Passed: 98}, *s)

	tli := TestCoverageIndicators(s, Coverage{Percent: 60, Found: true}, baselines)
	assert.Equal(t, 98, findIndicator(t, tli, "Pass rate").Rating)
	assert.Equal(t, 100, findIndicator(t, tli, "Tests per run").Rating)
	assert.Equal(t, 75, findIndicator(t, tli, "Line coverage").Rating)
	assert.Equal(t, 91, tli.Rating) // 273/3

	tli = TestCoverageIndicators(nil, Coverage{}, baselines)
	assert.Nil(t, findIndicator(t, tli, "Line coverage").Value)
	assert.Equal(t, 0, tli.Rating)
}

func TestCodeQualityIndicators(t *testing.T) {
	m := sonar.Measures{
		sonar.MetricReliability:  "1.0",
		sonar.MetricSecurity:     "2",
		sonar.MetricMaintainable: "3.0",
		sonar.MetricQualityGate:  "WARN",
		sonar.MetricCoverage:     "40",
		sonar.MetricDuplication:  "3.5",
		sonar.MetricLanguages:    "go=100",
	}
	tli, langs := CodeQualityIndicators(m, true, baselines)
	assert.Equal(t, 100, findIndicator(t, tli, "Reliability").Rating)
	assert.Equal(t, 74, findIndicator(t, tli, "Security").Rating)
	assert.Equal(t, 49, findIndicator(t, tli, "Maintainability").Rating)
	assert.Equal(t, 74, findIndicator(t, tli, "Quality gate").Rating)
	assert.Equal(t, 50, findIndicator(t, tli, "Coverage").Rating)
	assert.Equal(t, 97, findIndicator(t, tli, "Duplication").Rating)
	assert.Equal(t, 74, tli.Rating) // 444/6
	assert.Equal(t, []schema.LanguageShare{{Language: "go", Lines: 100}}, langs)

	missing, langs := CodeQualityIndicators(nil, false, baselines)
	assert.Equal(t, schema.CategoryCodeQuality, missing.Name)
	assert.Zero(t, missing.Rating)
	assert.Empty(t, missing.Indicators)
	assert.Nil(t, langs)
}

func TestReleaseIndicators(t *testing.T) {
	releases := []azdo.Release{
		{Environments: []azdo.ReleaseEnvironment{{Status: "succeeded"}, {Status: "rejected"}}},
		{Environments: []azdo.ReleaseEnvironment{{Status: "succeeded"}, {Status: "notStarted"}}},
	}
	approved := azdo.DefinitionEnvironment{}
	approved.PreDeployApprovals.Approvals = []azdo.Approval{{IsAutomated: false}}
	defs := []azdo.ReleaseDefinition{
		{Environments: []azdo.DefinitionEnvironment{approved}},
		{Environments: []azdo.DefinitionEnvironment{{}}},
	}

	ra := ReleaseIndicators(releases, defs, NewWindow(testEnd, 14*24*time.Hour), baselines)
	require.Len(t, ra.Indicators, 1)
	tli := ra.Indicators[0]
	assert.Equal(t, schema.CategoryReleases, tli.Name)
	assert.Equal(t, 1.0, findIndicator(t, tli, "Releases per week").Value)
	assert.Equal(t, 100, findIndicator(t, tli, "Releases per week").Rating)
	assert.Equal(t, 66.67, findIndicator(t, tli, "Deployment success rate").Value)
	assert.Equal(t, 75, findIndicator(t, tli, "Deployment success rate").Rating)
	assert.Equal(t, 50, findIndicator(t, tli, "Definitions with approvals").Rating)
	assert.Equal(t, 75, ra.Rating)

	empty := ReleaseIndicators(nil, nil, testWindow, baselines)
	assert.Equal(t, 0, empty.Rating)
}

func TestRepoUsesSonarReweighting(t *testing.T) {
	cats := []schema.TopLevelIndicator{
		{Name: schema.CategoryBranches, Rating: 80},
		{Name: schema.CategoryPullRequests, Rating: 60},
		{Name: schema.CategoryBuilds, Rating: 90},
		{Name: schema.CategoryCodeQuality, Rating: 0},
		{Name: schema.CategoryTestCoverage, Rating: 50},
	}
	repo := Repo("api", "r1", nil, cats...)
	assert.Equal(t, 69, repo.Rating)
	assert.False(t, repo.HasSonar())
}

package core

import (
	"context"
	"fmt"
	"strconv"

	"github.com/huangsam/devhealth/core/agg"
	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/sonar"
	"github.com/huangsam/devhealth/schema"
	"golang.org/x/sync/errgroup"
)

// projectData is every project-wide resource one analysis needs.
type projectData struct {
	repos         []azdo.Repository
	builds        []azdo.Build
	prs           []azdo.PullRequest
	policies      []azdo.Policy
	releases      []azdo.Release
	definitions   []azdo.ReleaseDefinition
	testRuns      []azdo.TestRun
	sonarProjects []sonar.Component
	workItems     *schema.WorkItemAnalysis
}

// resourceErr names the resource that failed.
func resourceErr(name string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// analyzeProject fetches and rates one project. Any failing resource fails
// the whole project.
func (s *Scraper) analyzeProject(ctx context.Context, u Unit) (schema.ProjectAnalysis, error) {
	if runID, ok := getRunID(ctx); ok {
		contract.LogVerbose("run %d: analyzing %s", runID, u.Key())
	} else {
		contract.LogVerbose("analyzing %s", u.Key())
	}

	data, err := s.fetchProject(ctx, u)
	if err != nil {
		return schema.ProjectAnalysis{}, err
	}

	window := agg.NewWindow(s.cfg.EndTime, s.cfg.Lookback)
	buildStats := agg.AccumulateBuilds(data.builds)
	prStats := agg.AccumulatePullRequests(data.prs)
	repoByBuildID := make(map[string]string, len(data.builds))
	for _, b := range data.builds {
		repoByBuildID[strconv.Itoa(b.ID)] = b.Repository.ID
	}
	testStats := agg.AccumulateTestRuns(data.testRuns, repoByBuildID)

	var repos []azdo.Repository
	for _, r := range data.repos {
		if r.IsDisabled || r.DefaultBranch == "" {
			contract.LogVerbose("skipping repository %s/%s: disabled or empty", u.Key(), r.Name)
			continue
		}
		repos = append(repos, r)
	}

	analyses := make([]schema.RepoAnalysis, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Workers, 1))
	for i, repo := range repos {
		g.Go(func() error {
			ra, err := s.analyzeRepo(gctx, u, repo, data, window, buildStats[repo.ID], prStats[repo.ID], testStats[repo.ID])
			if err != nil {
				return fmt.Errorf("repository %s: %w", repo.Name, err)
			}
			analyses[i] = ra
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schema.ProjectAnalysis{}, err
	}

	return schema.ProjectAnalysis{
		Collection:      u.Collection.Name,
		Project:         u.Project,
		RepoAnalysis:    analyses,
		ReleaseAnalysis: agg.ReleaseIndicators(data.releases, data.definitions, window, s.cfg.Ratings),
		WorkItems:       data.workItems,
		Rating:          rating.ProjectRating(analyses),
	}, nil
}

// fetchProject reads the independent project resources concurrently.
func (s *Scraper) fetchProject(ctx context.Context, u Unit) (*projectData, error) {
	c, p := u.Collection.Name, u.Project
	data := &projectData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.repos, err = s.azdo.GetRepositories(gctx, c, p)
		return resourceErr("repositories", err)
	})
	g.Go(func() (err error) {
		data.builds, err = s.azdo.GetBuilds(gctx, c, p)
		return resourceErr("builds", err)
	})
	g.Go(func() (err error) {
		data.prs, err = s.azdo.GetPullRequests(gctx, c, p)
		return resourceErr("pull requests", err)
	})
	g.Go(func() (err error) {
		data.policies, err = s.azdo.GetPolicyConfigurations(gctx, c, p)
		return resourceErr("policies", err)
	})
	g.Go(func() (err error) {
		data.releases, err = s.azdo.GetReleases(gctx, c, p)
		return resourceErr("releases", err)
	})
	g.Go(func() (err error) {
		data.definitions, err = s.azdo.GetReleaseDefinitions(gctx, c, p)
		return resourceErr("release definitions", err)
	})
	g.Go(func() (err error) {
		data.testRuns, err = s.azdo.GetTestRuns(gctx, c, p)
		return resourceErr("test runs", err)
	})
	if s.sonarProjects != nil {
		g.Go(func() (err error) {
			data.sonarProjects, err = s.sonarProjects()
			return resourceErr("sonar projects", err)
		})
	}
	if shared, ok := s.workItems[c]; ok {
		g.Go(func() (err error) {
			data.workItems, err = shared()
			return resourceErr("work items", err)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// analyzeRepo fetches the per-repository resources and rates every category.
func (s *Scraper) analyzeRepo(ctx context.Context, u Unit, repo azdo.Repository, data *projectData, w agg.Window,
	builds *agg.BuildStats, prs *agg.PRStats, tests *agg.TestStats,
) (schema.RepoAnalysis, error) {
	c, p := u.Collection.Name, u.Project

	branches, err := s.azdo.GetBranchStats(ctx, c, p, repo.ID)
	if err != nil {
		return schema.RepoAnalysis{}, resourceErr("branches", err)
	}

	var cov agg.Coverage
	if builds != nil && builds.LatestSuccessID != 0 {
		cc, err := s.azdo.GetCodeCoverage(ctx, c, p, builds.LatestSuccessID)
		if err != nil {
			return schema.RepoAnalysis{}, resourceErr("code coverage", err)
		}
		cov.Percent, cov.Found = cc.LinePercent()
	}

	var measures sonar.Measures
	var found bool
	if comp, ok := sonar.MatchProject(data.sonarProjects, repo.Name); ok && s.sonar != nil {
		measures, err = s.sonar.GetMeasures(ctx, comp.Key, sonar.DefaultMetricKeys)
		if err != nil {
			return schema.RepoAnalysis{}, resourceErr("sonar measures", err)
		}
		found = true
	}

	codeQuality, languages := agg.CodeQualityIndicators(measures, found, s.cfg.Ratings)
	policyKinds := azdo.BlockingKinds(data.policies, repo.ID, repo.DefaultBranch)

	return agg.Repo(repo.Name, repo.ID, languages,
		agg.BranchIndicators(branches, policyKinds, w),
		agg.PullRequestIndicators(prs, s.cfg.Ratings),
		agg.BuildIndicators(builds, w, s.cfg.Ratings),
		codeQuality,
		agg.TestCoverageIndicators(tests, cov, s.cfg.Ratings),
	), nil
}

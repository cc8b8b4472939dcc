package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/huangsam/devhealth/core/algo"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/outwriter"
	"github.com/huangsam/devhealth/internal/sonar"
	"github.com/huangsam/devhealth/schema"
)

// RunFailedError reports a run where at least one project failed.
type RunFailedError struct {
	Failed int
	Total  int
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("%d of %d projects failed", e.Failed, e.Total)
}

// Unit is one (collection, project) pair of a run.
type Unit struct {
	Collection contract.CollectionConfig
	Project    string
}

// Key identifies the unit as collection/project.
func (u Unit) Key() string {
	return u.Collection.Name + "/" + u.Project
}

// Units lists every configured project in config order.
func Units(collections []contract.CollectionConfig) []Unit {
	var units []Unit
	for _, c := range collections {
		for _, p := range c.Projects {
			units = append(units, Unit{Collection: c, Project: p})
		}
	}
	return units
}

// Scraper drives one run: Start, FanOutProjects, Summarize, WriteArtifacts
// and Done, or Failed when any project fails or artifacts cannot be written.
type Scraper struct {
	cfg    *contract.Config
	azdo   *azdo.Client
	sonar  *sonar.Client
	store  contract.RunStore
	out    *outwriter.OutWriter
	stdout io.Writer
	now    func() time.Time

	mu    sync.Mutex
	state schema.RunState

	sonarProjects func() ([]sonar.Component, error)
	workItems     map[string]func() (*schema.WorkItemAnalysis, error)
}

// NewScraper wires a scraper. The Sonar client and the run store are optional.
func NewScraper(cfg *contract.Config, azdoClient *azdo.Client, sonarClient *sonar.Client, store contract.RunStore, out *outwriter.OutWriter, stdout io.Writer) *Scraper {
	return &Scraper{
		cfg:    cfg,
		azdo:   azdoClient,
		sonar:  sonarClient,
		store:  store,
		out:    out,
		stdout: stdout,
		now:    time.Now,
		state:  schema.StateStart,
	}
}

// WithClock replaces the clock used for run timing.
func (s *Scraper) WithClock(now func() time.Time) *Scraper {
	s.now = now
	return s
}

// State returns the current phase of the run.
func (s *Scraper) State() schema.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scraper) setState(state schema.RunState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	contract.LogVerbose("run state: %s", state)
}

// Run scrapes every configured project. Project failures do not stop the
// others; they surface as a *RunFailedError after the summary is printed.
func (s *Scraper) Run(ctx context.Context) error {
	start := s.now()
	s.setState(schema.StateStart)
	units := Units(s.cfg.Collections)
	if len(units) == 0 {
		s.setState(schema.StateFailed)
		return errors.New("no projects to scrape")
	}

	runID := s.beginRun(start, units)
	ctx = withRunID(ctx, runID)
	s.prepareShared(ctx)

	s.setState(schema.StateFanOut)
	contract.LogInfo("🔎 Scraping %d projects with %d workers", len(units), s.cfg.Workers)
	results := algo.MapSettled(ctx, units, s.cfg.Workers, s.analyzeProject)

	s.setState(schema.StateSummarize)
	summary, err := s.summarize(runID, start, units, results)
	if err != nil {
		s.setState(schema.StateFailed)
		return err
	}

	s.setState(schema.StateWriteArtifacts)
	projects := make([]schema.ProjectAnalysis, len(results))
	for i, r := range results {
		projects[i] = r.Value
	}
	if err := s.writeArtifacts(runID, projects, summary); err != nil {
		s.setState(schema.StateFailed)
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	s.setState(schema.StateDone)
	return nil
}

// prepareShared sets up the lookups every project of a run shares. Each runs
// at most once, on first use.
func (s *Scraper) prepareShared(ctx context.Context) {
	if s.sonar != nil {
		s.sonarProjects = sync.OnceValues(func() ([]sonar.Component, error) {
			return s.sonar.SearchProjects(ctx)
		})
	}
	s.workItems = make(map[string]func() (*schema.WorkItemAnalysis, error))
	for _, c := range s.cfg.Collections {
		if !c.WorkItems.Enabled() {
			continue
		}
		s.workItems[c.Name] = sync.OnceValues(func() (*schema.WorkItemAnalysis, error) {
			return s.analyzeWorkItems(ctx, c)
		})
	}
}

func (s *Scraper) beginRun(start time.Time, units []Unit) int64 {
	if s.store == nil {
		return 0
	}
	params := map[string]any{
		"host":        s.cfg.Host,
		"lookback":    s.cfg.Lookback.String(),
		"workers":     s.cfg.Workers,
		"projects":    len(units),
		"sonar":       s.sonar != nil,
		"collections": len(s.cfg.Collections),
	}
	runID, err := s.store.BeginRun(start, params)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	return runID
}

// summarize partitions the results, prints them and closes the run record.
func (s *Scraper) summarize(runID int64, start time.Time, units []Unit, results []algo.Result[schema.ProjectAnalysis]) (schema.RunSummary, error) {
	succeeded, failed := algo.Partition(results)
	summary := schema.RunSummary{
		RunID:     runID,
		Total:     len(units),
		Succeeded: make([]string, 0, len(succeeded)),
		Failed:    make([]string, 0, len(failed)),
		Duration:  s.now().Sub(start).Round(time.Millisecond).String(),
	}
	for _, i := range succeeded {
		summary.Succeeded = append(summary.Succeeded, units[i].Key())
	}
	for _, i := range failed {
		summary.Failed = append(summary.Failed, units[i].Key())
		summary.Errors = append(summary.Errors, results[i].Err.Error())
	}
	summary.State = schema.StateDone
	if len(failed) > 0 {
		summary.State = schema.StateFailed
	}

	if err := outwriter.PrintRunSummary(s.stdout, summary, s.cfg.UseColors); err != nil {
		contract.LogWarn("Failed to print run summary", err)
	}
	if s.store != nil && runID > 0 {
		if err := s.store.EndRun(runID, s.now(), len(units), len(failed)); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	if len(failed) > 0 {
		return summary, &RunFailedError{Failed: len(failed), Total: len(units)}
	}
	return summary, nil
}

// writeArtifacts records repo ratings and writes the output files.
func (s *Scraper) writeArtifacts(runID int64, projects []schema.ProjectAnalysis, summary schema.RunSummary) error {
	var records []schema.RepoRatingRecord
	for _, p := range projects {
		for _, repo := range p.RepoAnalysis {
			records = append(records, schema.NewRepoRatingRecord(runID, p.Collection, p.Project, repo))
		}
	}
	if s.store != nil && runID > 0 {
		for _, rec := range records {
			if err := s.store.RecordRepoRating(rec); err != nil {
				return fmt.Errorf("failed to record rating of %s/%s/%s: %w", rec.Collection, rec.Project, rec.Repo, err)
			}
		}
	}

	tracks := make(map[string][]schema.TrackMetric)
	for _, p := range projects {
		if p.WorkItems != nil {
			tracks[p.Collection] = p.WorkItems.Tracks
		}
	}

	if err := s.out.WriteArtifacts(outwriter.Artifacts{
		Projects: projects,
		Rollup:   records,
		Tracks:   tracks,
		Summary:  summary,
	}); err != nil {
		return err
	}

	rows := make([]schema.RollupRow, len(records))
	for i, r := range records {
		rows[i] = r.RollupRow()
	}
	return outwriter.PrintRollupTable(s.stdout, algo.RankRepos(rows, 0), s.cfg.UseColors)
}

package agg

import (
	"slices"
	"time"

	"github.com/huangsam/devhealth/core/hierarchy"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
)

// CycleTime is the time from the first move into an in-progress state to
// the first later move into a done state. It is false when either is missing.
func CycleTime(revs []schema.WorkItemRevision, inProgress, done []string) (time.Duration, bool) {
	revs = slices.Clone(revs)
	slices.SortFunc(revs, func(a, b schema.WorkItemRevision) int { return a.Rev - b.Rev })

	var started time.Time
	prev := ""
	for _, r := range revs {
		state := r.State()
		if state == prev {
			continue
		}
		prev = state
		switch {
		case started.IsZero() && slices.Contains(inProgress, state):
			started = r.ChangedDate()
		case !started.IsZero() && slices.Contains(done, state):
			finished := r.ChangedDate()
			if finished.Before(started) {
				return 0, false
			}
			return finished.Sub(started), true
		}
	}
	return 0, false
}

// Completed reports whether a work item is in a done state.
func Completed(item schema.WorkItem, cfg contract.WorkItemsConfig) bool {
	return slices.Contains(cfg.DoneStates, item.State())
}

// IsLeaf reports whether a work item counts toward tracks. No configured
// leaf types means every type counts.
func IsLeaf(item schema.WorkItem, cfg contract.WorkItemsConfig) bool {
	return len(cfg.LeafTypes) == 0 || slices.Contains(cfg.LeafTypes, item.Type())
}

// TrackMetrics summarizes the leaves below every top-level ancestor.
// Revisions are keyed by work-item id; items without revisions add no cycle time.
func TrackMetrics(wi schema.WorkItemAnalysis, revisions map[int][]schema.WorkItemRevision, cfg contract.WorkItemsConfig) []schema.TrackMetric {
	var tracks []schema.TrackMetric
	for _, id := range wi.IDsByParent[schema.RootWorkItemID] {
		root := wi.ByID[id]
		m := schema.TrackMetric{ID: id, Title: root.Title(), Type: root.Type()}

		var total time.Duration
		var measured int
		for _, d := range hierarchy.Descendants(wi.IDsByParent, id) {
			item, ok := wi.ByID[d]
			if !ok || !IsLeaf(item, cfg) {
				continue
			}
			m.Descendants++
			if !Completed(item, cfg) {
				continue
			}
			m.Completed++
			if ct, ok := CycleTime(revisions[d], cfg.InProgressStates, cfg.DoneStates); ok {
				total += ct
				measured++
			}
		}
		m.AvgCycleTimeDays = round2(ratio(contract.DurationDays(total), float64(measured)))
		tracks = append(tracks, m)
	}
	return tracks
}

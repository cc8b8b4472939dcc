package schema

import "time"

// WorkItem is the subset of work-item fields used for tracking.
type WorkItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
	URL    string         `json:"url,omitempty"`
}

// Type returns the System.WorkItemType field.
func (w WorkItem) Type() string { return w.stringField("System.WorkItemType") }

// State returns the System.State field.
func (w WorkItem) State() string { return w.stringField("System.State") }

// Title returns the System.Title field.
func (w WorkItem) Title() string { return w.stringField("System.Title") }

func (w WorkItem) stringField(name string) string {
	if s, ok := w.Fields[name].(string); ok {
		return s
	}
	return ""
}

// WorkItemRevision is one historical version of a work item.
type WorkItemRevision struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields map[string]any `json:"fields"`
}

// State returns the System.State field of the revision.
func (r WorkItemRevision) State() string {
	s, _ := r.Fields["System.State"].(string)
	return s
}

// ChangedDate returns the System.ChangedDate field of the revision.
func (r WorkItemRevision) ChangedDate() time.Time {
	s, _ := r.Fields["System.ChangedDate"].(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// WorkItemRelationEdge is one parent-child link. Either end may be missing.
type WorkItemRelationEdge struct {
	SourceID *int `json:"source"`
	TargetID *int `json:"target"`
}

// AncestorResult is the tagged outcome of a group-ancestor search.
type AncestorResult struct {
	Kind AncestorKind
	IDs  []int
}

// Found builds a result holding the qualifying ancestors.
func Found(ids []int) AncestorResult {
	return AncestorResult{Kind: AncestorFound, IDs: ids}
}

// NotFound builds an empty result.
func NotFound() AncestorResult {
	return AncestorResult{Kind: AncestorNotFound}
}

// CycleDetected builds an empty result flagged with a cycle.
func CycleDetected() AncestorResult {
	return AncestorResult{Kind: AncestorCycleDetected}
}

// TrackMetric summarizes the work under one group-under ancestor.
type TrackMetric struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Type             string  `json:"type"`
	Descendants      int     `json:"descendants"`
	Completed        int     `json:"completed"`
	AvgCycleTimeDays float64 `json:"avgCycleTimeDays"`
}

// WorkItemAnalysis is the work-item view shared by a collection.
type WorkItemAnalysis struct {
	ByID        map[int]WorkItem `json:"byId"`
	IDsByParent map[int][]int    `json:"idsByParent"`
	Tracks      []TrackMetric    `json:"tracks"`
}

package agg

import (
	"testing"
	"time"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workItemsCfg = contract.WorkItemsConfig{
	GroupUnder:       []string{"Feature"},
	LeafTypes:        []string{"User Story", "Bug"},
	InProgressStates: []string{"Active"},
	DoneStates:       []string{"Closed"},
}

func rev(rev int, state string, at time.Time) schema.WorkItemRevision {
	return schema.WorkItemRevision{Rev: rev, Fields: map[string]any{
		"System.State":       state,
		"System.ChangedDate": at.Format(time.RFC3339Nano),
	}}
}

func item(id int, typ, state string) schema.WorkItem {
	return schema.WorkItem{ID: id, Fields: map[string]any{
		"System.WorkItemType": typ,
		"System.State":        state,
		"System.Title":        typ + " item",
	}}
}

func TestCycleTime(t *testing.T) {
	day := func(n int) time.Time { return testEnd.Add(time.Duration(n) * 24 * time.Hour) }
	active, closed := workItemsCfg.InProgressStates, workItemsCfg.DoneStates

	tests := []struct {
		name string
		revs []schema.WorkItemRevision
		want time.Duration
		ok   bool
	}{
		{"simple", []schema.WorkItemRevision{rev(1, "New", day(0)), rev(2, "Active", day(1)), rev(3, "Closed", day(4))}, 72 * time.Hour, true},
		{"unordered input", []schema.WorkItemRevision{rev(3, "Closed", day(4)), rev(1, "New", day(0)), rev(2, "Active", day(1))}, 72 * time.Hour, true},
		{"first transitions win", []schema.WorkItemRevision{
			rev(1, "Active", day(0)), rev(2, "Active", day(1)), rev(3, "New", day(2)),
			rev(4, "Active", day(3)), rev(5, "Closed", day(5)), rev(6, "Closed", day(9)),
		}, 120 * time.Hour, true},
		{"never started", []schema.WorkItemRevision{rev(1, "New", day(0)), rev(2, "Closed", day(2))}, 0, false},
		{"never finished", []schema.WorkItemRevision{rev(1, "Active", day(0))}, 0, false},
		{"no revisions", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CycleTime(tt.revs, active, closed)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrackMetrics(t *testing.T) {
	wi := schema.WorkItemAnalysis{
		ByID: map[int]schema.WorkItem{
			10: item(10, "Feature", "Active"),
			11: item(11, "User Story", "Closed"),
			12: item(12, "User Story", "Active"),
			13: item(13, "Task", "Closed"),
			14: item(14, "Bug", "Closed"),
			20: item(20, "Feature", "New"),
		},
		IDsByParent: map[int][]int{
			schema.RootWorkItemID: {10, 20},
			10:                    {11, 12, 14},
			11:                    {13},
		},
	}
	revisions := map[int][]schema.WorkItemRevision{
		11: {rev(1, "Active", testEnd), rev(2, "Closed", testEnd.Add(48*time.Hour))},
		14: {rev(1, "Active", testEnd), rev(2, "Closed", testEnd.Add(24*time.Hour))},
	}

	tracks := TrackMetrics(wi, revisions, workItemsCfg)
	require.Len(t, tracks, 2)
	assert.Equal(t, schema.TrackMetric{
		ID: 10, Title: "Feature item", Type: "Feature",
		Descendants: 3, Completed: 2, AvgCycleTimeDays: 1.5,
	}, tracks[0])
	assert.Equal(t, schema.TrackMetric{ID: 20, Title: "Feature item", Type: "Feature"}, tracks[1])
}

func TestIsLeafWithoutConfiguredTypes(t *testing.T) {
	assert.True(t, IsLeaf(item(1, "Anything", ""), contract.WorkItemsConfig{}))
	assert.False(t, IsLeaf(item(1, "Task", ""), workItemsCfg))
	assert.True(t, Completed(item(1, "Bug", "Closed"), workItemsCfg))
}

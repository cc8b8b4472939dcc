package hierarchy

import (
	"testing"

	"github.com/huangsam/devhealth/schema"
	"github.com/stretchr/testify/assert"
)

func edge(source, target int) schema.WorkItemRelationEdge {
	return schema.WorkItemRelationEdge{SourceID: &source, TargetID: &target}
}

func rootEdge(target int) schema.WorkItemRelationEdge {
	return schema.WorkItemRelationEdge{TargetID: &target}
}

func TestFindGroupAncestor(t *testing.T) {
	// 1 Epic -> 2 Feature -> 3 Story -> 4 Task
	//           5 Feature -> 3 Story (second parent)
	// 6 Story -> 7 Task (no feature above)
	// 8 Story <-> 9 Story (cycle), 8 Story -> 60 Task
	// 43 Story -> 41 Story, 42 Story -> 40 Task (diamond, no feature above)
	// 53 Feature -> 51 Story, 52 Story -> 50 Task (diamond under a feature)
	edges := []schema.WorkItemRelationEdge{
		rootEdge(1),
		edge(1, 2),
		edge(2, 3),
		edge(3, 4),
		edge(5, 3),
		rootEdge(6),
		edge(6, 7),
		edge(8, 9),
		edge(9, 8),
		edge(8, 60),
		edge(43, 41), edge(43, 42), edge(41, 40), edge(42, 40),
		edge(53, 51), edge(53, 52), edge(51, 50), edge(52, 50),
		{SourceID: nil, TargetID: nil},
	}
	types := map[int]string{
		1: "Epic", 2: "Feature", 3: "User Story", 4: "Task", 5: "Feature",
		6: "User Story", 7: "Task", 8: "User Story", 9: "User Story", 60: "Task",
		40: "Task", 41: "User Story", 42: "User Story", 43: "User Story",
		50: "Task", 51: "User Story", 52: "User Story", 53: "Feature",
	}
	b := New(edges, types, []string{"Feature"})

	tests := []struct {
		name     string
		id       int
		expected schema.AncestorResult
	}{
		{"self qualifies", 2, schema.Found([]int{2})},
		{"direct parent", 3, schema.Found([]int{2, 5})},
		{"grandparent via two paths", 4, schema.Found([]int{2, 5})},
		{"no qualifying ancestor", 7, schema.NotFound()},
		{"above the group type", 1, schema.NotFound()},
		{"cycle terminates", 8, schema.CycleDetected()},
		{"cycle from other side", 9, schema.CycleDetected()},
		{"cycle above the item", 60, schema.CycleDetected()},
		{"diamond without group type", 40, schema.NotFound()},
		{"diamond middle", 41, schema.NotFound()},
		{"diamond under group type", 50, schema.Found([]int{53})},
		{"unknown id", 999, schema.NotFound()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.FindGroupAncestor(tt.id))
		})
	}
}

func TestFindGroupAncestorSelfLoop(t *testing.T) {
	b := New([]schema.WorkItemRelationEdge{edge(1, 1)}, map[int]string{1: "Task"}, []string{"Feature"})
	assert.Equal(t, schema.CycleDetected(), b.FindGroupAncestor(1))
}

func TestFindGroupAncestorMissingTypes(t *testing.T) {
	// 2 has no type, so it cannot qualify but can still be walked through
	b := New([]schema.WorkItemRelationEdge{edge(1, 2), edge(2, 3)}, map[int]string{1: "Feature", 3: "Task"}, []string{"Feature"})
	assert.Equal(t, schema.Found([]int{1}), b.FindGroupAncestor(3))

	b = New([]schema.WorkItemRelationEdge{edge(1, 2)}, nil, []string{"Feature"})
	assert.Equal(t, schema.NotFound(), b.FindGroupAncestor(2))
}

func TestFindGroupAncestorLongCycle(t *testing.T) {
	var edges []schema.WorkItemRelationEdge
	const n = 10000
	types := map[int]string{}
	for i := 1; i <= n; i++ {
		edges = append(edges, edge(i, i%n+1))
		types[i] = "Task"
	}
	b := New(edges, types, []string{"Feature"})
	assert.Equal(t, schema.CycleDetected(), b.FindGroupAncestor(1))
}

func TestIDsByParent(t *testing.T) {
	edges := []schema.WorkItemRelationEdge{
		rootEdge(1),
		edge(1, 2),
		edge(1, 2),
		edge(1, 3),
		edge(2, 4),
		{SourceID: intPtr(5)},
	}
	b := New(edges, nil, nil)
	tree := b.IDsByParent([]int{1, 1, 7})

	assert.Equal(t, map[int][]int{
		schema.RootWorkItemID: {1, 7},
		1:                     {2, 3},
		2:                     {4},
	}, tree)
}

func TestGroupLeaves(t *testing.T) {
	edges := []schema.WorkItemRelationEdge{
		edge(10, 11), edge(11, 12), edge(11, 13),
		edge(20, 21),
		edge(30, 31),
	}
	types := map[int]string{10: "Feature", 11: "Story", 12: "Task", 13: "Task", 20: "Feature", 21: "Task", 31: "Task"}
	b := New(edges, types, []string{"Feature"})

	topLevel, grouped := b.GroupLeaves([]int{12, 13, 21, 31, 10})
	assert.Equal(t, []int{10, 20}, topLevel)
	assert.Equal(t, map[int][]int{10: {12, 13}, 20: {21}}, grouped)
}

func TestDescendants(t *testing.T) {
	tree := map[int][]int{
		schema.RootWorkItemID: {1},
		1:                     {2, 3},
		2:                     {4},
		4:                     {1}, // cycle back up
	}
	assert.Equal(t, []int{2, 3, 4}, Descendants(tree, 1))
	assert.Equal(t, []int{1, 2, 3, 4}, Descendants(tree, schema.RootWorkItemID))
	assert.Empty(t, Descendants(tree, 3))
}

func intPtr(i int) *int { return &i }

// Package hierarchy rebuilds the work-item forest from a flat list of link
// relations and finds each item's group-under ancestors.
package hierarchy

import (
	"slices"

	"github.com/huangsam/devhealth/schema"
)

// Builder answers ancestor queries over one set of relation edges. The
// edges may contain cycles.
type Builder struct {
	edges             []schema.WorkItemRelationEdge
	sourcesByTargetID map[int][]int
	types             map[int]string
	groupUnder        map[string]bool
}

// New indexes the predecessors of every target. Edges without a target are
// skipped, and edges without a source add no predecessor.
func New(edges []schema.WorkItemRelationEdge, types map[int]string, groupUnder []string) *Builder {
	b := &Builder{
		edges:             edges,
		sourcesByTargetID: make(map[int][]int),
		types:             types,
		groupUnder:        make(map[string]bool, len(groupUnder)),
	}
	for _, t := range groupUnder {
		b.groupUnder[t] = true
	}
	for _, e := range edges {
		if e.TargetID == nil {
			continue
		}
		if _, ok := b.sourcesByTargetID[*e.TargetID]; !ok {
			b.sourcesByTargetID[*e.TargetID] = nil
		}
		if e.SourceID == nil {
			continue
		}
		b.sourcesByTargetID[*e.TargetID] = append(b.sourcesByTargetID[*e.TargetID], *e.SourceID)
	}
	return b
}

// qualifies reports whether id has a group-under type. Unknown types never qualify.
func (b *Builder) qualifies(id int) bool {
	t, ok := b.types[id]
	return ok && b.groupUnder[t]
}

// FindGroupAncestor walks predecessors of id until it reaches items of a
// group-under type. An item that qualifies itself is its own ancestor.
// Walks stop at qualifying items, so a qualifying item's own ancestors are
// never visited.
func (b *Builder) FindGroupAncestor(id int) schema.AncestorResult {
	if b.qualifies(id) {
		return schema.Found([]int{id})
	}

	visited := map[int]bool{id: true}
	walked := []int{id}
	stack := []int{id}
	found := map[int]bool{}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, pred := range b.sourcesByTargetID[current] {
			if visited[pred] {
				continue
			}
			visited[pred] = true
			if b.qualifies(pred) {
				found[pred] = true
				continue
			}
			walked = append(walked, pred)
			stack = append(stack, pred)
		}
	}

	switch {
	case len(found) > 0:
		ids := make([]int, 0, len(found))
		for fid := range found {
			ids = append(ids, fid)
		}
		slices.Sort(ids)
		return schema.Found(ids)
	case b.hasCycle(walked):
		return schema.CycleDetected()
	default:
		return schema.NotFound()
	}
}

// hasCycle reports whether the predecessor edges among nodes form a cycle.
// Nodes reached twice through separate paths are not a cycle.
func (b *Builder) hasCycle(nodes []int) bool {
	inDegree := make(map[int]int, len(nodes))
	for _, n := range nodes {
		inDegree[n] = 0
	}
	for _, n := range nodes {
		for _, pred := range b.sourcesByTargetID[n] {
			if _, ok := inDegree[pred]; ok {
				inDegree[pred]++
			}
		}
	}

	var ready []int
	for _, n := range nodes {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	removed := 0
	for len(ready) > 0 {
		n := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		removed++
		for _, pred := range b.sourcesByTargetID[n] {
			if _, ok := inDegree[pred]; !ok {
				continue
			}
			inDegree[pred]--
			if inDegree[pred] == 0 {
				ready = append(ready, pred)
			}
		}
	}
	return removed < len(nodes)
}

// IDsByParent builds the display tree: every source maps to its distinct
// targets, and the synthetic root maps to topLevel.
func (b *Builder) IDsByParent(topLevel []int) map[int][]int {
	out := map[int][]int{schema.RootWorkItemID: dedupe(topLevel)}
	seen := map[[2]int]bool{}
	for _, e := range b.edges {
		if e.SourceID == nil || e.TargetID == nil {
			continue
		}
		pair := [2]int{*e.SourceID, *e.TargetID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		out[*e.SourceID] = append(out[*e.SourceID], *e.TargetID)
	}
	return out
}

// GroupLeaves resolves the ancestors of every leaf. It returns the distinct
// ancestors in first-seen order and the leaves grouped under each of them.
// Leaves without an ancestor are left out.
func (b *Builder) GroupLeaves(leafIDs []int) (topLevel []int, grouped map[int][]int) {
	grouped = make(map[int][]int)
	for _, leaf := range leafIDs {
		res := b.FindGroupAncestor(leaf)
		if res.Kind != schema.AncestorFound {
			continue
		}
		for _, anc := range res.IDs {
			if _, ok := grouped[anc]; !ok {
				topLevel = append(topLevel, anc)
				grouped[anc] = nil
			}
			if anc != leaf && !slices.Contains(grouped[anc], leaf) {
				grouped[anc] = append(grouped[anc], leaf)
			}
		}
	}
	return topLevel, grouped
}

// Descendants returns every item reachable below id, excluding id itself.
func Descendants(idsByParent map[int][]int, id int) []int {
	visited := map[int]bool{id: true}
	stack := []int{id}
	var out []int
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range idsByParent[current] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			stack = append(stack, child)
		}
	}
	slices.Sort(out)
	return out
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/devhealth/core/agg"
	"github.com/huangsam/devhealth/core/hierarchy"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
	"golang.org/x/sync/errgroup"
)

// hierarchyQuery is the name and text of the parent-child link query.
const (
	hierarchyQuery = "hierarchy"
	hierarchyWIQL  = "SELECT [System.Id] FROM WorkItemLinks " +
		"WHERE [Source].[System.TeamProject] <> '' " +
		"AND [System.Links.LinkType] = 'System.LinkTypes.Hierarchy-Forward' " +
		"MODE (Recursive)"
)

// Type categories whose types count as leaves when none are configured.
var leafCategories = []string{"Microsoft.RequirementCategory", "Microsoft.BugCategory"}

// analyzeWorkItems builds the work-item tree and track metrics of one
// collection. Every project of the collection shares the result.
func (s *Scraper) analyzeWorkItems(ctx context.Context, col contract.CollectionConfig) (*schema.WorkItemAnalysis, error) {
	cfg := col.WorkItems
	project := col.Projects[0]

	types, err := s.azdo.GetWorkItemTypes(ctx, col.Name, project)
	if err != nil {
		return nil, fmt.Errorf("work-item types: %w", err)
	}
	known := make(map[string]bool, len(types))
	for _, t := range types {
		known[t.Name] = true
	}
	for _, g := range cfg.GroupUnder {
		if !known[g] {
			contract.LogWarn("Unknown group-under type in "+col.Name, fmt.Errorf("%q is not a work-item type", g))
		}
	}

	if len(cfg.LeafTypes) == 0 {
		categories, err := s.azdo.GetWorkItemTypeCategories(ctx, col.Name, project)
		if err != nil {
			return nil, fmt.Errorf("work-item type categories: %w", err)
		}
		cfg.LeafTypes = leafTypesOf(categories)
	}

	res, err := s.azdo.GetWorkItemIDsForQuery(ctx, col.Name, hierarchyQuery, hierarchyWIQL)
	if err != nil {
		return nil, err
	}
	items, err := s.azdo.GetWorkItemsByID(ctx, col.Name, hierarchyQuery, res.IDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]schema.WorkItem, len(items))
	typesByID := make(map[int]string, len(items))
	var leaves []int
	for _, item := range items {
		byID[item.ID] = item
		if t := item.Type(); t != "" {
			typesByID[item.ID] = t
		}
		if agg.IsLeaf(item, cfg) {
			leaves = append(leaves, item.ID)
		}
	}
	slices.Sort(leaves)

	b := hierarchy.New(res.Edges, typesByID, cfg.GroupUnder)
	topLevel, grouped := b.GroupLeaves(leaves)
	wi := &schema.WorkItemAnalysis{ByID: byID, IDsByParent: b.IDsByParent(topLevel)}
	contract.LogVerbose("%s: %d work items, %d leaves under %d group-under ancestors", col.Name, len(items), len(leaves), len(topLevel))

	revisions, err := s.completedRevisions(ctx, col.Name, byID, grouped, cfg)
	if err != nil {
		return nil, err
	}
	wi.Tracks = agg.TrackMetrics(*wi, revisions, cfg)
	return wi, nil
}

// completedRevisions fetches the revisions of completed grouped leaves,
// which are the only items with a cycle time.
func (s *Scraper) completedRevisions(ctx context.Context, collection string, byID map[int]schema.WorkItem, grouped map[int][]int, cfg contract.WorkItemsConfig) (map[int][]schema.WorkItemRevision, error) {
	seen := make(map[int]bool)
	var ids []int
	for _, leaves := range grouped {
		for _, id := range leaves {
			if !seen[id] && agg.Completed(byID[id], cfg) {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)

	revs := make([][]schema.WorkItemRevision, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Workers, 1))
	for i, id := range ids {
		g.Go(func() error {
			r, err := s.azdo.GetWorkItemRevisions(gctx, collection, id)
			if err != nil {
				return fmt.Errorf("revisions of work item %d: %w", id, err)
			}
			revs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int][]schema.WorkItemRevision, len(ids))
	for i, id := range ids {
		out[id] = revs[i]
	}
	return out, nil
}

// leafTypesOf collects the type names of the requirement and bug categories.
func leafTypesOf(categories []azdo.WorkItemTypeCategory) []string {
	var names []string
	for _, c := range categories {
		if !slices.Contains(leafCategories, c.ReferenceName) {
			continue
		}
		for _, t := range c.WorkItemTypes {
			if !slices.Contains(names, t.Name) {
				names = append(names, t.Name)
			}
		}
	}
	slices.Sort(names)
	return names
}

package azdo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/fetch"
	"github.com/huangsam/devhealth/schema"
)

// WIQLResult is the outcome of a work-item query. Link queries fill Edges;
// flat queries leave it empty.
type WIQLResult struct {
	IDs   []int
	Edges []schema.WorkItemRelationEdge
}

type wiqlRef struct {
	ID int `json:"id"`
}

type wiqlResponse struct {
	WorkItems         []wiqlRef `json:"workItems"`
	WorkItemRelations []struct {
		Rel    string   `json:"rel"`
		Source *wiqlRef `json:"source"`
		Target *wiqlRef `json:"target"`
	} `json:"workItemRelations"`
}

// GetWorkItemTypes lists the work-item types of a collection. The project
// only selects the process; the result is cached per collection.
func (c *Client) GetWorkItemTypes(ctx context.Context, collection, project string) ([]WorkItemType, error) {
	return singleList[WorkItemType](ctx, c, c.url(collection, project, "_apis/wit/workitemtypes"),
		baseQuery(), []string{collection, "work-item-types"})
}

// GetWorkItemTypeCategories lists the type categories of a collection.
func (c *Client) GetWorkItemTypeCategories(ctx context.Context, collection, project string) ([]WorkItemTypeCategory, error) {
	return singleList[WorkItemTypeCategory](ctx, c, c.url(collection, project, "_apis/wit/workitemtypecategories"),
		baseQuery(), []string{collection, "work-item-type-categories"})
}

func byIDKey(collection, name string) []string {
	return []string{collection, "wiql", name + "-by-id"}
}

// GetWorkItemIDsForQuery runs a named WIQL query. When the id list is served
// from the cache, the dependent by-id records of the query are invalidated
// so item details are refetched.
func (c *Client) GetWorkItemIDsForQuery(ctx context.Context, collection, name, wiql string) (WIQLResult, error) {
	body, err := json.Marshal(map[string]string{"query": wiql})
	if err != nil {
		return WIQLResult{}, fmt.Errorf("failed to encode query: %w", err)
	}

	key := []string{collection, "wiql", name}
	rec, err := c.cache.Get(ctx, key, c.transport.PostFetcher(c.url(collection, "_apis/wit/wiql"), baseQuery(), body))
	if err != nil {
		return WIQLResult{}, fmt.Errorf("wiql %s: %w", name, err)
	}
	if rec.FromCache {
		contract.LogVerbose("invalidating %s", strings.Join(byIDKey(collection, name), "/"))
		if err := c.cache.Invalidate(byIDKey(collection, name)); err != nil {
			return WIQLResult{}, fmt.Errorf("failed to invalidate work items of %s: %w", name, err)
		}
	}

	var resp wiqlResponse
	if err := rec.Decode(&resp); err != nil {
		return WIQLResult{}, fmt.Errorf("wiql %s: %w", name, err)
	}
	return resp.result(), nil
}

func (r wiqlResponse) result() WIQLResult {
	var out WIQLResult
	seen := map[int]bool{}
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			out.IDs = append(out.IDs, id)
		}
	}
	for _, w := range r.WorkItems {
		add(w.ID)
	}
	for _, rel := range r.WorkItemRelations {
		var edge schema.WorkItemRelationEdge
		if rel.Source != nil {
			id := rel.Source.ID
			edge.SourceID = &id
		}
		if rel.Target != nil {
			id := rel.Target.ID
			edge.TargetID = &id
			add(id)
		}
		out.Edges = append(out.Edges, edge)
	}
	return out
}

// GetWorkItemsByID fetches work items in chunks of WorkItemsChunkSize. The
// chunks are cached under the by-id subtree of the named query.
func (c *Client) GetWorkItemsByID(ctx context.Context, collection, name string, ids []int) ([]schema.WorkItem, error) {
	var out []schema.WorkItem
	for chunk, start := 0, 0; start < len(ids); chunk, start = chunk+1, start+WorkItemsChunkSize {
		end := min(start+WorkItemsChunkSize, len(ids))
		parts := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			parts = append(parts, strconv.Itoa(id))
		}
		key := append(byIDKey(collection, name), strconv.Itoa(chunk))
		items, err := singleList[schema.WorkItem](ctx, c, c.url(collection, "_apis/wit/workitems"),
			baseQuery("ids", strings.Join(parts, ","), "errorPolicy", "omit"), key)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// GetWorkItemRevisions lists every revision of a work item.
func (c *Client) GetWorkItemRevisions(ctx context.Context, collection string, id int) ([]schema.WorkItemRevision, error) {
	sid := strconv.Itoa(id)
	req := fetch.SkipOffset(revisionsPageSize, baseQuery()).
		Request(c.url(collection, "_apis/wit/workItems", sid, "revisions"), fetch.PagedKey(collection, "work-item-revisions", sid))
	return list[schema.WorkItemRevision](ctx, c, req)
}

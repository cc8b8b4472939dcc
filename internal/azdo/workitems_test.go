package azdo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wiqlHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var q map[string]string
		assert.NoError(t, json.Unmarshal(body, &q))
		assert.Contains(t, q["query"], "WorkItemLinks")
		writeJSON(w, map[string]any{
			"workItemRelations": []any{
				map[string]any{"rel": nil, "source": nil, "target": map[string]any{"id": 1}},
				map[string]any{"rel": "System.LinkTypes.Hierarchy-Forward", "source": map[string]any{"id": 1}, "target": map[string]any{"id": 2}},
				map[string]any{"rel": "System.LinkTypes.Hierarchy-Forward", "source": map[string]any{"id": 1}, "target": map[string]any{"id": 3}},
			},
		})
	}
}

func byIDHandler(w http.ResponseWriter, r *http.Request) {
	var items []any
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		items = append(items, map[string]any{"id": json.Number(id), "fields": map[string]any{"System.WorkItemType": "Task"}})
	}
	writeJSON(w, envelope(items...))
}

func TestGetWorkItemIDsForQuery(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("POST /coll/_apis/wit/wiql", wiqlHandler(t))

	res, err := api.client.GetWorkItemIDsForQuery(context.Background(), "coll", "tree", "SELECT [System.Id] FROM WorkItemLinks")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, res.IDs)
	require.Len(t, res.Edges, 3)
	assert.Nil(t, res.Edges[0].SourceID)
	assert.Equal(t, 1, *res.Edges[0].TargetID)
	assert.Equal(t, 1, *res.Edges[1].SourceID)
	assert.Equal(t, 3, *res.Edges[2].TargetID)
}

func TestWorkItemQueryInvalidatesByIDOnCacheHit(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("POST /coll/_apis/wit/wiql", wiqlHandler(t))
	api.handle("GET /coll/_apis/wit/workitems", byIDHandler)
	ctx := context.Background()
	const wiql = "SELECT [System.Id] FROM WorkItemLinks"

	// Fresh query: nothing invalidated, by-id fetched once then cached
	res, err := api.client.GetWorkItemIDsForQuery(ctx, "coll", "tree", wiql)
	require.NoError(t, err)
	_, err = api.client.GetWorkItemsByID(ctx, "coll", "tree", res.IDs)
	require.NoError(t, err)
	_, err = api.client.GetWorkItemsByID(ctx, "coll", "tree", res.IDs)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("GET /coll/_apis/wit/workitems"))

	// Cached query: the by-id subtree is dropped
	res, err = api.client.GetWorkItemIDsForQuery(ctx, "coll", "tree", wiql)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("POST /coll/_apis/wit/wiql"))

	rec, err := api.cache.Peek([]string{"coll", "wiql", "tree-by-id", "0"})
	require.NoError(t, err)
	assert.Nil(t, rec)

	items, err := api.client.GetWorkItemsByID(ctx, "coll", "tree", res.IDs)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 2, api.count("GET /coll/_apis/wit/workitems"))
}

func TestWorkItemQueryFreshFetchKeepsByID(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("POST /coll/_apis/wit/wiql", wiqlHandler(t))
	api.handle("GET /coll/_apis/wit/workitems", byIDHandler)
	ctx := context.Background()

	_, err := api.client.GetWorkItemsByID(ctx, "coll", "tree", []int{1})
	require.NoError(t, err)

	_, err = api.client.GetWorkItemIDsForQuery(ctx, "coll", "tree", "SELECT [System.Id] FROM WorkItemLinks")
	require.NoError(t, err)

	rec, err := api.cache.Peek([]string{"coll", "wiql", "tree-by-id", "0"})
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestGetWorkItemsByIDChunks(t *testing.T) {
	api := newFakeAPI(t)
	var sizes []int
	api.handle("GET /coll/_apis/wit/workitems", func(w http.ResponseWriter, r *http.Request) {
		sizes = append(sizes, len(strings.Split(r.URL.Query().Get("ids"), ",")))
		byIDHandler(w, r)
	})

	ids := make([]int, 450)
	for i := range ids {
		ids[i] = i + 1
	}
	items, err := api.client.GetWorkItemsByID(context.Background(), "coll", "all", ids)
	require.NoError(t, err)
	assert.Len(t, items, 450)
	assert.Equal(t, []int{200, 200, 50}, sizes)
	assert.Equal(t, "Task", items[449].Type())

	for _, chunk := range []string{"0", "1", "2"} {
		rec, err := api.cache.Peek([]string{"coll", "wiql", "all-by-id", chunk})
		require.NoError(t, err)
		assert.NotNil(t, rec, chunk)
	}

	none, err := api.client.GetWorkItemsByID(context.Background(), "coll", "all", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetWorkItemRevisions(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /coll/_apis/wit/workItems/5/revisions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "200", r.URL.Query().Get("$top"))
		writeJSON(w, envelope(
			map[string]any{"id": 5, "rev": 1, "fields": map[string]any{"System.State": "New", "System.ChangedDate": "2025-05-01T00:00:00Z"}},
			map[string]any{"id": 5, "rev": 2, "fields": map[string]any{"System.State": "Active", "System.ChangedDate": "2025-05-03T00:00:00Z"}},
		))
	})

	revs, err := api.client.GetWorkItemRevisions(context.Background(), "coll", 5)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "Active", revs[1].State())
	assert.Equal(t, 3, revs[1].ChangedDate().Day())
}

func TestWorkItemTypesCachedPerCollection(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /coll/p1/_apis/wit/workitemtypes", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, envelope(map[string]any{"name": "Feature"}, map[string]any{"name": "Bug"}))
	})
	api.handle("GET /coll/p1/_apis/wit/workitemtypecategories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, envelope(map[string]any{
			"referenceName":       "Microsoft.RequirementCategory",
			"defaultWorkItemType": map[string]any{"name": "User Story"},
		}))
	})

	types, err := api.client.GetWorkItemTypes(context.Background(), "coll", "p1")
	require.NoError(t, err)
	assert.Len(t, types, 2)

	// Any project of the collection reads the same record
	types, err = api.client.GetWorkItemTypes(context.Background(), "coll", "p2")
	require.NoError(t, err)
	assert.Len(t, types, 2)
	assert.Equal(t, 1, api.count("GET /coll/p1/_apis/wit/workitemtypes"))

	cats, err := api.client.GetWorkItemTypeCategories(context.Background(), "coll", "p1")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "User Story", cats[0].DefaultWorkItemType.Name)
}

// Package azdo reads the DevOps REST API through the disk cache.
package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/devhealth/internal/fetch"
	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/huangsam/devhealth/schema"
)

const (
	apiVersion         = "7.0"
	continuationHeader = "x-ms-continuationtoken"
	revisionsPageSize  = 200
)

// WorkItemsChunkSize caps the ids of one work-items request.
const WorkItemsChunkSize = 200

// Cache is the part of the disk cache the client uses.
type Cache interface {
	fetch.Cache
	Invalidate(prefix []string) error
}

// Transport is the part of the HTTP transport the client uses.
type Transport interface {
	fetch.Getter
	PostFetcher(rawURL string, query url.Values, body []byte) iocache.FetchFunc
}

// Client exposes one operation per upstream resource. Cache keys start with
// the collection and project so entries stay navigable on disk.
type Client struct {
	host      string
	cache     Cache
	transport Transport
	lookback  time.Duration
	now       func() time.Time
}

// NewClient creates a client for host. Lookback bounds the time-filtered
// resources such as builds and releases.
func NewClient(host string, cache Cache, transport Transport, lookback time.Duration) *Client {
	return &Client{
		host:      strings.TrimRight(host, "/"),
		cache:     cache,
		transport: transport,
		lookback:  lookback,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for lookback windows.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

func (c *Client) since() string {
	return c.now().Add(-c.lookback).UTC().Format(time.RFC3339)
}

func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, "_apis") {
			escaped[i] = p
			continue
		}
		escaped[i] = url.PathEscape(p)
	}
	return c.host + "/" + strings.Join(escaped, "/")
}

func baseQuery(kv ...string) url.Values {
	q := url.Values{"api-version": {apiVersion}}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}

func list[T any](ctx context.Context, c *Client, req fetch.PageRequest) ([]T, error) {
	pages, err := fetch.Paginate(ctx, c.cache, c.transport, req)
	if err != nil {
		return nil, err
	}
	return fetch.FlattenValues[T](pages)
}

func single[T any](ctx context.Context, c *Client, rawURL string, query url.Values, key []string) (T, error) {
	var out T
	rec, err := fetch.Single(ctx, c.cache, c.transport, rawURL, query, key)
	if err != nil {
		return out, err
	}
	if err := rec.Decode(&out); err != nil {
		return out, fmt.Errorf("%s: %w", strings.Join(key, "/"), err)
	}
	return out, nil
}

func singleList[T any](ctx context.Context, c *Client, rawURL string, query url.Values, key []string) ([]T, error) {
	env, err := single[schema.ListEnvelope[T]](ctx, c, rawURL, query, key)
	return env.Value, err
}

// GetProjects lists the projects of a collection.
func (c *Client) GetProjects(ctx context.Context, collection string) ([]Project, error) {
	req := fetch.ContinuationToken(continuationHeader, baseQuery()).
		Request(c.url(collection, "_apis/projects"), fetch.PagedKey(collection, "projects"))
	return list[Project](ctx, c, req)
}

// GetRepositories lists the Git repositories of a project.
func (c *Client) GetRepositories(ctx context.Context, collection, project string) ([]Repository, error) {
	return singleList[Repository](ctx, c, c.url(collection, project, "_apis/git/repositories"),
		baseQuery(), []string{collection, project, "repositories"})
}

// GetBuilds lists succeeded and failed builds inside the lookback window.
func (c *Client) GetBuilds(ctx context.Context, collection, project string) ([]Build, error) {
	q := baseQuery("minTime", c.since(), "resultFilter", "succeeded,failed", "queryOrder", "finishTimeDescending")
	req := fetch.ContinuationToken(continuationHeader, q).
		Request(c.url(collection, project, "_apis/build/builds"), fetch.PagedKey(collection, project, "builds"))
	return list[Build](ctx, c, req)
}

// GetBranchStats lists the branches of a repository compared to its default branch.
func (c *Client) GetBranchStats(ctx context.Context, collection, project, repoID string) ([]BranchStat, error) {
	return singleList[BranchStat](ctx, c, c.url(collection, project, "_apis/git/repositories", repoID, "stats", "branches"),
		baseQuery(), []string{collection, project, "branches", repoID})
}

// GetPullRequests lists the pull requests of a project in every status.
func (c *Client) GetPullRequests(ctx context.Context, collection, project string) ([]PullRequest, error) {
	req := fetch.SkipOffset(fetch.DefaultPageSize, baseQuery("searchCriteria.status", "all")).
		Request(c.url(collection, project, "_apis/git/pullrequests"), fetch.PagedKey(collection, project, "pull-requests"))
	return list[PullRequest](ctx, c, req)
}

// GetPolicyConfigurations lists the branch policies of a project.
func (c *Client) GetPolicyConfigurations(ctx context.Context, collection, project string) ([]Policy, error) {
	return singleList[Policy](ctx, c, c.url(collection, project, "_apis/policy/configurations"),
		baseQuery(), []string{collection, project, "policies"})
}

// GetReleases lists releases created inside the lookback window.
func (c *Client) GetReleases(ctx context.Context, collection, project string) ([]Release, error) {
	q := baseQuery("minCreatedTime", c.since(), "$expand", "environments")
	req := fetch.ContinuationToken(continuationHeader, q).
		Request(c.url(collection, project, "_apis/release/releases"), fetch.PagedKey(collection, project, "releases"))
	return list[Release](ctx, c, req)
}

// GetReleaseDefinitions lists the release pipelines of a project.
func (c *Client) GetReleaseDefinitions(ctx context.Context, collection, project string) ([]ReleaseDefinition, error) {
	q := baseQuery("$expand", "environments")
	req := fetch.ContinuationToken(continuationHeader, q).
		Request(c.url(collection, project, "_apis/release/definitions"), fetch.PagedKey(collection, project, "release-definitions"))
	return list[ReleaseDefinition](ctx, c, req)
}

// GetTestRuns lists test runs updated inside the lookback window.
func (c *Client) GetTestRuns(ctx context.Context, collection, project string) ([]TestRun, error) {
	q := baseQuery(
		"minLastUpdatedDate", c.since(),
		"maxLastUpdatedDate", c.now().UTC().Format(time.RFC3339),
		"includeRunDetails", "true",
	)
	req := fetch.SkipOffset(fetch.DefaultPageSize, q).
		Request(c.url(collection, project, "_apis/test/runs"), fetch.PagedKey(collection, project, "testruns"))
	return list[TestRun](ctx, c, req)
}

// GetCodeCoverage returns the coverage summary of a build.
func (c *Client) GetCodeCoverage(ctx context.Context, collection, project string, buildID int) (CodeCoverage, error) {
	id := strconv.Itoa(buildID)
	return single[CodeCoverage](ctx, c, c.url(collection, project, "_apis/test/codecoverage"),
		baseQuery("buildId", id), []string{collection, project, "code-coverage", id})
}

// Package sonar reads project measures from a SonarQube server.
package sonar

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/huangsam/devhealth/internal/fetch"
	"github.com/huangsam/devhealth/schema"
)

// PageSize is the ps used when searching projects.
const PageSize = 500

// Metric keys read for every project.
const (
	MetricReliability  = "reliability_rating"
	MetricSecurity     = "security_rating"
	MetricMaintainable = "sqale_rating"
	MetricQualityGate  = "alert_status"
	MetricCoverage     = "coverage"
	MetricDuplication  = "duplicated_lines_density"
	MetricLanguages    = "ncloc_language_distribution"
)

// DefaultMetricKeys lists every metric the code quality reducer uses.
var DefaultMetricKeys = []string{
	MetricReliability, MetricSecurity, MetricMaintainable, MetricQualityGate,
	MetricCoverage, MetricDuplication, MetricLanguages,
}

// Component is a Sonar project.
type Component struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Qualifier string `json:"qualifier"`
}

// Measure is one metric value, always a string upstream.
type Measure struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// Measures is the set of metric values of one component.
type Measures map[string]string

// Float parses a numeric metric.
func (m Measures) Float(metric string) (float64, bool) {
	v, ok := m[metric]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Languages parses ncloc_language_distribution, such as "go=120;js=30".
func (m Measures) Languages() []schema.LanguageShare {
	var out []schema.LanguageShare
	for _, part := range strings.Split(m[MetricLanguages], ";") {
		lang, lines, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(lines)
		if err != nil {
			continue
		}
		out = append(out, schema.LanguageShare{Language: lang, Lines: n})
	}
	return out
}

type searchResponse struct {
	Paging struct {
		PageIndex int `json:"pageIndex"`
		PageSize  int `json:"pageSize"`
		Total     int `json:"total"`
	} `json:"paging"`
	Components []Component `json:"components"`
}

type measuresResponse struct {
	Component struct {
		Key      string    `json:"key"`
		Measures []Measure `json:"measures"`
	} `json:"component"`
}

// Client reads the Sonar web API through the disk cache.
type Client struct {
	host      string
	hostKey   string
	cache     fetch.Cache
	transport fetch.Getter
}

// NewClient creates a client for host. Cache keys are scoped by the host name.
func NewClient(host string, cache fetch.Cache, transport fetch.Getter) *Client {
	host = strings.TrimRight(host, "/")
	hostKey := host
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		hostKey = u.Host
	}
	return &Client{host: host, hostKey: hostKey, cache: cache, transport: transport}
}

// SearchProjects lists every project, paging by index until p*ps covers the total.
func (c *Client) SearchProjects(ctx context.Context) ([]Component, error) {
	req := fetch.PageRequest{
		URL: c.host + "/api/projects/search",
		QueryForPage: func(i int, _ *schema.Page) url.Values {
			return url.Values{"p": {strconv.Itoa(i + 1)}, "ps": {strconv.Itoa(PageSize)}}
		},
		HasAnotherPage: func(p schema.Page) bool {
			var resp searchResponse
			if err := p.Record.Decode(&resp); err != nil {
				return false
			}
			return (p.Index+1)*PageSize < resp.Paging.Total
		},
		CacheKeyForPage: fetch.PagedKey("sonar", c.hostKey, "projects"),
	}

	pages, err := fetch.Paginate(ctx, c.cache, c.transport, req)
	if err != nil {
		return nil, err
	}
	var out []Component
	for _, p := range pages {
		var resp searchResponse
		if err := p.Record.Decode(&resp); err != nil {
			return nil, fmt.Errorf("sonar projects page %d: %w", p.Index, err)
		}
		out = append(out, resp.Components...)
	}
	return out, nil
}

// GetMeasures returns the requested metrics of a component.
func (c *Client) GetMeasures(ctx context.Context, component string, keys []string) (Measures, error) {
	q := url.Values{"component": {component}, "metricKeys": {strings.Join(keys, ",")}}
	rec, err := fetch.Single(ctx, c.cache, c.transport, c.host+"/api/measures/component", q,
		[]string{"sonar", c.hostKey, "measures", component})
	if err != nil {
		return nil, err
	}
	var resp measuresResponse
	if err := rec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("sonar measures %s: %w", component, err)
	}
	out := make(Measures, len(resp.Component.Measures))
	for _, m := range resp.Component.Measures {
		out[m.Metric] = m.Value
	}
	return out, nil
}

// MatchProject finds the Sonar project of a repository by key or name,
// ignoring case.
func MatchProject(projects []Component, repoName string) (Component, bool) {
	for _, p := range projects {
		if strings.EqualFold(p.Key, repoName) || strings.EqualFold(p.Name, repoName) {
			return p, true
		}
	}
	return Component{}, false
}

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strconv"

	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/huangsam/devhealth/schema"
)

// DefaultPageSize is the $top used by skip-offset pagination.
const DefaultPageSize = 1000

// Cache is the part of the disk cache the paginator needs.
type Cache interface {
	Get(ctx context.Context, key []string, fetch iocache.FetchFunc) (*schema.CacheRecord, error)
}

// Getter is the part of the transport the paginator needs.
type Getter interface {
	Fetcher(rawURL string, query url.Values, headers map[string]string) iocache.FetchFunc
}

// PageRequest describes how to walk one paginated resource.
// Every hook receives the previous page, which is nil for page 0.
type PageRequest struct {
	URL             string
	QueryForPage    func(i int, prev *schema.Page) url.Values
	HeadersForPage  func(prev *schema.Page) map[string]string
	HasAnotherPage  func(p schema.Page) bool
	CacheKeyForPage func(i int) []string
}

// Paginate fetches page 0 and keeps going while HasAnotherPage holds for the
// last page. Pages are fetched strictly in sequence.
func Paginate(ctx context.Context, cache Cache, transport Getter, req PageRequest) ([]schema.Page, error) {
	if req.CacheKeyForPage == nil {
		return nil, fmt.Errorf("page request for %s has no cache key", req.URL)
	}

	var pages []schema.Page
	var prev *schema.Page
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var query url.Values
		if req.QueryForPage != nil {
			query = req.QueryForPage(i, prev)
		}
		var headers map[string]string
		if req.HeadersForPage != nil {
			headers = req.HeadersForPage(prev)
		}

		rec, err := cache.Get(ctx, req.CacheKeyForPage(i), transport.Fetcher(req.URL, query, headers))
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", i, req.URL, err)
		}

		page := schema.Page{Index: i, Record: rec}
		pages = append(pages, page)
		if req.HasAnotherPage == nil || !req.HasAnotherPage(page) {
			return pages, nil
		}
		prev = &pages[len(pages)-1]
	}
}

// Single fetches an unpaginated resource through the cache.
func Single(ctx context.Context, cache Cache, transport Getter, rawURL string, query url.Values, key []string) (*schema.CacheRecord, error) {
	rec, err := cache.Get(ctx, key, transport.Fetcher(rawURL, query, nil))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return rec, nil
}

// FlattenValues concatenates the value arrays of every page.
func FlattenValues[T any](pages []schema.Page) ([]T, error) {
	var out []T
	for _, p := range pages {
		var env schema.ListEnvelope[T]
		if err := p.Record.Decode(&env); err != nil {
			return nil, fmt.Errorf("page %d: %w", p.Index, err)
		}
		out = append(out, env.Value...)
	}
	return out, nil
}

// PagedKey returns a cache key function that appends the page index to base.
func PagedKey(base ...string) func(i int) []string {
	return func(i int) []string {
		key := make([]string, 0, len(base)+1)
		key = append(key, base...)
		return append(key, strconv.Itoa(i))
	}
}

// Strategy is a pagination idiom: how to build the next query and when to stop.
type Strategy struct {
	QueryForPage   func(i int, prev *schema.Page) url.Values
	HasAnotherPage func(p schema.Page) bool
}

// Request builds a PageRequest for rawURL using this strategy.
func (s Strategy) Request(rawURL string, key func(i int) []string) PageRequest {
	return PageRequest{
		URL:             rawURL,
		QueryForPage:    s.QueryForPage,
		HasAnotherPage:  s.HasAnotherPage,
		CacheKeyForPage: key,
	}
}

// ContinuationToken pages with a response header. The walk stops once the
// header is absent, and each further page passes it back as continuationToken.
func ContinuationToken(header string, base url.Values) Strategy {
	return Strategy{
		QueryForPage: func(_ int, prev *schema.Page) url.Values {
			q := cloneValues(base)
			if prev != nil {
				if token := prev.Record.Header(header); token != "" {
					q.Set("continuationToken", token)
				}
			}
			return q
		},
		HasAnotherPage: func(p schema.Page) bool {
			return p.Record.Header(header) != ""
		},
	}
}

// SkipOffset pages with $skip and $top. The walk stops on the first page that
// holds fewer than pageSize items.
func SkipOffset(pageSize int, base url.Values) Strategy {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Strategy{
		QueryForPage: func(i int, _ *schema.Page) url.Values {
			q := cloneValues(base)
			q.Set("$top", strconv.Itoa(pageSize))
			q.Set("$skip", strconv.Itoa(i*pageSize))
			return q
		},
		HasAnotherPage: func(p schema.Page) bool {
			return ItemCount(p.Record) >= pageSize
		},
	}
}

// ItemCount returns the number of items in a list response. Both the
// {count, value} envelope and a bare array are understood.
func ItemCount(rec *schema.CacheRecord) int {
	if rec == nil {
		return 0
	}
	var env struct {
		Value []json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(rec.Payload, &env); err == nil {
		return len(env.Value)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(rec.Payload, &arr); err == nil {
		return len(arr)
	}
	return 0
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	maps.Copy(out, v)
	for k, vs := range out {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

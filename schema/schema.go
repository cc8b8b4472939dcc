// Package schema has the data models shared by every part of devhealth.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CacheRecord is one cached upstream response. It is identified by an ordered
// list of path segments and stored as front matter plus payload.
type CacheRecord struct {
	Key        []string          `json:"-"`
	FetchedAt  time.Time         `json:"date"`
	HTTPStatus int               `json:"status"`
	Headers    map[string]string `json:"headers"`
	Payload    json.RawMessage   `json:"-"`
	FromCache  bool              `json:"-"`
}

// Header returns a response header value using a case-insensitive lookup.
func (r *CacheRecord) Header(name string) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Value decodes the payload into a generic tree. Strings that look like
// ISO-8601 timestamps are rehydrated into time.Time values.
func (r *CacheRecord) Value() (any, error) {
	var v any
	if err := json.Unmarshal(r.Payload, &v); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return RehydrateDates(v), nil
}

// Decode unmarshals the payload into a typed value.
func (r *CacheRecord) Decode(into any) error {
	if err := json.Unmarshal(r.Payload, into); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// Page is one response in a paginated sequence.
type Page struct {
	Index  int
	Record *CacheRecord
}

// ListEnvelope is the common {count, value} shape of list responses.
type ListEnvelope[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

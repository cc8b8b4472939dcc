package iocache

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
)

// ErrCorruptCacheRecord is returned when a cache file cannot be parsed.
// The file is deleted before the error is returned.
var ErrCorruptCacheRecord = errors.New("corrupt cache record")

const (
	recordExt  = ".json"
	tempPrefix = ".tmp-"
)

// FetchResult is a raw upstream response handed to the cache.
type FetchResult struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// FetchFunc performs the upstream call for a cache miss.
type FetchFunc func(ctx context.Context) (*FetchResult, error)

// recordMeta is the first line of a cache file.
type recordMeta struct {
	Date    time.Time         `json:"date"`
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
}

// DiskCache stores one upstream response per file under root.
// Records older than ttl are refetched; a non-positive ttl never expires.
type DiskCache struct {
	root string
	ttl  time.Duration
	now  func() time.Time
}

// NewDiskCache creates a cache rooted at root.
func NewDiskCache(root string, ttl time.Duration) *DiskCache {
	return &DiskCache{root: root, ttl: ttl, now: time.Now}
}

// WithClock replaces the clock used for staleness checks.
func (c *DiskCache) WithClock(now func() time.Time) *DiskCache {
	c.now = now
	return c
}

// Root returns the cache root directory.
func (c *DiskCache) Root() string {
	return c.root
}

// Get returns the record for key, invoking fetch on a miss or stale hit.
func (c *DiskCache) Get(ctx context.Context, key []string, fetch FetchFunc) (*schema.CacheRecord, error) {
	path, err := c.recordPath(key)
	if err != nil {
		return nil, err
	}

	rec, err := c.read(path)
	switch {
	case err != nil:
		return nil, err
	case rec != nil && c.fresh(rec):
		rec.Key = key
		rec.FromCache = true
		contract.LogVerbose("cache hit %s", strings.Join(key, "/"))
		return rec, nil
	case rec != nil:
		contract.LogVerbose("cache stale %s", strings.Join(key, "/"))
	default:
		contract.LogVerbose("cache miss %s", strings.Join(key, "/"))
	}

	res, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := compactPayload(res.Body)
	if err != nil {
		return nil, fmt.Errorf("invalid payload for %s: %w", strings.Join(key, "/"), err)
	}

	rec = &schema.CacheRecord{
		Key:        key,
		FetchedAt:  c.now().UTC(),
		HTTPStatus: res.Status,
		Headers:    res.Headers,
		Payload:    payload,
	}
	if rec.Headers == nil {
		rec.Headers = map[string]string{}
	}
	if err := c.write(path, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Peek returns the stored record for key without fetching, or nil when absent.
// Staleness is ignored.
func (c *DiskCache) Peek(key []string) (*schema.CacheRecord, error) {
	path, err := c.recordPath(key)
	if err != nil {
		return nil, err
	}
	rec, err := c.read(path)
	if rec != nil {
		rec.Key = key
		rec.FromCache = true
	}
	return rec, err
}

// Invalidate removes the record named by prefix and any subtree below it.
// A missing target is not an error.
func (c *DiskCache) Invalidate(prefix []string) error {
	if len(prefix) == 0 {
		return errors.New("invalidate needs a non-empty prefix")
	}
	dir, err := c.dirPath(prefix)
	if err != nil {
		return err
	}
	if err := os.Remove(dir + recordExt); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", dir+recordExt, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	contract.LogVerbose("cache invalidated %s", strings.Join(prefix, "/"))
	return nil
}

// Clear removes the whole cache root.
func (c *DiskCache) Clear() error {
	if err := os.RemoveAll(c.root); err != nil {
		return fmt.Errorf("failed to clear cache at %s: %w", c.root, err)
	}
	return nil
}

// Status walks the cache and summarizes its records.
func (c *DiskCache) Status() (schema.DiskCacheStatus, error) {
	status := schema.DiskCacheStatus{Root: c.root}

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == c.root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, recordExt) || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		status.TotalEntries++
		status.TotalBytes += info.Size()

		meta, err := readMeta(path)
		if err != nil {
			status.CorruptFiles++
			return nil
		}
		if status.OldestEntry.IsZero() || meta.Date.Before(status.OldestEntry) {
			status.OldestEntry = meta.Date
		}
		if meta.Date.After(status.NewestEntry) {
			status.NewestEntry = meta.Date
		}
		return nil
	})
	if err != nil {
		return status, fmt.Errorf("failed to scan cache at %s: %w", c.root, err)
	}
	return status, nil
}

func (c *DiskCache) fresh(rec *schema.CacheRecord) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(rec.FetchedAt) <= c.ttl
}

// dirPath maps key segments to a path below root. Segments are escaped so
// they cannot climb out of the tree.
func (c *DiskCache) dirPath(key []string) (string, error) {
	parts := make([]string, 0, len(key)+1)
	parts = append(parts, c.root)
	for _, seg := range key {
		if seg == "" {
			return "", fmt.Errorf("empty segment in cache key %q", key)
		}
		parts = append(parts, escapeSegment(seg))
	}
	return filepath.Join(parts...), nil
}

func (c *DiskCache) recordPath(key []string) (string, error) {
	if len(key) == 0 {
		return "", errors.New("cache key must not be empty")
	}
	dir, err := c.dirPath(key)
	if err != nil {
		return "", err
	}
	return dir + recordExt, nil
}

// read loads a record. It returns nil, nil when the file does not exist.
func (c *DiskCache) read(path string) (*schema.CacheRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rec, perr := parseRecord(data)
	if perr != nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			contract.LogWarn("failed to remove corrupt cache file", err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCacheRecord, path, perr)
	}
	return rec, nil
}

// write stores the record via a temp file and rename.
func (c *DiskCache) write(path string, rec *schema.CacheRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}

	meta, err := json.Marshal(recordMeta{Date: rec.FetchedAt, Status: rec.HTTPStatus, Headers: rec.Headers})
	if err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	_, _ = w.Write(meta)
	_ = w.WriteByte('\n')
	_, _ = w.Write(rec.Payload)
	_ = w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move cache record into %s: %w", path, err)
	}
	return nil
}

func parseRecord(data []byte) (*schema.CacheRecord, error) {
	metaLine, payload, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return nil, errors.New("missing payload line")
	}

	var meta recordMeta
	if err := json.Unmarshal(metaLine, &meta); err != nil {
		return nil, fmt.Errorf("bad metadata: %w", err)
	}
	if meta.Date.IsZero() {
		return nil, errors.New("metadata has no date")
	}

	payload = bytes.TrimRight(payload, "\n")
	if !json.Valid(payload) {
		return nil, errors.New("bad payload")
	}

	return &schema.CacheRecord{
		FetchedAt:  meta.Date,
		HTTPStatus: meta.Status,
		Headers:    meta.Headers,
		Payload:    json.RawMessage(payload),
	}, nil
}

func readMeta(path string) (recordMeta, error) {
	var meta recordMeta
	f, err := os.Open(path)
	if err != nil {
		return meta, err
	}
	defer func() { _ = f.Close() }()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(line, &meta)
	return meta, err
}

// compactPayload puts the body on a single line. An empty body becomes null.
func compactPayload(body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

func escapeSegment(seg string) string {
	switch seg {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(seg)
}

// cache.go — the persisted import cache.
//
// A DiskCache stores one entry per canonical import target, keyed by the
// sha256 of the target string and validated against the sha256 of the source
// text that produced it. A stale entry (source changed upstream) simply
// misses; there is no eviction, the cache directory can be deleted at any
// time. Storage goes through viant/afs, so "disk" may equally be mem:// in
// tests or any other afs scheme.
package tern

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	furl "github.com/viant/afs/url"
)

// sourceHash returns the hex sha256 of raw source text.
func sourceHash(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// DiskCache persists resolved, normalized imports under a base URL.
type DiskCache struct {
	fs      afs.Service
	baseURL string
}

// DiskCacheOption configures a DiskCache.
type DiskCacheOption func(*DiskCache)

// WithDiskFS substitutes the storage service.
func WithDiskFS(fs afs.Service) DiskCacheOption {
	return func(c *DiskCache) { c.fs = fs }
}

// NewDiskCache returns a cache rooted at baseURL (a directory path or any
// afs URL).
func NewDiskCache(baseURL string, opts ...DiskCacheOption) *DiskCache {
	c := &DiskCache{fs: afs.New(), baseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cacheEntry struct {
	Target string          `json:"target"`
	Hash   string          `json:"hash"`
	Expr   json.RawMessage `json:"expr"`
}

func (c *DiskCache) entryURL(key string) string {
	sum := sha256.Sum256([]byte(key))
	return furl.Join(c.baseURL, hex.EncodeToString(sum[:])+".json")
}

// Lookup returns the cached normal form for key if an entry exists and its
// recorded source hash matches srcHash. Any malformed or mismatched entry is
// treated as a miss.
func (c *DiskCache) Lookup(ctx context.Context, key, srcHash string) (*Expr, bool) {
	data, err := c.fs.DownloadWithURL(ctx, c.entryURL(key))
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Target != key || entry.Hash != srcHash {
		return nil, false
	}
	e, err := UnmarshalExpr(entry.Expr)
	if err != nil {
		return nil, false
	}
	return e, true
}

// Store writes the normal form for key, tagged with the source hash it was
// derived from.
func (c *DiskCache) Store(ctx context.Context, key, srcHash string, e *Expr) error {
	encoded, err := MarshalExpr(e)
	if err != nil {
		return err
	}
	data, err := json.Marshal(cacheEntry{Target: key, Hash: srcHash, Expr: encoded})
	if err != nil {
		return err
	}
	if err := c.fs.Upload(ctx, c.entryURL(key), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "store cache entry for %s", key)
	}
	return nil
}

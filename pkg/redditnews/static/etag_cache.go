package static

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type etagKey struct {
	path    string
	size    int64
	modTime int64
}

// ETagCache memoizes the ETag of each file version, identified by path,
// size and modification time.
type ETagCache struct {
	cache *lru.Cache[etagKey, string]
	etag  func([]byte) string
}

// NewETagCache creates a cache of at most size entries computing ETags with etag.
func NewETagCache(size int, etag func([]byte) string) (*ETagCache, error) {
	c, err := lru.New[etagKey, string](size)
	if err != nil {
		return nil, err
	}
	return &ETagCache{cache: c, etag: etag}, nil
}

// Get returns the ETag of f, computing it on first use.
func (c *ETagCache) Get(path string, f *File) string {
	key := etagKey{path: path, size: f.Size, modTime: f.ModTime.UnixNano()}
	if tag, ok := c.cache.Get(key); ok {
		return tag
	}
	tag := c.etag(f.Content)
	c.cache.Add(key, tag)
	return tag
}

// Len returns the number of cached ETags.
func (c *ETagCache) Len() int {
	return c.cache.Len()
}

// ModSeconds truncates a modification time to whole seconds, the precision
// of HTTP dates.
func ModSeconds(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

package snapshot

import (
    "context"
    "fmt"
    "os"
    "time"

    lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
    path   string
    stores string
    size   int64
    mod    time.Time
}

// CachedSource memoizes decoded snapshots of a FileSource keyed by the
// resolved path, size and modification time. Returned snapshots are shared
// and must be treated as read-only.
type CachedSource struct {
    src   FileSource
    cache *lru.Cache[cacheKey, *Snapshot]
}

// NewCachedSource wraps src with an LRU of the given size (default 8).
func NewCachedSource(src FileSource, size int) (*CachedSource, error) {
    if size <= 0 { size = 8 }
    c, err := lru.New[cacheKey, *Snapshot](size)
    if err != nil { return nil, fmt.Errorf("snapshot: cache: %w", err) }
    return &CachedSource{src: src, cache: c}, nil
}

func (c *CachedSource) Load(ctx context.Context) (*Snapshot, error) {
    if err := ctx.Err(); err != nil { return nil, err }
    path, err := c.src.Resolve()
    if err != nil { return nil, err }
    st, err := os.Stat(path)
    if err != nil { return nil, err }
    key := cacheKey{path: path, stores: c.src.StoresPath, size: st.Size(), mod: st.ModTime()}
    if s, ok := c.cache.Get(key); ok { return s, nil }
    s, err := loadFiles(path, c.src.StoresPath)
    if err != nil { return nil, err }
    c.cache.Add(key, s)
    return s, nil
}

// Len reports the number of cached snapshots.
func (c *CachedSource) Len() int { return c.cache.Len() }

var _ Source = FileSource{}
var _ Source = (*CachedSource)(nil)

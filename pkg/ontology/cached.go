package ontology

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type lookupResult struct {
	entry Entry
	ok    bool
}

// Cached memoises lookups of a slower Context, misses included.
type Cached struct {
	inner Context
	cache *lru.Cache[string, lookupResult]
}

var _ Context = (*Cached)(nil)

// NewCached wraps inner with an LRU of the given size.
func NewCached(inner Context, size int) (*Cached, error) {
	cache, err := lru.New[string, lookupResult](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Lookup(id string) (Entry, bool) {
	if r, ok := c.cache.Get(id); ok {
		return r.entry, r.ok
	}
	e, ok := c.inner.Lookup(id)
	c.cache.Add(id, lookupResult{entry: e, ok: ok})
	return e, ok
}

// Len reports how many lookups are cached.
func (c *Cached) Len() int { return c.cache.Len() }

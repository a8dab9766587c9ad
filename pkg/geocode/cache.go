package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ResolveFunc performs the actual lookup on a cache miss.
type ResolveFunc func(ctx context.Context, query string) Result

// Backing is an optional persistent tier behind the in-memory cache.
// Keys are CacheKey values.
type Backing interface {
	GetGeocode(ctx context.Context, key string) (Result, bool, error)
	PutGeocode(ctx context.Context, key, query string, r Result) error
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithBacking layers a persistent store behind the memory map.
func WithBacking(b Backing) CacheOption {
	return func(c *Cache) {
		c.backing = b
	}
}

// Cache memoizes lookups by normalized query for the life of the process.
// Unresolved results are cached too, so a bad address is asked about once.
// There is no expiry and no eviction.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Result
	backing Backing
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{entries: make(map[string]Result)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeQuery returns the cache form of a query: NFC, single-spaced and
// case-folded.
func NormalizeQuery(query string) string {
	q := strings.Join(strings.Fields(norm.NFC.String(query)), " ")
	return cases.Fold().String(q)
}

// CacheKey returns the SHA-256 hex of the normalized query, used by
// persistent backings.
func CacheKey(query string) string {
	h := sha256.Sum256([]byte(NormalizeQuery(query)))
	return fmt.Sprintf("%x", h)
}

// GetOrResolve returns the cached result for query, or calls resolve with
// the trimmed query and stores what it returns. The bool reports a cache
// hit (memory or backing). Results produced after ctx is done are not
// stored, since they reflect the cancellation rather than the address.
func (c *Cache) GetOrResolve(ctx context.Context, query string, resolve ResolveFunc) (Result, bool) {
	key := NormalizeQuery(query)

	c.mu.Lock()
	r, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return r, true
	}

	if c.backing != nil {
		r, ok, err := c.backing.GetGeocode(ctx, CacheKey(query))
		if err != nil {
			zap.L().Warn("geocode cache: backing lookup failed", zap.Error(err))
		} else if ok {
			c.store(key, r)
			return r, true
		}
	}

	r = resolve(ctx, strings.TrimSpace(query))
	if ctx.Err() != nil {
		return r, false
	}

	c.store(key, r)
	if c.backing != nil {
		if err := c.backing.PutGeocode(ctx, CacheKey(query), strings.TrimSpace(query), r); err != nil {
			zap.L().Warn("geocode cache: backing store failed", zap.Error(err))
		}
	}
	return r, false
}

// Len returns the number of cached queries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) store(key string, r Result) {
	c.mu.Lock()
	c.entries[key] = r
	c.mu.Unlock()
}

package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched job description is reused.
const DefaultCacheTTL = 30 * time.Minute

// defaultCacheEntries bounds the cache; the oldest entry is evicted first.
const defaultCacheEntries = 256

// CachedFetcher wraps JobDescription with an in-memory cache keyed by URL.
// Failed fetches are not cached.
type CachedFetcher struct {
	mu         sync.Mutex
	options    *Options
	ttl        time.Duration
	maxEntries int
	entries    map[string]cacheEntry
	now        func() time.Time
}

type cacheEntry struct {
	result    *Result
	fetchedAt time.Time
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL   time.Duration
	MaxEntries int
	Options    *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:   DefaultCacheTTL,
		MaxEntries: defaultCacheEntries,
		Options:    DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher. Zero config fields take defaults.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	f := &CachedFetcher{
		options:    config.Options,
		ttl:        config.CacheTTL,
		maxEntries: config.MaxEntries,
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
	}
	if f.options == nil {
		f.options = DefaultOptions()
	}
	if f.ttl <= 0 {
		f.ttl = DefaultCacheTTL
	}
	if f.maxEntries <= 0 {
		f.maxEntries = defaultCacheEntries
	}
	return f
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// JobDescription returns a cached job description if it is fresh, otherwise fetches it.
func (f *CachedFetcher) JobDescription(ctx context.Context, urlStr string) (*CachedResult, error) {
	if result, ok := f.lookup(urlStr); ok {
		return &CachedResult{Result: result, FromCache: true}, nil
	}

	result, err := JobDescription(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	f.store(urlStr, result)
	return &CachedResult{Result: result}, nil
}

// Invalidate drops a URL from the cache.
func (f *CachedFetcher) Invalidate(urlStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, urlStr)
}

// Len returns the number of cached entries, fresh or not.
func (f *CachedFetcher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *CachedFetcher) lookup(urlStr string) (*Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[urlStr]
	if !ok {
		return nil, false
	}
	if f.now().Sub(entry.fetchedAt) >= f.ttl {
		delete(f.entries, urlStr)
		return nil, false
	}
	return entry.result, true
}

func (f *CachedFetcher) store(urlStr string, result *Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.entries[urlStr]; !exists && len(f.entries) >= f.maxEntries {
		f.evictOldestLocked()
	}
	f.entries[urlStr] = cacheEntry{result: result, fetchedAt: f.now()}
}

func (f *CachedFetcher) evictOldestLocked() {
	var oldestURL string
	var oldest time.Time
	for u, e := range f.entries {
		if oldestURL == "" || e.fetchedAt.Before(oldest) {
			oldestURL, oldest = u, e.fetchedAt
		}
	}
	delete(f.entries, oldestURL)
}

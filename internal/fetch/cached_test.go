package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprintf(w, `<html><body><div class="job-description"><p>Go engineer %s</p></div></body></html>`, r.URL.Path)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDefaultCachedFetcherConfig(t *testing.T) {
	config := DefaultCachedFetcherConfig()

	assert.Equal(t, DefaultCacheTTL, config.CacheTTL)
	assert.Equal(t, defaultCacheEntries, config.MaxEntries)
	assert.NotNil(t, config.Options)
}

func TestNewCachedFetcher_EmptyConfig(t *testing.T) {
	fetcher := NewCachedFetcher(&CachedFetcherConfig{})

	assert.Equal(t, DefaultCacheTTL, fetcher.ttl)
	assert.Equal(t, defaultCacheEntries, fetcher.maxEntries)
	assert.NotNil(t, fetcher.options)
}

func TestCachedFetcher_ReusesFreshEntries(t *testing.T) {
	var hits int32
	server := jobServer(t, &hits)
	fetcher := NewCachedFetcher(&CachedFetcherConfig{CacheTTL: time.Minute})
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fetcher.now = func() time.Time { return now }

	first, err := fetcher.JobDescription(context.Background(), server.URL+"/a")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "Go engineer /a", first.Text)

	second, err := fetcher.JobDescription(context.Background(), server.URL+"/a")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	now = now.Add(time.Minute)
	third, err := fetcher.JobDescription(context.Background(), server.URL+"/a")
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestCachedFetcher_DoesNotCacheFailures(t *testing.T) {
	var hits int32
	server := jobServer(t, &hits)
	fetcher := NewCachedFetcher(nil)

	_, err := fetcher.JobDescription(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	_, err = fetcher.JobDescription(context.Background(), server.URL+"/missing")
	require.Error(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 0, fetcher.Len())
}

func TestCachedFetcher_EvictsOldest(t *testing.T) {
	var hits int32
	server := jobServer(t, &hits)
	fetcher := NewCachedFetcher(&CachedFetcherConfig{MaxEntries: 2})
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fetcher.now = func() time.Time { return now }

	for _, path := range []string{"/a", "/b", "/c"} {
		now = now.Add(time.Second)
		_, err := fetcher.JobDescription(context.Background(), server.URL+path)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, fetcher.Len())
	fetcher.mu.Lock()
	for u := range fetcher.entries {
		assert.False(t, strings.HasSuffix(u, "/a"), "oldest entry should be evicted")
	}
	fetcher.mu.Unlock()
}

func TestCachedFetcher_Invalidate(t *testing.T) {
	var hits int32
	server := jobServer(t, &hits)
	fetcher := NewCachedFetcher(nil)

	_, err := fetcher.JobDescription(context.Background(), server.URL+"/a")
	require.NoError(t, err)
	fetcher.Invalidate(server.URL + "/a")

	res, err := fetcher.JobDescription(context.Background(), server.URL+"/a")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

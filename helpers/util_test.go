package helpers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	base := "https://www.detik.com/jabar/berita/"

	assert.Equal(t, "https://www.detik.com/jabar/berita/d-1", ResolveURL(base, "d-1"))
	assert.Equal(t, "https://www.detik.com/tag/beras", ResolveURL(base, "/tag/beras"))
	assert.Equal(t, "https://kompas.com/a", ResolveURL(base, "https://kompas.com/a"))
	assert.Equal(t, "", ResolveURL(base, "#top"))
	assert.Equal(t, "", ResolveURL(base, "javascript:void(0)"))
	assert.Equal(t, "", ResolveURL(base, "  "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "harga beras...", Truncate("harga beras naik lagi", 14))
	assert.Equal(t, "abcdefghij...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "untouched", Truncate("untouched", 0))
}

func TestLimiterPacesPerHost(t *testing.T) {
	limiter := NewLimiter(10, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "https://a.example.com/1"))
	require.NoError(t, limiter.Wait(ctx, "https://b.example.com/1"))
	assert.Less(t, time.Since(start), 50*time.Millisecond, "different hosts do not wait on each other")

	require.NoError(t, limiter.Wait(ctx, "https://a.example.com/2"))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiterCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, limiter.Wait(ctx, "https://a.example.com"))
	cancel()
	assert.Error(t, limiter.Wait(ctx, "https://a.example.com"))
}

func TestRobotsChecker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: BadBot\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Mozilla/5.0 (compatible; HargaBerasBot/1.0)")
	ctx := context.Background()

	allowed, delay := checker.Allowed(ctx, server.URL+"/berita/harga-beras")
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _ = checker.Allowed(ctx, server.URL+"/private/data")
	assert.False(t, allowed)

	bad := NewRobotsChecker("BadBot/2.0")
	allowed, _ = bad.Allowed(ctx, server.URL+"/berita")
	assert.False(t, allowed)
}

func TestRobotsCheckerMissingFile(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	allowed, delay := NewRobotsChecker("HargaBerasBot").Allowed(context.Background(), server.URL+"/anything")
	assert.True(t, allowed)
	assert.Zero(t, delay)
}

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahmdakml/MatkulBigdata/config"
	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal"
	"github.com/aahmdakml/MatkulBigdata/internal/crawler"
	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/services/cache"
	"github.com/aahmdakml/MatkulBigdata/services/exporter"
	"github.com/aahmdakml/MatkulBigdata/services/publisher"
	"github.com/aahmdakml/MatkulBigdata/services/worker"
)

// This is a simple test HTML that mimics a news search result page
const listingHTML = `
<!DOCTYPE html>
<html>
<head><title>Hasil pencarian</title></head>
<body>
    <div class="results">
        <article>
            <h3><a href="/berita/1">Harga beras premium di Bandung tembus Rp 15.000/kg</a></h3>
            <p>Pedagang di Pasar Kosambi mengeluhkan kenaikan harga.</p>
            <span class="date">12 Januari 2024</span>
        </article>
        <article>
            <h3><a href="/berita/2">Petani Karawang panen raya</a></h3>
            <p>Harga gabah kering panen Rp 6.500 per kg.</p>
            <span class="date">13 Januari 2024</span>
        </article>
        <article>
            <h3><a href="/berita/3">Jadwal pertandingan sepak bola</a></h3>
            <p>Persib menjamu tamunya akhir pekan ini.</p>
        </article>
    </div>
</body>
</html>
`

// MockPublisher collects the published records
type MockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, append([]byte(nil), message...))
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error { return nil }

func (m *MockPublisher) Close() error { return nil }

func newTestServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, listingHTML)
	}))
}

func newTestWorker(t *testing.T, server *httptest.Server, pub publisher.Publisher) *worker.Worker {
	t.Helper()

	cfg := &config.Config{
		Concurrency:    2,
		RequestTimeout: 5 * time.Second,
		MinConfidence:  30,
	}

	memory := cache.NewMemoryCache(time.Hour, time.Minute)
	deps := internal.Dependencies{
		Cache:     memory,
		Extractor: extractor.MustNewExtractor(extractor.DefaultConfig()),
		Limiter:   helpers.NewLimiter(100, 10),
	}

	c, err := crawler.NewCrawler(crawler.SourceConfig{
		Name:     "test-news",
		Kind:     crawler.KindListing,
		URL:      server.URL + "/search?q={query}",
		Keywords: []string{"harga beras"},
		Selectors: crawler.Selectors{
			Item:    "article",
			Title:   "h3",
			Link:    "a[href]",
			Snippet: "p",
			Date:    "span.date",
		},
	}, cfg, deps)
	require.NoError(t, err)

	return worker.NewWorker(
		[]crawler.Crawler{c},
		pub,
		helpers.NewLogger(""),
		time.Minute,
		worker.Options{
			Seen:          cache.NewSeenSet(memory, time.Hour),
			MinConfidence: cfg.MinConfidence,
		},
	)
}

// TestIntegration tests the crawl, extract, publish and export flow against a
// local listing page
func TestIntegration(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	pub := &MockPublisher{}
	w := newTestWorker(t, server, pub)

	records := w.RunOnce(context.Background())
	require.Len(t, records, 2, "the football article stays below the minimum confidence")

	byURL := make(map[string]record.Record)
	for _, r := range records {
		byURL[r.URL] = r
	}

	premium := byURL[server.URL+"/berita/1"]
	assert.Equal(t, extractor.CommodityBerasPremium, premium.Commodity)
	assert.Equal(t, 15000, premium.PriceValue())
	assert.Equal(t, "Bandung", premium.Location)
	assert.Equal(t, "12 Januari 2024", premium.PublishedAt)
	assert.Equal(t, "harga beras", premium.Keyword)

	gabah := byURL[server.URL+"/berita/2"]
	assert.Equal(t, extractor.CommodityGabah, gabah.Commodity)
	assert.Equal(t, "Karawang", gabah.Location)
	assert.Equal(t, extractor.ContextProdusen, gabah.ContextType)

	require.Len(t, pub.messages, 2)
	var published record.Record
	require.NoError(t, json.Unmarshal(pub.messages[0], &published))
	assert.Equal(t, "test-news", published.Source)

	// a second cycle finds the same articles and publishes nothing new
	w.RunOnce(context.Background())
	assert.Len(t, pub.messages, 2)

	dir := t.TempDir()
	paths, err := exporter.New(dir, 30).Export(records, exporter.AllFormats)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	back, err := exporter.ReadRecords(filepath.Join(dir, filepath.Base(paths[0])))
	require.NoError(t, err)
	assert.Len(t, back, 2)
}

// TestIntegrationRedis publishes through Redis Streams. It needs a Redis
// server on localhost:6379.
func TestIntegrationRedis(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("Skipping integration test in CI environment")
	}

	ctx := context.Background()

	redisAddr := "localhost:6379"
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: 0})
	defer redisClient.Close()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping integration test")
	}

	server := newTestServer()
	defer server.Close()

	prefix := fmt.Sprintf("test_harga_beras_%d", time.Now().UnixNano())
	redisPublisher := publisher.NewRedisPublisher(redisAddr, 0, prefix, 1, 100)
	defer redisPublisher.Close()
	defer redisClient.Del(ctx, redisPublisher.Stream(0))

	w := newTestWorker(t, server, redisPublisher)
	records := w.RunOnce(ctx)
	require.Len(t, records, 2)

	entries, err := redisClient.XRange(ctx, redisPublisher.Stream(0), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, entry := range entries {
		for _, value := range entry.Values {
			decoded, err := base64.StdEncoding.DecodeString(value.(string))
			require.NoError(t, err)

			var r record.Record
			require.NoError(t, json.Unmarshal(decoded, &r))
			assert.Equal(t, "test-news", r.Source)
			assert.Greater(t, r.Confidence, 30)
		}
	}
}

package crawler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

func newBase(mc *MockCacheService) BaseCrawler {
	return BaseCrawler{
		Name:        "test",
		SourceType:  record.TypeNews,
		CacheKey:    "test_rate_limited",
		CacheSvc:    mc,
		BlockTime:   time.Minute,
		Builder:     NewBuilder(testExtractor),
		Concurrency: 2,
	}
}

func TestBaseCrawlerRateLimitBlocks(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mc := NewMockCacheService()
	c := newBase(mc)

	_, err := c.fetchWithCache(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimit(err))
	assert.True(t, mc.has("test_rate_limited"))

	// the block refuses the next fetch without a request
	_, err = c.fetchWithCache(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked for 1m0s")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestBaseCrawlerOtherErrorsDoNotBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	mc := NewMockCacheService()
	c := newBase(mc)

	_, err := c.fetchWithCache(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
	assert.False(t, mc.has("test_rate_limited"))
}

func TestBaseCrawlerRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			io.WriteString(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		io.WriteString(w, "<html><body>ok</body></html>")
	}))
	defer server.Close()

	c := newBase(NewMockCacheService())
	c.Robots = helpers.NewRobotsChecker("Mozilla/5.0 (compatible; HargaBerasBot/1.0)")

	_, err := c.fetchWithCache(context.Background(), server.URL+"/private/page")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	doc, err := c.fetchDocument(context.Background(), server.URL+"/public")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(doc.Find("body").Text()))
}

func TestBaseCrawlerFetchFunc(t *testing.T) {
	c := newBase(NewMockCacheService())
	c.fetchFunc = func(ctx context.Context, url string) (io.Reader, error) {
		return strings.NewReader("<p>" + url + "</p>"), nil
	}

	doc, err := c.fetchDocument(context.Background(), "https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", doc.Find("p").Text())
}

func TestProcessItemsKeepsOrder(t *testing.T) {
	c := newBase(NewMockCacheService())

	items := []Item{
		{Title: "Harga beras di Bandung Rp 14.000/kg", URL: "https://example.com/1"},
		{Title: "skip me", URL: "https://example.com/2"},
		{Title: "Harga gabah di Karawang Rp 6.500/kg", URL: "https://example.com/3"},
		{Title: "Beras medium di Bogor Rp 12.500/kg", URL: "https://example.com/4"},
	}

	records := c.processItems(context.Background(), items, func(ctx context.Context, item Item) (Item, bool) {
		time.Sleep(time.Duration(len(item.URL)%3) * time.Millisecond)
		return item, item.Title != "skip me"
	})

	require.Len(t, records, 3)
	assert.Equal(t, "https://example.com/1", records[0].URL)
	assert.Equal(t, "https://example.com/3", records[1].URL)
	assert.Equal(t, "https://example.com/4", records[2].URL)
	assert.Equal(t, "Karawang", records[1].Location)
	assert.Equal(t, "test", records[2].Source)
	assert.Equal(t, record.TypeNews, records[2].SourceType)
}

func TestBuilder(t *testing.T) {
	b := NewBuilder(testExtractor)
	fixed := time.Date(2024, 1, 12, 8, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	b.now = func() time.Time { return fixed }

	r := b.Build("detik", record.TypeNews, Item{
		Title:   "Harga beras premium di Bandung Rp 15.000/kg",
		URL:     "https://example.com/a",
		Body:    "Pantauan 12 Januari 2024 di Pasar Kosambi, harga beras premium naik.",
		Keyword: "harga beras bandung",
	})

	assert.Equal(t, record.NewID("https://example.com/a", ""), r.ID)
	assert.Equal(t, "12 Januari 2024", r.PublishedAt)
	assert.Equal(t, fixed.UTC(), r.ScrapedAt)
	assert.Equal(t, "harga beras bandung", r.Keyword)
	assert.Equal(t, 15000, r.PriceValue())
	assert.NotEmpty(t, r.Snippet)
	assert.NotEmpty(t, r.Terms)
}

func TestBuilderSnapshotIDsPerDay(t *testing.T) {
	b := NewBuilder(testExtractor)
	day := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return day }

	item := tableItem(labelledPrice{Label: "Beras Premium", Price: 14500}, "Bandung", "https://harga.example.go.id", "")
	first := b.Build("sibapokting", record.TypePriceTable, item)

	day = day.AddDate(0, 0, 1)
	item.Snippet = "Harga Beras Premium Rp 15200/kg di Bandung, Jawa Barat"
	second := b.Build("sibapokting", record.TypePriceTable, item)

	assert.Equal(t, record.NewID("https://harga.example.go.id", "Beras Premium|Bandung|2024-10-01"), first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, record.DedupeByURL([]record.Record{first, second}), 2)

	dated := tableItem(labelledPrice{Label: "Beras Premium", Price: 14500}, "Bandung", "https://bi.example.go.id", "01/10/2024")
	r := b.Build("pihps", record.TypeGrid, dated)
	assert.Equal(t, "01/10/2024", r.Day())
}

package crawler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>harga beras jawa barat - Google News</title>
  <item>
    <title>Harga beras premium di Cirebon tembus Rp 15.500/kg - Antara</title>
    <link>https://news.example.com/a</link>
    <pubDate>Fri, 12 Jan 2024 03:00:00 GMT</pubDate>
    <description>&lt;a href="https://news.example.com/a"&gt;Harga beras premium&lt;/a&gt; &lt;font&gt;Antara&lt;/font&gt;</description>
  </item>
  <item>
    <title>Petani Indramayu panen gabah</title>
    <link>https://news.example.com/b</link>
    <description>Harga gabah kering panen Rp 6.800 per kg</description>
  </item>
  <item>
    <title>Harga beras premium di Cirebon tembus Rp 15.500/kg - Antara</title>
    <link>https://news.example.com/a/</link>
  </item>
</channel>
</rss>`

func TestFeedCrawler(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		io.WriteString(w, testFeed)
	}))
	defer server.Close()

	c, _ := newTestCrawler(t, SourceConfig{
		Name:     "google-news",
		Kind:     KindRSS,
		URL:      server.URL + "/rss/search?q={query}+jawa+barat&hl=id",
		Keywords: []string{"harga beras"},
	})

	records, err := c.FetchRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"harga beras jawa barat"}, queries)

	require.Len(t, records, 2)

	a := records[0]
	assert.Equal(t, record.TypeFeed, a.SourceType)
	assert.Equal(t, "2024-01-12T03:00:00Z", a.PublishedAt)
	assert.Equal(t, "Harga beras premium Antara", a.Snippet)
	assert.Equal(t, extractor.CommodityBerasPremium, a.Commodity)
	assert.Equal(t, 15500, a.PriceValue())
	assert.Equal(t, "Cirebon", a.Location)

	b := records[1]
	assert.Equal(t, extractor.CommodityGabah, b.Commodity)
	assert.Equal(t, 6800, b.PriceValue())
	assert.Equal(t, "Indramayu", b.Location)
}

func TestFeedCrawlerInvalidFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "this is not a feed")
	}))
	defer server.Close()

	c, _ := newTestCrawler(t, SourceConfig{Name: "broken", Kind: KindRSS, URL: server.URL})
	_, err := c.FetchRecords(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParsing))
}

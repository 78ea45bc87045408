package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
)

func withPrice(r Record, price int) Record {
	r.Price = &price
	return r
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://news.detik.com/berita/d-123", NormalizeURL("HTTPS://News.Detik.com/berita/d-123/#comments"))
	assert.Equal(t, "https://example.com?q=beras", NormalizeURL(" https://example.com/?q=beras "))
	assert.Equal(t, "not a url", NormalizeURL("not a url"))
}

func TestNewIDIsDeterministic(t *testing.T) {
	a := NewID("https://example.com/a", "")
	assert.Equal(t, a, NewID("https://EXAMPLE.com/a/", ""))
	assert.NotEqual(t, a, NewID("https://example.com/a", "Beras Premium"))
	assert.NotEqual(t, a, NewID("https://example.com/b", ""))
}

func TestDedupeByURL(t *testing.T) {
	records := []Record{
		{Title: "first", URL: "https://example.com/a"},
		{Title: "second", URL: "https://example.com/b"},
		{Title: "duplicate", URL: "https://Example.com/a/"},
		{Title: "no url", ID: "x"},
		{Title: "no url again", ID: "x"},
	}

	out := DedupeByURL(records)
	assert.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "second", out[1].Title)
	assert.Equal(t, "no url", out[2].Title)
}

func TestDedupeKeepsTableRows(t *testing.T) {
	premium := Record{URL: "https://harga.example.go.id", SourceType: TypePriceTable}
	premium.Commodity = extractor.CommodityBerasPremium
	medium := premium
	medium.Commodity = extractor.CommodityBerasMedium

	assert.Len(t, DedupeByURL([]Record{premium, medium, premium}), 2)
}

func TestDedupeKeepsDailyGridPrices(t *testing.T) {
	day1 := withPrice(Record{URL: "https://bi.example.go.id/hargapangan", SourceType: TypeGrid, PublishedAt: "01/10/2024"}, 14500)
	day1.Commodity = extractor.CommodityBerasPremium
	day1.Location = "Bandung"
	day2 := withPrice(day1, 15200)
	day2.PublishedAt = "02/10/2024"

	assert.NotEqual(t, day1.DedupeKey(), day2.DedupeKey())
	assert.Len(t, DedupeByURL([]Record{day1, day2, day1}), 2)
}

func TestDayFallsBackToScrapeDate(t *testing.T) {
	r := Record{URL: "https://harga.example.go.id", SourceType: TypePriceTable}
	r.ScrapedAt = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-10-01", r.Day())

	next := r
	next.ScrapedAt = r.ScrapedAt.AddDate(0, 0, 1)
	assert.NotEqual(t, r.DedupeKey(), next.DedupeKey())

	// news keys stay URL only
	news := Record{URL: "https://example.com/a", SourceType: TypeNews, PublishedAt: "01/10/2024"}
	assert.Equal(t, "https://example.com/a", news.DedupeKey())
}

func TestFilterAndSort(t *testing.T) {
	records := []Record{
		{Title: "low", Fact: extractor.Fact{Confidence: 30}},
		{Title: "mid", Fact: extractor.Fact{Confidence: 45}},
		{Title: "high", Fact: extractor.Fact{Confidence: 90}},
		{Title: "mid2", Fact: extractor.Fact{Confidence: 45}},
	}

	kept := FilterByConfidence(records, 30)
	assert.Len(t, kept, 3)

	SortByConfidence(kept)
	assert.Equal(t, []string{"high", "mid", "mid2"}, []string{kept[0].Title, kept[1].Title, kept[2].Title})
}

func TestSummarize(t *testing.T) {
	records := []Record{
		withPrice(Record{Source: "detik", Fact: extractor.Fact{Commodity: "beras", Location: "Bandung", Confidence: 60}}, 12000),
		withPrice(Record{Source: "detik", Fact: extractor.Fact{Commodity: "beras", Confidence: 40}}, 14000),
		withPrice(Record{Source: "rss", Fact: extractor.Fact{Commodity: "gabah", Location: "Bandung", Confidence: 50}}, 7000),
		{Source: "rss", Fact: extractor.Fact{Confidence: 35}},
	}

	s := Summarize(records)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.WithPrice)
	assert.Equal(t, 2, s.WithLocation)
	assert.Equal(t, 46.25, s.AvgConfidence)
	assert.Equal(t, map[string]int{"beras": 2, "gabah": 1}, s.ByCommodity)
	assert.Equal(t, map[string]int{"detik": 2, "rss": 2}, s.BySource)
	assert.Equal(t, []string{"beras", "gabah"}, SortedKeys(s.ByCommodity))

	assert.Equal(t, 3, s.Prices.Count)
	assert.Equal(t, 11000.0, s.Prices.Mean)
	assert.Equal(t, 12000.0, s.Prices.Median)
	assert.Equal(t, 7000, s.Prices.Min)
	assert.Equal(t, 14000, s.Prices.Max)
	assert.Equal(t, 3605.55, s.Prices.StdDev)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Nil(t, s.Prices)
}

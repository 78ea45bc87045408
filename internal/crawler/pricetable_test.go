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
)

const varianPage = `<html><body>
<header>Sistem Informasi Harga Bahan Pokok 2024</header>
<div id="harga">
  <table>
    <tr><td>Beras Premium</td><td>HET Rp 14.900</td><td>Rp 15.200</td></tr>
    <tr><td>Beras Medium</td><td>Rp 12.800</td><td>HET: Rp 12.500</td></tr>
    <tr><td>Beras IR 64</td><td>12.000</td><td>Update 12-01-2024</td></tr>
  </table>
</div>
<footer>Kontak 022 1234</footer>
</body></html>`

func TestLabelledPrices(t *testing.T) {
	text := "Beras Premium HET Rp 14.900 Rp 15.200 Beras Medium Rp 12.800 HET: Rp 12.500 Beras IR 64 12.000 Update 2024"

	prices := labelledPrices(text)
	require.Len(t, prices, 3)
	assert.Equal(t, labelledPrice{Label: "Beras Premium", Price: 15200, HET: 14900}, prices[0])
	assert.Equal(t, labelledPrice{Label: "Beras Medium", Price: 12800, HET: 12500}, prices[1])
	assert.Equal(t, labelledPrice{Label: "Beras IR64", Price: 12000}, prices[2])
}

func TestLabelledPricesWithoutPrice(t *testing.T) {
	assert.Empty(t, labelledPrices("Beras Premium sedang kosong, Beras Medium tersedia"))
	assert.Empty(t, labelledPrices("harga cabai Rp 40.000"))
}

func TestParseRupiah(t *testing.T) {
	tests := []struct {
		raw   string
		value int
		ok    bool
	}{
		{"Rp 15.000", 15000, true},
		{"15,000", 15000, true},
		{"15000", 15000, true},
		{"-", 0, false},
		{"12345678901", 0, false},
	}
	for _, tt := range tests {
		v, ok := parseRupiah(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.value, v, tt.raw)
	}
}

func TestPriceTableCrawler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, varianPage)
	}))
	defer server.Close()

	c, _ := newTestCrawler(t, SourceConfig{
		Name:   "sibapokting",
		Kind:   KindPriceTable,
		URL:    server.URL + "/varians",
		XPath:  `//div[@id="harga"]`,
		Region: "Kota Bandung",
	})

	records, err := c.FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	premium := records[0]
	assert.Equal(t, record.TypePriceTable, premium.SourceType)
	assert.Equal(t, "Beras Premium - Bandung", premium.Title)
	assert.Equal(t, extractor.CommodityBerasPremium, premium.Commodity)
	assert.Equal(t, 15200, premium.PriceValue())
	assert.Equal(t, "Bandung", premium.Location)
	assert.Contains(t, premium.Snippet, "HET Rp 14900")

	assert.Equal(t, extractor.CommodityBerasMedium, records[1].Commodity)
	assert.Equal(t, 12800, records[1].PriceValue())
	assert.Equal(t, 12000, records[2].PriceValue())

	// one page, three records: ids and dedupe keys differ per label
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Len(t, record.DedupeByURL(records), 3)
}

func TestPriceTableCrawlerInvalidXPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, varianPage)
	}))
	defer server.Close()

	c, _ := newTestCrawler(t, SourceConfig{Name: "bad", Kind: KindPriceTable, URL: server.URL, XPath: "//div["})
	_, err := c.FetchRecords(context.Background())
	assert.Error(t, err)
}

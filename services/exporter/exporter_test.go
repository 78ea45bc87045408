package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

var fixedNow = time.Date(2024, 1, 12, 15, 4, 5, 0, time.UTC)

func sampleRecords() []record.Record {
	price := 15000
	return []record.Record{
		{
			ID:         "a",
			Source:     "detik",
			SourceType: record.TypeNews,
			Title:      "Harga beras premium di Bandung naik",
			URL:        "https://news.example.com/a",
			ScrapedAt:  fixedNow,
			Fact: extractor.Fact{
				Commodity:  extractor.CommodityBerasPremium,
				Price:      &price,
				Unit:       extractor.UnitKg,
				Quality:    extractor.QualityPremium,
				Location:   "Bandung",
				Confidence: 85,
			},
			Annotations: extractor.Annotations{PriceCategory: "Mahal"},
		},
		{
			ID:         "b",
			Source:     "google-news",
			SourceType: record.TypeFeed,
			Title:      "Petani padi di Karawang, \"panen\" raya",
			URL:        "https://news.example.com/b",
			ScrapedAt:  fixedNow,
			Fact: extractor.Fact{
				Commodity:  extractor.CommodityPadi,
				Unit:       extractor.UnitKg,
				Location:   "Karawang",
				Confidence: 35,
			},
		},
	}
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats("json, CSV,json")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatJSON, FormatCSV}, formats)

	formats, err = ParseFormats("all")
	require.NoError(t, err)
	assert.Equal(t, AllFormats, formats)

	_, err = ParseFormats("xml")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExport))

	_, err = ParseFormats(" , ")
	assert.Error(t, err)
}

func TestWriteJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewDocument(sampleRecords(), 30, fixedNow)))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "metadata")
	assert.Contains(t, doc, "statistics")
	assert.Contains(t, doc, "data")

	var meta Metadata
	require.NoError(t, json.Unmarshal(doc["metadata"], &meta))
	assert.Equal(t, 2, meta.TotalRecords)
	assert.Equal(t, []string{"detik", "google-news"}, meta.Sources)
	assert.Equal(t, 30, meta.MinConfidence)

	var stats record.Summary
	require.NoError(t, json.Unmarshal(doc["statistics"], &stats))
	assert.Equal(t, 1, stats.WithPrice)
	require.NotNil(t, stats.Prices)
	assert.Equal(t, 15000, stats.Prices.Max)
}

func TestNewDocumentEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewDocument(nil, 30, fixedNow)))
	assert.Contains(t, buf.String(), `"data": []`)
	assert.Contains(t, buf.String(), `"sources": []`)
	assert.NotContains(t, buf.String(), `"prices"`)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "15000", rows[1][6])
	assert.Equal(t, "", rows[2][6])
	assert.Equal(t, `Petani padi di Karawang, "panen" raya`, rows[2][3])
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleRecords(), fixedNow))

	out := buf.String()
	assert.Contains(t, out, "2024-01-12 15:04:05")
	assert.Contains(t, out, "Total records")
	assert.Contains(t, out, "15.000")
	assert.Contains(t, out, "By commodity")
	assert.Contains(t, out, "beras_premium")
	assert.Less(t, strings.Index(out, "Harga beras premium"), strings.Index(out, "Petani padi"))
}

func TestExportAndReadBack(t *testing.T) {
	dir := t.TempDir()
	e := New(filepath.Join(dir, "out"), 30)
	e.now = func() time.Time { return fixedNow }

	paths, err := e.Export(sampleRecords(), AllFormats)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Equal(t, filepath.Join(dir, "out", "harga_beras_20240112_150405.json"), paths[0])

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}

	for _, p := range paths[:2] {
		records, err := ReadRecords(p)
		require.NoError(t, err, p)
		require.Len(t, records, 2)
		assert.Equal(t, "Bandung", records[0].Location)
		assert.Equal(t, 15000, records[0].PriceValue())
	}
}

func TestReadRecordsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	data, err := json.Marshal(sampleRecords())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	records, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadRecordsErrors(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"a\"}\nnot json\n"), 0o644))
	_, err = ReadRecords(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON line 2")
}

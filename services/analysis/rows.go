package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
)

const (
	// MaxProjectedRows caps the rows sent to the model for analysis
	MaxProjectedRows = 400

	maxFieldLength = 500
)

// ProjectedRow is the slim view of a collected row the model analyzes
type ProjectedRow struct {
	Text     string   `json:"text"`
	Harga    *float64 `json:"harga,omitempty"`
	Kualitas string   `json:"kualitas,omitempty"`
	Region   string   `json:"region,omitempty"`
	Source   string   `json:"source,omitempty"`
	Waktu    string   `json:"waktu,omitempty"`
}

// Field names per column, first present wins. Rows come from the scrapers of
// this repository, from news exports and from social exports.
var (
	textFields     = []string{"title", "description", "content", "caption", "text_original", "snippet", "keywords", "note"}
	priceFields    = []string{"harga", "price", "harga_value", "prices.normalized"}
	qualityFields  = []string{"kualitas", "quality", "mutu", "grade"}
	regionFields   = []string{"region", "lokasi", "location", "kota", "kabupaten"}
	sourceFields   = []string{"source", "platform", "username"}
	dateTimeFields = []string{"scraped_date", "published_date", "tanggal", "published_at", "scraped_at"}
)

// ProjectRows reduces rows to their text, price, quality, region, source and
// date, keeping at most max rows. Rows that are not objects project to an
// empty text.
func ProjectRows(rows []interface{}, max int) []ProjectedRow {
	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}

	out := make([]ProjectedRow, 0, len(rows))
	for _, raw := range rows {
		row, _ := raw.(map[string]interface{})

		var parts []string
		for _, field := range textFields {
			if s := textValue(row[field]); s != "" {
				parts = append(parts, helpers.Truncate(s, maxFieldLength))
			}
		}

		p := ProjectedRow{Text: strings.Join(parts, " | ")}
		if v, ok := first(row, priceFields).(float64); ok {
			p.Harga = &v
		}
		p.Kualitas, _ = first(row, qualityFields).(string)
		p.Region, _ = first(row, regionFields).(string)
		p.Source, _ = first(row, sourceFields).(string)
		p.Waktu, _ = first(row, dateTimeFields).(string)

		out = append(out, p)
	}
	return out
}

// first returns the value of the first field present in row. Dotted names
// reach into nested objects.
func first(row map[string]interface{}, fields []string) interface{} {
	for _, field := range fields {
		if v := lookup(row, field); v != nil {
			return v
		}
	}
	return nil
}

func lookup(row map[string]interface{}, path string) interface{} {
	var cur interface{} = row
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// textValue renders a text column; empty, false and zero values are skipped
func textValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return fmt.Sprint(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

// RowsFromRecords turns records into generic rows with their JSON field names
func RowsFromRecords(records []record.Record) ([]interface{}, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	var rows []interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

package exporter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/logger"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// Format is an export file format
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
	FormatText  Format = "txt"
)

// AllFormats lists every format in the order "all" writes them
var AllFormats = []Format{FormatJSON, FormatJSONL, FormatCSV, FormatText}

// ParseFormats reads a comma separated list such as "json,csv" or "all"
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if part == "all" {
			return AllFormats, nil
		}
		f := Format(part)
		switch f {
		case FormatJSON, FormatJSONL, FormatCSV, FormatText:
		default:
			return nil, errors.NewExport(part, "unknown format", nil)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.NewExport(s, "no format given", nil)
	}
	return out, nil
}

// Metadata heads a JSON export
type Metadata struct {
	GeneratedAt   time.Time `json:"generated_at"`
	TotalRecords  int       `json:"total_records"`
	Sources       []string  `json:"sources"`
	MinConfidence int       `json:"min_confidence"`
}

// Document is the JSON export envelope
type Document struct {
	Metadata   Metadata        `json:"metadata"`
	Statistics record.Summary  `json:"statistics"`
	Data       []record.Record `json:"data"`
}

// Exporter writes record files into a directory
type Exporter struct {
	dir           string
	minConfidence int
	now           func() time.Time
}

// New creates an exporter writing into dir
func New(dir string, minConfidence int) *Exporter {
	return &Exporter{dir: dir, minConfidence: minConfidence, now: time.Now}
}

// Export writes records in every format and returns the written paths.
// File names share a timestamp, e.g. harga_beras_20240112_150405.json.
func (e *Exporter) Export(records []record.Record, formats []Format) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, errors.NewExport(e.dir, "cannot create output directory", err)
	}

	now := e.now()
	base := filepath.Join(e.dir, "harga_beras_"+now.Format("20060102_150405"))
	log := logger.ForExporter()

	var paths []string
	for _, f := range formats {
		path := base + "." + string(f)
		if err := e.writeFile(path, f, records, now); err != nil {
			return paths, err
		}
		log.Info().Str("format", string(f)).Str("path", path).Int("records", len(records)).Msg("Exported records")
		paths = append(paths, path)
	}
	return paths, nil
}

func (e *Exporter) writeFile(path string, f Format, records []record.Record, now time.Time) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.NewExport(string(f), "cannot create "+path, err)
	}

	w := bufio.NewWriter(file)
	if err := e.Write(w, f, records, now); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return errors.NewExport(string(f), "cannot write "+path, err)
	}
	if err := file.Close(); err != nil {
		return errors.NewExport(string(f), "cannot close "+path, err)
	}
	return nil
}

// Write renders records in format f
func (e *Exporter) Write(w io.Writer, f Format, records []record.Record, now time.Time) error {
	var err error
	switch f {
	case FormatJSON:
		err = WriteJSON(w, NewDocument(records, e.minConfidence, now))
	case FormatJSONL:
		err = WriteJSONL(w, records)
	case FormatCSV:
		err = WriteCSV(w, records)
	case FormatText:
		err = WriteReport(w, records, now)
	default:
		return errors.NewExport(string(f), "unknown format", nil)
	}
	if err != nil {
		return errors.NewExport(string(f), "write failed", err)
	}
	return nil
}

// NewDocument builds the JSON envelope of records
func NewDocument(records []record.Record, minConfidence int, now time.Time) Document {
	if records == nil {
		records = []record.Record{}
	}
	return Document{
		Metadata: Metadata{
			GeneratedAt:   now.UTC(),
			TotalRecords:  len(records),
			Sources:       sources(records),
			MinConfidence: minConfidence,
		},
		Statistics: record.Summarize(records),
		Data:       records,
	}
}

// WriteJSON writes doc as indented JSON
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// WriteJSONL writes one record per line
func WriteJSONL(w io.Writer, records []record.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

var csvHeader = []string{
	"id", "source", "source_type", "title", "url", "commodity", "price", "unit",
	"quality", "location", "confidence", "price_category", "context_type",
	"published_at", "scraped_at", "keyword", "language",
}

// WriteCSV writes the flat columns of records with a header row
func WriteCSV(w io.Writer, records []record.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		price := ""
		if r.HasPrice() {
			price = strconv.Itoa(r.PriceValue())
		}
		row := []string{
			r.ID, r.Source, r.SourceType, r.Title, r.URL, string(r.Commodity), price, string(r.Unit),
			string(r.Quality), r.Location, strconv.Itoa(r.Confidence), r.PriceCategory, r.ContextType,
			r.PublishedAt, r.ScrapedAt.Format(time.RFC3339), r.Keyword, r.Language,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecords loads a JSON export (envelope or bare array) or a JSON Lines
// export
func ReadRecords(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewExport(path, "cannot read export", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var records []record.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errors.NewExport(path, "invalid JSON array", err)
		}
		return records, nil
	case '{':
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err == nil && doc.Data != nil {
			return doc.Data, nil
		}
	}

	var records []record.Record
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var r record.Record
		err := dec.Decode(&r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewExport(path, fmt.Sprintf("invalid JSON line %d", len(records)+1), err)
		}
		records = append(records, r)
	}
	return records, nil
}

func sources(records []record.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.Source] {
			seen[r.Source] = true
			out = append(out, r.Source)
		}
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}

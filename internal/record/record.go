package record

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
)

// Source types
const (
	TypeNews       = "news"
	TypeFeed       = "rss"
	TypePriceTable = "price_table"
	TypeGrid       = "pihps"
	TypeSocial     = "social"
)

// recordNamespace seeds the deterministic record ids
var recordNamespace = uuid.MustParse("5b1e7f52-0c4e-4c7e-9a4f-6a3d1f2b8c90")

// Record is one extracted fact merged with the data of where it came from
type Record struct {
	ID          string                `json:"id"`
	Source      string                `json:"source"`
	SourceType  string                `json:"source_type"`
	Title       string                `json:"title"`
	URL         string                `json:"url"`
	Snippet     string                `json:"snippet,omitempty"`
	Keyword     string                `json:"keyword,omitempty"`
	PublishedAt string                `json:"published_at,omitempty"`
	ScrapedAt   time.Time             `json:"scraped_at"`
	Language    string                `json:"language,omitempty"`
	Terms       []string              `json:"terms,omitempty"`
	Engagement  *extractor.Engagement `json:"engagement,omitempty"`

	extractor.Fact
	extractor.Annotations
}

// NewID returns the id of a record for url and label. Records of the same
// page with different labels (e.g. "Beras Premium" and "Beras Medium" of one
// price table) get different ids.
func NewID(rawURL, label string) string {
	return uuid.NewSHA1(recordNamespace, []byte(NormalizeURL(rawURL)+"|"+label)).String()
}

// NormalizeURL lowercases scheme and host and drops the fragment and a
// trailing slash so that trivially different links dedupe together
func NormalizeURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.TrimRight(trimmed, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// DedupeKey identifies a record for deduplication. Records without a URL
// fall back to their id.
func (r Record) DedupeKey() string {
	if r.URL == "" {
		return r.ID
	}
	key := NormalizeURL(r.URL)
	if r.IsSnapshot() {
		// one table page carries several commodities, regions and days
		key += "|" + string(r.Commodity) + "|" + r.Location + "|" + r.Day()
	}
	return key
}

// IsSnapshot reports whether the record is a row of a price table or grid,
// whose page is republished with new prices
func (r Record) IsSnapshot() bool {
	return r.SourceType == TypePriceTable || r.SourceType == TypeGrid
}

// Day is the date the record's price holds for: the published date, or the
// scrape date when the page has none
func (r Record) Day() string {
	if r.PublishedAt != "" {
		return r.PublishedAt
	}
	if r.ScrapedAt.IsZero() {
		return ""
	}
	return r.ScrapedAt.Format("2006-01-02")
}

// DedupeByURL keeps the first record of every URL, preserving order
func DedupeByURL(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := r.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// FilterByConfidence keeps records whose confidence is strictly above min
func FilterByConfidence(records []Record, min int) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Confidence > min {
			out = append(out, r)
		}
	}
	return out
}

// SortByConfidence orders records by descending confidence, keeping the
// original order among equals
func SortByConfidence(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Confidence > records[j].Confidence
	})
}

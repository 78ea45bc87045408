package crawler

import (
	"context"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
)

// Crawler interface defines the contract for all source implementations
type Crawler interface {
	// FetchRecords collects records from a source
	FetchRecords(ctx context.Context) ([]record.Record, error)

	// GetName returns the source's name for logging and identification
	GetName() string

	// GetProvider returns the provider name of the source
	GetProvider() string
}

// Source kinds
const (
	KindListing      = "listing"
	KindRSS          = "rss"
	KindPriceTable   = "price_table"
	KindPIHPS        = "pihps"
	KindSocialImport = "social_import"
)

// Selectors contains CSS selectors for the items of a listing page
type Selectors struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Snippet string `yaml:"snippet"`
	Date    string `yaml:"date"`
}

// GridCommodity is one commodity requested from the PIHPS grid
type GridCommodity struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// SourceConfig describes one source
type SourceConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Kind     string `yaml:"kind"`

	// URL may hold {query} and {page} placeholders
	URL      string   `yaml:"url"`
	Keywords []string `yaml:"keywords"`
	Pages    int      `yaml:"pages"`
	MaxItems int      `yaml:"max_items"`

	// BlockSeconds is how long the source rests after a rate limit response
	BlockSeconds int `yaml:"block_seconds"`

	// listing, rss
	Selectors    Selectors `yaml:"selectors"`
	FetchArticle bool      `yaml:"fetch_article"`

	// price_table
	XPath  string `yaml:"xpath"`
	Region string `yaml:"region"`

	// pihps
	ProvinceID  string          `yaml:"province_id"`
	Period      int             `yaml:"period"`
	Commodities []GridCommodity `yaml:"commodities"`

	// social_import
	Path string `yaml:"path"`
}

// Item is the raw material of a record before extraction
type Item struct {
	Title       string
	URL         string
	Snippet     string
	Body        string
	Keyword     string
	PublishedAt string
	Label       string
	Engagement  *extractor.Engagement
}

// Text is the text the extractor reads
func (i Item) Text() string {
	text := i.Title
	for _, part := range []string{i.Snippet, i.Body} {
		if part != "" {
			text += "\n" + part
		}
	}
	return text
}

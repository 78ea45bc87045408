package crawler

import (
	"time"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
)

const (
	snippetLength = 300
	termCount     = 8
)

// Builder turns items into records
type Builder struct {
	ext *extractor.Extractor
	now func() time.Time
}

// NewBuilder creates a builder running ext
func NewBuilder(ext *extractor.Extractor) *Builder {
	return &Builder{ext: ext, now: time.Now}
}

// Build extracts the fact and annotations of item and wraps them in a record
func (b *Builder) Build(source, sourceType string, item Item) record.Record {
	text := item.Text()

	fact := b.ext.ExtractWithEngagement(text, item.Engagement)

	snippet := item.Snippet
	if snippet == "" {
		snippet = item.Body
	}

	published := item.PublishedAt
	annotations := b.ext.Annotate(text)
	if published == "" {
		published = annotations.DateMention
	}

	r := record.Record{
		Source:      source,
		SourceType:  sourceType,
		Title:       item.Title,
		URL:         item.URL,
		Snippet:     helpers.Truncate(textutil.CollapseSpaces(snippet), snippetLength),
		Keyword:     item.Keyword,
		PublishedAt: published,
		ScrapedAt:   b.now().UTC(),
		Language:    textutil.Language(text),
		Terms:       textutil.Terms(text, termCount),
		Engagement:  item.Engagement,
		Fact:        fact,
		Annotations: annotations,
	}

	label := item.Label
	if r.IsSnapshot() {
		label += "|" + r.Day()
	}
	r.ID = record.NewID(item.URL, label)

	return r
}

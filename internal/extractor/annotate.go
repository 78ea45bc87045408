package extractor

import (
	"regexp"
	"strings"

	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
)

// Price categories of a text
const (
	CategoryBerasKonsumen    = "beras_konsumen"
	CategoryPadiProdusen     = "padi_produsen"
	CategoryGabahKering      = "gabah_kering"
	CategoryTidakTerkategori = "tidak_terkategori"
)

// Market context of a text
const (
	ContextProdusen = "produsen"
	ContextEceran   = "eceran"
)

// Annotations are descriptive tags attached to a record next to its Fact.
// They do not influence confidence.
type Annotations struct {
	PriceCategory string   `json:"price_category,omitempty"`
	ContextType   string   `json:"context_type,omitempty"`
	DateMention   string   `json:"date_mention,omitempty"`
	Varieties     []string `json:"varieties,omitempty"`
	Subdistricts  []string `json:"subdistricts,omitempty"`
	Addresses     []string `json:"addresses,omitempty"`
}

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:januari|februari|maret|april|mei|juni|juli|agustus|september|oktober|november|desember)\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`),
	}

	addressPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:Jalan|Jl\.?)\s+[A-Z][A-Za-z0-9.]*(?:\s+[A-Z0-9][A-Za-z0-9.]*){0,5}`),
		regexp.MustCompile(`\bPasar\s+[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3}`),
		regexp.MustCompile(`\bKelurahan\s+[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3}`),
		regexp.MustCompile(`\bKecamatan\s+[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3}`),
		regexp.MustCompile(`\bRT\s*\d{1,3}\s*/\s*RW\s*\d{1,3}\b`),
	}
)

// Annotate tags text with price category, market context, date, varieties,
// Bandung sub-districts and address fragments
func (e *Extractor) Annotate(text string) Annotations {
	folded := textutil.Fold(text)
	if folded == "" {
		return Annotations{}
	}

	a := Annotations{
		PriceCategory: CategoryTidakTerkategori,
		ContextType:   ContextEceran,
	}

	if name, ok := firstGroup(folded, e.categories); ok {
		a.PriceCategory = name
	}
	if anyKeyword(folded, e.producer) {
		a.ContextType = ContextProdusen
	}

	for _, re := range datePatterns {
		if m := re.FindString(text); m != "" {
			a.DateMention = m
			break
		}
	}

	a.Varieties = allGroups(folded, e.varieties)

	for _, s := range e.subdistricts {
		if textutil.ContainsWord(folded, s) {
			a.Subdistricts = append(a.Subdistricts, textutil.TitleCase(s))
		}
	}

	a.Addresses = extractAddresses(text)

	return a
}

func extractAddresses(text string) []string {
	seen := make(map[string]bool)
	var addresses []string

	for _, re := range addressPatterns {
		for _, m := range re.FindAllString(text, -1) {
			m = textutil.CollapseSpaces(strings.TrimRight(m, " ,."))
			if len(m) <= 5 || len(m) >= 200 || seen[m] {
				continue
			}
			seen[m] = true
			addresses = append(addresses, m)
		}
	}

	return addresses
}

package crawler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

const (
	defaultXPath = "//body"

	// resolveThreshold is the Jaro-Winkler score a region label needs to
	// match a gazetteer name
	resolveThreshold = 0.9

	// labelWindow bounds how far after a label its price may appear
	labelWindow = 300
)

// tableLabel is a labelled rice price on a government price page
type tableLabel struct {
	Label string
	re    *regexp.Regexp
}

var (
	tableLabels = []tableLabel{
		{Label: "Beras Premium", re: regexp.MustCompile(`(?i)beras\s+premium`)},
		{Label: "Beras Medium", re: regexp.MustCompile(`(?i)beras\s+medium`)},
		{Label: "Beras IR64", re: regexp.MustCompile(`(?i)beras\s+ir\.?\s*\.?\s*64`)},
	}

	hetPattern   = regexp.MustCompile(`(?i)\bHET\s*:?\s*Rp\.?\s*(\d{1,3}(?:\.\d{3})+|\d{4,7})`)
	rpPrice      = regexp.MustCompile(`(?i)\brp\.?\s*(\d{1,3}(?:\.\d{3})+|\d{4,7})`)
	groupedPrice = regexp.MustCompile(`\d{1,3}(?:\.\d{3})+`)
	nonDigitsRun = regexp.MustCompile(`\D+`)
)

// PriceTableCrawler reads labelled rice prices from a regional government
// price page
type PriceTableCrawler struct {
	BaseCrawler
	Config SourceConfig

	resolve func(label string) (string, bool)
}

// FetchRecords fetches the page and builds a record per labelled price
func (c *PriceTableCrawler) FetchRecords(ctx context.Context) ([]record.Record, error) {
	body, err := c.fetchWithCache(ctx, c.Config.URL)
	if err != nil {
		return nil, err
	}

	doc, err := htmlquery.Parse(body)
	if err != nil {
		return nil, errors.NewParsing(c.Name, "failed to parse HTML", err)
	}

	xpath := c.Config.XPath
	if xpath == "" {
		xpath = defaultXPath
	}
	nodes, err := htmlquery.QueryAll(doc, xpath)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("%s: invalid xpath %q", c.Name, xpath), err)
	}

	var parts []string
	for _, n := range nodes {
		parts = append(parts, nodeText(n))
	}
	text := textutil.CollapseSpaces(strings.Join(parts, " "))

	region := c.Config.Region
	if c.resolve != nil {
		if name, ok := c.resolve(region); ok {
			region = textutil.TitleCase(name)
		}
	}

	var items []Item
	for _, lp := range labelledPrices(text) {
		items = append(items, tableItem(lp, region, c.Config.URL, ""))
	}
	return c.processItems(ctx, items, nil), nil
}

// nodeText joins the text nodes under n with spaces so that adjacent table
// cells stay apart. Script and style contents are skipped.
func nodeText(n *html.Node) string {
	var parts []string
	for _, t := range htmlquery.Find(n, ".//text()") {
		if p := t.Parent; p != nil && (p.Data == "script" || p.Data == "style") {
			continue
		}
		parts = append(parts, t.Data)
	}
	return strings.Join(parts, " ")
}

// labelledPrice is a price found after a label, with the ceiling price (HET)
// published next to it when there is one
type labelledPrice struct {
	Label string
	Price int
	HET   int
}

// labelledPrices scans text for every known label and the first price after
// it, skipping HET figures
func labelledPrices(text string) []labelledPrice {
	var out []labelledPrice
	for _, tl := range tableLabels {
		loc := tl.re.FindStringIndex(text)
		if loc == nil {
			continue
		}

		end := min(len(text), loc[1]+labelWindow)
		segment := text[loc[1]:end]
		// stop at the next label
		for _, other := range tableLabels {
			if next := other.re.FindStringIndex(segment); next != nil {
				segment = segment[:next[0]]
			}
		}

		lp := labelledPrice{Label: tl.Label}
		if m := hetPattern.FindStringSubmatch(segment); m != nil {
			lp.HET, _ = parseRupiah(m[1])
		}
		price, ok := firstPrice(hetPattern.ReplaceAllString(segment, " "))
		if !ok {
			continue
		}
		lp.Price = price
		out = append(out, lp)
	}
	return out
}

// firstPrice prefers an "Rp" price and falls back to a dotted thousands figure
func firstPrice(segment string) (int, bool) {
	if m := rpPrice.FindStringSubmatch(segment); m != nil {
		return parseRupiah(m[1])
	}
	if m := groupedPrice.FindString(segment); m != "" {
		return parseRupiah(m)
	}
	return 0, false
}

// tableItem writes a labelled price as a sentence the extractor reads the
// same way as a news line
func tableItem(lp labelledPrice, region, pageURL, date string) Item {
	body := fmt.Sprintf("Harga %s Rp %d/kg", lp.Label, lp.Price)
	if region != "" {
		body += " di " + region + ", Jawa Barat"
	}
	snippet := body
	if lp.HET > 0 {
		snippet += fmt.Sprintf(" (HET Rp %d)", lp.HET)
	}

	title := lp.Label
	if region != "" {
		title += " - " + region
	}

	return Item{
		Title:       title,
		URL:         pageURL,
		Snippet:     snippet,
		PublishedAt: date,
		Label:       lp.Label + "|" + region,
	}
}

// parseRupiah reads "Rp 15.000", "15,000" or "15000" as 15000
func parseRupiah(s string) (int, bool) {
	digits := nonDigitsRun.ReplaceAllString(s, "")
	if digits == "" || len(digits) > 9 {
		return 0, false
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

package crawler

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
)

// ListingCrawler reads the search result pages of a news site, one per
// keyword and page, and optionally each linked article
type ListingCrawler struct {
	BaseCrawler
	Config SourceConfig
}

// FetchRecords fetches every listing page and builds a record per item
func (c *ListingCrawler) FetchRecords(ctx context.Context) ([]record.Record, error) {
	var (
		items    []Item
		seen     = make(map[string]bool)
		firstErr error
	)

	for _, pageURL := range expandURLs(c.Config) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		doc, err := c.fetchDocument(ctx, pageURL.url)
		if err != nil {
			c.sourceLog().Warn().Err(err).Str("url", pageURL.url).Msg("Listing page failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, item := range c.parseListing(doc, pageURL.url) {
			key := record.NormalizeURL(item.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
			item.Keyword = pageURL.keyword
			items = append(items, item)
		}
	}

	if len(items) == 0 && firstErr != nil {
		return nil, firstErr
	}
	if c.Config.MaxItems > 0 && len(items) > c.Config.MaxItems {
		items = items[:c.Config.MaxItems]
	}

	var process func(context.Context, Item) (Item, bool)
	if c.Config.FetchArticle {
		process = c.withArticle
	}
	return c.processItems(ctx, items, process), nil
}

// parseListing reads the items of one listing page
func (c *ListingCrawler) parseListing(doc *goquery.Document, pageURL string) []Item {
	sel := c.Config.Selectors
	var items []Item

	doc.Find(sel.Item).Each(func(_ int, s *goquery.Selection) {
		linkSel := s
		if sel.Link != "" {
			linkSel = s.Find(sel.Link).First()
		}
		href, ok := linkSel.Attr("href")
		if !ok {
			return
		}
		link := helpers.ResolveURL(pageURL, href)
		if link == "" {
			return
		}

		title := firstText(s, sel.Title)
		if title == "" {
			title = textutil.CollapseSpaces(linkSel.Text())
		}
		if title == "" {
			return
		}

		items = append(items, Item{
			Title:       title,
			URL:         link,
			Snippet:     firstText(s, sel.Snippet),
			PublishedAt: firstText(s, sel.Date),
		})
	})

	return items
}

// withArticle adds the article body to item. Items whose article cannot be
// fetched keep their listing text.
func (c *ListingCrawler) withArticle(ctx context.Context, item Item) (Item, bool) {
	body, err := c.fetchArticle(ctx, item.URL)
	if err != nil {
		c.sourceLog().Debug().Err(err).Str("url", item.URL).Msg("Article fetch failed")
		return item, true
	}
	item.Body = body
	return item, true
}

// firstText returns the collapsed text of the first match of selector in s
func firstText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	found := s.Find(selector).First()
	if found.Length() == 0 {
		return ""
	}
	return textutil.CollapseSpaces(found.Text())
}

type expandedURL struct {
	url     string
	keyword string
}

// expandURLs fills the {query} and {page} placeholders of cfg.URL for every
// keyword and page
func expandURLs(cfg SourceConfig) []expandedURL {
	keywords := cfg.Keywords
	if len(keywords) == 0 || !strings.Contains(cfg.URL, "{query}") {
		keywords = []string{""}
	}
	pages := cfg.Pages
	if pages <= 0 || !strings.Contains(cfg.URL, "{page}") {
		pages = 1
	}

	var urls []expandedURL
	for _, kw := range keywords {
		for page := 1; page <= pages; page++ {
			r := strings.NewReplacer("{query}", url.QueryEscape(kw), "{page}", strconv.Itoa(page))
			urls = append(urls, expandedURL{url: r.Replace(cfg.URL), keyword: kw})
		}
	}
	return urls
}

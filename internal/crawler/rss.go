package crawler

import (
	"context"

	"github.com/mmcdole/gofeed"

	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// FeedCrawler reads an RSS or Atom feed per keyword
type FeedCrawler struct {
	BaseCrawler
	Config SourceConfig

	parser *gofeed.Parser
}

// FetchRecords fetches every feed and builds a record per entry
func (c *FeedCrawler) FetchRecords(ctx context.Context) ([]record.Record, error) {
	if c.parser == nil {
		c.parser = gofeed.NewParser()
	}

	var (
		items    []Item
		seen     = make(map[string]bool)
		firstErr error
	)

	for _, feedURL := range expandURLs(c.Config) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		body, err := c.fetchWithCache(ctx, feedURL.url)
		if err == nil {
			var feed *gofeed.Feed
			if feed, err = c.parser.Parse(body); err == nil {
				for _, entry := range feed.Items {
					item := feedItem(entry)
					key := record.NormalizeURL(item.URL)
					if item.Title == "" || seen[key] {
						continue
					}
					seen[key] = true
					item.Keyword = feedURL.keyword
					items = append(items, item)
				}
				continue
			}
			err = errors.NewParsing(c.Name, "failed to parse feed", err)
		}

		c.sourceLog().Warn().Err(err).Str("url", feedURL.url).Msg("Feed failed")
		if firstErr == nil {
			firstErr = err
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
		process = func(ctx context.Context, item Item) (Item, bool) {
			if body, err := c.fetchArticle(ctx, item.URL); err == nil {
				item.Body = body
			}
			return item, true
		}
	}
	return c.processItems(ctx, items, process), nil
}

func feedItem(entry *gofeed.Item) Item {
	published := entry.Published
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC().Format("2006-01-02T15:04:05Z")
	}
	snippet := entry.Description
	if snippet == "" {
		snippet = entry.Content
	}
	return Item{
		Title:       plainText(entry.Title),
		URL:         entry.Link,
		Snippet:     plainText(snippet),
		PublishedAt: published,
	}
}

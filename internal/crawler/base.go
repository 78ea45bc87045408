package crawler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/logger"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
	"github.com/aahmdakml/MatkulBigdata/services/cache"
	"github.com/aahmdakml/MatkulBigdata/services/metrics"
)

const defaultConcurrency = 4

// FetchFunc fetches a URL and returns its UTF-8 body
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)

// BaseCrawler provides common functionality for all sources
type BaseCrawler struct {
	Name        string
	Provider    string
	SourceType  string
	CacheKey    string
	CacheSvc    cache.CacheService
	BlockTime   time.Duration
	Limiter     *helpers.Limiter
	Robots      *helpers.RobotsChecker
	Metrics     *metrics.Metrics
	Builder     *Builder
	Concurrency int

	fetchFunc FetchFunc
	log       *logger.Logger
}

func (c *BaseCrawler) sourceLog() *logger.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.ForSource(c.Name)
}

// fetchWithCache fetches a URL honouring the rate-limit block, the per-host
// limiter and robots.txt
func (c *BaseCrawler) fetchWithCache(ctx context.Context, url string) (io.Reader, error) {
	if err := c.beforeFetch(ctx, url); err != nil {
		return nil, err
	}

	fetch := c.fetchFunc
	if fetch == nil {
		fetch = helpers.FetchWithRandomHeaders
	}

	start := time.Now()
	body, err := fetch(ctx, url)
	c.Metrics.ObserveFetch(c.Name, time.Since(start))
	if err != nil {
		c.afterError(err)
		return nil, err
	}

	return body, nil
}

// beforeFetch refuses blocked sources and disallowed paths, then waits for
// the host's turn
func (c *BaseCrawler) beforeFetch(ctx context.Context, url string) error {
	// Check if the source is rate limited
	if c.CacheSvc != nil && c.CacheKey != "" {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			return errors.NewBlocked(c.Name, c.BlockTime)
		}
	}

	if c.Robots != nil {
		allowed, delay := c.Robots.Allowed(ctx, url)
		if !allowed {
			return errors.NewValidation(c.Name, fmt.Sprintf("robots.txt disallows %s", url))
		}
		if c.Limiter != nil && delay > 0 {
			c.Limiter.SetCrawlDelay(helpers.HostOf(url), delay)
		}
	}

	if c.Limiter != nil {
		return c.Limiter.Wait(ctx, url)
	}
	return nil
}

// afterError blocks the source for BlockTime when err is a rate limit
func (c *BaseCrawler) afterError(err error) {
	if !errors.IsRateLimit(err) || c.CacheSvc == nil || c.CacheKey == "" || c.BlockTime <= 0 {
		return
	}
	// Set rate limiting cache
	value := []byte(fmt.Sprintf("%d", int(c.BlockTime/time.Second)))
	if setErr := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); setErr != nil {
		c.sourceLog().Warn().Err(setErr).Msg("Failed to store rate limit block")
	}
}

// createDocument creates a goquery document from a reader
func (c *BaseCrawler) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, errors.NewParsing(c.Name, "failed to parse HTML", err)
	}
	return doc, nil
}

// fetchDocument fetches url and parses it
func (c *BaseCrawler) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.fetchWithCache(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.createDocument(body)
}

// processItems builds the records of items in parallel, at most
// Concurrency at a time. Output order follows input order.
func (c *BaseCrawler) processItems(ctx context.Context, items []Item, process func(context.Context, Item) (Item, bool)) []record.Record {
	limit := c.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	results := make([]*record.Record, len(items))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, item := range items {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(i int, item Item) {
				defer wg.Done()
				defer func() { <-sem }()

				if process != nil {
					var ok bool
					if item, ok = process(ctx, item); !ok {
						return
					}
				}
				r := c.Builder.Build(c.Name, c.SourceType, item)
				results[i] = &r
			}(i, item)
		}
	}

	wg.Wait()

	var records []record.Record
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}

	c.Metrics.Extracted(c.Name, len(records))
	return records
}

// GetName returns the source's name for logging
func (c *BaseCrawler) GetName() string {
	return c.Name
}

// GetProvider returns the provider name
func (c *BaseCrawler) GetProvider() string {
	return c.Provider
}

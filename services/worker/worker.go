package worker

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/crawler"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/services/cache"
	"github.com/aahmdakml/MatkulBigdata/services/metrics"
	"github.com/aahmdakml/MatkulBigdata/services/publisher"
	"github.com/aahmdakml/MatkulBigdata/services/store"
)

// Options holds the optional parts of a worker. Nil services are skipped.
type Options struct {
	Store         store.Store
	Seen          *cache.SeenSet
	Metrics       *metrics.Metrics
	MinConfidence int
	Production    bool
}

// Worker handles the crawling, publishing and storing process
type Worker struct {
	crawlers      []crawler.Crawler
	publisher     publisher.Publisher
	logger        helpers.LoggerInterface
	crawlInterval time.Duration
	opts          Options
}

// NewWorker creates a new worker
func NewWorker(
	crawlers []crawler.Crawler,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	crawlInterval time.Duration,
	opts Options,
) *Worker {
	return &Worker{
		crawlers:      crawlers,
		publisher:     pub,
		logger:        logger,
		crawlInterval: crawlInterval,
		opts:          opts,
	}
}

// Start runs a cycle every crawl interval until ctx is cancelled
func (w *Worker) Start(ctx context.Context) {
	for {
		start := time.Now()
		records := w.RunOnce(ctx)
		if !w.opts.Production {
			w.logger.LogInfo("Cycle finished in %s with %d records", time.Since(start), len(records))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunOnce runs all crawlers in parallel, then publishes the records not
// seen before, stores every kept record and trims the streams. It returns
// the kept records, deduplicated, in crawler order.
func (w *Worker) RunOnce(ctx context.Context) []record.Record {
	start := time.Now()
	defer func() { w.opts.Metrics.ObserveCycle(time.Since(start)) }()

	results := make([][]record.Record, len(w.crawlers))
	var wg sync.WaitGroup
	for i, c := range w.crawlers {
		wg.Add(1)
		go func(i int, c crawler.Crawler) {
			defer wg.Done()
			results[i] = w.crawl(ctx, c)
		}(i, c)
	}
	wg.Wait()

	var all []record.Record
	for _, rs := range results {
		all = append(all, rs...)
	}
	records := record.DedupeByURL(all)

	w.publish(ctx, records)
	w.store(ctx, records)

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(ctx); err != nil {
			w.logger.LogError("StreamTrimming", err)
		}
	}

	return records
}

// crawl fetches the records of one crawler and keeps the confident ones
func (w *Worker) crawl(ctx context.Context, c crawler.Crawler) []record.Record {
	name := c.GetName()
	if name == "" {
		name = reflect.TypeOf(c).Elem().Name()
	}

	records, err := c.FetchRecords(ctx)
	if err != nil {
		w.opts.Metrics.SourceError(name, err)
		w.logger.LogError(name, err)
		if len(records) == 0 {
			return nil
		}
	}

	kept := record.FilterByConfidence(records, w.opts.MinConfidence)
	w.opts.Metrics.Kept(name, len(kept))

	if !w.opts.Production && len(kept) > 0 {
		w.logSample(name, kept[0])
	}
	return kept
}

// publish sends every record missing from the seen set and marks it
func (w *Worker) publish(ctx context.Context, records []record.Record) {
	if w.publisher == nil {
		return
	}

	published := 0
	for _, r := range records {
		key := r.DedupeKey()
		if w.opts.Seen != nil {
			seen, err := w.opts.Seen.Seen(key)
			if err != nil {
				w.logger.LogError("SeenSet", err)
			}
			if seen {
				continue
			}
		}

		data, err := json.Marshal(r)
		if err != nil {
			w.logger.LogError(r.Source, err)
			continue
		}

		if err := w.publisher.Publish(ctx, r.Source, data); err != nil {
			w.logger.LogError(r.Source, err)
			continue
		}
		published++

		if w.opts.Seen != nil {
			if err := w.opts.Seen.Mark(key); err != nil {
				w.logger.LogError("SeenSet", err)
			}
		}
	}
	w.opts.Metrics.Published(published)
}

func (w *Worker) store(ctx context.Context, records []record.Record) {
	if w.opts.Store == nil || len(records) == 0 {
		return
	}

	n, err := w.opts.Store.Save(ctx, records)
	if err != nil {
		w.logger.LogError("Store", err)
		return
	}
	w.opts.Metrics.Stored(n)
}

// logSample logs the first record of a source without its long fields
func (w *Worker) logSample(name string, r record.Record) {
	r.Snippet = helpers.Truncate(r.Snippet, 80)
	r.Terms = nil

	data, err := json.Marshal(r)
	if err != nil {
		w.logger.LogError(name, err)
		return
	}
	w.logger.LogInfo("Sample record of %s: %s", name, string(data))
}

package crawler

import (
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/aahmdakml/MatkulBigdata/config"
	"github.com/aahmdakml/MatkulBigdata/internal"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/logger"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// CreateCrawlers creates all the crawlers of the configured sources file, or
// of DefaultSources when none is set
func CreateCrawlers(cfg *config.Config, deps internal.Dependencies) ([]Crawler, error) {
	sources := DefaultSources()
	if cfg.SourcesFile != "" {
		loaded, err := LoadSources(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		sources = loaded
	}

	var crawlers []Crawler
	for _, sc := range sources {
		c, err := NewCrawler(sc, cfg, deps)
		if err != nil {
			return nil, err
		}
		crawlers = append(crawlers, c)
	}

	log := logger.ForComponent("crawler")
	log.Info().Int("count", len(crawlers)).Msg("Created crawlers")
	for i, c := range crawlers {
		log.Debug().Int("index", i).Str("name", c.GetName()).Str("provider", c.GetProvider()).Msg("Crawler")
	}

	return crawlers, nil
}

// NewCrawler builds the crawler of one source
func NewCrawler(sc SourceConfig, cfg *config.Config, deps internal.Dependencies) (Crawler, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if deps.Extractor == nil {
		return nil, errors.NewConfiguration("crawlers need an extractor", nil)
	}

	provider := sc.Provider
	if provider == "" {
		provider = sc.Name
	}

	base := BaseCrawler{
		Name:        sc.Name,
		Provider:    provider,
		CacheKey:    sc.Name + "_rate_limited",
		CacheSvc:    deps.Cache,
		BlockTime:   time.Duration(sc.BlockSeconds) * time.Second,
		Limiter:     deps.Limiter,
		Metrics:     deps.Metrics,
		Builder:     NewBuilder(deps.Extractor),
		Concurrency: cfg.Concurrency,
		log:         logger.ForSource(sc.Name),
	}
	if cfg.RespectRobots {
		base.Robots = deps.Robots
	}

	resolve := func(label string) (string, bool) {
		return deps.Extractor.Gazetteer().Resolve(label, resolveThreshold)
	}

	switch sc.Kind {
	case KindListing:
		base.SourceType = record.TypeNews
		return &ListingCrawler{BaseCrawler: base, Config: sc}, nil
	case KindRSS:
		base.SourceType = record.TypeFeed
		return &FeedCrawler{BaseCrawler: base, Config: sc, parser: gofeed.NewParser()}, nil
	case KindPriceTable:
		base.SourceType = record.TypePriceTable
		return &PriceTableCrawler{BaseCrawler: base, Config: sc, resolve: resolve}, nil
	case KindPIHPS:
		base.SourceType = record.TypeGrid
		return &PIHPSCrawler{
			BaseCrawler: base,
			Config:      sc,
			client:      newPIHPSClient(cfg.RequestTimeout, base.log),
			resolve:     resolve,
		}, nil
	case KindSocialImport:
		base.SourceType = record.TypeSocial
		return &SocialImportCrawler{BaseCrawler: base, Config: sc}, nil
	}

	return nil, errors.NewConfiguration(fmt.Sprintf("unknown source kind %q", sc.Kind), nil)
}

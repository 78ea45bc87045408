package app

import (
	"context"
	"time"

	"github.com/aahmdakml/MatkulBigdata/config"
	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal"
	"github.com/aahmdakml/MatkulBigdata/internal/crawler"
	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/logger"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
	"github.com/aahmdakml/MatkulBigdata/services/analysis"
	"github.com/aahmdakml/MatkulBigdata/services/cache"
	"github.com/aahmdakml/MatkulBigdata/services/metrics"
	"github.com/aahmdakml/MatkulBigdata/services/publisher"
	"github.com/aahmdakml/MatkulBigdata/services/store"
	"github.com/aahmdakml/MatkulBigdata/services/worker"
)

// Mode selects which outputs InitializeServices connects
type Mode int

const (
	// ModeDaemon connects Redis, PostgreSQL (when configured) and metrics
	ModeDaemon Mode = iota
	// ModeOneShot only crawls; records are exported by the caller
	ModeOneShot
)

// Services holds all the initialized services
type Services struct {
	Deps     internal.Dependencies
	Seen     *cache.SeenSet
	Crawlers []crawler.Crawler
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Deps.Publisher != nil {
		s.Deps.Publisher.Close()
	}
	if s.Deps.Store != nil {
		s.Deps.Store.Close()
	}
}

// NewWorker creates the worker of the services
func (s *Services) NewWorker(cfg *config.Config) *worker.Worker {
	return worker.NewWorker(
		s.Crawlers,
		s.Deps.Publisher,
		helpers.NewLogger(cfg.ErrorLogFile),
		cfg.CrawlInterval,
		worker.Options{
			Store:         s.Deps.Store,
			Seen:          s.Seen,
			Metrics:       s.Deps.Metrics,
			MinConfidence: cfg.MinConfidence,
			Production:    cfg.IsProduction(),
		},
	)
}

// NewExtractor builds the extractor of EXTRACTOR_CONFIG_FILE, or the
// default one
func NewExtractor(cfg *config.Config) (*extractor.Extractor, error) {
	extCfg := extractor.DefaultConfig()
	if cfg.ExtractorConfigFile != "" {
		loaded, err := extractor.LoadConfigFile(cfg.ExtractorConfigFile)
		if err != nil {
			return nil, errors.NewConfiguration("cannot load extractor config", err)
		}
		extCfg = loaded
	}

	ext, err := extractor.NewExtractor(extCfg)
	if err != nil {
		return nil, errors.NewConfiguration("invalid extractor config", err)
	}
	return ext, nil
}

// NewAnalysisService builds the language model client of cfg and the
// service that checks its regions against the extractor's gazetteer
func NewAnalysisService(cfg *config.Config) (*analysis.Service, error) {
	client, err := analysis.NewOpenAIClient(analysis.LLMConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}

	ext, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return analysis.NewService(client, ext.Gazetteer()), nil
}

// InitializeServices connects the services of mode and creates the crawlers
func InitializeServices(ctx context.Context, cfg *config.Config, mode Mode) (*Services, error) {
	helpers.ConfigureHTTP(cfg.RequestTimeout, cfg.UserAgent)

	ext, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}

	backend := cfg.CacheBackend
	if mode == ModeOneShot {
		backend = "memory"
	}
	cacheService := cache.New(backend, cfg.MemcacheAddr)
	if mc, ok := cacheService.(*cache.MemcacheService); ok {
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcache at %s is unreachable, falling back to memory: %v", cfg.MemcacheAddr, err)
			cacheService = cache.New("memory", "")
		} else {
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	services := &Services{
		Deps: internal.Dependencies{
			Cache:     cacheService,
			Extractor: ext,
			Limiter:   helpers.NewLimiter(cfg.RequestsPerSecond, cfg.RequestBurst),
			Robots:    helpers.NewRobotsChecker(cfg.UserAgent),
		},
		Seen: cache.NewSeenSet(cacheService, cfg.SeenTTL),
	}

	if mode == ModeDaemon {
		if err := connectOutputs(ctx, cfg, services); err != nil {
			services.Cleanup()
			return nil, err
		}
	}

	crawlers, err := crawler.CreateCrawlers(cfg, services.Deps)
	if err != nil {
		services.Cleanup()
		return nil, err
	}
	if len(crawlers) == 0 {
		services.Cleanup()
		return nil, errors.NewConfiguration("no crawlers were created", nil)
	}
	services.Crawlers = crawlers

	return services, nil
}

func connectOutputs(ctx context.Context, cfg *config.Config, services *Services) error {
	redisPublisher := publisher.NewRedisPublisher(
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisPublisher.Ping(pingCtx); err != nil {
		redisPublisher.Close()
		return errors.NewPublisher("redis", "cannot reach "+cfg.RedisAddr, err)
	}
	services.Deps.Publisher = redisPublisher
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return err
		}
		services.Deps.Store = pg
		logger.Info("Connected to PostgreSQL")
	}

	if cfg.MetricsAddr != "" {
		m := metrics.New()
		services.Deps.Metrics = m
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("Metrics server stopped: %v", err)
			}
		}()
	}

	return nil
}

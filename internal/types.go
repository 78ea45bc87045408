package internal

import (
	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/services/cache"
	"github.com/aahmdakml/MatkulBigdata/services/metrics"
	"github.com/aahmdakml/MatkulBigdata/services/publisher"
	"github.com/aahmdakml/MatkulBigdata/services/store"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     store.Store
	Metrics   *metrics.Metrics
	Extractor *extractor.Extractor
	Limiter   *helpers.Limiter
	Robots    *helpers.RobotsChecker
}

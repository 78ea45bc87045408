package crawler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aahmdakml/MatkulBigdata/config"
	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal"
	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

var _ cache.CacheService = (*MockCacheService)(nil)

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func (m *MockCacheService) has(key string) bool {
	_, err := m.Get(key)
	return err == nil
}

var testExtractor = extractor.MustNewExtractor(extractor.DefaultConfig())

func testConfig() *config.Config {
	return &config.Config{
		Concurrency:    2,
		RequestTimeout: 5 * time.Second,
	}
}

func testDeps(c cache.CacheService) internal.Dependencies {
	return internal.Dependencies{
		Cache:     c,
		Extractor: testExtractor,
		Limiter:   helpers.NewLimiter(100, 10),
	}
}

// newTestCrawler builds sc the way the factory does, with a fresh mock cache
func newTestCrawler(t *testing.T, sc SourceConfig) (Crawler, *MockCacheService) {
	t.Helper()
	mc := NewMockCacheService()
	c, err := NewCrawler(sc, testConfig(), testDeps(mc))
	require.NoError(t, err)
	return c, mc
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Cache configuration; CacheBackend is "memcache" or "memory"
	CacheBackend string
	MemcacheAddr string

	// Crawl cycle
	CrawlInterval  time.Duration
	RequestTimeout time.Duration
	Concurrency    int
	SeenTTL        time.Duration

	// Politeness
	RequestsPerSecond float64
	RequestBurst      int
	RespectRobots     bool
	UserAgent         string

	// Extraction
	MinConfidence       int
	ExtractorConfigFile string
	SourcesFile         string

	// Outputs
	PostgresDSN  string
	MetricsAddr  string
	OutputDir    string
	ErrorLogFile string

	// Analysis API; LLMBaseURL takes any OpenAI compatible endpoint
	APIAddr    string
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMTimeout time.Duration

	// Environment
	Environment string
}

var defaults = map[string]interface{}{
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_DB":                0,
	"REDIS_STREAM":            "harga_beras",
	"REDIS_STREAM_COUNT":      1,
	"REDIS_STREAM_MAX_LENGTH": 1000,
	"CACHE_BACKEND":           "memcache",
	"MEMCACHE_ADDR":           "localhost:11211",
	"CRAWL_INTERVAL_SECONDS":  3600,
	"REQUEST_TIMEOUT_SECONDS": 20,
	"CONCURRENCY":             4,
	"SEEN_TTL_HOURS":          72,
	"REQUESTS_PER_SECOND":     0.5,
	"REQUEST_BURST":           2,
	"RESPECT_ROBOTS":          true,
	"USER_AGENT":              "Mozilla/5.0 (compatible; HargaBerasBot/1.0)",
	"MIN_CONFIDENCE":          30,
	"EXTRACTOR_CONFIG_FILE":   "",
	"SOURCES_FILE":            "",
	"POSTGRES_DSN":            "",
	"METRICS_ADDR":            ":9102",
	"OUTPUT_DIR":              "output",
	"ERROR_LOG_FILE":          "",
	"API_ADDR":                ":5000",
	"LLM_API_KEY":             "",
	"LLM_BASE_URL":            "https://generativelanguage.googleapis.com/v1beta/openai/",
	"LLM_MODEL":               "gemini-2.0-flash",
	"LLM_TIMEOUT_SECONDS":     90,
	"HARGA_ENVIRONMENT":       "development",
}

// LoadConfig loads the configuration from environment variables with defaults.
// When HARGA_CONFIG_FILE names a YAML file its keys (e.g. redis_addr) are read
// too; environment variables still win.
func LoadConfig() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("HARGA_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		_ = v.ReadInConfig()
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisDB:              v.GetInt("REDIS_DB"),
		RedisStream:          v.GetString("REDIS_STREAM"),
		RedisStreamCount:     v.GetInt("REDIS_STREAM_COUNT"),
		RedisStreamMaxLength: v.GetInt("REDIS_STREAM_MAX_LENGTH"),
		CacheBackend:         v.GetString("CACHE_BACKEND"),
		MemcacheAddr:         v.GetString("MEMCACHE_ADDR"),
		CrawlInterval:        time.Duration(v.GetInt("CRAWL_INTERVAL_SECONDS")) * time.Second,
		RequestTimeout:       time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
		Concurrency:          v.GetInt("CONCURRENCY"),
		SeenTTL:              time.Duration(v.GetInt("SEEN_TTL_HOURS")) * time.Hour,
		RequestsPerSecond:    v.GetFloat64("REQUESTS_PER_SECOND"),
		RequestBurst:         v.GetInt("REQUEST_BURST"),
		RespectRobots:        v.GetBool("RESPECT_ROBOTS"),
		UserAgent:            v.GetString("USER_AGENT"),
		MinConfidence:        v.GetInt("MIN_CONFIDENCE"),
		ExtractorConfigFile:  v.GetString("EXTRACTOR_CONFIG_FILE"),
		SourcesFile:          v.GetString("SOURCES_FILE"),
		PostgresDSN:          v.GetString("POSTGRES_DSN"),
		MetricsAddr:          v.GetString("METRICS_ADDR"),
		OutputDir:            v.GetString("OUTPUT_DIR"),
		ErrorLogFile:         v.GetString("ERROR_LOG_FILE"),
		APIAddr:              v.GetString("API_ADDR"),
		LLMAPIKey:            v.GetString("LLM_API_KEY"),
		LLMBaseURL:           v.GetString("LLM_BASE_URL"),
		LLMModel:             v.GetString("LLM_MODEL"),
		LLMTimeout:           time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		Environment:          v.GetString("HARGA_ENVIRONMENT"),
	}
}

// Validate checks the values that would otherwise fail deep inside a cycle
func (c *Config) Validate() error {
	switch {
	case c.CrawlInterval <= 0:
		return errors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	case c.RequestTimeout <= 0:
		return errors.NewConfiguration("REQUEST_TIMEOUT_SECONDS must be positive", nil)
	case c.RedisStreamCount <= 0:
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	case c.Concurrency <= 0:
		return errors.NewConfiguration("CONCURRENCY must be positive", nil)
	case c.RequestsPerSecond <= 0:
		return errors.NewConfiguration("REQUESTS_PER_SECOND must be positive", nil)
	case c.CacheBackend != "memcache" && c.CacheBackend != "memory":
		return errors.NewConfiguration(fmt.Sprintf("CACHE_BACKEND %q is not memcache or memory", c.CacheBackend), nil)
	case c.MinConfidence < 0 || c.MinConfidence > 100:
		return errors.NewConfiguration(fmt.Sprintf("MIN_CONFIDENCE %d is outside [0, 100]", c.MinConfidence), nil)
	}
	return nil
}

// IsProduction reports whether the worker runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

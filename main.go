package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aahmdakml/MatkulBigdata/config"
	"github.com/aahmdakml/MatkulBigdata/internal/app"
	"github.com/aahmdakml/MatkulBigdata/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Int("min_confidence", cfg.MinConfidence).
		Msg("Starting application")

	// Set up context with cancellation on SIGINT and SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize services
	services, err := app.InitializeServices(ctx, cfg, app.ModeDaemon)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	log.Info().
		Int("crawler_count", len(services.Crawlers)).
		Msg("Created crawlers")

	w := services.NewWorker(cfg)

	log.Info().Msg("Starting rice price worker")
	w.Start(ctx)

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

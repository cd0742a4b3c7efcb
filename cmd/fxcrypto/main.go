package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/finfeed/fxcrypto/api"
	"github.com/finfeed/fxcrypto/internal/cache"
	"github.com/finfeed/fxcrypto/internal/config"
	"github.com/finfeed/fxcrypto/internal/crypto"
	"github.com/finfeed/fxcrypto/internal/rates"
	"github.com/finfeed/fxcrypto/internal/upstream"
	"github.com/finfeed/fxcrypto/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create logger
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	zapLogger, err := logger.NewLogger(logLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// The cache lives for the process lifetime and is shared by both feeds.
	priceCache := cache.New(nil)
	fetcher := upstream.NewHTTPFetcher(zapLogger, cfg.Upstream.Timeout)

	ratesSvc, err := rates.NewService(zapLogger, priceCache, fetcher, rates.Config{
		BaseURL: cfg.Upstream.RatesURL,
		TTL:     cfg.Cache.FiatTTL,
	})
	if err != nil {
		zapLogger.Fatal("Failed to create rates service", zap.Error(err))
	}

	cryptoSvc, err := crypto.NewService(zapLogger, priceCache, fetcher, crypto.Config{
		BaseURL: cfg.Upstream.PricesURL,
		TTL:     cfg.Cache.CryptoTTL,
	})
	if err != nil {
		zapLogger.Fatal("Failed to create crypto service", zap.Error(err))
	}

	// Create API server
	apiServer := api.NewServer(zapLogger, ratesSvc, cryptoSvc)

	// Start server in a goroutine
	go func() {
		if err := apiServer.Start(cfg.Server.Addr()); err != nil {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	// Wait for interrupt to shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finhealth/internal/api"
	"finhealth/internal/api/handlers"
	"finhealth/internal/models"
	"finhealth/internal/repository"
	"finhealth/internal/service"
	"finhealth/pkg/config"
	"finhealth/pkg/logger"
	"finhealth/pkg/postgres"
	"finhealth/pkg/redis"
	"finhealth/pkg/tracing"

	"go.uber.org/zap"
)

// @title FinHealth API
// @version 1.0
// @description Financial health assessment for small and medium businesses

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting FinHealth service",
		zap.String("store", cfg.Store.Driver),
		zap.String("strategy", cfg.Analysis.Strategy),
	)

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, &cfg.Telemetry, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			appLogger.Error("Tracing shutdown error", zap.Error(err))
		}
	}()

	store, ping, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	// Initialize repositories
	historyRepo := repository.NewHistoryRepository(store, cfg.Store.HistoryLimit, appLogger)
	settingsRepo := repository.NewSettingsRepository(store, appLogger)
	productRepo := repository.NewProductRepository(repository.DefaultProducts(), appLogger)

	// Initialize services
	var ocr service.OCREngine
	if cfg.OCR.Enabled {
		ocr = service.NewTesseractEngine(&cfg.OCR, appLogger)
	} else {
		appLogger.Info("OCR disabled, scanned PDFs and images will be rejected")
	}
	extractor := service.NewExtractor(ocr, &cfg.OCR, cfg.Analysis.MaxTextLength, appLogger)

	analyzer, err := service.NewAnalyzer(&cfg.Analysis, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize analyzer", zap.Error(err))
	}

	var advisor *service.LLMService
	if cfg.Analysis.Advisor == "gigachat" {
		advisor, err = service.NewLLMService(&cfg.GigaChat, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
		}
		defer advisor.Close()
	}

	recService := service.NewRecommendationService(productRepo, cfg.Catalog.TopK, appLogger)
	assessmentService := service.NewAssessmentService(
		extractor,
		analyzer,
		recService,
		advisorOrNil(advisor),
		historyRepo,
		settingsRepo,
		service.AssessmentConfig{
			Timeout:       cfg.Analysis.Timeout,
			MaxConcurrent: cfg.Analysis.MaxConcurrent,
		},
		appLogger,
	)
	settingsService := service.NewSettingsService(settingsRepo, assessmentService, appLogger)
	integrationService := service.NewIntegrationService(settingsRepo, appLogger)

	// Initialize handlers
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService, appLogger)
	settingsHandler := handlers.NewSettingsHandler(settingsService, integrationService, appLogger)
	healthHandler := handlers.HealthCheck(ping, analyzer.Name(), assessmentService.SupportedFormats())

	// Setup router
	app, err := api.SetupRouter(assessmentHandler, settingsHandler, healthHandler, api.RouterConfig{
		BodyLimit: cfg.Server.BodyLimit,
		Tracing:   cfg.Telemetry.Enabled,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to set up router", zap.Error(err))
	}

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(cfg.Server.WriteTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

// openStore builds the configured persistence backend. The returned ping is
// nil for the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, func(context.Context) error, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return repository.NewMemoryStore(), nil, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, &cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(pool, log)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Ping, nil
	case "redis":
		client, err := redis.NewClient(ctx, &cfg.Redis, log)
		if err != nil {
			return nil, nil, err
		}
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return repository.NewRedisStore(client, cfg.Redis.KeyPrefix, log), ping, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// advisorOrNil keeps a nil *LLMService from becoming a non-nil interface.
func advisorOrNil(s *service.LLMService) interface {
	Advise(ctx context.Context, r *models.AssessmentResult) error
} {
	if s == nil {
		return nil
	}
	return s
}

package main

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"finhealth/internal/models"
	"finhealth/internal/repository"
	"finhealth/internal/service"
	"finhealth/pkg/config"
	"finhealth/pkg/logger"
	"finhealth/pkg/postgres"
	"finhealth/pkg/redis"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	dir := flag.String("dir", "statements", "directory with statements to analyse")
	cacheName := flag.String("cache", ".analyze_cache.json", "cache file name inside -dir")
	industry := flag.String("industry", "", "industry override")
	language := flag.String("language", "", "language override")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	store, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	var ocr service.OCREngine
	if cfg.OCR.Enabled {
		ocr = service.NewTesseractEngine(&cfg.OCR, appLogger)
	}
	analyzer, err := service.NewAnalyzer(&cfg.Analysis, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize analyzer", zap.Error(err))
	}

	settingsRepo := repository.NewSettingsRepository(store, appLogger)
	svc := service.NewAssessmentService(
		service.NewExtractor(ocr, &cfg.OCR, cfg.Analysis.MaxTextLength, appLogger),
		analyzer,
		service.NewRecommendationService(repository.NewProductRepository(repository.DefaultProducts(), appLogger), cfg.Catalog.TopK, appLogger),
		nil,
		repository.NewHistoryRepository(store, cfg.Store.HistoryLimit, appLogger),
		settingsRepo,
		service.AssessmentConfig{
			Timeout:       cfg.Analysis.Timeout,
			MaxConcurrent: cfg.Analysis.MaxConcurrent,
			WaitForSlot:   true,
		},
		appLogger,
	)

	appLogger.Info("Starting batch analysis", zap.String("dir", *dir))

	opts := service.AssessmentOptions{
		Industry: models.Industry(*industry),
		Language: models.Language(*language),
	}
	workers := int(cfg.Analysis.MaxConcurrent)
	if workers < 1 {
		workers = 1
	}
	cacheFile := filepath.Join(*dir, *cacheName)
	if err := analyzeDir(ctx, *dir, cacheFile, svc, opts, workers, appLogger); err != nil {
		appLogger.Fatal("Batch analysis failed", zap.Error(err))
	}

	appLogger.Info("Batch analysis completed")
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		log.Warn("Memory store selected, reports will not outlive this run")
		return repository.NewMemoryStore(), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, &cfg.Database, log)
		if err != nil {
			return nil, err
		}
		store := repository.NewPostgresStore(pool, log)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	case "redis":
		client, err := redis.NewClient(ctx, &cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisStore(client, cfg.Redis.KeyPrefix, log), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// ProcessedFile is one analysed statement in the cache.
type ProcessedFile struct {
	FilePath    string    `json:"file_path"`
	FileHash    string    `json:"file_hash"`
	ReportID    string    `json:"report_id"`
	Score       int       `json:"score"`
	ProcessedAt time.Time `json:"processed_at"`
}

// CacheData stores information about processed files
type CacheData struct {
	ProcessedFiles map[string]ProcessedFile `json:"processed_files"` // key: file path
}

func loadCache(cacheFile string) (*CacheData, error) {
	cache := &CacheData{
		ProcessedFiles: make(map[string]ProcessedFile),
	}

	data, err := os.ReadFile(cacheFile)
	if errors.Is(err, os.ErrNotExist) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.ProcessedFiles == nil {
		cache.ProcessedFiles = make(map[string]ProcessedFile)
	}
	return cache, nil
}

func saveCache(cacheFile string, cache *CacheData) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// calculateFileHash calculates MD5 hash of a file
func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

type fileAnalyzer interface {
	AnalyzeFile(ctx context.Context, filename string, data []byte, opts service.AssessmentOptions) (*models.AssessmentResult, error)
}

// statementFiles lists regular files in dir, skipping dotfiles (the cache).
func statementFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// analyzeDir analyses every statement whose hash changed since the last run.
// A failing file is logged and left out of the cache so the next run retries it.
func analyzeDir(
	ctx context.Context,
	dir string,
	cacheFile string,
	svc fileAnalyzer,
	opts service.AssessmentOptions,
	workers int,
	logger *zap.Logger,
) error {
	files, err := statementFiles(dir)
	if err != nil {
		return err
	}

	cache, err := loadCache(cacheFile)
	if err != nil {
		logger.Warn("Failed to load cache, will process all files", zap.Error(err))
		cache = &CacheData{ProcessedFiles: make(map[string]ProcessedFile)}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range files {
		g.Go(func() error {
			fileHash, err := calculateFileHash(path)
			if err != nil {
				logger.Warn("Failed to hash file, skipping", zap.String("path", path), zap.Error(err))
				return nil
			}

			mu.Lock()
			cached, exists := cache.ProcessedFiles[path]
			mu.Unlock()
			if exists && cached.FileHash == fileHash {
				logger.Info("Statement unchanged, skipping",
					zap.String("path", path),
					zap.Time("processed_at", cached.ProcessedAt),
				)
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("Failed to read file, skipping", zap.String("path", path), zap.Error(err))
				return nil
			}

			result, err := svc.AnalyzeFile(gctx, filepath.Base(path), data, opts)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logger.Error("Failed to analyse statement", zap.String("path", path), zap.Error(err))
				return nil
			}

			logger.Info("Statement analysed",
				zap.String("path", path),
				zap.String("report_id", result.ID),
				zap.Int("score", result.Score),
				zap.String("grade", string(result.CreditRisk.Grade)),
			)

			mu.Lock()
			cache.ProcessedFiles[path] = ProcessedFile{
				FilePath:    path,
				FileHash:    fileHash,
				ReportID:    result.ID,
				Score:       result.Score,
				ProcessedAt: time.Now(),
			}
			mu.Unlock()
			return nil
		})
	}

	runErr := g.Wait()

	if err := saveCache(cacheFile, cache); err != nil {
		logger.Warn("Failed to save cache", zap.Error(err))
	} else {
		logger.Info("Cache saved", zap.Int("processed_files", len(cache.ProcessedFiles)))
	}

	return runErr
}

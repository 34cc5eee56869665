package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finhealth/internal/models"
	"finhealth/internal/repository"
	"finhealth/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type documentExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (*ExtractedDocument, error)
	SupportedFormats() []string
}

type advisor interface {
	Advise(ctx context.Context, r *models.AssessmentResult) error
}

// AssessmentOptions override the stored preferences for one run.
type AssessmentOptions struct {
	Industry models.Industry
	Language models.Language
}

type AssessmentConfig struct {
	Timeout       time.Duration
	MaxConcurrent int64
	// WaitForSlot makes callers queue for the analysis slot instead of
	// failing fast with ErrBusy.
	WaitForSlot bool
}

type AssessmentService struct {
	extractor   documentExtractor
	analyzer    Analyzer
	recommender *RecommendationService
	advisor     advisor
	history     *repository.HistoryRepository
	settings    *repository.SettingsRepository
	sem         *semaphore.Weighted
	cfg         AssessmentConfig
	logger      *zap.Logger
}

// NewAssessmentService wires the pipeline. adv may be nil.
func NewAssessmentService(
	extractor documentExtractor,
	analyzer Analyzer,
	recommender *RecommendationService,
	adv advisor,
	history *repository.HistoryRepository,
	settings *repository.SettingsRepository,
	cfg AssessmentConfig,
	logger *zap.Logger,
) *AssessmentService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &AssessmentService{
		extractor:   extractor,
		analyzer:    analyzer,
		recommender: recommender,
		advisor:     adv,
		history:     history,
		settings:    settings,
		sem:         semaphore.NewWeighted(cfg.MaxConcurrent),
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *AssessmentService) SupportedFormats() []string {
	return s.extractor.SupportedFormats()
}

// AnalyzeFile extracts text from an uploaded statement, scores it and records
// the report at the head of the history.
func (s *AssessmentService) AnalyzeFile(ctx context.Context, filename string, data []byte, opts AssessmentOptions) (*models.AssessmentResult, error) {
	return s.run(ctx, opts, true, func(ctx context.Context) (*ExtractedDocument, error) {
		return s.extractor.Extract(ctx, filename, data)
	})
}

// AnalyzeText scores pasted text. It goes through the txt path of the
// extractor so that the same sanitising and length cap apply as for uploads.
func (s *AssessmentService) AnalyzeText(ctx context.Context, text string, opts AssessmentOptions) (*models.AssessmentResult, error) {
	return s.run(ctx, opts, true, func(ctx context.Context) (*ExtractedDocument, error) {
		return s.extractor.Extract(ctx, "input.txt", []byte(text))
	})
}

// Reanalyze re-runs the last raw input with a new language. The report is
// returned but not added to history. It returns (nil, nil) when nothing has
// been analysed yet.
func (s *AssessmentService) Reanalyze(ctx context.Context, language models.Language) (*models.AssessmentResult, error) {
	last, err := s.settings.LastInput(ctx)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, nil
	}
	return s.run(ctx, AssessmentOptions{Language: language}, false, func(context.Context) (*ExtractedDocument, error) {
		return &ExtractedDocument{Filename: last.Filename, Format: "cached", Method: "reanalysis", Text: last.Text, Rows: last.Rows}, nil
	})
}

func (s *AssessmentService) History(ctx context.Context) ([]*models.AssessmentResult, error) {
	return s.history.List(ctx)
}

func (s *AssessmentService) Get(ctx context.Context, id string) (*models.AssessmentResult, error) {
	r, err := s.history.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *AssessmentService) Purge(ctx context.Context) error {
	if err := s.history.Purge(ctx); err != nil {
		return err
	}
	metrics.HistorySize.Set(0)
	return nil
}

func (s *AssessmentService) acquire(ctx context.Context) error {
	if s.cfg.WaitForSlot {
		return s.sem.Acquire(ctx, 1)
	}
	if !s.sem.TryAcquire(1) {
		return ErrBusy
	}
	return nil
}

func (s *AssessmentService) run(
	ctx context.Context,
	opts AssessmentOptions,
	record bool,
	extract func(context.Context) (*ExtractedDocument, error),
) (*models.AssessmentResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)
	metrics.AnalysesInFlight.Inc()
	defer metrics.AnalysesInFlight.Dec()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("finhealth/service").Start(ctx, "assessment.Run")
	defer span.End()

	start := time.Now()
	strategy := s.analyzer.Name()
	result, err := s.pipeline(ctx, opts, record, extract)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
	}
	metrics.AssessmentsTotal.WithLabelValues(strategy, outcome).Inc()
	metrics.AssessmentDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("Assessment failed", zap.String("strategy", strategy), zap.Error(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.String("assessment.id", result.ID),
		attribute.Int("assessment.score", result.Score),
	)
	return result, nil
}

func (s *AssessmentService) pipeline(
	ctx context.Context,
	opts AssessmentOptions,
	record bool,
	extract func(context.Context) (*ExtractedDocument, error),
) (*models.AssessmentResult, error) {
	prefs, err := s.preferences(ctx, opts)
	if err != nil {
		return nil, err
	}

	// 1. Extract
	doc, err := extract(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Score
	result, err := s.analyzer.Analyze(ctx, AnalysisInput{
		Text:     doc.Text,
		Rows:     doc.Rows,
		Industry: prefs.Industry,
		Language: prefs.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	result.Source = &models.SourceInfo{
		Filename:   doc.Filename,
		Format:     doc.Format,
		Method:     doc.Method,
		Pages:      doc.Pages,
		TextLength: len(doc.Text),
	}

	// 3. Recommend and advise
	if len(result.Recommendations) == 0 && s.recommender != nil {
		result.Recommendations = s.recommender.Suggest(ctx, result)
	}
	if s.advisor != nil {
		if err := s.advisor.Advise(ctx, result); err != nil {
			s.logger.Warn("Advisor failed, keeping heuristic tips", zap.Error(err))
		}
	}
	result.Normalize()

	if !record {
		return result, nil
	}

	// 4. Persist
	if strings.TrimSpace(doc.Text) != "" || len(doc.Rows) > 0 {
		if err := s.settings.SaveLastInput(ctx, &models.LastInput{Filename: doc.Filename, Text: doc.Text, Rows: doc.Rows}); err != nil {
			s.logger.Warn("Failed to save last input", zap.Error(err))
		}
	}
	size, err := s.history.Record(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to record assessment: %w", err)
	}
	metrics.HistorySize.Set(float64(size))

	s.logger.Info("Assessment recorded",
		zap.String("assessment_id", result.ID),
		zap.String("file", doc.Filename),
		zap.Int("score", result.Score),
		zap.String("grade", string(result.CreditRisk.Grade)),
		zap.Int("history_size", size),
	)
	return result, nil
}

func (s *AssessmentService) preferences(ctx context.Context, opts AssessmentOptions) (models.Preferences, error) {
	prefs, err := s.settings.Preferences(ctx)
	if err != nil {
		return prefs, fmt.Errorf("failed to load preferences: %w", err)
	}
	if opts.Industry != "" {
		if !opts.Industry.Valid() {
			return prefs, ErrInvalidIndustry
		}
		prefs.Industry = opts.Industry
	}
	if opts.Language != "" {
		if !opts.Language.Valid() {
			return prefs, ErrInvalidLanguage
		}
		prefs.Language = opts.Language
	}
	return prefs, nil
}

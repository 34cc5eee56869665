package service

import (
	"context"
	"errors"
	"fmt"

	"finhealth/internal/models"
	"finhealth/internal/repository"

	"go.uber.org/zap"
)

type reanalyzer interface {
	Reanalyze(ctx context.Context, language models.Language) (*models.AssessmentResult, error)
}

type SettingsService struct {
	repo       *repository.SettingsRepository
	reanalyzer reanalyzer
	logger     *zap.Logger
}

func NewSettingsService(repo *repository.SettingsRepository, reanalyzer reanalyzer, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		repo:       repo,
		reanalyzer: reanalyzer,
		logger:     logger,
	}
}

func (s *SettingsService) Get(ctx context.Context) (models.Preferences, error) {
	return s.repo.Preferences(ctx)
}

// Update stores the new preferences. Empty fields are left unchanged. When
// the language changes, the last input is re-scored in the new language and
// that report is returned; otherwise the report is nil. The preferences are
// already saved when the re-analysis runs, so a failed re-analysis (slot busy,
// timeout) is logged and yields a nil report rather than an error.
func (s *SettingsService) Update(ctx context.Context, update models.Preferences) (models.Preferences, *models.AssessmentResult, error) {
	current, err := s.repo.Preferences(ctx)
	if err != nil {
		return current, nil, err
	}

	if update.Industry != "" && !update.Industry.Valid() {
		return current, nil, fmt.Errorf("%w: %q", ErrInvalidIndustry, update.Industry)
	}
	if update.Language != "" && !update.Language.Valid() {
		return current, nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, update.Language)
	}

	if update.Industry != "" && update.Industry != current.Industry {
		if err := s.repo.SetIndustry(ctx, update.Industry); err != nil {
			return current, nil, fmt.Errorf("failed to save industry: %w", err)
		}
		s.logger.Info("Industry changed", zap.String("industry", string(update.Industry)))
		current.Industry = update.Industry
	}

	if update.Language == "" || update.Language == current.Language {
		return current, nil, nil
	}

	if err := s.repo.SetLanguage(ctx, update.Language); err != nil {
		return current, nil, fmt.Errorf("failed to save language: %w", err)
	}
	s.logger.Info("Language changed", zap.String("language", string(update.Language)))
	current.Language = update.Language

	report, err := s.reanalyzer.Reanalyze(ctx, update.Language)
	if err != nil {
		s.logger.Warn("Re-analysis after language change skipped",
			zap.String("language", string(update.Language)),
			zap.Bool("busy", errors.Is(err, ErrBusy)),
			zap.Error(err),
		)
		return current, nil, nil
	}
	return current, report, nil
}

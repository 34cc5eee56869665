package repository

import (
	"context"
	"fmt"

	"finhealth/internal/models"

	"go.uber.org/zap"
)

type SettingsRepository struct {
	store  Store
	logger *zap.Logger
}

func NewSettingsRepository(store Store, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		store:  store,
		logger: logger,
	}
}

// Preferences returns the stored industry and language, substituting
// defaults for missing or unrecognised values.
func (r *SettingsRepository) Preferences(ctx context.Context) (models.Preferences, error) {
	prefs := models.DefaultPreferences()

	var industry models.Industry
	found, err := load(ctx, r.store, KeyIndustry, &industry)
	if err != nil {
		return prefs, fmt.Errorf("failed to load industry: %w", err)
	}
	if industry.Valid() {
		prefs.Industry = industry
	} else if found {
		r.logger.Warn("Ignoring unknown stored industry", zap.String("industry", string(industry)))
	}

	var language models.Language
	if _, err := load(ctx, r.store, KeyLanguage, &language); err != nil {
		return prefs, fmt.Errorf("failed to load language: %w", err)
	}
	if language.Valid() {
		prefs.Language = language
	}

	return prefs, nil
}

func (r *SettingsRepository) SetIndustry(ctx context.Context, industry models.Industry) error {
	return save(ctx, r.store, KeyIndustry, industry)
}

func (r *SettingsRepository) SetLanguage(ctx context.Context, language models.Language) error {
	return save(ctx, r.store, KeyLanguage, language)
}

func (r *SettingsRepository) Integrations(ctx context.Context) (map[string]models.IntegrationStatus, error) {
	statuses := map[string]models.IntegrationStatus{}
	if _, err := load(ctx, r.store, KeyIntegrations, &statuses); err != nil {
		return nil, fmt.Errorf("failed to load integrations: %w", err)
	}
	if statuses == nil {
		statuses = map[string]models.IntegrationStatus{}
	}
	return statuses, nil
}

func (r *SettingsRepository) SaveIntegrations(ctx context.Context, statuses map[string]models.IntegrationStatus) error {
	return save(ctx, r.store, KeyIntegrations, statuses)
}

// LastInput returns nil when nothing has been analysed yet.
func (r *SettingsRepository) LastInput(ctx context.Context) (*models.LastInput, error) {
	var in models.LastInput
	found, err := load(ctx, r.store, KeyLastInput, &in)
	if err != nil {
		return nil, fmt.Errorf("failed to load last input: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &in, nil
}

func (r *SettingsRepository) SaveLastInput(ctx context.Context, in *models.LastInput) error {
	return save(ctx, r.store, KeyLastInput, in)
}

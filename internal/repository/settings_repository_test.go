package repository

import (
	"context"
	"testing"

	"finhealth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSettingsRepository_Preferences(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(NewMemoryStore(), zaptest.NewLogger(t))

	prefs, err := repo.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), prefs)

	require.NoError(t, repo.SetIndustry(ctx, models.IndustryLogistics))
	require.NoError(t, repo.SetLanguage(ctx, models.LanguageTamil))

	prefs, err = repo.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.IndustryLogistics, prefs.Industry)
	assert.Equal(t, models.LanguageTamil, prefs.Language)
}

func TestSettingsRepository_UnknownStoredValueFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(NewMemoryStore(), zaptest.NewLogger(t))

	require.NoError(t, repo.SetIndustry(ctx, models.Industry("Mining")))

	prefs, err := repo.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultIndustry, prefs.Industry)
}

func TestSettingsRepository_Integrations(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(NewMemoryStore(), zaptest.NewLogger(t))

	statuses, err := repo.Integrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, statuses)

	statuses["stripe"] = models.IntegrationStatus{Connected: true, LastSync: "2024-01-01T00:00:00Z"}
	require.NoError(t, repo.SaveIntegrations(ctx, statuses))

	statuses, err = repo.Integrations(ctx)
	require.NoError(t, err)
	assert.True(t, statuses["stripe"].Connected)
}

func TestSettingsRepository_LastInput(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(NewMemoryStore(), zaptest.NewLogger(t))

	in, err := repo.LastInput(ctx)
	require.NoError(t, err)
	assert.Nil(t, in)

	require.NoError(t, repo.SaveLastInput(ctx, &models.LastInput{Filename: "q1.txt", Text: "profit"}))

	in, err = repo.LastInput(ctx)
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, "profit", in.Text)
}

package service

import (
	"context"
	"testing"
	"time"

	"finhealth/internal/models"
	"finhealth/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSettingsService_Defaults(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})
	s := NewSettingsService(f.settings, f.svc, zaptest.NewLogger(t))

	prefs, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(), prefs)
}

func TestSettingsService_IndustryOnly(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})
	s := NewSettingsService(f.settings, f.svc, zaptest.NewLogger(t))
	ctx := context.Background()

	prefs, report, err := s.Update(ctx, models.Preferences{Industry: models.IndustryLogistics})
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, models.IndustryLogistics, prefs.Industry)
	assert.Equal(t, models.DefaultLanguage, prefs.Language)

	stored, err := f.settings.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.IndustryLogistics, stored.Industry)
}

func TestSettingsService_LanguageChangeReanalyzes(t *testing.T) {
	f := newAssessmentFixture(t, NewHeuristicAnalyzer(zaptest.NewLogger(t)), nil, AssessmentConfig{})
	s := NewSettingsService(f.settings, f.svc, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := f.svc.AnalyzeText(ctx, "profit growth", AssessmentOptions{})
	require.NoError(t, err)

	prefs, report, err := s.Update(ctx, models.Preferences{Language: models.LanguageBengali})
	require.NoError(t, err)
	assert.Equal(t, models.LanguageBengali, prefs.Language)
	require.NotNil(t, report)
	assert.Equal(t, models.LanguageBengali, report.Language)

	items, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, report, err = s.Update(ctx, models.Preferences{Language: models.LanguageBengali})
	require.NoError(t, err)
	assert.Nil(t, report, "unchanged language does not re-run")
}

func TestSettingsService_LanguageChangeWhileBusy(t *testing.T) {
	blocker := &blockingAnalyzer{started: make(chan struct{}), release: make(chan struct{})}
	f := newAssessmentFixture(t, blocker, nil, AssessmentConfig{MaxConcurrent: 1})
	s := NewSettingsService(f.settings, f.svc, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, f.settings.SaveLastInput(ctx, &models.LastInput{Filename: "q1.txt", Text: "profit growth"}))

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.AnalyzeText(context.Background(), "loss", AssessmentOptions{})
		done <- err
	}()
	<-blocker.started

	prefs, report, err := s.Update(ctx, models.Preferences{Language: models.LanguageHindi})
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, models.LanguageHindi, prefs.Language)

	stored, err := f.settings.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageHindi, stored.Language)

	close(blocker.release)
	require.NoError(t, <-done)
}

func TestSettingsService_Validation(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})
	s := NewSettingsService(f.settings, f.svc, zaptest.NewLogger(t))

	_, _, err := s.Update(context.Background(), models.Preferences{Industry: "Mining"})
	assert.ErrorIs(t, err, ErrInvalidIndustry)

	_, _, err = s.Update(context.Background(), models.Preferences{Language: "Latin"})
	assert.ErrorIs(t, err, ErrInvalidLanguage)
}

func newTestIntegrationService(t *testing.T) (*IntegrationService, *repository.SettingsRepository) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	repo := repository.NewSettingsRepository(repository.NewMemoryStore(), logger)
	s := NewIntegrationService(repo, logger)
	s.now = func() time.Time { return fixedTime }
	return s, repo
}

func TestIntegrationService_Toggle(t *testing.T) {
	s, repo := newTestIntegrationService(t)
	ctx := context.Background()

	item, err := s.Toggle(ctx, "hdfc")
	require.NoError(t, err)
	assert.True(t, item.Connected)
	assert.Equal(t, "HDFC Bank", item.Name)
	assert.Equal(t, "2025-01-15T10:00:00Z", item.LastSync)

	statuses, err := repo.Integrations(ctx)
	require.NoError(t, err)
	assert.True(t, statuses["hdfc"].Connected)

	item, err = s.Toggle(ctx, "hdfc")
	require.NoError(t, err)
	assert.False(t, item.Connected)
	assert.False(t, models.IntegrationCatalog[1].Connected, "catalog is not mutated")
}

func TestIntegrationService_List(t *testing.T) {
	s, _ := newTestIntegrationService(t)
	ctx := context.Background()

	_, err := s.Toggle(ctx, "gstn")
	require.NoError(t, err)

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "stripe", items[0].ID)
	assert.False(t, items[0].Connected)
	assert.True(t, items[2].Connected)
}

func TestIntegrationService_Unknown(t *testing.T) {
	s, _ := newTestIntegrationService(t)

	_, err := s.Toggle(context.Background(), "paypal")
	assert.ErrorIs(t, err, ErrNotFound)
}

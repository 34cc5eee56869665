package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"finhealth/internal/models"
	"finhealth/internal/repository"
	"finhealth/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type assessmentFixture struct {
	svc      *AssessmentService
	store    *repository.MemoryStore
	history  *repository.HistoryRepository
	settings *repository.SettingsRepository
}

func newAssessmentFixture(t *testing.T, analyzer Analyzer, adv advisor, cfg AssessmentConfig) *assessmentFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryStore()
	history := repository.NewHistoryRepository(store, 15, logger)
	settings := repository.NewSettingsRepository(store, logger)
	if analyzer == nil {
		analyzer = newTestHeuristic(t)
	}
	svc := NewAssessmentService(
		NewExtractor(nil, &config.OCRConfig{}, 20000, logger),
		analyzer,
		NewRecommendationService(repository.NewProductRepository(nil, logger), 3, logger),
		adv,
		history,
		settings,
		cfg,
		logger,
	)
	return &assessmentFixture{svc: svc, store: store, history: history, settings: settings}
}

type fakeAdvisor struct {
	err   error
	calls int
}

func (f *fakeAdvisor) Advise(_ context.Context, r *models.AssessmentResult) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	r.Bookkeeping.AutomationTips = append(r.Bookkeeping.AutomationTips, "advisor tip")
	return nil
}

// blockingAnalyzer holds the analysis slot until release is closed.
type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAnalyzer) Name() string { return "blocking" }

func (b *blockingAnalyzer) Analyze(ctx context.Context, in AnalysisInput) (*models.AssessmentResult, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return models.EmptyResult("blocked", 0), nil
}

func TestAssessmentService_AnalyzeText(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})
	ctx := context.Background()

	r, err := f.svc.AnalyzeText(ctx, "Q1 profit growth, revenue 500000, no debt", AssessmentOptions{})
	require.NoError(t, err)

	assert.Equal(t, 90, r.Score)
	assert.Equal(t, models.DefaultIndustry, r.Industry)
	require.NotNil(t, r.Source)
	assert.Equal(t, "passthrough", r.Source.Method)
	assert.NotEmpty(t, r.Recommendations)

	items, err := f.svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, r.ID, items[0].ID)

	last, err := f.settings.LastInput(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "Q1 profit growth, revenue 500000, no debt", last.Text)
}

func TestAssessmentService_AnalyzeFileUnsupported(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})

	_, err := f.svc.AnalyzeFile(context.Background(), "statement.xyz", []byte("data"), AssessmentOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.True(t, IsAnalysisFailure(err))

	items, err := f.svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAssessmentService_AnalyzeFileCSV(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})

	r, err := f.svc.AnalyzeFile(context.Background(), "books.csv",
		[]byte("Item,Amount\nSales,900000\nPurchases,500000\n"),
		AssessmentOptions{Industry: models.IndustryAgriculture})
	require.NoError(t, err)

	assert.Equal(t, models.IndustryAgriculture, r.Industry)
	assert.Equal(t, "csv", r.Source.Format)
	assert.Equal(t, 900000.0, r.Statements.PL[1].Value)
	assert.Equal(t, 500000.0, r.Statements.PL[3].Value)
}

func TestAssessmentService_InvalidOptions(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})

	_, err := f.svc.AnalyzeText(context.Background(), "profit", AssessmentOptions{Industry: "Mining"})
	assert.ErrorIs(t, err, ErrInvalidIndustry)

	_, err = f.svc.AnalyzeText(context.Background(), "profit", AssessmentOptions{Language: "Klingon"})
	assert.ErrorIs(t, err, ErrInvalidLanguage)
}

func TestAssessmentService_HistoryCapNewestFirst(t *testing.T) {
	f := newAssessmentFixture(t, NewHeuristicAnalyzer(zaptest.NewLogger(t)), nil, AssessmentConfig{})
	ctx := context.Background()

	var lastID string
	for i := 0; i < 17; i++ {
		r, err := f.svc.AnalyzeText(ctx, fmt.Sprintf("profit %d", i), AssessmentOptions{})
		require.NoError(t, err)
		lastID = r.ID
	}

	items, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 15)
	assert.Equal(t, lastID, items[0].ID)

	got, err := f.svc.Get(ctx, lastID)
	require.NoError(t, err)
	assert.Equal(t, items[0], got)

	_, err = f.svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssessmentService_Purge(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})
	ctx := context.Background()

	_, err := f.svc.AnalyzeText(ctx, "profit", AssessmentOptions{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Purge(ctx))

	items, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = f.store.Get(ctx, repository.KeyHistory)
	assert.ErrorIs(t, err, repository.ErrKeyNotFound)
}

func TestAssessmentService_Busy(t *testing.T) {
	blocker := &blockingAnalyzer{started: make(chan struct{}), release: make(chan struct{})}
	f := newAssessmentFixture(t, blocker, nil, AssessmentConfig{MaxConcurrent: 1})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.AnalyzeText(context.Background(), "profit", AssessmentOptions{})
		done <- err
	}()
	<-blocker.started

	_, err := f.svc.AnalyzeText(context.Background(), "growth", AssessmentOptions{})
	assert.ErrorIs(t, err, ErrBusy)

	close(blocker.release)
	require.NoError(t, <-done)
}

func TestAssessmentService_AnalyzeTextTruncates(t *testing.T) {
	f := newAssessmentFixture(t, nil, nil, AssessmentConfig{})
	ctx := context.Background()

	r, err := f.svc.AnalyzeText(ctx, "profit "+strings.Repeat("x", 25000), AssessmentOptions{})
	require.NoError(t, err)
	require.NotNil(t, r.Source)
	assert.Equal(t, 20000, r.Source.TextLength)

	last, err := f.settings.LastInput(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Len(t, last.Text, 20000)
}

func TestAssessmentService_Timeout(t *testing.T) {
	blocker := &blockingAnalyzer{started: make(chan struct{}), release: make(chan struct{})}
	f := newAssessmentFixture(t, blocker, nil, AssessmentConfig{Timeout: 20 * time.Millisecond})

	_, err := f.svc.AnalyzeText(context.Background(), "profit", AssessmentOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAssessmentService_Advisor(t *testing.T) {
	adv := &fakeAdvisor{}
	f := newAssessmentFixture(t, nil, adv, AssessmentConfig{})

	r, err := f.svc.AnalyzeText(context.Background(), "profit", AssessmentOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, adv.calls)
	assert.Contains(t, r.Bookkeeping.AutomationTips, "advisor tip")

	adv.err = errors.New("gigachat unavailable")
	r, err = f.svc.AnalyzeText(context.Background(), "profit", AssessmentOptions{})
	require.NoError(t, err, "advisor failures never fail the assessment")
	assert.NotContains(t, r.Bookkeeping.AutomationTips, "advisor tip")
}

func TestAssessmentService_Reanalyze(t *testing.T) {
	f := newAssessmentFixture(t, NewHeuristicAnalyzer(zaptest.NewLogger(t)), nil, AssessmentConfig{})
	ctx := context.Background()

	r, err := f.svc.Reanalyze(ctx, models.LanguageHindi)
	require.NoError(t, err)
	assert.Nil(t, r, "nothing analysed yet")

	first, err := f.svc.AnalyzeText(ctx, "profit growth revenue 750000", AssessmentOptions{})
	require.NoError(t, err)

	again, err := f.svc.Reanalyze(ctx, models.LanguageHindi)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, models.LanguageHindi, again.Language)
	assert.Equal(t, first.Score, again.Score)
	assert.NotEqual(t, first.ID, again.ID)

	items, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1, "re-analysis is not recorded")
}

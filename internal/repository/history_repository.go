package repository

import (
	"context"
	"fmt"
	"sync"

	"finhealth/internal/models"

	"go.uber.org/zap"
)

const DefaultHistoryLimit = 15

// HistoryRepository keeps the most recent assessment reports, newest first.
type HistoryRepository struct {
	store  Store
	limit  int
	logger *zap.Logger

	// serialises read-modify-write of the history list
	mu sync.Mutex
}

func NewHistoryRepository(store Store, limit int, logger *zap.Logger) *HistoryRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryRepository{
		store:  store,
		limit:  limit,
		logger: logger,
	}
}

// Record prepends result and drops everything past the limit.
func (r *HistoryRepository) Record(ctx context.Context, result *models.AssessmentResult) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.list(ctx)
	if err != nil {
		return 0, err
	}

	items = append([]*models.AssessmentResult{result}, items...)
	if len(items) > r.limit {
		r.logger.Debug("History truncated",
			zap.Int("dropped", len(items)-r.limit),
			zap.Int("limit", r.limit),
		)
		items = items[:r.limit]
	}

	if err := save(ctx, r.store, KeyHistory, items); err != nil {
		return 0, fmt.Errorf("failed to save history: %w", err)
	}
	return len(items), nil
}

func (r *HistoryRepository) List(ctx context.Context) ([]*models.AssessmentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(ctx)
}

// Get returns a stored report verbatim.
func (r *HistoryRepository) Get(ctx context.Context, id string) (*models.AssessmentResult, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, ErrNotFound
}

// Purge removes the persisted history key entirely.
func (r *HistoryRepository) Purge(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(ctx, KeyHistory); err != nil {
		return fmt.Errorf("failed to purge history: %w", err)
	}
	r.logger.Info("History purged")
	return nil
}

func (r *HistoryRepository) list(ctx context.Context) ([]*models.AssessmentResult, error) {
	items := []*models.AssessmentResult{}
	found, err := load(ctx, r.store, KeyHistory, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if !found || items == nil {
		return []*models.AssessmentResult{}, nil
	}
	return items, nil
}

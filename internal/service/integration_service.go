package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finhealth/internal/models"
	"finhealth/internal/repository"

	"go.uber.org/zap"
)

// IntegrationService tracks the connected flag of the bundled connectors.
// Nothing outside the store is contacted.
type IntegrationService struct {
	repo   *repository.SettingsRepository
	now    func() time.Time
	logger *zap.Logger

	mu sync.Mutex
}

func NewIntegrationService(repo *repository.SettingsRepository, logger *zap.Logger) *IntegrationService {
	return &IntegrationService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

func (s *IntegrationService) List(ctx context.Context) ([]models.Integration, error) {
	statuses, err := s.repo.Integrations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Integration, 0, len(models.IntegrationCatalog))
	for _, item := range models.IntegrationCatalog {
		item.IntegrationStatus = statuses[item.ID]
		out = append(out, item)
	}
	return out, nil
}

// Toggle flips the connected flag of id and stamps the sync time.
func (s *IntegrationService) Toggle(ctx context.Context, id string) (*models.Integration, error) {
	var item *models.Integration
	for i := range models.IntegrationCatalog {
		if models.IntegrationCatalog[i].ID == id {
			c := models.IntegrationCatalog[i]
			item = &c
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("integration %q: %w", id, ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	statuses, err := s.repo.Integrations(ctx)
	if err != nil {
		return nil, err
	}
	status := statuses[id]
	status.Connected = !status.Connected
	status.LastSync = s.now().UTC().Format(time.RFC3339)
	statuses[id] = status

	if err := s.repo.SaveIntegrations(ctx, statuses); err != nil {
		return nil, fmt.Errorf("failed to save integrations: %w", err)
	}

	s.logger.Info("Integration toggled",
		zap.String("integration", id),
		zap.Bool("connected", status.Connected),
	)
	item.IntegrationStatus = status
	return item, nil
}

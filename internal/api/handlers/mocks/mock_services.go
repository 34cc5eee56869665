package mocks

import (
	"context"

	"finhealth/internal/models"
	"finhealth/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAssessmentService struct {
	mock.Mock
}

func (m *MockAssessmentService) AnalyzeFile(ctx context.Context, filename string, data []byte, opts service.AssessmentOptions) (*models.AssessmentResult, error) {
	args := m.Called(ctx, filename, data, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

func (m *MockAssessmentService) AnalyzeText(ctx context.Context, text string, opts service.AssessmentOptions) (*models.AssessmentResult, error) {
	args := m.Called(ctx, text, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

func (m *MockAssessmentService) History(ctx context.Context) ([]*models.AssessmentResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AssessmentResult), args.Error(1)
}

func (m *MockAssessmentService) Get(ctx context.Context, id string) (*models.AssessmentResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssessmentResult), args.Error(1)
}

func (m *MockAssessmentService) Purge(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context) (models.Preferences, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Preferences), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, update models.Preferences) (models.Preferences, *models.AssessmentResult, error) {
	args := m.Called(ctx, update)
	var report *models.AssessmentResult
	if r := args.Get(1); r != nil {
		report = r.(*models.AssessmentResult)
	}
	return args.Get(0).(models.Preferences), report, args.Error(2)
}

type MockIntegrationService struct {
	mock.Mock
}

func (m *MockIntegrationService) List(ctx context.Context) ([]models.Integration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Integration), args.Error(1)
}

func (m *MockIntegrationService) Toggle(ctx context.Context, id string) (*models.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Integration), args.Error(1)
}

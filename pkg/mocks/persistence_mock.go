package mocks

import (
	"context"

	"github.com/observe2agent/observe2agent/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) SaveRun(ctx context.Context, run models.PipelineRun) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

func (m *MockPersistence) RunByID(ctx context.Context, id string) (*models.PipelineRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.PipelineRun), args.Error(1)
}

func (m *MockPersistence) Runs(ctx context.Context) ([]models.PipelineRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.PipelineRun), args.Error(1)
}

func (m *MockPersistence) SaveLogs(ctx context.Context, runID string, entries []models.LogEntry) error {
	args := m.Called(ctx, runID, entries)

	return args.Error(0)
}

func (m *MockPersistence) LogsByRunID(ctx context.Context, runID string) ([]models.LogEntry, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.LogEntry), args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

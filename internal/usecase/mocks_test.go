package usecase_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
)

var (
	_ repository.LocationRepository   = (*MockLocationRepository)(nil)
	_ repository.TransitionRepository = (*MockTransitionRepository)(nil)
	_ repository.ResultRepository     = (*MockResultRepository)(nil)
	_ repository.CacheRepository      = (*MockCacheRepository)(nil)
)

// MockLocationRepository - мок для LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) LoadLocations(ctx context.Context) ([]domain.LocationRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LocationRecord), args.Error(1)
}

// MockTransitionRepository - мок для TransitionRepository
type MockTransitionRepository struct {
	mock.Mock
}

func (m *MockTransitionRepository) LoadTransitions(ctx context.Context) ([]domain.RawTransition, domain.FeedStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(domain.FeedStats), args.Error(2)
	}
	return args.Get(0).([]domain.RawTransition), args.Get(1).(domain.FeedStats), args.Error(2)
}

// MockResultRepository - мок для ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Save(ctx context.Context, result *domain.SimulationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SimulationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SimulationResult), args.Error(1)
}

func (m *MockResultRepository) List(ctx context.Context, limit int) ([]domain.SimulationResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SimulationResult), args.Error(1)
}

// MockCacheRepository - мок для CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) GetResult(ctx context.Context, id uuid.UUID) (*domain.SimulationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SimulationResult), args.Error(1)
}

func (m *MockCacheRepository) SetResult(ctx context.Context, result *domain.SimulationResult, ttl time.Duration) error {
	args := m.Called(ctx, result, ttl)
	return args.Error(0)
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/placenet-simulator/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// GetResult получает результат прогона из кеша; nil при промахе
	GetResult(ctx context.Context, id uuid.UUID) (*domain.SimulationResult, error)

	// SetResult сохраняет результат прогона в кеше
	SetResult(ctx context.Context, result *domain.SimulationResult, ttl time.Duration) error
}

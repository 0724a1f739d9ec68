package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
)

const resultKeyPrefix = "simulation:result:"

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

// ResultKey - ключ результата прогона в кеше
func ResultKey(id uuid.UUID) string {
	return resultKeyPrefix + id.String()
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// GetResult получает результат прогона из кеша
func (r *cacheRepository) GetResult(ctx context.Context, id uuid.UUID) (*domain.SimulationResult, error) {
	data, err := r.Get(ctx, ResultKey(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var result domain.SimulationResult
	if err := json.Unmarshal(data, &result); err != nil {
		r.logger.Error("Failed to unmarshal result from cache", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}

	return &result, nil
}

// SetResult сохраняет результат прогона в кеше
func (r *cacheRepository) SetResult(ctx context.Context, result *domain.SimulationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("Failed to marshal result", zap.String("id", result.ID.String()), zap.Error(err))
		return fmt.Errorf("marshal result: %w", err)
	}

	return r.Set(ctx, ResultKey(result.ID), data, ttl)
}

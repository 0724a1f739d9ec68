package cache

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/config"
)

// NewRedisStreams создает отдельный клиент для Redis Streams.
// Блокирующие XREADGROUP не должны занимать соединения пула кеша.
func NewRedisStreams(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis streams: %w", err)
	}

	logger.Info("Redis Streams connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return client, nil
}

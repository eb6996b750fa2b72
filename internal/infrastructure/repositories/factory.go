package repositories

import (
	"context"

	"stagecast/internal/core/ports"
	"stagecast/internal/infrastructure/repositories/memory"
	redisrepo "stagecast/internal/infrastructure/repositories/redis"
	"stagecast/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	// Try to connect to Redis if enabled
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory store",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis room store")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory room store")
	}

	return factory, nil
}

// CreateRoomStore creates a room store (Redis or memory with fallback)
func (f *RepositoryFactory) CreateRoomStore() ports.RoomStore {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisRoomStore(f.redisClient)
	}
	return memory.NewMemoryRoomStore()
}

// HealthCheck verifies the backing store connection.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}

// Close closes backing connections.
func (f *RepositoryFactory) Close() error {
	return redisrepo.CloseRedisClient(f.redisClient)
}

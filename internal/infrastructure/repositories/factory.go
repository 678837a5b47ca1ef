package repositories

import (
	"context"

	"lectern/internal/core/ports"
	"lectern/internal/infrastructure/repositories/memory"
	redisrepo "lectern/internal/infrastructure/repositories/redis"
	"lectern/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories, preferring Redis when configured
// and reachable, with an in-memory fallback.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	cfg         *config.Config
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a repository factory.
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		cfg:      cfg,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateMeetingRepository creates the meeting store.
func (f *RepositoryFactory) CreateMeetingRepository() ports.MeetingRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisMeetingRepository(f.redisClient, f.cfg.Meetings.RecordTTL)
	}
	return memory.NewMemoryMeetingRepository(f.cfg.Meetings.RecordTTL)
}

// CreateAttendeeRepository creates the attendee name store.
func (f *RepositoryFactory) CreateAttendeeRepository() ports.AttendeeRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisAttendeeRepository(f.redisClient, f.cfg.Meetings.RecordTTL)
	}
	return memory.NewMemoryAttendeeRepository(f.cfg.Meetings.RecordTTL)
}

// CreateConnectionRepository creates the hub connection store.
func (f *RepositoryFactory) CreateConnectionRepository() ports.ConnectionRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisConnectionRepository(f.redisClient, f.cfg.Meetings.RecordTTL)
	}
	return memory.NewMemoryConnectionRepository()
}

// Close closes the Redis connection if one is in use.
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck reports Redis connection health.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}

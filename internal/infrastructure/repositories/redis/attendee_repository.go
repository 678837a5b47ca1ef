package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
)

// RedisAttendeeRepository stores attendee display names keyed by meeting
// title and attendee identifier, with a TTL matching the meeting records.
type RedisAttendeeRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAttendeeRepository(client *redis.Client, ttl time.Duration) ports.AttendeeRepository {
	return &RedisAttendeeRepository{client: client, ttl: ttl}
}

func attendeeNameKey(title string, id domain.AttendeeID) string {
	return fmt.Sprintf("lectern:attendee:%s/%s", title, id)
}

func (r *RedisAttendeeRepository) PutName(ctx context.Context, title string, id domain.AttendeeID, name string) error {
	if err := r.client.Set(ctx, attendeeNameKey(title, id), name, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set attendee name in Redis: %w", err)
	}
	return nil
}

func (r *RedisAttendeeRepository) GetName(ctx context.Context, title string, id domain.AttendeeID) (string, error) {
	name, err := r.client.Get(ctx, attendeeNameKey(title, id)).Result()
	if err == redis.Nil {
		return "", domain.ErrAttendeeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get attendee name from Redis: %w", err)
	}
	return name, nil
}

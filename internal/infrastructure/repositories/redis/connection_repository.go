package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
)

// RedisConnectionRepository tracks live hub connections in one hash per
// meeting. The hash TTL refreshes on every write so the set disappears
// shortly after its meeting goes quiet.
type RedisConnectionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisConnectionRepository(client *redis.Client, ttl time.Duration) ports.ConnectionRepository {
	return &RedisConnectionRepository{client: client, ttl: ttl}
}

func connectionsKey(meetingID string) string {
	return "lectern:connections:" + meetingID
}

func (r *RedisConnectionRepository) Add(ctx context.Context, conn domain.Connection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	key := connectionsKey(conn.MeetingID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, conn.ConnectionID, data)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add connection in Redis: %w", err)
	}
	return nil
}

func (r *RedisConnectionRepository) Remove(ctx context.Context, meetingID, connectionID string) error {
	if err := r.client.HDel(ctx, connectionsKey(meetingID), connectionID).Err(); err != nil {
		return fmt.Errorf("failed to remove connection from Redis: %w", err)
	}
	return nil
}

func (r *RedisConnectionRepository) ListByMeeting(ctx context.Context, meetingID string) ([]domain.Connection, error) {
	entries, err := r.client.HGetAll(ctx, connectionsKey(meetingID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list connections from Redis: %w", err)
	}

	conns := make([]domain.Connection, 0, len(entries))
	for _, data := range entries {
		var conn domain.Connection
		if err := json.Unmarshal([]byte(data), &conn); err != nil {
			// Skip entries that no longer parse.
			continue
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

func (r *RedisConnectionRepository) RemoveByMeeting(ctx context.Context, meetingID string) error {
	if err := r.client.Del(ctx, connectionsKey(meetingID)).Err(); err != nil {
		return fmt.Errorf("failed to delete meeting connections from Redis: %w", err)
	}
	return nil
}

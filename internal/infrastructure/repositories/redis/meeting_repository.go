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

// RedisMeetingRepository stores meeting records as JSON values with a TTL,
// so abandoned meeting titles expire and become reusable.
type RedisMeetingRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMeetingRepository(client *redis.Client, ttl time.Duration) ports.MeetingRepository {
	return &RedisMeetingRepository{client: client, ttl: ttl}
}

func meetingKey(title string) string {
	return "lectern:meeting:" + title
}

func (r *RedisMeetingRepository) Put(ctx context.Context, record domain.MeetingRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal meeting record: %w", err)
	}
	if err := r.client.Set(ctx, meetingKey(record.Title), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set meeting in Redis: %w", err)
	}
	return nil
}

func (r *RedisMeetingRepository) Get(ctx context.Context, title string) (domain.MeetingRecord, error) {
	data, err := r.client.Get(ctx, meetingKey(title)).Result()
	if err == redis.Nil {
		return domain.MeetingRecord{}, domain.ErrMeetingNotFound
	}
	if err != nil {
		return domain.MeetingRecord{}, fmt.Errorf("failed to get meeting from Redis: %w", err)
	}

	var record domain.MeetingRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return domain.MeetingRecord{}, fmt.Errorf("failed to unmarshal meeting record: %w", err)
	}
	return record, nil
}

func (r *RedisMeetingRepository) Delete(ctx context.Context, title string) error {
	if err := r.client.Del(ctx, meetingKey(title)).Err(); err != nil {
		return fmt.Errorf("failed to delete meeting from Redis: %w", err)
	}
	return nil
}

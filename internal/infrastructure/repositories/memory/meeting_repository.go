package memory

import (
	"context"
	"sync"
	"time"

	"lectern/internal/core/domain"
	"lectern/pkg/utils"
)

// MemoryMeetingRepository stores meeting records in process memory. Records
// expire after the configured TTL, mirroring a store with row expiry, so an
// abandoned meeting title becomes reusable without explicit cleanup.
type MemoryMeetingRepository struct {
	mu      sync.RWMutex
	ttl     time.Duration
	records map[string]domain.MeetingRecord
}

func NewMemoryMeetingRepository(ttl time.Duration) *MemoryMeetingRepository {
	return &MemoryMeetingRepository{
		ttl:     ttl,
		records: make(map[string]domain.MeetingRecord),
	}
}

func (r *MemoryMeetingRepository) Put(ctx context.Context, record domain.MeetingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Title] = record
	return nil
}

func (r *MemoryMeetingRepository) Get(ctx context.Context, title string) (domain.MeetingRecord, error) {
	r.mu.RLock()
	record, ok := r.records[title]
	r.mu.RUnlock()

	if !ok {
		return domain.MeetingRecord{}, domain.ErrMeetingNotFound
	}
	if r.ttl > 0 && utils.IsExpired(record.CreatedAt, r.ttl) {
		r.mu.Lock()
		delete(r.records, title)
		r.mu.Unlock()
		return domain.MeetingRecord{}, domain.ErrMeetingNotFound
	}
	return record, nil
}

func (r *MemoryMeetingRepository) Delete(ctx context.Context, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, title)
	return nil
}

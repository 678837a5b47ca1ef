package memory

import (
	"context"
	"sync"
	"time"

	"lectern/internal/core/domain"
	"lectern/pkg/utils"
)

type attendeeEntry struct {
	name    string
	created time.Time
}

// MemoryAttendeeRepository stores attendee display names keyed by meeting
// title and attendee identifier.
type MemoryAttendeeRepository struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]attendeeEntry
}

func NewMemoryAttendeeRepository(ttl time.Duration) *MemoryAttendeeRepository {
	return &MemoryAttendeeRepository{
		ttl:     ttl,
		entries: make(map[string]attendeeEntry),
	}
}

func attendeeKey(title string, id domain.AttendeeID) string {
	return title + "/" + string(id)
}

func (r *MemoryAttendeeRepository) PutName(ctx context.Context, title string, id domain.AttendeeID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[attendeeKey(title, id)] = attendeeEntry{name: name, created: utils.Now()}
	return nil
}

func (r *MemoryAttendeeRepository) GetName(ctx context.Context, title string, id domain.AttendeeID) (string, error) {
	key := attendeeKey(title, id)

	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok {
		return "", domain.ErrAttendeeNotFound
	}
	if r.ttl > 0 && utils.IsExpired(entry.created, r.ttl) {
		r.mu.Lock()
		delete(r.entries, key)
		r.mu.Unlock()
		return "", domain.ErrAttendeeNotFound
	}
	return entry.name, nil
}

package memory

import (
	"context"
	"sync"

	"lectern/internal/core/domain"
)

// MemoryConnectionRepository tracks live hub connections per meeting.
type MemoryConnectionRepository struct {
	mu        sync.RWMutex
	byMeeting map[string]map[string]domain.Connection
}

func NewMemoryConnectionRepository() *MemoryConnectionRepository {
	return &MemoryConnectionRepository{
		byMeeting: make(map[string]map[string]domain.Connection),
	}
}

func (r *MemoryConnectionRepository) Add(ctx context.Context, conn domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.byMeeting[conn.MeetingID]
	if !ok {
		meeting = make(map[string]domain.Connection)
		r.byMeeting[conn.MeetingID] = meeting
	}
	meeting[conn.ConnectionID] = conn
	return nil
}

func (r *MemoryConnectionRepository) Remove(ctx context.Context, meetingID, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if meeting, ok := r.byMeeting[meetingID]; ok {
		delete(meeting, connectionID)
		if len(meeting) == 0 {
			delete(r.byMeeting, meetingID)
		}
	}
	return nil
}

func (r *MemoryConnectionRepository) ListByMeeting(ctx context.Context, meetingID string) ([]domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meeting := r.byMeeting[meetingID]
	conns := make([]domain.Connection, 0, len(meeting))
	for _, conn := range meeting {
		conns = append(conns, conn)
	}
	return conns, nil
}

func (r *MemoryConnectionRepository) RemoveByMeeting(ctx context.Context, meetingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byMeeting, meetingID)
	return nil
}

package ports

import (
	"context"

	"lectern/internal/core/domain"
)

// MeetingRepository stores meetings keyed by simplified title.
type MeetingRepository interface {
	Put(ctx context.Context, record domain.MeetingRecord) error
	Get(ctx context.Context, title string) (domain.MeetingRecord, error)
	Delete(ctx context.Context, title string) error
}

// AttendeeRepository stores attendee display names scoped to a meeting
// title.
type AttendeeRepository interface {
	PutName(ctx context.Context, title string, attendeeID domain.AttendeeID, name string) error
	GetName(ctx context.Context, title string, attendeeID domain.AttendeeID) (string, error)
}

// ConnectionRepository tracks live hub connections per meeting.
type ConnectionRepository interface {
	Add(ctx context.Context, conn domain.Connection) error
	Remove(ctx context.Context, meetingID, connectionID string) error
	ListByMeeting(ctx context.Context, meetingID string) ([]domain.Connection, error)
	RemoveByMeeting(ctx context.Context, meetingID string) error
}

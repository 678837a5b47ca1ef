package ports

import (
	"context"

	"lectern/internal/core/domain"
)

// JoinRequest carries the validated join parameters.
type JoinRequest struct {
	Title  string
	Name   string
	Region string
	Role   domain.Role
}

// TokenClaims is the verified identity carried by a join token.
type TokenClaims struct {
	MeetingID  string
	AttendeeID domain.AttendeeID
}

// MeetingMetrics records meeting lifecycle metrics. A nil implementation
// is allowed and disables recording.
type MeetingMetrics interface {
	RecordMeetingCreated(region string)
	RecordMeetingEnded(region string)
	RecordAttendeeJoined()
}

// MeetingService is the backend meeting lifecycle service.
type MeetingService interface {
	// CreateMeeting provisions the meeting for the simplified title
	// without provisioning an attendee. Only teachers create meetings;
	// an existing meeting is returned as is.
	CreateMeeting(ctx context.Context, title, region string, role domain.Role) (domain.MeetingRecord, error)

	// Join creates or reuses the meeting for the simplified title and
	// provisions an attendee in it.
	Join(ctx context.Context, req JoinRequest) (domain.JoinInfo, error)

	// AttendeeName resolves a stored attendee name. Unknown attendees
	// resolve to "Unknown" rather than an error.
	AttendeeName(ctx context.Context, title string, attendeeID domain.AttendeeID) (string, error)

	// End removes the meeting and evicts its hub connections.
	End(ctx context.Context, title string) error

	// VerifyJoinToken checks a join token and returns its claims.
	VerifyJoinToken(token string) (TokenClaims, error)
}

package ports

import (
	"context"

	"lectern/internal/core/domain"
)

// MeetingAPI is the client-side view of the meeting backend.
type MeetingAPI interface {
	// Join creates the meeting if needed and provisions an attendee in it.
	Join(ctx context.Context, title, name, region string, role domain.Role) (domain.JoinInfo, error)

	// AttendeeName resolves an attendee identifier to its display name.
	AttendeeName(ctx context.Context, title string, attendeeID domain.AttendeeID) (string, error)

	// End ends the meeting for all attendees.
	End(ctx context.Context, title string) error

	// ClosestRegion returns the nearest supported media region.
	ClosestRegion(ctx context.Context) (string, error)
}

// MessagingSocket is a reconnecting socket to the messaging hub.
type MessagingSocket interface {
	// Open dials the hub. It returns once the first connection attempt
	// succeeds or the context expires.
	Open(ctx context.Context, rawURL string) error

	// Send writes one text frame.
	Send(ctx context.Context, data []byte) error

	// Messages returns the inbound frame stream. The channel closes when
	// the socket is closed for good.
	Messages() <-chan []byte

	// Close shuts the socket down and stops reconnecting.
	Close() error
}

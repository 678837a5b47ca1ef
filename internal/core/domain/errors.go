package domain

import "errors"

var (
	// ErrMeetingNotFound is returned when a meeting title resolves to no
	// stored meeting.
	ErrMeetingNotFound = errors.New("meeting not found")

	// ErrAttendeeNotFound is returned when an attendee lookup misses.
	ErrAttendeeNotFound = errors.New("attendee not found")

	// ErrNotAuthorized is returned when a join token fails verification or
	// a role is not allowed to perform an operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrSessionState is returned when an operation is attempted in the
	// wrong session state.
	ErrSessionState = errors.New("invalid session state")

	// ErrChannelClosed is returned when sending on a closed messaging
	// channel would otherwise block.
	ErrChannelClosed = errors.New("messaging channel closed")
)

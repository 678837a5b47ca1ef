package utils

import "github.com/google/uuid"

// NewMeetingID generates a meeting identifier.
func NewMeetingID() string {
	return uuid.NewString()
}

// NewAttendeeID generates an attendee identifier.
func NewAttendeeID() string {
	return uuid.NewString()
}

// NewExternalUserID generates the opaque external user identifier attached
// to an attendee.
func NewExternalUserID() string {
	return uuid.NewString()
}

// NewConnectionID generates a messaging connection identifier.
func NewConnectionID() string {
	return uuid.NewString()
}

// NewClientRequestToken generates an idempotency token for meeting creation.
func NewClientRequestToken() string {
	return uuid.NewString()
}

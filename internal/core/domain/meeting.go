package domain

import "time"

// MeetingRecord is the backend's stored meeting, keyed by simplified title.
type MeetingRecord struct {
	Title     string
	Meeting   Meeting
	CreatedAt time.Time
}

// AttendeeRecord is the backend's stored attendee name, scoped to a meeting
// title.
type AttendeeRecord struct {
	Title      string
	AttendeeID AttendeeID
	Name       string
}

// Connection is one live messaging socket registered with the hub.
type Connection struct {
	MeetingID    string
	AttendeeID   AttendeeID
	ConnectionID string
}

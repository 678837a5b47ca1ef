package domain

import "strings"

// AttendeeID is an opaque attendee identifier assigned by the meeting
// backend. Content-sharing sub-channels use a derived identifier with a
// modality suffix, e.g. "my-id#content".
type AttendeeID string

// ModalitySeparator splits a base attendee identifier from its modality.
const ModalitySeparator = "#"

// ModalityContent marks the content-share sub-channel of an attendee.
const ModalityContent = "content"

// Base returns the identifier with any modality suffix removed.
func (id AttendeeID) Base() AttendeeID {
	base, _, _ := strings.Cut(string(id), ModalitySeparator)
	return AttendeeID(base)
}

// HasModality reports whether the identifier carries a modality suffix.
// Such identifiers are never tracked in the roster.
func (id AttendeeID) HasModality() bool {
	return id.Base() != id
}

// WithModality derives the sub-channel identifier for a modality.
func (id AttendeeID) WithModality(modality string) AttendeeID {
	return AttendeeID(string(id.Base()) + ModalitySeparator + modality)
}

// RosterAttendee is the reconciled per-attendee record. Name stays empty
// until the asynchronous lookup resolves; indicator fields are nil until
// the first indicator event carrying them arrives.
type RosterAttendee struct {
	Name           string
	Muted          *bool
	Volume         *int // 0-100
	SignalStrength *int // 0-100
}

func (a *RosterAttendee) clone() *RosterAttendee {
	c := &RosterAttendee{Name: a.Name}
	if a.Muted != nil {
		v := *a.Muted
		c.Muted = &v
	}
	if a.Volume != nil {
		v := *a.Volume
		c.Volume = &v
	}
	if a.SignalStrength != nil {
		v := *a.SignalStrength
		c.SignalStrength = &v
	}
	return c
}

// Roster maps attendee identifiers to their reconciled records. Subscribers
// only ever receive clones, never the live map.
type Roster map[AttendeeID]*RosterAttendee

// Clone returns a deep copy safe to hand to subscribers.
func (r Roster) Clone() Roster {
	c := make(Roster, len(r))
	for id, attendee := range r {
		c[id] = attendee.clone()
	}
	return c
}

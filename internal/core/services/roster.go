package services

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	"lectern/pkg/observer"
	"lectern/pkg/retry"
	"lectern/pkg/throttle"
)

// RosterConfig tunes roster reconciliation.
type RosterConfig struct {
	// ThrottleWindow coalesces bursts of roster mutations into one publish.
	ThrottleWindow time.Duration

	// LookupMaxAttempts bounds retries of the attendee name lookup.
	LookupMaxAttempts int

	// LookupInitialDelay is the base backoff between name lookup retries.
	LookupInitialDelay time.Duration
}

// DefaultRosterConfig returns the standard reconciliation tuning.
func DefaultRosterConfig() RosterConfig {
	return RosterConfig{
		ThrottleWindow:     400 * time.Millisecond,
		LookupMaxAttempts:  3,
		LookupInitialDelay: 200 * time.Millisecond,
	}
}

// RosterReconciler folds transport presence and indicator events into a
// single roster, resolves display names through the meeting backend, and
// publishes coalesced snapshots to subscribers. Departures flush the
// pending window so subscribers never briefly see a stale participant.
type RosterReconciler struct {
	log       *zap.SugaredLogger
	api       ports.MeetingAPI
	transport ports.Transport
	retryCfg  retry.Config

	mu         sync.Mutex
	title      string
	roster     domain.Roster
	subscribed map[domain.AttendeeID]struct{}
	lookups    map[domain.AttendeeID]struct{}
	closed     bool

	throttle *throttle.Throttle
	subs     *observer.Registry[domain.Roster]
}

// NewRosterReconciler creates an unattached reconciler.
func NewRosterReconciler(log *zap.SugaredLogger, api ports.MeetingAPI, transport ports.Transport, cfg RosterConfig) *RosterReconciler {
	r := &RosterReconciler{
		log:       log,
		api:       api,
		transport: transport,
		retryCfg: retry.Config{
			Enabled:      cfg.LookupMaxAttempts > 0,
			MaxAttempts:  cfg.LookupMaxAttempts,
			InitialDelay: cfg.LookupInitialDelay,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			FullJitter:   true,
		},
		roster:     make(domain.Roster),
		subscribed: make(map[domain.AttendeeID]struct{}),
		lookups:    make(map[domain.AttendeeID]struct{}),
		subs:       observer.NewRegistry[domain.Roster](),
	}
	r.throttle = throttle.New(cfg.ThrottleWindow, r.publish)
	return r
}

// Attach binds the reconciler to a session and starts consuming transport
// presence events. Name lookups run against the given meeting title.
func (r *RosterReconciler) Attach(ctx context.Context, title string) {
	r.mu.Lock()
	r.title = title
	r.closed = false
	r.mu.Unlock()

	r.transport.OnPresence(func(id domain.AttendeeID, present bool) {
		r.handlePresence(ctx, id, present)
	})
}

// OnRosterUpdate subscribes to roster snapshots. The returned function
// removes the subscription.
func (r *RosterReconciler) OnRosterUpdate(fn func(domain.Roster)) (unsubscribe func()) {
	h := r.subs.Subscribe(fn)
	return func() { r.subs.Unsubscribe(h) }
}

// Snapshot returns a deep copy of the current roster.
func (r *RosterReconciler) Snapshot() domain.Roster {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roster.Clone()
}

// Name resolves an attendee identifier to its roster display name. Modality
// sub-channels resolve through their base identifier. Unknown attendees
// resolve to the empty string.
func (r *RosterReconciler) Name(id domain.AttendeeID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.roster[id.Base()]; ok {
		return a.Name
	}
	return ""
}

// Close stops publishing and clears the roster. Late transport events after
// Close are dropped.
func (r *RosterReconciler) Close() {
	r.throttle.Stop()

	r.mu.Lock()
	r.closed = true
	r.roster = make(domain.Roster)
	r.subscribed = make(map[domain.AttendeeID]struct{})
	r.mu.Unlock()

	r.subs.Clear()
}

func (r *RosterReconciler) handlePresence(ctx context.Context, id domain.AttendeeID, present bool) {
	if id.HasModality() {
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	if !present {
		if _, ok := r.roster[id]; !ok {
			r.mu.Unlock()
			return
		}
		delete(r.roster, id)
		r.mu.Unlock()

		// Departures must reach subscribers immediately, not at the end
		// of the current coalescing window.
		r.throttle.Flush()
		return
	}

	if _, ok := r.roster[id]; ok {
		r.mu.Unlock()
		return
	}
	r.roster[id] = &domain.RosterAttendee{}

	needSubscribe := false
	if _, ok := r.subscribed[id]; !ok {
		r.subscribed[id] = struct{}{}
		needSubscribe = true
	}
	needLookup := false
	if _, ok := r.lookups[id]; !ok {
		r.lookups[id] = struct{}{}
		needLookup = true
	}
	title := r.title
	r.mu.Unlock()

	if needSubscribe {
		r.transport.OnIndicator(id, func(volume *float64, muted *bool, signal *float64) {
			r.handleIndicator(ctx, id, volume, muted, signal)
		})
	}
	if needLookup {
		go r.resolveName(ctx, title, id)
	}

	r.throttle.Trigger()
}

func (r *RosterReconciler) handleIndicator(ctx context.Context, id domain.AttendeeID, volume *float64, muted *bool, signal *float64) {
	r.mu.Lock()
	a, ok := r.roster[id]
	if !ok || r.closed {
		// Indicators can trail a departure; nothing to update.
		r.mu.Unlock()
		return
	}
	if volume != nil {
		v := roundPercent(*volume)
		a.Volume = &v
	}
	if muted != nil {
		m := *muted
		a.Muted = &m
	}
	if signal != nil {
		s := roundPercent(*signal)
		a.SignalStrength = &s
	}

	// A nameless attendee whose earlier lookup gave up gets another one on
	// the next indicator event.
	needLookup := false
	title := r.title
	if a.Name == "" {
		if _, inflight := r.lookups[id]; !inflight {
			r.lookups[id] = struct{}{}
			needLookup = true
		}
	}
	r.mu.Unlock()

	if needLookup {
		go r.resolveName(ctx, title, id)
	}

	r.throttle.Trigger()
}

func (r *RosterReconciler) resolveName(ctx context.Context, title string, id domain.AttendeeID) {
	name, err := retry.RetryWithResult(ctx, r.retryCfg, func() (string, error) {
		return r.api.AttendeeName(ctx, title, id)
	})

	r.mu.Lock()
	delete(r.lookups, id)
	if err != nil {
		r.mu.Unlock()
		r.log.Warnw("attendee name lookup failed", "attendee_id", id, "error", err)
		return
	}
	a, ok := r.roster[id]
	if !ok || r.closed {
		r.mu.Unlock()
		return
	}
	resolved := a.Name == "" && name != ""
	a.Name = name
	r.mu.Unlock()

	// The first name resolution jumps the coalescing window, same as a
	// departure, so subscribers are not left showing a blank entry.
	if resolved {
		r.throttle.Flush()
		return
	}
	r.throttle.Trigger()
}

func (r *RosterReconciler) publish() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	snapshot := r.roster.Clone()
	r.mu.Unlock()

	r.subs.Publish(snapshot)
}

// roundPercent converts a [0, 1] indicator level to a 0-100 integer.
func roundPercent(v float64) int {
	return int(math.Round(v * 100))
}

package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/pkg/observer"
)

// HandPayload is the raise-hand and dismiss-hand message payload.
type HandPayload struct {
	AttendeeID string `json:"attendeeId"`
}

// FocusPayload is the focus message payload.
type FocusPayload struct {
	Focus bool `json:"focus"`
}

// RaisedHands tracks which attendees currently have a hand up. A raised
// hand lowers automatically after the configured timeout unless a dismissal
// arrives first; re-raising resets the timer.
type RaisedHands struct {
	log     *zap.SugaredLogger
	channel *MessageChannel
	ownID   domain.AttendeeID
	timeout time.Duration

	mu     sync.Mutex
	raised map[domain.AttendeeID]*time.Timer
	closed bool

	subs          *observer.Registry[[]domain.AttendeeID]
	unsubscribers []func()
}

// NewRaisedHands creates a tracker bound to the session's message channel.
// A timeout of zero disables auto-dismissal.
func NewRaisedHands(log *zap.SugaredLogger, channel *MessageChannel, ownID domain.AttendeeID, timeout time.Duration) *RaisedHands {
	t := &RaisedHands{
		log:     log,
		channel: channel,
		ownID:   ownID,
		timeout: timeout,
		raised:  make(map[domain.AttendeeID]*time.Timer),
		subs:    observer.NewRegistry[[]domain.AttendeeID](),
	}
	t.unsubscribers = append(t.unsubscribers,
		channel.Subscribe(domain.TopicRaiseHand, t.onRaise),
		channel.Subscribe(domain.TopicDismissHand, t.onDismiss),
	)
	return t
}

// Raise announces the local attendee's raised hand. Send failures are
// logged by the channel, never surfaced.
func (t *RaisedHands) Raise(ctx context.Context) {
	t.channel.Send(ctx, domain.TopicRaiseHand, HandPayload{AttendeeID: string(t.ownID)})
}

// Dismiss lowers an attendee's hand for everyone. Teachers dismiss other
// attendees; students dismiss themselves.
func (t *RaisedHands) Dismiss(ctx context.Context, id domain.AttendeeID) {
	t.channel.Send(ctx, domain.TopicDismissHand, HandPayload{AttendeeID: string(id)})
}

// OnHandsUpdated subscribes to raised-hand set snapshots.
func (t *RaisedHands) OnHandsUpdated(fn func([]domain.AttendeeID)) (unsubscribe func()) {
	h := t.subs.Subscribe(fn)
	return func() { t.subs.Unsubscribe(h) }
}

// Snapshot returns the attendees with a hand currently up.
func (t *RaisedHands) Snapshot() []domain.AttendeeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Close cancels all pending auto-dismiss timers and detaches from the
// channel.
func (t *RaisedHands) Close() {
	t.mu.Lock()
	t.closed = true
	for id, timer := range t.raised {
		if timer != nil {
			timer.Stop()
		}
		delete(t.raised, id)
	}
	t.mu.Unlock()

	for _, unsub := range t.unsubscribers {
		unsub()
	}
	t.subs.Clear()
}

func (t *RaisedHands) onRaise(msg domain.Message) {
	id, ok := handAttendee(msg)
	if !ok {
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if timer, ok := t.raised[id]; ok && timer != nil {
		timer.Stop()
	}
	var timer *time.Timer
	if t.timeout > 0 {
		timer = time.AfterFunc(t.timeout, func() { t.expire(id) })
	}
	t.raised[id] = timer
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.subs.Publish(snapshot)
}

func (t *RaisedHands) onDismiss(msg domain.Message) {
	id, ok := handAttendee(msg)
	if !ok {
		return
	}
	t.lower(id)
}

func (t *RaisedHands) expire(id domain.AttendeeID) {
	t.log.Debugw("raised hand timed out", "attendee_id", id)
	t.lower(id)
}

func (t *RaisedHands) lower(id domain.AttendeeID) {
	t.mu.Lock()
	timer, ok := t.raised[id]
	if !ok || t.closed {
		t.mu.Unlock()
		return
	}
	if timer != nil {
		timer.Stop()
	}
	delete(t.raised, id)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.subs.Publish(snapshot)
}

func (t *RaisedHands) snapshotLocked() []domain.AttendeeID {
	ids := make([]domain.AttendeeID, 0, len(t.raised))
	for id := range t.raised {
		ids = append(ids, id)
	}
	return ids
}

func handAttendee(msg domain.Message) (domain.AttendeeID, bool) {
	var p HandPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.AttendeeID == "" {
		return "", false
	}
	return domain.AttendeeID(p.AttendeeID), true
}

// FocusTracker mirrors the teacher's focus toggle. While focus is on,
// student UIs suppress chat input and mute their microphones.
type FocusTracker struct {
	channel *MessageChannel

	mu      sync.Mutex
	focused bool

	subs        *observer.Registry[bool]
	unsubscribe func()
}

// NewFocusTracker creates a tracker bound to the session's message channel.
func NewFocusTracker(channel *MessageChannel) *FocusTracker {
	t := &FocusTracker{
		channel: channel,
		subs:    observer.NewRegistry[bool](),
	}
	t.unsubscribe = channel.Subscribe(domain.TopicFocus, t.onFocus)
	return t
}

// SetFocus broadcasts the focus state. Only teachers call this.
func (t *FocusTracker) SetFocus(ctx context.Context, focused bool) {
	t.channel.Send(ctx, domain.TopicFocus, FocusPayload{Focus: focused})
}

// Focused returns the last observed focus state.
func (t *FocusTracker) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

// OnFocusChanged subscribes to focus state changes.
func (t *FocusTracker) OnFocusChanged(fn func(bool)) (unsubscribe func()) {
	h := t.subs.Subscribe(fn)
	return func() { t.subs.Unsubscribe(h) }
}

// Close detaches from the channel.
func (t *FocusTracker) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
	t.subs.Clear()
}

func (t *FocusTracker) onFocus(msg domain.Message) {
	var p FocusPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return
	}

	t.mu.Lock()
	changed := t.focused != p.Focus
	t.focused = p.Focus
	t.mu.Unlock()

	if changed {
		t.subs.Publish(p.Focus)
	}
}

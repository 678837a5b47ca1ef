package services

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"lectern/internal/core/domain"
	"lectern/internal/core/ports"
	apperrors "lectern/pkg/errors"
	"lectern/pkg/observer"
	"lectern/pkg/utils"
)

// NameResolver resolves an attendee identifier to a display name at receive
// time. Returning an empty string leaves the message unattributed.
type NameResolver func(domain.AttendeeID) string

// MessageChannel is the data messaging side-channel of a session. Outbound
// messages are wrapped in the hub envelope; inbound frames are parsed,
// stamped with an arrival time, attributed via the roster, and fanned out
// to topic subscribers. Malformed inbound frames are dropped.
type MessageChannel struct {
	log         *zap.SugaredLogger
	socket      ports.MessagingSocket
	nameFor     NameResolver
	openTimeout time.Duration

	mu     sync.Mutex
	opened bool
	closed bool

	topics map[domain.MessageTopic]*observer.Registry[domain.Message]
	all    *observer.Registry[domain.Message]
	done   chan struct{}
}

// NewMessageChannel creates a channel over the given socket. nameFor may be
// nil when sender attribution is not wanted.
func NewMessageChannel(log *zap.SugaredLogger, socket ports.MessagingSocket, nameFor NameResolver, openTimeout time.Duration) *MessageChannel {
	if nameFor == nil {
		nameFor = func(domain.AttendeeID) string { return "" }
	}
	return &MessageChannel{
		log:         log,
		socket:      socket,
		nameFor:     nameFor,
		openTimeout: openTimeout,
		topics:      make(map[domain.MessageTopic]*observer.Registry[domain.Message]),
		all:         observer.NewRegistry[domain.Message](),
		done:        make(chan struct{}),
	}
}

// Open dials the messaging hub for the session and starts the reader. A
// hub that cannot be reached within the open timeout fails the call with a
// channel error.
func (c *MessageChannel) Open(ctx context.Context, cfg domain.SessionConfiguration) error {
	c.mu.Lock()
	if c.opened || c.closed {
		c.mu.Unlock()
		return domain.ErrChannelClosed
	}
	c.opened = true
	c.mu.Unlock()

	endpoint, err := messagingURL(cfg)
	if err != nil {
		return apperrors.NewChannelError(err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.openTimeout)
	defer cancel()

	if err := c.socket.Open(dialCtx, endpoint); err != nil {
		return apperrors.NewChannelError(err)
	}

	go c.readLoop()
	return nil
}

// Subscribe registers a callback for one topic. The returned function
// removes the subscription.
func (c *MessageChannel) Subscribe(topic domain.MessageTopic, fn func(domain.Message)) (unsubscribe func()) {
	c.mu.Lock()
	reg, ok := c.topics[topic]
	if !ok {
		reg = observer.NewRegistry[domain.Message]()
		c.topics[topic] = reg
	}
	c.mu.Unlock()

	h := reg.Subscribe(fn)
	return func() { reg.Unsubscribe(h) }
}

// SubscribeAll registers a callback for every topic.
func (c *MessageChannel) SubscribeAll(fn func(domain.Message)) (unsubscribe func()) {
	h := c.all.Subscribe(fn)
	return func() { c.all.Unsubscribe(h) }
}

// Send publishes a payload on a topic. Sending on a closed channel is a
// silent no-op, and serialization or transmission failures are logged and
// swallowed; messaging never fails the caller.
func (c *MessageChannel) Send(ctx context.Context, topic domain.MessageTopic, payload any) {
	c.mu.Lock()
	if c.closed || !c.opened {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.Warnw("dropping unserializable message", "topic", topic, "error", err)
		return
	}
	frame, err := json.Marshal(domain.Frame{Type: topic, Payload: raw})
	if err != nil {
		c.log.Warnw("dropping unserializable frame", "topic", topic, "error", err)
		return
	}
	envelope, err := json.Marshal(domain.SendEnvelope{
		Message: domain.SendMessageAction,
		Data:    string(frame),
	})
	if err != nil {
		c.log.Warnw("dropping unserializable envelope", "topic", topic, "error", err)
		return
	}

	if err := c.socket.Send(ctx, envelope); err != nil {
		c.log.Warnw("message send failed", "topic", topic, "error", err)
	}
}

// Close shuts the channel down. Safe to call more than once.
func (c *MessageChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	err := c.socket.Close()

	c.all.Clear()
	c.mu.Lock()
	for _, reg := range c.topics {
		reg.Clear()
	}
	c.mu.Unlock()
	return err
}

func (c *MessageChannel) readLoop() {
	for {
		select {
		case <-c.done:
			return
		case raw, ok := <-c.socket.Messages():
			if !ok {
				return
			}
			c.handleFrame(raw)
		}
	}
}

func (c *MessageChannel) handleFrame(raw []byte) {
	var frame domain.Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
		c.log.Debugw("dropping malformed frame", "error", err)
		return
	}

	msg := domain.Message{
		Topic:       frame.Type,
		Payload:     frame.Payload,
		TimestampMs: utils.NowMs(),
	}

	// Payloads that identify their sender get attributed through the
	// roster; everything else stays anonymous.
	var meta struct {
		AttendeeID string `json:"attendeeId"`
	}
	if json.Unmarshal(frame.Payload, &meta) == nil && meta.AttendeeID != "" {
		msg.SenderName = c.nameFor(domain.AttendeeID(meta.AttendeeID))
	}

	c.mu.Lock()
	reg := c.topics[frame.Type]
	c.mu.Unlock()

	if reg != nil {
		reg.Publish(msg)
	}
	c.all.Publish(msg)
}

func messagingURL(cfg domain.SessionConfiguration) (string, error) {
	u, err := url.Parse(cfg.MessagingURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("MeetingId", cfg.MeetingID)
	q.Set("AttendeeId", string(cfg.AttendeeID))
	q.Set("JoinToken", cfg.JoinToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectern/internal/core/domain"
	apperrors "lectern/pkg/errors"
	"lectern/pkg/logger"
)

func testSessionConfig() domain.SessionConfiguration {
	return domain.SessionConfiguration{
		Title:        "math101",
		MeetingID:    "meeting-1",
		AttendeeID:   "alice-id",
		JoinToken:    "token-1",
		MessagingURL: "wss://hub.example.com/messaging",
	}
}

func newTestChannel(t *testing.T, socket *fakeSocket, nameFor NameResolver) *MessageChannel {
	t.Helper()
	c := NewMessageChannel(logger.Named(logger.NewNop(), "messaging"), socket, nameFor, time.Second)
	require.NoError(t, c.Open(context.Background(), testSessionConfig()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestChannel_OpenBuildsAuthorizedURL(t *testing.T) {
	socket := newFakeSocket()
	newTestChannel(t, socket, nil)

	assert.Contains(t, socket.openURL, "wss://hub.example.com/messaging?")
	assert.Contains(t, socket.openURL, "MeetingId=meeting-1")
	assert.Contains(t, socket.openURL, "AttendeeId=alice-id")
	assert.Contains(t, socket.openURL, "JoinToken=token-1")
}

func TestChannel_OpenFailureIsChannelError(t *testing.T) {
	socket := newFakeSocket()
	socket.openErr = context.DeadlineExceeded

	c := NewMessageChannel(logger.Named(logger.NewNop(), "messaging"), socket, nil, time.Second)
	err := c.Open(context.Background(), testSessionConfig())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeChannel))
}

func TestChannel_SendWrapsEnvelope(t *testing.T) {
	socket := newFakeSocket()
	c := newTestChannel(t, socket, nil)

	c.Send(context.Background(), domain.TopicChat, map[string]string{
		"attendeeId": "alice-id",
		"message":    "hello",
	})

	frames := socket.sentFrames()
	require.Len(t, frames, 1)

	var envelope domain.SendEnvelope
	require.NoError(t, json.Unmarshal(frames[0], &envelope))
	assert.Equal(t, domain.SendMessageAction, envelope.Message)

	var frame domain.Frame
	require.NoError(t, json.Unmarshal([]byte(envelope.Data), &frame))
	assert.Equal(t, domain.TopicChat, frame.Type)
	assert.JSONEq(t, `{"attendeeId":"alice-id","message":"hello"}`, string(frame.Payload))
}

func TestChannel_InboundFanOut(t *testing.T) {
	socket := newFakeSocket()
	nameFor := func(id domain.AttendeeID) string {
		if id.Base() == "bob-id" {
			return "Bob"
		}
		return ""
	}
	c := newTestChannel(t, socket, nameFor)

	got := make(chan domain.Message, 1)
	c.Subscribe(domain.TopicChat, func(msg domain.Message) { got <- msg })

	all := make(chan domain.Message, 1)
	c.SubscribeAll(func(msg domain.Message) { all <- msg })

	socket.inbound <- []byte(`{"type":"chat-message","payload":{"attendeeId":"bob-id","message":"hi"}}`)

	select {
	case msg := <-got:
		assert.Equal(t, domain.TopicChat, msg.Topic)
		assert.Equal(t, "Bob", msg.SenderName)
		assert.Positive(t, msg.TimestampMs)
		assert.JSONEq(t, `{"attendeeId":"bob-id","message":"hi"}`, string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("topic subscriber never received the message")
	}

	select {
	case msg := <-all:
		assert.Equal(t, domain.TopicChat, msg.Topic)
	case <-time.After(time.Second):
		t.Fatal("catch-all subscriber never received the message")
	}
}

func TestChannel_MalformedFrameDropped(t *testing.T) {
	socket := newFakeSocket()
	c := newTestChannel(t, socket, nil)

	got := make(chan domain.Message, 2)
	c.SubscribeAll(func(msg domain.Message) { got <- msg })

	socket.inbound <- []byte(`not json`)
	socket.inbound <- []byte(`{"payload":{}}`)
	socket.inbound <- []byte(`{"type":"focus","payload":{"focus":true}}`)

	select {
	case msg := <-got:
		assert.Equal(t, domain.TopicFocus, msg.Topic)
	case <-time.After(time.Second):
		t.Fatal("valid frame after malformed ones never arrived")
	}
	assert.Empty(t, got)
}

func TestChannel_SendAfterCloseIsNoOp(t *testing.T) {
	socket := newFakeSocket()
	c := newTestChannel(t, socket, nil)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")

	c.Send(context.Background(), domain.TopicChat, map[string]string{"message": "late"})
	assert.Empty(t, socket.sentFrames())
}

func TestChannel_SendFailureIsSwallowed(t *testing.T) {
	socket := newFakeSocket()
	c := newTestChannel(t, socket, nil)

	socket.setSendErr(context.DeadlineExceeded)
	c.Send(context.Background(), domain.TopicChat, map[string]string{"message": "lost"})

	// Unserializable payloads are dropped the same way.
	c.Send(context.Background(), domain.TopicChat, func() {})

	socket.setSendErr(nil)
	c.Send(context.Background(), domain.TopicChat, map[string]string{"message": "ok"})
	assert.Len(t, socket.sentFrames(), 1, "the channel keeps working after failed sends")
}

func TestChannel_UnsubscribeStopsDelivery(t *testing.T) {
	socket := newFakeSocket()
	c := newTestChannel(t, socket, nil)

	got := make(chan domain.Message, 1)
	unsubscribe := c.Subscribe(domain.TopicFocus, func(msg domain.Message) { got <- msg })
	unsubscribe()

	socket.inbound <- []byte(`{"type":"focus","payload":{"focus":true}}`)
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, got)
}

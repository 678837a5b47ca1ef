package domain

import "encoding/json"

// MessageTopic routes data messages to subscribers.
type MessageTopic string

const (
	TopicChat        MessageTopic = "chat-message"
	TopicRaiseHand   MessageTopic = "raise-hand"
	TopicDismissHand MessageTopic = "dismiss-hand"
	TopicFocus       MessageTopic = "focus"
)

// Message is a data message delivered to topic subscribers. TimestampMs and
// SenderName are filled in at receive time; the sender name resolves to the
// roster entry of the sender's base attendee identifier when one exists.
type Message struct {
	Topic       MessageTopic    `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	TimestampMs int64           `json:"timestampMs"`
	SenderName  string          `json:"senderName,omitempty"`
}

// Frame is the wire shape of a data message inside the channel.
type Frame struct {
	Type    MessageTopic    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SendEnvelope is the outbound socket envelope. Data carries the serialized
// Frame verbatim; the hub relays it without inspecting it.
type SendEnvelope struct {
	Message string `json:"message"`
	Data    string `json:"data"`
}

// SendMessageAction is the only action the messaging hub routes.
const SendMessageAction = "sendmessage"

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Client sends notification messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// CurrentVersion is written into every message produced by this build.
const CurrentVersion = 1

// Message is the payload sent to notification consumers.
type Message struct {
	Event      string            `json:"event"`
	EntityIDs  map[string]string `json:"entityIds"`
	Actor      string            `json:"actor"`
	RequestID  string            `json:"requestId,omitempty"`
	EnqueuedAt string            `json:"enqueuedAt"`
	Version    int               `json:"version"`
}

// ErrMissingEvent is returned by Validate for messages without an event name.
var ErrMissingEvent = errors.New("missing event")

// Validate checks the fields every consumer relies on.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Event) == "" {
		return ErrMissingEvent
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

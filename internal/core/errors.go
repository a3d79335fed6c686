package core

import (
	"errors"
	"fmt"
)

// Drop reasons reported to the Observer.
const (
	DropUnknownHandle = "unknown_handle"
	DropInvalidText   = "invalid_text"
	DropMalformed     = "malformed"
	DropRelayQueue    = "relay_queue_full"
)

var (
	// ErrConnClosed is returned by a Sender whose transport is gone.
	ErrConnClosed = errors.New("connection closed")
	// ErrSlowConsumer is returned by a Sender whose outbox is full.
	ErrSlowConsumer = errors.New("slow consumer")
	// ErrMalformedPayload marks an inbound frame that is not a chat message.
	ErrMalformedPayload = errors.New("malformed payload")
)

// panicError wraps a value recovered from a recipient's send.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("send panicked: %v", e.value)
}

package core

import "github.com/google/uuid"

// Handle identifies one live connection. A new connect always yields a new handle.
type Handle uuid.UUID

// NoHandle excludes nobody when passed to ForEachExcept.
var NoHandle Handle

// NewHandle mints a random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Sender pushes payloads to a single client.
type Sender interface {
	// Send queues text for delivery. It must not block on network I/O.
	Send(text string) error
	// Close tears down the underlying transport.
	Close(reason string)
}

// SenderFunc adapts a function to Sender. Close is a no-op.
type SenderFunc func(text string) error

// Send calls f(text).
func (f SenderFunc) Send(text string) error {
	return f(text)
}

// Close does nothing.
func (f SenderFunc) Close(string) {}

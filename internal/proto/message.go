package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventChatMessage is the only event name carried in either direction.
const EventChatMessage = "chat message"

var (
	// ErrUnknownEvent is returned for envelopes with an unsupported event name.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrBadData is returned when the envelope data is not a JSON string.
	ErrBadData = errors.New("data must be a string")
)

// Envelope is a single frame on the wire, inbound or outbound.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChatMessage builds the outbound envelope for text.
func ChatMessage(text string) Envelope {
	data, _ := json.Marshal(text)
	return Envelope{Event: EventChatMessage, Data: data}
}

// Text extracts the chat text from an inbound envelope.
func (e Envelope) Text() (string, error) {
	if e.Event != EventChatMessage {
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, e.Event)
	}
	if len(e.Data) == 0 || e.Data[0] != '"' {
		return "", ErrBadData
	}
	var text string
	if err := json.Unmarshal(e.Data, &text); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadData, err)
	}
	return text, nil
}

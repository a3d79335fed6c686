package http

import (
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// inboundText decodes one frame into chat text. Any error wraps core.ErrMalformedPayload.
func inboundText(typ websocket.MessageType, data []byte) (string, error) {
	if typ != websocket.MessageText {
		return "", fmt.Errorf("%w: binary frame", core.ErrMalformedPayload)
	}

	var env proto.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrMalformedPayload, err)
	}

	text, err := env.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrMalformedPayload, err)
	}
	return text, nil
}

package http

import (
	"errors"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

func TestConnSenderFullOutbox(t *testing.T) {
	s := newConnSender(1)

	require.NoError(t, s.Send("first"))
	assert.ErrorIs(t, s.Send("second"), core.ErrSlowConsumer)
	assert.Equal(t, "first", <-s.out)
}

func TestConnSenderClosed(t *testing.T) {
	s := newConnSender(4)

	s.Close("slow consumer")
	s.Close("ignored")

	assert.ErrorIs(t, s.Send("late"), core.ErrConnClosed)
	assert.Equal(t, "slow consumer", s.closedReason())
}

func TestInboundText(t *testing.T) {
	text, err := inboundText(websocket.MessageText, []byte(`{"event":"chat message","data":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = inboundText(websocket.MessageBinary, []byte(`{"event":"chat message","data":"hello"}`))
	assert.ErrorIs(t, err, core.ErrMalformedPayload)

	_, err = inboundText(websocket.MessageText, []byte(`{"event":"chat message","data":null}`))
	assert.ErrorIs(t, err, core.ErrMalformedPayload)
}

func TestCloseStatus(t *testing.T) {
	status, _ := closeStatus(errSenderClosed, ShutdownReason)
	assert.Equal(t, websocket.StatusGoingAway, status)

	status, reason := closeStatus(errSenderClosed, "slow consumer")
	assert.Equal(t, websocket.StatusPolicyViolation, status)
	assert.Equal(t, "slow consumer", reason)

	status, _ = closeStatus(nil, "")
	assert.Equal(t, websocket.StatusNormalClosure, status)

	status, _ = closeStatus(errors.New("boom"), "")
	assert.Equal(t, websocket.StatusInternalError, status)
}

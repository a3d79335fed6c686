package http

import (
	"sync"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// ShutdownReason is the close reason used when the server stops.
const ShutdownReason = "server shutting down"

// connSender is the core.Sender for one WebSocket. Send only enqueues; the
// connection's write loop is the sole writer to the socket.
type connSender struct {
	out    chan string
	done   chan struct{}
	once   sync.Once
	reason string
}

func newConnSender(buffer int) *connSender {
	return &connSender{
		out:  make(chan string, buffer),
		done: make(chan struct{}),
	}
}

func (s *connSender) Send(text string) error {
	select {
	case <-s.done:
		return core.ErrConnClosed
	default:
	}

	select {
	case s.out <- text:
		return nil
	default:
		return core.ErrSlowConsumer
	}
}

func (s *connSender) Close(reason string) {
	s.once.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

// closedReason returns the reason passed to Close, or "" while open.
func (s *connSender) closedReason() string {
	select {
	case <-s.done:
		return s.reason
	default:
		return ""
	}
}

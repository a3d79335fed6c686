package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"slices"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

var errSenderClosed = errors.New("sender closed")

// WSHandler upgrades HTTP connections and bridges them to the dispatcher.
type WSHandler struct {
	dispatcher *core.Dispatcher
	accept     websocket.AcceptOptions
	cfg        config.Config
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(dispatcher *core.Dispatcher, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	accept := websocket.AcceptOptions{}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		accept.InsecureSkipVerify = true
	} else {
		accept.OriginPatterns = cfg.AllowedOrigins
	}
	return &WSHandler{dispatcher: dispatcher, accept: accept, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &h.accept)
	if err != nil {
		h.log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	handle := core.NewHandle()
	sender := newConnSender(h.cfg.SendBuffer)
	logger := h.log.With().Str("handle", handle.String()).Str("remote_addr", r.RemoteAddr).Logger()

	h.dispatcher.OnConnect(handle, sender)
	defer h.dispatcher.OnDisconnect(handle)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, handle)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sender)
	}()

	err = <-errCh
	status, reason := closeStatus(err, sender.closedReason())
	if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
		logger.Warn().Err(err).Int("status", int(status)).Msg("ws connection closed with error")
	}

	// Cancelling a pending Read drops the socket without a close frame, so a
	// server-initiated close must happen first. It also unblocks the reader.
	closed := false
	if errors.Is(err, errSenderClosed) {
		conn.Close(status, reason)
		closed = true
	}

	cancel() // stop the other goroutine
	<-errCh
	sender.Close("")

	if !closed {
		conn.Close(status, reason)
	}
}

func closeStatus(err error, closedReason string) (websocket.StatusCode, string) {
	if errors.Is(err, errSenderClosed) {
		if closedReason == ShutdownReason {
			return websocket.StatusGoingAway, closedReason
		}
		return websocket.StatusPolicyViolation, closedReason
	}
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return websocket.StatusNormalClosure, "closing"
	}

	status := websocket.CloseStatus(err)
	switch status {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return status, "closing"
	case -1:
		return websocket.StatusInternalError, err.Error()
	default:
		return status, err.Error()
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, handle core.Handle) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		text, err := inboundText(typ, data)
		if err != nil {
			h.dispatcher.OnMalformed(handle, err)
			continue
		}
		h.dispatcher.OnMessage(handle, text)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sender *connSender) error {
	var pingC <-chan time.Time
	if h.cfg.PingInterval > 0 {
		ticker := time.NewTicker(h.cfg.PingInterval)
		defer ticker.Stop()
		pingC = ticker.C
	}

	for {
		select {
		case text := <-sender.out:
			if err := h.write(ctx, conn, text); err != nil {
				return err
			}
		case <-pingC:
			pingCtx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-sender.done:
			return errSenderClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, text string) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, proto.ChatMessage(text))
}

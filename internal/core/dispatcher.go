package core

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const defaultRelayQueue = 256

// Publisher forwards locally received messages to other server instances.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Dispatcher wires transport lifecycle events to the registry and fans out
// each inbound message to every other registered connection.
type Dispatcher struct {
	registry  *Registry
	log       *zerolog.Logger
	observer  Observer
	publisher Publisher
	relayQ    chan string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver reports counters to o.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithPublisher relays every accepted local message through p. Messages are
// queued and published by Run; queueSize <= 0 uses a default.
func WithPublisher(p Publisher, queueSize int) Option {
	return func(d *Dispatcher) {
		if p == nil {
			return
		}
		if queueSize <= 0 {
			queueSize = defaultRelayQueue
		}
		d.publisher = p
		d.relayQ = make(chan string, queueSize)
	}
}

// NewDispatcher builds a dispatcher over registry. A nil logger disables logging.
func NewDispatcher(registry *Registry, logger *zerolog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	d := &Dispatcher{
		registry: registry,
		log:      logger,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry exposes the registry the dispatcher mutates.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch routes a transport event to its handler.
func (d *Dispatcher) Dispatch(ev Event) {
	switch ev.Kind {
	case EventConnect:
		d.OnConnect(ev.Handle, ev.Sender)
	case EventMessage:
		d.OnMessage(ev.Handle, ev.Text)
	case EventDisconnect:
		d.OnDisconnect(ev.Handle)
	default:
		d.log.Debug().Stringer("kind", ev.Kind).Msg("ignoring unknown event")
	}
}

// OnConnect registers a new connection.
func (d *Dispatcher) OnConnect(h Handle, s Sender) {
	if s == nil {
		d.log.Warn().Str("handle", h.String()).Msg("connect without sender; skipping")
		return
	}
	if !d.registry.Add(h, s) {
		d.log.Debug().Str("handle", h.String()).Msg("duplicate connect ignored")
		return
	}
	total := d.registry.Len()
	d.observer.Connected(total)
	d.log.Info().Str("handle", h.String()).Int("total", total).Msg("user connected")
}

// OnMessage forwards text to every registered connection except h. Messages
// from unregistered handles and invalid UTF-8 are dropped. Empty text is allowed.
func (d *Dispatcher) OnMessage(h Handle, text string) {
	if !d.registry.Contains(h) {
		d.observer.Dropped(DropUnknownHandle)
		d.log.Debug().Str("handle", h.String()).Msg("message from unregistered handle dropped")
		return
	}
	if !utf8.ValidString(text) {
		d.observer.Dropped(DropInvalidText)
		d.log.Debug().Str("handle", h.String()).Msg("message with invalid utf-8 dropped")
		return
	}

	d.observer.Received()
	d.fanOut(h, text)
	d.enqueueRelay(text)
}

// OnDisconnect removes h. Repeated calls are no-ops.
func (d *Dispatcher) OnDisconnect(h Handle) {
	if _, removed := d.registry.Remove(h); !removed {
		return
	}
	total := d.registry.Len()
	d.observer.Disconnected(total)
	d.log.Info().Str("handle", h.String()).Int("total", total).Msg("user disconnected")
}

// OnMalformed records an inbound frame that could not be decoded. The
// connection stays open.
func (d *Dispatcher) OnMalformed(h Handle, err error) {
	d.observer.Dropped(DropMalformed)
	d.log.Debug().Err(err).Str("handle", h.String()).Msg("malformed payload dropped")
}

// DeliverRemote fans out a message that arrived from another instance to
// every local connection.
func (d *Dispatcher) DeliverRemote(text string) {
	if !utf8.ValidString(text) {
		d.observer.Dropped(DropInvalidText)
		return
	}
	d.fanOut(NoHandle, text)
}

// Run publishes queued messages until ctx is done. It returns immediately
// when no publisher is configured.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.publisher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-d.relayQ:
			if err := d.publisher.Publish(ctx, text); err != nil {
				d.log.Warn().Err(err).Msg("relay publish failed")
			}
		}
	}
}

// Shutdown closes the transport of every registered connection. Registry
// entries are removed when the transport reports the disconnect.
func (d *Dispatcher) Shutdown(reason string) int {
	closed := 0
	d.registry.ForEachExcept(NoHandle, func(s Sender) error {
		s.Close(reason)
		closed++
		return nil
	})
	d.log.Info().Int("closed", closed).Msg("closed client connections")
	return closed
}

func (d *Dispatcher) fanOut(exclude Handle, text string) {
	delivered := 0
	failed := d.registry.ForEachExcept(exclude, func(s Sender) error {
		if err := s.Send(text); err != nil {
			return err
		}
		delivered++
		return nil
	})
	d.observer.Delivered(delivered, len(failed))

	for _, f := range failed {
		d.evict(f)
	}
}

// evict removes a recipient whose send failed and closes its transport.
// A closed sender means the connection is already leaving, so that case is
// logged at debug.
func (d *Dispatcher) evict(f Failure) {
	s, removed := d.registry.Remove(f.Handle)
	if !removed {
		return
	}
	total := d.registry.Len()
	d.observer.Disconnected(total)

	ev := d.log.Warn()
	if errors.Is(f.Err, ErrConnClosed) {
		ev = d.log.Debug()
	}
	ev.Err(f.Err).Str("handle", f.Handle.String()).Int("total", total).Msg("user disconnected: delivery failed")
	s.Close("slow consumer")
}

func (d *Dispatcher) enqueueRelay(text string) {
	if d.relayQ == nil {
		return
	}
	select {
	case d.relayQ <- text:
	default:
		d.observer.Dropped(DropRelayQueue)
		d.log.Warn().Msg("relay queue full; message not forwarded")
	}
}

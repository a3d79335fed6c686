package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recorder is a Sender that keeps every payload it is given.
type recorder struct {
	mu     sync.Mutex
	got    []string
	fail   error
	closed bool
	reason string
}

func (r *recorder) Send(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		return r.fail
	}
	if r.closed {
		return ErrConnClosed
	}
	r.got = append(r.got, text)
	return nil
}

func (r *recorder) Close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.reason = reason
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.got))
	copy(out, r.got)
	return out
}

func (r *recorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// countingObserver tallies dispatcher counters.
type countingObserver struct {
	mu        sync.Mutex
	connected int
	gone      int
	received  int
	dropped   map[string]int
	delivered int
	failed    int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{dropped: make(map[string]int)}
}

func (o *countingObserver) Connected(int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.connected++
}

func (o *countingObserver) Disconnected(int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gone++
}

func (o *countingObserver) Received() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received++
}

func (o *countingObserver) Dropped(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped[reason]++
}

func (o *countingObserver) Delivered(ok, failed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delivered += ok
	o.failed += failed
}

func (o *countingObserver) droppedFor(reason string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped[reason]
}

// connect registers a fresh recorder under a new handle.
func connect(t *testing.T, d *Dispatcher) (Handle, *recorder) {
	t.Helper()

	h := NewHandle()
	r := &recorder{}
	d.OnConnect(h, r)
	require.True(t, d.Registry().Contains(h))
	return h, r
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

package core

// Observer receives dispatcher counters. Implementations must be safe for concurrent use.
type Observer interface {
	Connected(total int)
	Disconnected(total int)
	Received()
	Dropped(reason string)
	Delivered(ok, failed int)
}

type nopObserver struct{}

func (nopObserver) Connected(int)      {}
func (nopObserver) Disconnected(int)   {}
func (nopObserver) Received()          {}
func (nopObserver) Dropped(string)     {}
func (nopObserver) Delivered(int, int) {}

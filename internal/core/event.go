package core

// EventKind is a transport lifecycle notification.
type EventKind int

const (
	// EventConnect reports a new client session.
	EventConnect EventKind = iota
	// EventMessage carries one inbound chat message.
	EventMessage
	// EventDisconnect reports that a session ended.
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventMessage:
		return "message"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is what the transport hands to the Dispatcher.
type Event struct {
	Kind   EventKind
	Handle Handle
	Sender Sender // EventConnect only
	Text   string // EventMessage only
}

package animation

// EventKind tags an animator lifecycle event
type EventKind int

const (
	EventStarted EventKind = iota
	EventUpdated
	EventEnded
	EventCanceled
)

// String returns the string representation of the kind
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventUpdated:
		return "updated"
	case EventEnded:
		return "ended"
	case EventCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners for every animator lifecycle step
type Event struct {
	Kind     EventKind
	Animator State
}

// Listener receives animator events on the shell executor
type Listener func(Event)

package subghz

// EventKind identifies a progress event emitted during a run
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventScanned
	EventStarted
	EventCopied
	EventSkipped
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state"
	case EventScanned:
		return "scanned"
	case EventStarted:
		return "started"
	case EventCopied:
		return "copied"
	case EventSkipped:
		return "skipped"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is a progress message sent from a run to its caller.
// Index counts processed plan entries, starting at 1. For EventScanned it
// counts examined capture files and Total is the number of candidates.
type Event struct {
	Kind        EventKind
	State       RunState
	Index       int
	Total       int
	Source      string
	Destination string
	Reason      string
	Err         error
}

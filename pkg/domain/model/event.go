package model

// EventKind identifies what a progress event carries
type EventKind string

const (
	// EventStatus is a free-form status line, e.g. "Connecting to iCloud..."
	EventStatus EventKind = "status"
	// EventStart announces the total number of photos to process
	EventStart EventKind = "start"
	// EventItem is emitted after each processed photo
	EventItem EventKind = "item"
	// EventDone is the terminal event of a completed run
	EventDone EventKind = "done"
	// EventFailed is the terminal event of an aborted run
	EventFailed EventKind = "failed"
)

// Event is emitted by the download worker and rendered by the interactive
// surface. Only the worker creates events; only the surface reads them.
type Event struct {
	Kind     EventKind
	Message  string
	Index    int
	Total    int
	Filename string
	Outcome  ItemOutcome
	Err      error
	Report   *Report
}

// IsTerminal returns true for the last event of a run
func (e Event) IsTerminal() bool {
	return e.Kind == EventDone || e.Kind == EventFailed
}

// Processed returns the one-based progress position of an item event
func (e Event) Processed() int {
	return e.Index + 1
}

package watch

// EventType discriminates the variants of Event.
type EventType string

const (
	// Applied reports a single resource that was created or updated.
	Applied EventType = "Applied"

	// Deleted reports a single resource that was removed.
	Deleted EventType = "Deleted"

	// Restarted reports the full snapshot after a list or re-list. All
	// prior knowledge of the watched set is superseded.
	Restarted EventType = "Restarted"
)

// Event is one typed observation from a watch pipeline. Object carries the
// resource for Applied and Deleted events; Objects carries the snapshot for
// Restarted events.
type Event[T any] struct {
	Type    EventType
	Object  T
	Objects []T
}

// Package notify reconciles push arrivals and polling into a single
// unread-count ledger. All event sources flow through one pure reducer so
// ordering questions are answerable by replaying a sequence of events.
package notify

// Ledger is the single source of truth for unread notification state.
type Ledger struct {
	UnreadCount int
	HasUnread   bool
}

// EventKind tags a ledger event.
type EventKind string

// Ledger event kinds.
const (
	// EventPushArrived is a push message landing while the app runs; the
	// exact count is unknown without a round-trip, so it only bumps the flag.
	EventPushArrived EventKind = "push_arrived"
	// EventPollResult is an authoritative unread-count response.
	EventPollResult EventKind = "poll_result"
	// EventMarkedRead is a confirmed single mark-as-read.
	EventMarkedRead EventKind = "marked_read"
	// EventMarkedAllRead is a confirmed mark-all-as-read.
	EventMarkedAllRead EventKind = "marked_all_read"
)

// Event is one occurrence fed into the reducer.
type Event struct {
	Kind        EventKind
	UnreadCount int
}

// Reduce folds one event into the ledger. A poll result is authoritative
// and replaces the count wholesale, even when it arrives after an
// optimistic push bump and even when it says zero. Mark events never
// decrement locally; the follow-up poll refreshes the count, since local
// decrements race against polling.
func Reduce(l Ledger, ev Event) Ledger {
	switch ev.Kind {
	case EventPushArrived:
		l.HasUnread = true
	case EventPollResult:
		l.UnreadCount = ev.UnreadCount
		l.HasUnread = ev.UnreadCount > 0
	case EventMarkedRead, EventMarkedAllRead:
		// No local mutation.
	}
	return l
}

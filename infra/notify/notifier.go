package notify

import (
	"sync"

	"github.com/routex/fleetlive/core/booking"
	"github.com/routex/fleetlive/core/logger"
)

// LogNotifier surfaces user-facing notifications through the structured
// log. It never blocks the caller.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a notifier writing to log.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify writes the message at a level matching its kind.
func (n *LogNotifier) Notify(kind booking.NotifyKind, message string) {
	switch kind {
	case booking.NotifyError:
		n.log.Errorf("notify: %s", message)
	case booking.NotifySuccess:
		n.log.Infof("notify: %s", message)
	default:
		n.log.Infof("notify: %s", message)
	}
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one captured notification.
type Entry struct {
	Kind    booking.NotifyKind
	Message string
}

// Notify records the notification.
func (r *Recorder) Notify(kind booking.NotifyKind, message string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Kind: kind, Message: message})
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

package session

import "sync"

// Tracker holds the IDs of messages that have not been acknowledged yet.
// Registration happens on the send path and acknowledgements arrive from the
// transport's goroutines.
type Tracker struct {
	mu      sync.Mutex
	pending map[MessageID]struct{}
	done    chan struct{}
	drained bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		pending: make(map[MessageID]struct{}),
		done:    make(chan struct{}),
	}
}

// Register adds id to the pending set. Returns false if it was already pending.
func (t *Tracker) Register(id MessageID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[id]; ok {
		return false
	}
	t.pending[id] = struct{}{}
	return true
}

// Acknowledge removes id if it is pending and returns the number of IDs
// still pending. Unknown or repeated IDs leave the set unchanged.
func (t *Tracker) Acknowledge(id MessageID) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[id]; !ok {
		return len(t.pending)
	}
	delete(t.pending, id)

	remaining := len(t.pending)
	if remaining == 0 && !t.drained {
		t.drained = true
		close(t.done)
	}
	return remaining
}

// Remaining returns the number of pending IDs.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Done is closed the first time an acknowledgement empties the pending set.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

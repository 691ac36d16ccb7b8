package gc

import (
	"sync"
	"sync/atomic"
)

// Worklist holds marked objects whose references have not been traced yet.
// Any number of visitors may push concurrently.
type Worklist struct {
	mu    sync.Mutex
	items []*Header

	// pending counts pushed entries that have not been reported Done.
	pending atomic.Int64
}

// NewWorklist creates an empty worklist.
func NewWorklist() *Worklist {
	return &Worklist{}
}

// Push appends an object awaiting transitive tracing.
func (w *Worklist) Push(h *Header) {
	w.pending.Add(1)
	w.mu.Lock()
	w.items = append(w.items, h)
	w.mu.Unlock()
}

// Pop removes the most recently pushed object. The caller must call Done once
// it has finished tracing it.
func (w *Worklist) Pop() (*Header, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.items)
	if n == 0 {
		return nil, false
	}
	h := w.items[n-1]
	w.items[n-1] = nil
	w.items = w.items[:n-1]
	return h, true
}

// Done reports that a popped entry has been fully traced.
func (w *Worklist) Done() {
	w.pending.Add(-1)
}

// Len returns the number of entries waiting to be popped.
func (w *Worklist) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Pending returns the number of entries pushed but not yet reported Done.
func (w *Worklist) Pending() int64 {
	return w.pending.Load()
}

// Reset drops all entries.
func (w *Worklist) Reset() {
	w.mu.Lock()
	w.items = nil
	w.mu.Unlock()
	w.pending.Store(0)
}

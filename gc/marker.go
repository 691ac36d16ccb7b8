package gc

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Marker runs the marking phase of one collection cycle on a heap. It owns
// the cycle's MarkingState; a new Marker is created for every cycle.
type Marker struct {
	heap    *Heap
	state   *MarkingState
	workers int
}

// NewMarker starts a marking cycle on h.
func NewMarker(h *Heap) *Marker {
	return &Marker{
		heap:    h,
		state:   NewMarkingState(),
		workers: h.opts.MarkingWorkers,
	}
}

// State returns the cycle's marking state.
func (m *Marker) State() *MarkingState {
	return m.state
}

// Visitor returns a new visitor reporting to the cycle's state.
func (m *Marker) Visitor() *Visitor {
	return NewVisitor(m.state)
}

// MarkRoots traces every root registered with the heap.
func (m *Marker) MarkRoots() {
	v := m.Visitor()
	for _, r := range m.heap.roots.snapshot() {
		v.TraceRoot(r)
	}
}

// Drain traces objects from the worklist until it is empty and no visitor
// has work in hand.
func (m *Marker) Drain(ctx context.Context) error {
	if m.workers <= 1 {
		return m.drainWorker(ctx)
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < m.workers; i++ {
		g.Go(func() error {
			return m.drainWorker(ctx)
		})
	}
	return g.Wait()
}

func (m *Marker) drainWorker(ctx context.Context) error {
	v := m.Visitor()
	wl := m.state.worklist
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, ok := wl.Pop()
		if ok {
			h.traceBody(v)
			wl.Done()
			continue
		}
		if wl.Pending() == 0 {
			return nil
		}
		// Another worker is tracing an object and may still push.
		runtime.Gosched()
	}
}

// ProcessNotFullyConstructed revisits objects that were reached through a
// strong handle while under construction. Those whose constructor has
// returned since are marked and pushed to the worklist; the others stay
// recorded. It returns the number of objects marked.
func (m *Marker) ProcessNotFullyConstructed() int {
	marked := 0
	for _, h := range m.state.takeNotFullyConstructed() {
		if h.IsInConstruction() {
			m.state.deferConstruction(h)
			continue
		}
		if h.TryMark() {
			m.state.markedNow(h)
			marked++
		}
	}
	return marked
}

// ProcessWeakness clears every recorded weak handle whose target was not
// marked. Targets whose constructor is still running are left alone; those
// whose constructor panicked are swept and so are cleared too. It returns the
// number of handles cleared.
func (m *Marker) ProcessWeakness() int {
	cleared := 0
	for _, w := range m.state.takeWeak() {
		if w.IsNull() {
			continue
		}
		h := w.header()
		if h.IsMarked() || (h.IsInConstruction() && !h.abandoned()) {
			continue
		}
		w.clearWeak()
		cleared++
	}
	return cleared
}

// Finish drains the worklist and revisits not fully constructed objects
// until neither produces new work, then processes weak handles. It returns
// the number of weak handles cleared.
func (m *Marker) Finish(ctx context.Context) (int, error) {
	for {
		if err := m.Drain(ctx); err != nil {
			return 0, err
		}
		if m.ProcessNotFullyConstructed() == 0 {
			break
		}
	}
	return m.ProcessWeakness(), nil
}

package gc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrConstructionInProgress is returned by Collect when a constructor is
// running on the heap.
var ErrConstructionInProgress = errors.New("gc: objects are under construction")

// CycleStats describes one completed collection cycle.
type CycleStats struct {
	ID       uuid.UUID
	Heap     string
	Started  time.Time
	Duration time.Duration

	RootsTraced   int64
	MarkedObjects int64
	MarkedBytes   int64

	// Deferred counts objects still recorded as not fully constructed when
	// marking finished.
	Deferred int64

	WeakCleared  int64
	SweptObjects int64
	SweptBytes   int64
	LiveObjects  int64
	LiveBytes    int64
}

// Collect runs a full stop-the-world cycle: mark from the roots, drain,
// clear dead weak handles, sweep. The mutator must not touch the heap while
// Collect runs.
func (h *Heap) Collect(ctx context.Context) (*CycleStats, error) {
	h.collecting.Lock()
	defer h.collecting.Unlock()

	if n := h.constructing.Load(); n > 0 {
		return nil, fmt.Errorf("%w (%d in flight)", ErrConstructionInProgress, n)
	}

	stats := &CycleStats{
		ID:      uuid.New(),
		Heap:    h.opts.Name,
		Started: time.Now(),
	}
	h.log.Debugf("cycle %s: start on heap %q, %d objects, %d roots",
		stats.ID, h.opts.Name, h.ObjectCount(), h.roots.len())

	m := NewMarker(h)
	m.MarkRoots()
	cleared, err := m.Finish(ctx)
	if err != nil {
		// Leave no marks behind for the next cycle.
		h.ResetMarks()
		h.log.Warningf("cycle %s: marking aborted: %s", stats.ID, err)
		return nil, fmt.Errorf("gc: cycle %s: %w", stats.ID, err)
	}

	st := m.State()
	stats.RootsTraced = st.RootsTraced()
	stats.MarkedObjects = st.MarkedObjects()
	stats.MarkedBytes = st.MarkedBytes()
	stats.Deferred = int64(st.NotFullyConstructed())
	stats.WeakCleared = int64(cleared)

	stats.SweptObjects, stats.SweptBytes = h.sweep()
	stats.LiveObjects = int64(h.ObjectCount())
	stats.LiveBytes = h.AllocatedBytes()
	stats.Duration = time.Since(stats.Started)

	h.cycles.Add(1)
	h.log.Infof("cycle %s: marked %d objects (%d bytes), swept %d objects (%d bytes), cleared %d weak in %s",
		stats.ID, stats.MarkedObjects, stats.MarkedBytes,
		stats.SweptObjects, stats.SweptBytes, stats.WeakCleared, stats.Duration)

	h.notify(stats)
	return stats, nil
}

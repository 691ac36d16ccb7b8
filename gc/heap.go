package gc

import (
	"sync"
	"sync/atomic"

	"github.com/tliron/commonlog"
)

// DefaultMarkingWorkers is the number of concurrent visitors used to drain
// the worklist when Options leaves it unset.
const DefaultMarkingWorkers = 1

// Options configures a Heap.
type Options struct {
	// Name identifies the heap in logs and cycle statistics.
	Name string

	// MarkingWorkers is the number of visitors draining the worklist.
	MarkingWorkers int
}

// CycleObserver is notified after every completed collection cycle.
type CycleObserver interface {
	CycleFinished(stats *CycleStats)
}

// Heap owns a set of allocations and the roots that keep them alive.
type Heap struct {
	opts Options
	log  commonlog.Logger

	mu     sync.Mutex
	allocs []*Header

	allocatedBytes atomic.Int64
	constructing   atomic.Int64
	cycles         atomic.Uint64

	roots rootRegion

	obsMu     sync.Mutex
	observers []CycleObserver

	// collecting serializes cycles.
	collecting sync.Mutex
}

// NewHeap creates an empty heap.
func NewHeap(opts Options) *Heap {
	if opts.Name == "" {
		opts.Name = "default"
	}
	if opts.MarkingWorkers <= 0 {
		opts.MarkingWorkers = DefaultMarkingWorkers
	}
	return &Heap{
		opts: opts,
		log:  commonlog.GetLogger("gcmark.gc"),
	}
}

// Name returns the heap's name.
func (h *Heap) Name() string {
	return h.opts.Name
}

// Options returns the options the heap was created with, defaults applied.
func (h *Heap) Options() Options {
	return h.opts
}

// New allocates a T on h and runs ctor on it. The object reads as under
// construction until ctor returns; every Mixin inside T already points at the
// new header when ctor starts. ctor may be nil.
//
// Constructors must assign fields one by one. Assigning a whole struct value
// to a type that embeds a Mixin erases its back-reference and panics.
func New[T any](h *Heap, ctor func(*T)) *T {
	c := new(cell[T])
	c.hdr.info = typeInfoFor[T]()
	c.hdr.size = uint32(payloadOffset + c.hdr.info.payloadSize)
	c.hdr.state.Store(constructionBit)
	installMixins(&c.hdr)

	h.mu.Lock()
	h.allocs = append(h.allocs, &c.hdr)
	h.mu.Unlock()
	h.allocatedBytes.Add(c.hdr.Size())

	if ctor != nil {
		h.constructing.Add(1)
		completed := false
		defer func() {
			// A panicking constructor leaves the object under
			// construction for good; the next sweep drops it.
			if !completed {
				c.hdr.state.Or(abandonedBit)
			}
			h.constructing.Add(-1)
		}()
		ctor(&c.payload)
		checkMixins(&c.hdr)
		completed = true
	}
	c.hdr.finishConstruction()
	return &c.payload
}

// ObjectCount returns the number of allocations currently owned by the heap.
func (h *Heap) ObjectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.allocs)
}

// AllocatedBytes returns the size of all allocations currently owned by the heap.
func (h *Heap) AllocatedBytes() int64 {
	return h.allocatedBytes.Load()
}

// ConstructionsInFlight returns how many constructors are currently running.
func (h *Heap) ConstructionsInFlight() int64 {
	return h.constructing.Load()
}

// RootCount returns the number of registered root handles.
func (h *Heap) RootCount() int {
	return h.roots.len()
}

// Cycles returns the number of completed collection cycles.
func (h *Heap) Cycles() uint64 {
	return h.cycles.Load()
}

// AddObserver registers o to be notified after every cycle.
func (h *Heap) AddObserver(o CycleObserver) {
	h.obsMu.Lock()
	defer h.obsMu.Unlock()
	h.observers = append(h.observers, o)
}

// ResetMarks clears the mark bit of every allocation.
func (h *Heap) ResetMarks() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, hdr := range h.allocs {
		hdr.unmark()
	}
}

// sweep drops every constructed allocation that was not marked and clears the
// mark of the survivors.
func (h *Heap) sweep() (objects, bytes int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	live := h.allocs[:0]
	for _, hdr := range h.allocs {
		if hdr.IsMarked() {
			hdr.unmark()
			live = append(live, hdr)
			continue
		}
		if hdr.IsInConstruction() && !hdr.abandoned() {
			live = append(live, hdr)
			continue
		}
		objects++
		bytes += hdr.Size()
	}
	for i := len(live); i < len(h.allocs); i++ {
		h.allocs[i] = nil
	}
	h.allocs = live
	h.allocatedBytes.Add(-bytes)
	return objects, bytes
}

func (h *Heap) notify(stats *CycleStats) {
	h.obsMu.Lock()
	observers := append([]CycleObserver(nil), h.observers...)
	h.obsMu.Unlock()
	for _, o := range observers {
		o.CycleFinished(stats)
	}
}

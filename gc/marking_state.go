package gc

import (
	"sync"
	"sync/atomic"
)

// MarkingState is the bookkeeping of a single marking cycle. It is shared by
// every visitor of the cycle and reset, or discarded, when the cycle ends.
type MarkingState struct {
	markedBytes   atomic.Int64
	markedObjects atomic.Int64
	rootsTraced   atomic.Int64

	worklist *Worklist

	mu                  sync.Mutex
	notFullyConstructed map[*Header]struct{}
	weak                []weakSlot
}

// NewMarkingState returns the state of a fresh cycle.
func NewMarkingState() *MarkingState {
	return &MarkingState{
		worklist:            NewWorklist(),
		notFullyConstructed: make(map[*Header]struct{}),
	}
}

// MarkedBytes returns the allocated size of all objects marked so far.
func (s *MarkingState) MarkedBytes() int64 {
	return s.markedBytes.Load()
}

// MarkedObjects returns the number of objects marked so far.
func (s *MarkingState) MarkedObjects() int64 {
	return s.markedObjects.Load()
}

// RootsTraced returns how many root handles were handed to TraceRoot.
func (s *MarkingState) RootsTraced() int64 {
	return s.rootsTraced.Load()
}

// Worklist returns the objects awaiting transitive tracing.
func (s *MarkingState) Worklist() *Worklist {
	return s.worklist
}

// NotFullyConstructed returns how many objects were reached through a strong
// handle while still under construction and have not been processed since.
func (s *MarkingState) NotFullyConstructed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notFullyConstructed)
}

// WeakSlots returns the number of weak handles recorded for clearing.
func (s *MarkingState) WeakSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.weak)
}

// Reset returns the state to that of a fresh cycle.
func (s *MarkingState) Reset() {
	s.markedBytes.Store(0)
	s.markedObjects.Store(0)
	s.rootsTraced.Store(0)
	s.worklist.Reset()
	s.mu.Lock()
	s.notFullyConstructed = make(map[*Header]struct{})
	s.weak = nil
	s.mu.Unlock()
}

// markedNow accounts for an object this cycle has just marked.
func (s *MarkingState) markedNow(h *Header) {
	s.markedBytes.Add(h.Size())
	s.markedObjects.Add(1)
	s.worklist.Push(h)
}

func (s *MarkingState) deferConstruction(h *Header) {
	s.mu.Lock()
	s.notFullyConstructed[h] = struct{}{}
	s.mu.Unlock()
}

func (s *MarkingState) recordWeak(w weakSlot) {
	s.mu.Lock()
	s.weak = append(s.weak, w)
	s.mu.Unlock()
}

// takeNotFullyConstructed empties the not-fully-constructed set.
func (s *MarkingState) takeNotFullyConstructed() []*Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Header, 0, len(s.notFullyConstructed))
	for h := range s.notFullyConstructed {
		out = append(out, h)
	}
	s.notFullyConstructed = make(map[*Header]struct{})
	return out
}

func (s *MarkingState) takeWeak() []weakSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.weak
	s.weak = nil
	return out
}

package gc

import (
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// Marking decisions
// ---------------------------------------------------------------------------

func TestFreshMarkingState(t *testing.T) {
	s := NewMarkingState()
	if s.MarkedBytes() != 0 {
		t.Errorf("MarkedBytes = %d, want 0", s.MarkedBytes())
	}
	if s.Worklist().Len() != 0 {
		t.Errorf("worklist has %d entries, want 0", s.Worklist().Len())
	}
}

func TestTraceStrongMember(t *testing.T) {
	h := NewHeap(Options{})
	obj := New[leaf](h, nil)
	m := NewMember(obj)

	if FromPayload(obj).IsMarked() {
		t.Fatal("object should start unmarked")
	}

	s := NewMarkingState()
	NewVisitor(s).Trace(&m)

	if !FromPayload(obj).IsMarked() {
		t.Error("strong member should mark its target")
	}
	if s.MarkedBytes() != FromPayload(obj).Size() {
		t.Errorf("MarkedBytes = %d, want %d", s.MarkedBytes(), FromPayload(obj).Size())
	}
	if got, ok := s.Worklist().Pop(); !ok || got != FromPayload(obj) {
		t.Error("marked object should be pushed to the worklist")
	}
}

func TestTraceStrongRoot(t *testing.T) {
	h := NewHeap(Options{})
	obj := New[leaf](h, nil)
	p := NewPersistent(h, obj)
	defer p.Release()

	s := NewMarkingState()
	NewVisitor(s).TraceRoot(p)

	if !FromPayload(obj).IsMarked() {
		t.Error("strong root should mark its target")
	}
	if s.RootsTraced() != 1 {
		t.Errorf("RootsTraced = %d, want 1", s.RootsTraced())
	}
	if s.MarkedObjects() != 1 {
		t.Errorf("MarkedObjects = %d, want 1", s.MarkedObjects())
	}
}

func TestTraceWeakMember(t *testing.T) {
	h := NewHeap(Options{})
	obj := New[leaf](h, nil)
	m := NewWeakMember(obj)

	s := NewMarkingState()
	NewVisitor(s).Trace(&m)

	if FromPayload(obj).IsMarked() {
		t.Error("weak member must not mark its target")
	}
	if s.MarkedBytes() != 0 || s.Worklist().Len() != 0 {
		t.Error("weak member must not account or enqueue")
	}
	if s.WeakSlots() != 1 {
		t.Errorf("WeakSlots = %d, want 1", s.WeakSlots())
	}
}

func TestTraceWeakRoot(t *testing.T) {
	h := NewHeap(Options{})
	obj := New[leaf](h, nil)
	p := NewWeakPersistent(h, obj)
	defer p.Release()

	s := NewMarkingState()
	NewVisitor(s).TraceRoot(p)

	if FromPayload(obj).IsMarked() {
		t.Error("weak root must not mark its target")
	}
	if s.Worklist().Len() != 0 {
		t.Error("weak root must not enqueue")
	}
}

func TestTraceNullHandles(t *testing.T) {
	h := NewHeap(Options{})
	s := NewMarkingState()
	v := NewVisitor(s)

	var m Member[leaf]
	var wm WeakMember[leaf]
	p := NewPersistent[leaf](h, nil)
	wp := NewWeakPersistent[leaf](h, nil)
	defer p.Release()
	defer wp.Release()

	v.Trace(&m)
	v.Trace(&wm)
	v.Trace(nil)
	v.TraceRoot(p)
	v.TraceRoot(wp)
	v.TraceRoot(nil)
	var nilMember *Member[leaf]
	v.Trace(nilMember)

	if s.MarkedObjects() != 0 || s.WeakSlots() != 0 || s.Worklist().Len() != 0 {
		t.Error("null handles must be no-ops")
	}
}

func TestTraceIdempotent(t *testing.T) {
	h := NewHeap(Options{})
	obj := New[leaf](h, nil)
	m := NewMember(obj)

	s := NewMarkingState()
	v := NewVisitor(s)
	v.Trace(&m)
	v.Trace(&m)

	if s.Worklist().Len() != 1 {
		t.Errorf("worklist has %d entries, want 1", s.Worklist().Len())
	}
	if s.MarkedBytes() != FromPayload(obj).Size() {
		t.Errorf("MarkedBytes = %d, want one object's size %d", s.MarkedBytes(), FromPayload(obj).Size())
	}
}

func TestTraceConcurrentVisitors(t *testing.T) {
	h := NewHeap(Options{})
	obj := New[leaf](h, nil)
	s := NewMarkingState()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := NewMember(obj)
			NewVisitor(s).Trace(&m)
		}()
	}
	wg.Wait()

	if s.Worklist().Len() != 1 {
		t.Errorf("worklist has %d entries, want 1", s.Worklist().Len())
	}
	if s.MarkedObjects() != 1 {
		t.Errorf("MarkedObjects = %d, want 1", s.MarkedObjects())
	}
}

func TestTraceDoesNotRunTraceMethod(t *testing.T) {
	h := NewHeap(Options{})
	tail := New[node](h, nil)
	head := New(h, func(n *node) { n.next.Set(tail) })
	m := NewMember(head)

	NewVisitor(NewMarkingState()).Trace(&m)

	if FromPayload(tail).IsMarked() {
		t.Error("Trace must only enqueue; the draining loop traces fields")
	}
}

// ---------------------------------------------------------------------------
// Mixins
// ---------------------------------------------------------------------------

func TestTraceThroughMixinMarksOwner(t *testing.T) {
	h := NewHeap(Options{})
	w := New(h, func(w *widget) { w.name = "composite" })
	m := NewMember(&w.observer)

	s := NewMarkingState()
	NewVisitor(s).Trace(&m)

	if !FromPayload(w).IsMarked() {
		t.Error("tracing through the mixin should mark the composite's header")
	}
	if got, _ := s.Worklist().Pop(); got != FromPayload(w) {
		t.Error("the composite's header should be enqueued")
	}
}

func TestMixinAndPrimaryMarkSameHeader(t *testing.T) {
	h := NewHeap(Options{})
	w := New(h, func(w *widget) { w.name = "composite" })
	viaMixin := NewMember(&w.observer)
	viaPrimary := NewMember(w)

	s := NewMarkingState()
	v := NewVisitor(s)
	v.Trace(&viaMixin)
	v.Trace(&viaPrimary)

	if s.MarkedObjects() != 1 || s.Worklist().Len() != 1 {
		t.Errorf("marked %d objects, enqueued %d; want 1 and 1",
			s.MarkedObjects(), s.Worklist().Len())
	}
}

// ---------------------------------------------------------------------------
// Objects under construction
// ---------------------------------------------------------------------------

type selfTracing struct {
	id int
	observer
}

func TestTraceThisFromConstructor(t *testing.T) {
	cases := []struct {
		name  string
		trace func(h *Heap, v *Visitor, s *selfTracing)
	}{
		{"member", func(h *Heap, v *Visitor, s *selfTracing) {
			m := NewMember(s)
			v.Trace(&m)
		}},
		{"weak member", func(h *Heap, v *Visitor, s *selfTracing) {
			m := NewWeakMember(s)
			v.Trace(&m)
		}},
		{"persistent", func(h *Heap, v *Visitor, s *selfTracing) {
			p := NewPersistent(h, s)
			defer p.Release()
			v.TraceRoot(p)
		}},
		{"weak persistent", func(h *Heap, v *Visitor, s *selfTracing) {
			p := NewWeakPersistent(h, s)
			defer p.Release()
			v.TraceRoot(p)
		}},
		{"mixin member", func(h *Heap, v *Visitor, s *selfTracing) {
			m := NewMember(&s.observer)
			v.Trace(&m)
		}},
		{"mixin weak member", func(h *Heap, v *Visitor, s *selfTracing) {
			m := NewWeakMember(&s.observer)
			v.Trace(&m)
		}},
		{"mixin persistent", func(h *Heap, v *Visitor, s *selfTracing) {
			p := NewPersistent(h, &s.observer)
			defer p.Release()
			v.TraceRoot(p)
		}},
		{"mixin weak persistent", func(h *Heap, v *Visitor, s *selfTracing) {
			p := NewWeakPersistent(h, &s.observer)
			defer p.Release()
			v.TraceRoot(p)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHeap(Options{})
			state := NewMarkingState()
			v := NewVisitor(state)
			callback := func(s *selfTracing) { tc.trace(h, v, s) }

			obj := New(h, func(s *selfTracing) {
				s.id = 1
				callback(s)
			})

			if FromPayload(obj).IsMarked() {
				t.Error("object traced during construction must stay unmarked")
			}
			if state.MarkedObjects() != 0 || state.Worklist().Len() != 0 {
				t.Error("nothing should be marked or enqueued")
			}
		})
	}
}

func TestStrongTraceDuringConstructionIsRecorded(t *testing.T) {
	h := NewHeap(Options{})
	state := NewMarkingState()
	v := NewVisitor(state)

	New(h, func(s *selfTracing) {
		m := NewMember(s)
		v.Trace(&m)
		w := NewWeakMember(s)
		v.Trace(&w)
	})

	if state.NotFullyConstructed() != 1 {
		t.Errorf("NotFullyConstructed = %d, want 1", state.NotFullyConstructed())
	}
}

func TestMarkingStateReset(t *testing.T) {
	h := NewHeap(Options{})
	obj := New[leaf](h, nil)
	m := NewMember(obj)
	w := NewWeakMember(obj)

	s := NewMarkingState()
	v := NewVisitor(s)
	v.Trace(&m)
	v.Trace(&w)
	s.Reset()

	if s.MarkedBytes() != 0 || s.MarkedObjects() != 0 || s.Worklist().Len() != 0 ||
		s.Worklist().Pending() != 0 || s.WeakSlots() != 0 {
		t.Error("Reset should return the state to its initial values")
	}
}

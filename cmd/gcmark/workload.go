package main

import "github.com/chazu/gcmark/gc"

// entry is a linked-list cell with an optional weak link to a cached entry.
type entry struct {
	key    int
	next   gc.Member[entry]
	cached gc.WeakMember[entry]
}

func (e *entry) Trace(v *gc.Visitor) {
	v.Trace(&e.next)
	v.Trace(&e.cached)
}

// listener is a mixin embedded by sessions and referenced on its own by the
// registry.
type listener struct {
	gc.Mixin
	events int
}

type session struct {
	id int
	listener
	head gc.Member[entry]
}

func (s *session) Trace(v *gc.Visitor) {
	v.Trace(&s.head)
}

type registry struct {
	listeners [4]gc.Member[listener]
}

func (r *registry) Trace(v *gc.Visitor) {
	for i := range r.listeners {
		v.Trace(&r.listeners[i])
	}
}

// workload builds sessions whose lists are replaced every round so each cycle
// has garbage to sweep.
type workload struct {
	heap     *gc.Heap
	nodes    int
	registry *gc.Persistent[registry]
	sessions []*gc.Persistent[session]
	round    int
}

func newWorkload(h *gc.Heap, sessions, nodes int) *workload {
	w := &workload{heap: h, nodes: nodes}
	reg := gc.New[registry](h, nil)
	w.registry = gc.NewPersistent(h, reg)
	for i := 0; i < sessions; i++ {
		s := gc.New(h, func(s *session) {
			s.id = i
			s.head.Set(w.buildList())
		})
		if i < len(reg.listeners) {
			reg.listeners[i].Set(&s.listener)
		}
		w.sessions = append(w.sessions, gc.NewPersistent(h, s))
	}
	return w
}

func (w *workload) buildList() *entry {
	var head *entry
	for k := w.nodes - 1; k >= 0; k-- {
		next := head
		head = gc.New(w.heap, func(e *entry) {
			e.key = k
			e.next.Set(next)
		})
	}
	// Every entry remembers the one two places ahead without keeping it.
	for e := head; e != nil; e = e.next.Get() {
		if n := e.next.Get(); n != nil {
			e.cached.Set(n.next.Get())
		}
	}
	return head
}

// step drops the list of one session (and the session itself every few
// rounds, leaving it reachable only through the registry's mixin handle).
func (w *workload) step() {
	w.round++
	idx := w.round % len(w.sessions)
	s := w.sessions[idx].Get()
	if s == nil {
		return
	}
	s.listener.events++
	s.head.Set(w.buildList())
	if w.round%3 == 0 {
		w.sessions[idx].Release()
		w.sessions[idx] = gc.NewPersistent[session](w.heap, nil)
	}
}

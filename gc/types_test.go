package gc

// Types shared by the package tests.

type leaf struct {
	value int
}

type node struct {
	id   int
	next Member[node]
	weak WeakMember[node]
}

func (n *node) Trace(v *Visitor) {
	v.Trace(&n.next)
	v.Trace(&n.weak)
}

type observer struct {
	Mixin
	hits int
}

type widget struct {
	name string
	observer
	child Member[widget]
}

func (w *widget) Trace(v *Visitor) {
	v.Trace(&w.child)
}

// holder keeps references to mixin-typed objects.
type holder struct {
	obs Member[observer]
}

func (h *holder) Trace(v *Visitor) {
	v.Trace(&h.obs)
}

func newChain(h *Heap, n int) *node {
	var head *node
	for i := n - 1; i >= 0; i-- {
		next := head
		head = New(h, func(nd *node) {
			nd.id = i
			nd.next.Set(next)
		})
	}
	return head
}

package gc

// Strength says whether a handle keeps its target alive.
type Strength uint8

const (
	Strong Strength = iota
	Weak
)

func (s Strength) String() string {
	if s == Weak {
		return "weak"
	}
	return "strong"
}

// handle is the part common to all reference handles.
type handle interface {
	IsNull() bool
	Strength() Strength
	header() *Header
}

// weakSlot is a weak handle that can be cleared once its target is found dead.
type weakSlot interface {
	handle
	clearWeak()
}

// HeapHandle is a reference embedded in a heap object: Member or WeakMember.
type HeapHandle interface {
	handle
	embedded()
}

// RootHandle is a reference held from outside the heap: Persistent or
// WeakPersistent.
type RootHandle interface {
	handle
	root()
}

// ---------------------------------------------------------------------------
// Member
// ---------------------------------------------------------------------------

// Member is a strong reference stored inside a heap object.
type Member[T any] struct {
	ptr *T
}

// NewMember returns a Member pointing at p.
func NewMember[T any](p *T) Member[T] {
	return Member[T]{ptr: p}
}

func (m *Member[T]) Get() *T            { return m.ptr }
func (m *Member[T]) Set(p *T)           { m.ptr = p }
func (m *Member[T]) Clear()             { m.ptr = nil }
func (m *Member[T]) IsNull() bool       { return m == nil || m.ptr == nil }
func (m *Member[T]) Strength() Strength { return Strong }
func (m *Member[T]) header() *Header    { return HeaderOf(m.ptr) }
func (m *Member[T]) embedded()          {}

// ---------------------------------------------------------------------------
// WeakMember
// ---------------------------------------------------------------------------

// WeakMember is a weak reference stored inside a heap object. It is cleared
// at the end of a cycle in which its target was not marked.
type WeakMember[T any] struct {
	ptr *T
}

// NewWeakMember returns a WeakMember pointing at p.
func NewWeakMember[T any](p *T) WeakMember[T] {
	return WeakMember[T]{ptr: p}
}

func (m *WeakMember[T]) Get() *T            { return m.ptr }
func (m *WeakMember[T]) Set(p *T)           { m.ptr = p }
func (m *WeakMember[T]) Clear()             { m.ptr = nil }
func (m *WeakMember[T]) IsNull() bool       { return m == nil || m.ptr == nil }
func (m *WeakMember[T]) Strength() Strength { return Weak }
func (m *WeakMember[T]) header() *Header    { return HeaderOf(m.ptr) }
func (m *WeakMember[T]) embedded()          {}
func (m *WeakMember[T]) clearWeak()         { m.ptr = nil }

// ---------------------------------------------------------------------------
// Persistent
// ---------------------------------------------------------------------------

// Persistent is a strong root. It stays registered with its heap until
// Release is called.
type Persistent[T any] struct {
	heap *Heap
	ptr  *T
}

// NewPersistent creates a root to p and registers it with h. p may be nil.
func NewPersistent[T any](h *Heap, p *T) *Persistent[T] {
	r := &Persistent[T]{heap: h, ptr: p}
	h.roots.add(r)
	return r
}

func (r *Persistent[T]) Get() *T            { return r.ptr }
func (r *Persistent[T]) Set(p *T)           { r.ptr = p }
func (r *Persistent[T]) IsNull() bool       { return r == nil || r.ptr == nil }
func (r *Persistent[T]) Strength() Strength { return Strong }
func (r *Persistent[T]) header() *Header    { return HeaderOf(r.ptr) }
func (r *Persistent[T]) root()              {}

// Release clears the root and unregisters it from its heap.
func (r *Persistent[T]) Release() {
	r.ptr = nil
	if r.heap != nil {
		r.heap.roots.remove(r)
		r.heap = nil
	}
}

// ---------------------------------------------------------------------------
// WeakPersistent
// ---------------------------------------------------------------------------

// WeakPersistent is a weak root. It is cleared at the end of a cycle in which
// its target was not marked.
type WeakPersistent[T any] struct {
	heap *Heap
	ptr  *T
}

// NewWeakPersistent creates a weak root to p and registers it with h.
func NewWeakPersistent[T any](h *Heap, p *T) *WeakPersistent[T] {
	r := &WeakPersistent[T]{heap: h, ptr: p}
	h.roots.add(r)
	return r
}

func (r *WeakPersistent[T]) Get() *T            { return r.ptr }
func (r *WeakPersistent[T]) Set(p *T)           { r.ptr = p }
func (r *WeakPersistent[T]) IsNull() bool       { return r == nil || r.ptr == nil }
func (r *WeakPersistent[T]) Strength() Strength { return Weak }
func (r *WeakPersistent[T]) header() *Header    { return HeaderOf(r.ptr) }
func (r *WeakPersistent[T]) root()              {}
func (r *WeakPersistent[T]) clearWeak()         { r.ptr = nil }

// Release clears the root and unregisters it from its heap.
func (r *WeakPersistent[T]) Release() {
	r.ptr = nil
	if r.heap != nil {
		r.heap.roots.remove(r)
		r.heap = nil
	}
}

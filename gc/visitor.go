package gc

// Visitor applies the marking decision to references. It holds no state of
// its own besides the cycle it reports to, so any number of visitors may work
// on the same MarkingState at once.
type Visitor struct {
	state *MarkingState
}

// NewVisitor returns a visitor reporting to state.
func NewVisitor(state *MarkingState) *Visitor {
	return &Visitor{state: state}
}

// State returns the marking state the visitor reports to.
func (v *Visitor) State() *MarkingState {
	return v.state
}

// Trace handles a reference embedded in a heap object.
func (v *Visitor) Trace(ref HeapHandle) {
	if ref == nil {
		return
	}
	v.visit(ref)
}

// TraceRoot handles a root reference. The decision is the same as for Trace.
func (v *Visitor) TraceRoot(ref RootHandle) {
	if ref == nil {
		return
	}
	v.state.rootsTraced.Add(1)
	v.visit(ref)
}

func (v *Visitor) visit(ref handle) {
	if ref.IsNull() {
		return
	}
	h := ref.header()

	if ref.Strength() == Weak {
		if w, ok := ref.(weakSlot); ok {
			v.state.recordWeak(w)
		}
		return
	}

	// The object's fields and trace method are not valid until its
	// constructor returns. It is picked up again after draining.
	if h.IsInConstruction() {
		v.state.deferConstruction(h)
		return
	}

	if h.TryMark() {
		v.state.markedNow(h)
	}
}

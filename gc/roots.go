package gc

import "sync"

// rootRegion is the set of live root handles of a heap.
type rootRegion struct {
	mu    sync.Mutex
	roots map[RootHandle]struct{}
}

func (r *rootRegion) add(h RootHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roots == nil {
		r.roots = make(map[RootHandle]struct{})
	}
	r.roots[h] = struct{}{}
}

func (r *rootRegion) remove(h RootHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.roots, h)
}

func (r *rootRegion) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roots)
}

// snapshot copies the current roots so they can be traced without the lock.
func (r *rootRegion) snapshot() []RootHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RootHandle, 0, len(r.roots))
	for h := range r.roots {
		out = append(out, h)
	}
	return out
}

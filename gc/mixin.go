package gc

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Mixin marks a struct as a secondary base that can be embedded in other
// allocated types and referenced on its own. It must be the first field of
// that struct:
//
//	type Observer struct {
//		gc.Mixin
//		seen int
//	}
//
// The allocator stores a back-reference to the owning allocation's header in
// every Mixin of a new object before its constructor runs, so a *Observer
// resolves to the right header even while the owner is being built.
type Mixin struct {
	owner *Header
}

var mixinType = reflect.TypeFor[Mixin]()

// mixinOffsets appends the offsets of every Mixin reachable through struct
// fields and arrays of t, relative to base.
func mixinOffsets(t reflect.Type, base uintptr, out []uintptr) []uintptr {
	switch t.Kind() {
	case reflect.Struct:
		if t == mixinType {
			return append(out, base)
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Type == mixinType && f.Offset != 0 {
				panic(fmt.Sprintf("gc: %s has Mixin at offset %d; it must be the first field", t, f.Offset))
			}
			out = mixinOffsets(f.Type, base+f.Offset, out)
		}
	case reflect.Array:
		elem := t.Elem()
		if elem.Kind() != reflect.Struct && elem.Kind() != reflect.Array {
			return out
		}
		for i := 0; i < t.Len(); i++ {
			out = mixinOffsets(elem, base+uintptr(i)*elem.Size(), out)
		}
	}
	return out
}

// installMixins points every Mixin inside the payload at its header.
func installMixins(h *Header) {
	p := h.payload()
	for _, off := range h.info.mixins {
		(*Mixin)(unsafe.Add(p, off)).owner = h
	}
}

// checkMixins panics if a constructor overwrote a back-reference.
func checkMixins(h *Header) {
	p := h.payload()
	for _, off := range h.info.mixins {
		if (*Mixin)(unsafe.Add(p, off)).owner != h {
			panic(fmt.Sprintf("gc: constructor of %s overwrote a Mixin back-reference", h.info.name))
		}
	}
}

// Owner returns the header of the allocation that embeds m.
func (m *Mixin) Owner() *Header {
	return m.owner
}

// HeaderOf returns the header of the allocation p belongs to. A pointer to a
// type that starts with a Mixin is resolved through the back-reference; any
// other pointer must be the payload pointer returned by New.
func HeaderOf[T any](p *T) *Header {
	if p == nil {
		return nil
	}
	if typeInfoFor[T]().mixinAtZero {
		return (*Mixin)(unsafe.Pointer(p)).owner
	}
	return FromPayload(p)
}

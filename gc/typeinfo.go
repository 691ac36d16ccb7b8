package gc

import (
	"fmt"
	"math"
	"reflect"
	"sync"
	"unsafe"
)

// Traceable is implemented by payload types that hold references. Trace is
// called by the draining loop after the object has been marked; it must hand
// every handle the object owns to the visitor.
type Traceable interface {
	Trace(v *Visitor)
}

// typeInfo describes an allocated type. It is computed once per type and
// shared by all of that type's headers.
type typeInfo struct {
	name        string
	payloadSize uintptr
	trace       func(p unsafe.Pointer, v *Visitor)

	// mixins are the payload offsets of every Mixin in the layout.
	mixins []uintptr

	// mixinAtZero is set when a *T points directly at a Mixin, in which case
	// headers are resolved through the back-reference.
	mixinAtZero bool
}

var typeInfos sync.Map // reflect.Type -> *typeInfo

// typeInfoFor returns the cached descriptor for T.
func typeInfoFor[T any]() *typeInfo {
	t := reflect.TypeFor[T]()
	if ti, ok := typeInfos.Load(t); ok {
		return ti.(*typeInfo)
	}

	// Layout comes from reflect so that no cell[T] is ever materialized here.
	payload := reflect.TypeFor[cell[T]]().Field(1)
	if payload.Offset != payloadOffset {
		panic(fmt.Sprintf("gc: payload of %s at offset %d, want %d", t, payload.Offset, payloadOffset))
	}
	if uint64(payloadOffset)+uint64(t.Size()) > math.MaxUint32 {
		panic(fmt.Sprintf("gc: %s is too large to allocate (%d bytes)", t, t.Size()))
	}

	ti := &typeInfo{
		name:        t.String(),
		payloadSize: t.Size(),
		mixins:      mixinOffsets(t, 0, nil),
	}
	for _, off := range ti.mixins {
		if off == 0 {
			ti.mixinAtZero = true
			break
		}
	}
	if _, ok := any((*T)(nil)).(Traceable); ok {
		ti.trace = func(p unsafe.Pointer, v *Visitor) {
			any((*T)(p)).(Traceable).Trace(v)
		}
	}

	actual, _ := typeInfos.LoadOrStore(t, ti)
	return actual.(*typeInfo)
}

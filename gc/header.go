package gc

import (
	"sync/atomic"
	"unsafe"
)

// Header state bits.
const (
	markBit         uint32 = 1 << 0
	constructionBit uint32 = 1 << 1
	abandonedBit    uint32 = 1 << 2
)

// Header is the per-allocation metadata stored immediately before the payload.
type Header struct {
	state atomic.Uint32
	size  uint32
	info  *typeInfo
}

// payloadOffset is the distance from a header to its payload. It is the same
// for every allocated type.
var payloadOffset = unsafe.Offsetof(cell[uint64]{}.payload)

// cell is the storage of a single allocation.
type cell[T any] struct {
	hdr     Header
	payload T
}

// FromPayload returns the header of the allocation whose payload starts at p.
// p must be the payload pointer of a live allocation made by New; anything
// else is undefined.
func FromPayload[T any](p *T) *Header {
	return (*Header)(unsafe.Add(unsafe.Pointer(p), -int(payloadOffset)))
}

// IsMarked reports whether the object has been marked in the current cycle.
func (h *Header) IsMarked() bool {
	return h.state.Load()&markBit != 0
}

// IsInConstruction reports whether the object's constructor has not returned yet.
func (h *Header) IsInConstruction() bool {
	return h.state.Load()&constructionBit != 0
}

// TryMark sets the mark bit and reports whether this call set it. Among
// concurrent callers exactly one observes true.
func (h *Header) TryMark() bool {
	return h.state.Or(markBit)&markBit == 0
}

// Size returns the allocated size in bytes, header included.
func (h *Header) Size() int64 {
	return int64(h.size)
}

// TypeName returns the Go type name of the payload.
func (h *Header) TypeName() string {
	if h.info == nil {
		return "?"
	}
	return h.info.name
}

func (h *Header) unmark() {
	h.state.And(^markBit)
}

func (h *Header) finishConstruction() {
	h.state.And(^constructionBit)
}

// abandoned reports whether the constructor panicked.
func (h *Header) abandoned() bool {
	return h.state.Load()&abandonedBit != 0
}

func (h *Header) payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), payloadOffset)
}

// traceBody runs the payload's trace method, if it has one.
func (h *Header) traceBody(v *Visitor) {
	if h.info != nil && h.info.trace != nil {
		h.info.trace(h.payload(), v)
	}
}

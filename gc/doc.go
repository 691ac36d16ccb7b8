// Package gc implements the marking core of a tracing collector for objects
// allocated through this package.
//
// Every allocation is a header followed by its payload. The header carries the
// mark bit and the construction bit. References between objects are expressed
// with typed handles:
//
//   - Member[T]: strong reference embedded in a heap object
//   - WeakMember[T]: weak reference embedded in a heap object
//   - Persistent[T]: strong root held from outside the heap
//   - WeakPersistent[T]: weak root held from outside the heap
//
// A Visitor applies the marking decision to each handle it is given: weak
// handles never mark, objects still under construction are never marked, and a
// strong handle to a constructed object marks it exactly once and pushes it to
// the worklist of its MarkingState.
package gc

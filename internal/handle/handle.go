// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package handle implements the opaque-scalar-handle-to-pointer
// bijection the WSI entry points need: Surface and Swapchain are
// identified by a scalar handle across the public API boundary, but are
// implemented as ordinary Go values that move under the garbage
// collector, so a handle is never a disguised pointer. A Table maps
// monotonically increasing handles to the current *T for whatever the
// handle names.
package handle

import "github.com/gviegas/wsiandroid/internal/bitvec"

// H is an opaque handle. The zero value never names a live entry -
// tables reserve it as the "none"/sentinel handle (e.g. the surface's
// "no active swapchain" state).
type H uint64

// Table maps handles of type H to values of type D, both inserted and
// looked up in O(1). It generalizes the dataMap pattern used elsewhere
// in this codebase for GPU-object identifier tables, reusing the same
// free-slot bitmap strategy instead of a plain growable slice so that
// removed handles cannot be confused with newly inserted ones at the
// same slot (the swap-removal below keeps every live index dense, while
// the bitmap governs which raw slot is free to reuse).
type Table[D any] struct {
	slots bitvec.V[uint32]
	index []uint32 // slot (low 32 bits of a handle, minus 1) -> position in data, or ^uint32(0) if free
	data  []entry[D]

	// serial counts insertions and forms the upper 32 bits of every
	// handle, so a reused slot never yields a handle seen before.
	serial uint64
}

type entry[D any] struct {
	handle H
	value  D
}

// Insert stores value and returns the handle that names it.
func (t *Table[D]) Insert(value D) H {
	if t.slots.Rem() == 0 {
		switch n := t.slots.Len(); {
		case n > 0:
			cnt := 1 + (n-31)/32
			t.slots.Grow(cnt)
		default:
			t.slots.Grow(1)
		}
		grown := t.slots.Len()
		for len(t.index) < grown {
			t.index = append(t.index, ^uint32(0))
		}
	}
	idx, ok := t.slots.Search()
	if !ok {
		// Should never happen: Rem() > 0 guarantees Search succeeds.
		panic("handle: unexpected failure from bitvec.V.Search")
	}
	t.slots.Set(idx)
	t.serial++
	h := H(t.serial<<32 | uint64(idx+1))
	t.index[idx] = uint32(len(t.data))
	t.data = append(t.data, entry[D]{handle: h, value: value})
	return h
}

// Remove deletes the entry named by h. It panics if h does not name a
// live entry - callers must check Valid first if h's liveness is not
// already guaranteed by the calling contract.
func (t *Table[D]) Remove(h H) {
	slot := int(uint32(h)) - 1
	d := t.index[slot]
	last := len(t.data) - 1
	if int(d) != last {
		moved := t.data[last]
		t.data[d] = moved
		t.index[uint32(moved.handle)-1] = d
	}
	var zero entry[D]
	t.data[last] = zero
	t.data = t.data[:last]
	t.index[slot] = ^uint32(0)
	t.slots.Unset(slot)
}

// Get returns a pointer to the value named by h, or nil if h does not
// name a live entry.
func (t *Table[D]) Get(h H) *D {
	slot := int(uint32(h)) - 1
	if uint32(h) == 0 || slot >= len(t.index) || !t.slots.IsSet(slot) {
		return nil
	}
	e := &t.data[t.index[slot]]
	if e.handle != h {
		return nil
	}
	return &e.value
}

// Valid reports whether h currently names a live entry.
func (t *Table[D]) Valid(h H) bool {
	return t.Get(h) != nil
}

// Len returns the number of live entries.
func (t *Table[D]) Len() int { return len(t.data) }

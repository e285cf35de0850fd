// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package alloc_test

import (
	"testing"

	"github.com/gviegas/wsiandroid/alloc"
)

func TestDefaultAllocReturnsRequestedLength(t *testing.T) {
	buf := alloc.Default.Alloc(16, alloc.ScopeCommand)
	if len(buf) != 16 {
		t.Fatalf("Alloc: have len %d, want 16", len(buf))
	}
}

func TestDefaultReallocGrowsAndPreservesPrefix(t *testing.T) {
	buf := alloc.Default.Alloc(4, alloc.ScopeCommand)
	copy(buf, []byte{1, 2, 3, 4})
	grown := alloc.Default.Realloc(buf, 8, alloc.ScopeCommand)
	if len(grown) != 8 {
		t.Fatalf("Realloc: have len %d, want 8", len(grown))
	}
	for i, want := range []byte{1, 2, 3, 4} {
		if grown[i] != want {
			t.Errorf("Realloc: byte %d: have %d, want %d", i, grown[i], want)
		}
	}
}

func TestDefaultReallocZeroFreesBuffer(t *testing.T) {
	if buf := alloc.Default.Realloc(nil, 0, alloc.ScopeCommand); buf != nil {
		t.Fatalf("Realloc(0): have %v, want nil", buf)
	}
}

func TestDefaultFreeAcceptsNilAndLiveBuffers(t *testing.T) {
	// Free never fails and never panics; the Go heap owns actual
	// reclamation.
	alloc.Default.Free(nil, alloc.ScopeObject)
	buf := alloc.Default.Alloc(16, alloc.ScopeCommand)
	alloc.Default.Free(buf, alloc.ScopeCommand)
}

// failing is an Allocator that always fails, for exercising the
// "hint silently dropped" and "out of host memory" paths.
type failing struct{}

func (failing) Reserve(size int, scope alloc.Scope) bool               { return false }
func (failing) Alloc(size int, scope alloc.Scope) []byte               { return nil }
func (failing) Realloc(buf []byte, size int, scope alloc.Scope) []byte { return nil }
func (failing) Free(buf []byte, scope alloc.Scope)                     {}

func TestFailingAllocatorReservesNothing(t *testing.T) {
	var a alloc.Allocator = failing{}
	if a.Reserve(1, alloc.ScopeObject) {
		t.Fatal("Reserve: want false from a failing allocator")
	}
	if buf := a.Alloc(16, alloc.ScopeCommand); buf != nil {
		t.Fatalf("Alloc: have %v, want nil", buf)
	}
}

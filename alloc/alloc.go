// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package alloc models the allocator callback the WSI entry points
// accept, generalizing VkAllocationCallbacks: a caller-supplied record
// that every allocation the core makes is routed through, tagged by
// scope so a caller can distinguish long-lived object allocations from
// per-call scratch buffers such as present-time damage rectangles.
//
// Go's garbage collector owns object lifetime, so Free does not free
// memory the way VkAllocationCallbacks.pfnFree does - that would fight
// the GC instead of using it, the opposite of writing idiomatic Go.
// Allocator is exercised at the points where the original source
// visibly routes through pAllocator: a probe call guarding "can this
// allocation scope succeed at all" before constructing a Surface or
// Swapchain (mirroring the OOM check "if (!mem) return
// VK_ERROR_OUT_OF_HOST_MEMORY"), a real grow-on-demand byte buffer for
// present-region scratch space, and a Free call at the matching
// teardown point so every Reserve/Alloc has a symmetric release even
// though the implementation itself is a no-op.
package alloc

// Scope tags an allocation by its expected lifetime, matching the
// Object/Command distinction in VkSystemAllocationScope.
type Scope int

// Supported scopes.
const (
	// ScopeObject tags allocations expected to outlive a single call,
	// such as a Surface or Swapchain.
	ScopeObject Scope = iota

	// ScopeCommand tags per-call scratch allocations, such as the
	// present-regions damage-rectangle buffer.
	ScopeCommand
)

// Allocator is the caller-supplied allocation callback record.
type Allocator interface {
	// Reserve reports whether an allocation of size bytes can succeed
	// in the given scope. It exists so object construction can honor
	// the "out of host memory" contract without the core allocating
	// raw bytes for every Go object it creates.
	Reserve(size int, scope Scope) bool

	// Alloc returns a byte slice of length size for use in scope,
	// or nil if the allocation failed.
	Alloc(size int, scope Scope) []byte

	// Realloc grows or shrinks buf to size bytes, preserving its
	// prefix, or returns nil if the allocation failed. buf may be nil.
	Realloc(buf []byte, size int, scope Scope) []byte

	// Free releases an allocation previously obtained from Alloc or
	// Realloc in the given scope. buf may be nil.
	Free(buf []byte, scope Scope)
}

// Default is the allocator used when a caller supplies none, backed
// directly by the Go heap and never reporting failure - mirroring
// the original source's own fallback ("if (!allocator) allocator =
// &GetData(device).allocator", itself a thin wrapper over malloc/free).
var Default Allocator = heapAllocator{}

type heapAllocator struct{}

func (heapAllocator) Reserve(size int, scope Scope) bool { return true }

func (heapAllocator) Alloc(size int, scope Scope) []byte {
	if size <= 0 {
		return nil
	}
	return make([]byte, size)
}

func (heapAllocator) Realloc(buf []byte, size int, scope Scope) []byte {
	if size <= 0 {
		return nil
	}
	if cap(buf) >= size {
		return buf[:size]
	}
	grown := make([]byte, size)
	copy(grown, buf)
	return grown
}

// Free is a no-op: the Go heap reclaims buf once it is no longer
// referenced, regardless of scope.
func (heapAllocator) Free(buf []byte, scope Scope) {}

// Package rbheap is a general-purpose heap allocator that services
// variable-sized allocation requests from a single-threaded client by
// growing a contiguous span of process address space and recycling freed
// regions via a best-fit policy over a red-black tree keyed by free-region
// size (SPEC_FULL.md).
//
// The allocator is deliberately single-threaded: it does not lock its own
// allocation path (SPEC_FULL.md §5). A *Allocator must not be shared
// across goroutines without external synchronization.
package rbheap

import (
	"unsafe"

	"github.com/orizon-lang/rbheap/internal/block"
	"github.com/orizon-lang/rbheap/internal/heap"
	"github.com/orizon-lang/rbheap/internal/rberrors"
	"github.com/orizon-lang/rbheap/internal/tree"
)

// Allocator binds the free-region index to a heap primitive and implements
// Allocate, Free, Reallocate and ZeroAllocate (SPEC_FULL.md §4.4–§4.7).
// The zero value is not usable; build one with New.
type Allocator struct {
	src   *heap.Source
	index tree.Tree
	stats Stats
}

// New creates an Allocator backed by a freshly reserved span of span
// bytes. Pass 0 to use heap.DefaultSpan.
func New(span uintptr) (*Allocator, error) {
	src, err := heap.New(span)
	if err != nil {
		return nil, err
	}

	return &Allocator{src: src}, nil
}

// Close releases the allocator's underlying address-space reservation.
// Not part of the core contract — SPEC_FULL.md's heap only ever grows —
// but necessary so tests and long-running demo processes don't leak real
// OS mappings.
func (a *Allocator) Close() error {
	return a.src.Close()
}

// Default is the process-wide allocator instance, mirroring the
// conventional "global allocator" singleton (SPEC_FULL.md §9, "Global
// root"). Package-level Allocate/Free/Reallocate/ZeroAllocate operate on
// it. Callers who want an isolated heap should call New directly instead.
var Default = mustDefault()

func mustDefault() *Allocator {
	a, err := New(heap.DefaultSpan)
	if err != nil {
		panic(err)
	}

	return a
}

// Allocate services a request for n bytes (SPEC_FULL.md §4.4). It returns
// nil and a *rberrors.Error when n is zero or when the heap primitive
// cannot be extended; the nil result alone is the contract client code in
// other languages would see, the error is additional detail.
func (a *Allocator) Allocate(n uintptr) (unsafe.Pointer, error) {
	if n == 0 {
		return nil, rberrors.ZeroSize("Allocate")
	}

	n = block.AlignUp(n)

	if hit := a.index.BestFit(n); hit != nil {
		a.index.Remove(hit)
		hit.State = block.Allocated
		a.stats.onAlloc(hit.Size, false)

		return block.PayloadOf(hit), nil
	}

	base, err := a.src.Extend(block.HeaderSize + n)
	if err != nil {
		return nil, rberrors.HeapExhausted("Allocate", block.HeaderSize+n)
	}

	h := block.At(base)
	h.Size = n
	h.State = block.Allocated
	h.Left, h.Right, h.Parent = nil, nil, nil
	h.Color = block.Red

	a.stats.onAlloc(n, true)

	return block.PayloadOf(h), nil
}

// Free returns p's block to the free-region index (SPEC_FULL.md §4.5). A
// nil pointer, or a pointer whose header is not currently Allocated
// (already free, or never ours), is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	h := block.HeaderOf(p)
	if h.State != block.Allocated {
		return
	}

	h.State = block.Free
	a.index.Insert(h)
	a.stats.onFree(h.Size)
}

// Reallocate resizes the block at p to n bytes (SPEC_FULL.md §4.6).
//
//   - n == 0 behaves as Free(p) and returns nil; if p is also nil this is a
//     bad request and the nil result comes with a BadRequest error.
//   - p == nil behaves as Allocate(n).
//   - n <= the block's current (aligned) size returns p unchanged — the
//     size recorded in the header is never shrunk, so a later grow from
//     the same pointer compares against the original size, not whatever
//     the caller most recently asked to shrink to (SPEC_FULL.md §9, open
//     question ii — preserved intentionally, not a bug).
//   - otherwise a new block is allocated, the old payload is copied in,
//     and the old block is freed.
func (a *Allocator) Reallocate(p unsafe.Pointer, n uintptr) (unsafe.Pointer, error) {
	if n == 0 {
		if p == nil {
			return nil, rberrors.ZeroSize("Reallocate")
		}

		a.Free(p)

		return nil, nil
	}

	if p == nil {
		return a.Allocate(n)
	}

	h := block.HeaderOf(p)
	if h.State != block.Allocated {
		return nil, rberrors.NotAllocated("Reallocate")
	}

	n = block.AlignUp(n)
	if n <= h.Size {
		return p, nil
	}

	q, err := a.Allocate(n)
	if err != nil {
		return nil, err
	}

	copyBytes(q, p, h.Size)
	a.Free(p)

	return q, nil
}

// ZeroAllocate allocates room for count elements of eltSize bytes each and
// zero-fills the result (SPEC_FULL.md §4.7). Either argument being zero is
// a bad request. The count*eltSize multiplication is not guarded against
// overflow, matching the distilled specification's silence on the matter
// (SPEC_FULL.md §9, open question i) — a pathological (count, eltSize)
// pair can wrap uintptr and under-allocate; callers that accept untrusted
// sizes must bounds-check before calling this.
func (a *Allocator) ZeroAllocate(count, eltSize uintptr) (unsafe.Pointer, error) {
	if count == 0 {
		return nil, rberrors.ZeroCount("ZeroAllocate")
	}

	if eltSize == 0 {
		return nil, rberrors.ZeroSize("ZeroAllocate")
	}

	total := count * eltSize

	p, err := a.Allocate(total)
	if err != nil {
		return nil, err
	}

	zeroBytes(p, block.AlignUp(total))

	return p, nil
}

func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	dstSlice := unsafe.Slice((*byte)(dst), n)
	srcSlice := unsafe.Slice((*byte)(src), n)
	copy(dstSlice, srcSlice)
}

func zeroBytes(dst unsafe.Pointer, n uintptr) {
	dstSlice := unsafe.Slice((*byte)(dst), n)
	for i := range dstSlice {
		dstSlice[i] = 0
	}
}

// Package-level convenience wrappers over Default, mirroring the teacher's
// GlobalAllocator.Alloc/Free/Realloc singleton functions.

func Allocate(n uintptr) (unsafe.Pointer, error)              { return Default.Allocate(n) }
func Free(p unsafe.Pointer)                                   { Default.Free(p) }
func Reallocate(p unsafe.Pointer, n uintptr) (unsafe.Pointer, error) { return Default.Reallocate(p, n) }
func ZeroAllocate(count, eltSize uintptr) (unsafe.Pointer, error) {
	return Default.ZeroAllocate(count, eltSize)
}

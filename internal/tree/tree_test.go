package tree

import (
	"math/rand"
	"testing"
	"unsafe"

	"github.com/orizon-lang/rbheap/internal/block"
)

// newHeader allocates a standalone header+payload backing array for tests.
// The tree never allocates memory of its own (SPEC_FULL.md §5); these
// headers stand in for blocks the heap primitive would otherwise carve.
func newHeader(size uintptr) *block.Header {
	backing := make([]byte, block.HeaderSize+size)
	h := (*block.Header)(unsafe.Pointer(&backing[0]))
	h.Size = size
	h.State = block.Free

	return h
}

func TestInsertSingleNodeBecomesBlackRoot(t *testing.T) {
	var tr Tree

	n := newHeader(16)
	tr.Insert(n)

	if tr.Root() != n {
		t.Fatal("single insert should become the root")
	}

	if n.Color != block.Black {
		t.Fatal("empty-tree insert must produce a black root")
	}

	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestInsertManyStaysValid(t *testing.T) {
	var tr Tree

	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		tr.Insert(newHeader(uintptr(rng.Intn(4096) + 8)))

		if err := tr.Validate(); err != nil {
			t.Fatalf("after insert %d: %v", i, err)
		}
	}
}

func TestBestFitPicksSmallestFittingBlock(t *testing.T) {
	var tr Tree

	sizes := []uintptr{8, 16, 16, 32, 64, 128}
	for _, s := range sizes {
		tr.Insert(newHeader(s))
	}

	got := tr.BestFit(20)
	if got == nil || got.Size != 32 {
		t.Fatalf("BestFit(20): got %v, want size 32", got)
	}

	if tr.BestFit(1000) != nil {
		t.Fatal("BestFit beyond every block should return nil")
	}

	if got := tr.BestFit(8); got == nil || got.Size != 8 {
		t.Fatalf("BestFit(8): want exact match of size 8, got %v", got)
	}
}

func TestBestFitTieBreaksByAddress(t *testing.T) {
	var tr Tree

	a := newHeader(16)
	b := newHeader(16)

	// Insert the higher address first so a naive "first inserted" rule
	// would pick the wrong one; the ordering relation must still surface
	// the lowest address.
	lo, hi := a, b
	if block.Addr(a) > block.Addr(b) {
		lo, hi = b, a
	}

	tr.Insert(hi)
	tr.Insert(lo)

	got := tr.BestFit(16)
	if got != lo {
		t.Fatalf("BestFit tie-break: got block at %#x, want lowest address %#x", block.Addr(got), block.Addr(lo))
	}
}

func TestRemoveThenValidate(t *testing.T) {
	var tr Tree

	rng := rand.New(rand.NewSource(2))

	nodes := make([]*block.Header, 0, 64)
	for i := 0; i < 64; i++ {
		n := newHeader(uintptr(rng.Intn(512) + 8))
		tr.Insert(n)
		nodes = append(nodes, n)
	}

	rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })

	for i, n := range nodes {
		tr.Remove(n)

		if n.Left != nil || n.Right != nil || n.Parent != nil {
			t.Fatalf("removed node %d still has tree links", i)
		}

		if err := tr.Validate(); err != nil {
			t.Fatalf("after removing %d of %d: %v", i+1, len(nodes), err)
		}
	}

	if tr.Root() != nil {
		t.Fatal("tree should be empty after removing every node")
	}
}

func TestRemoveMissingMiddleKeepsOrderingIntact(t *testing.T) {
	var tr Tree

	nodes := make([]*block.Header, 0, 20)
	for i := 0; i < 20; i++ {
		nodes = append(nodes, newHeader(uintptr((i%5)*8+8)))
	}

	for _, n := range nodes {
		tr.Insert(n)
	}

	// Remove every other node.
	for i := 0; i < len(nodes); i += 2 {
		tr.Remove(nodes[i])
	}

	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate after interleaved removes: %v", err)
	}

	var prevSize uintptr

	count := 0

	tr.InOrder(func(h *block.Header) {
		if h.Size < prevSize {
			t.Fatalf("in-order traversal not sorted: %d before %d", prevSize, h.Size)
		}

		prevSize = h.Size
		count++
	})

	if count != len(nodes)/2 {
		t.Fatalf("expected %d surviving nodes, got %d", len(nodes)/2, count)
	}
}

func TestBestFitRemovesNothingItself(t *testing.T) {
	var tr Tree

	n := newHeader(32)
	tr.Insert(n)

	got := tr.BestFit(32)
	if got != n {
		t.Fatal("BestFit should find the block")
	}

	if tr.Root() == nil {
		t.Fatal("BestFit must not remove the block from the index on its own")
	}
}

// Package rbdebug provides debug pretty-printing for the free-region index
// and a leak reporter for blocks a demo run left Allocated. Both are
// explicitly out-of-core per SPEC_FULL.md §1/§4.8 — useful to a human
// driving the allocator, never consulted by the allocator itself.
//
// PrintTree is a direct port of the reference implementation's
// print_tree/print_rb_extern (indented recursive in-order walk); the leak
// reporting follows the shape of the teacher's FormatLeaks/LeakInfo.
package rbdebug

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/orizon-lang/rbheap/internal/block"
)

// Printable is the subset of tree.Tree that rbdebug needs: a root to
// start walking from. Kept minimal so rbdebug does not have to import the
// tree package's internals beyond what it reads here.
type Printable interface {
	Root() *block.Header
}

// PrintTree writes an indented representation of every free block in t to
// w, one line per node, deepest-first on the left. Matches the reference
// implementation's print_tree layout: size and color, indented by depth.
func PrintTree(w io.Writer, t Printable) {
	var walk func(n *block.Header, depth int)

	walk = func(n *block.Header, depth int) {
		if n == nil {
			return
		}

		walk(n.Left, depth+1)

		for i := 0; i < depth; i++ {
			fmt.Fprint(w, "    ")
		}

		fmt.Fprintf(w, "[%d %s]\n", n.Size, n.Color)

		walk(n.Right, depth+1)
	}

	walk(t.Root(), 0)
}

// LeakInfo describes one block a caller is still holding as Allocated.
type LeakInfo struct {
	Addr uintptr
	Size uintptr
}

// LeakReport walks addrs (every payload pointer a caller has handed out)
// and returns a LeakInfo for each whose header is still Allocated.
func LeakReport(addrs []uintptr) []LeakInfo {
	var leaks []LeakInfo

	for _, p := range addrs {
		h := block.HeaderOf(unsafe.Pointer(p))
		if h.State == block.Allocated {
			leaks = append(leaks, LeakInfo{Addr: p, Size: h.Size})
		}
	}

	return leaks
}

// FormatLeaks renders a LeakInfo slice the way the teacher's FormatLeaks
// does: a count line followed by one line per leak, or a clean bill of
// health when there are none.
func FormatLeaks(leaks []LeakInfo) string {
	if len(leaks) == 0 {
		return "no leaked blocks"
	}

	out := fmt.Sprintf("%d leaked block(s):\n", len(leaks))
	for i, l := range leaks {
		out += fmt.Sprintf("  leak %d: %d bytes at %#x\n", i+1, l.Size, l.Addr)
	}

	return out
}

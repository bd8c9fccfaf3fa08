package tree

import (
	"fmt"

	"github.com/orizon-lang/rbheap/internal/block"
)

// Validate walks the whole tree and checks every invariant from
// SPEC_FULL.md §3/§8: root color, no red-red violations, equal black
// height on every root-to-nil path, consistent parent/child links, every
// member in State Free, and non-decreasing (size, address) key order.
// It returns the first violation found, or nil if the tree is healthy.
func (t *Tree) Validate() error {
	if t.root == nil {
		return nil
	}

	if t.root.Parent != nil {
		return fmt.Errorf("root has non-nil parent")
	}

	if t.root.Color != block.Black {
		return fmt.Errorf("root is not black")
	}

	var prev *block.Header

	var walk func(n *block.Header) (blackHeight int, err error)

	walk = func(n *block.Header) (int, error) {
		if n == nil {
			return 1, nil // nil leaves count as one black node.
		}

		if n.State != block.Free {
			return 0, fmt.Errorf("node at %#x in tree is not in state Free", block.Addr(n))
		}

		if n.Color == block.Red {
			if isRed(n.Left) || isRed(n.Right) {
				return 0, fmt.Errorf("red node at %#x has a red child", block.Addr(n))
			}
		}

		if n.Left != nil && n.Left.Parent != n {
			return 0, fmt.Errorf("node at %#x: left child's parent link is inconsistent", block.Addr(n))
		}

		if n.Right != nil && n.Right.Parent != n {
			return 0, fmt.Errorf("node at %#x: right child's parent link is inconsistent", block.Addr(n))
		}

		lh, err := walk(n.Left)
		if err != nil {
			return 0, err
		}

		if prev != nil && !(less(prev, n) || (prev.Size == n.Size && block.Addr(prev) == block.Addr(n))) {
			return 0, fmt.Errorf("in-order traversal out of order at %#x", block.Addr(n))
		}

		prev = n

		rh, err := walk(n.Right)
		if err != nil {
			return 0, err
		}

		if lh != rh {
			return 0, fmt.Errorf("node at %#x: unequal black heights (%d vs %d)", block.Addr(n), lh, rh)
		}

		add := 1
		if n.Color == block.Red {
			add = 0
		}

		return lh + add, nil
	}

	_, err := walk(t.root)

	return err
}

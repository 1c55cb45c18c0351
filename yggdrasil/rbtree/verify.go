package rbtree

import (
	"errors"
	"fmt"

	"github.com/cbehopkins/scopetree"
)

// ErrInvariant is wrapped by every error Verify returns.
var ErrInvariant = errors.New("red-black invariant violated")

// Verify checks ordering, colouring, black height and parent links for this
// tree and every nested subtree. It returns an error wrapping ErrInvariant
// describing the first violation found.
func (t *Tree[K, V]) Verify() error {
	root := t.Root()
	if root == nil {
		return nil
	}
	if root.color != black {
		return fmt.Errorf("%w: root is red", ErrInvariant)
	}
	if root.parent.IsValid() {
		return fmt.Errorf("%w: root has a parent", ErrInvariant)
	}
	seen := 0
	_, err := t.verifyNode(root, nil, nil, &seen)
	if err != nil {
		return err
	}
	if seen != t.count {
		return fmt.Errorf("%w: reached %d nodes, tree counts %d", ErrInvariant, seen, t.count)
	}
	return nil
}

// verifyNode returns the black height of the subtree rooted at n.
func (t *Tree[K, V]) verifyNode(n *Node[K, V], lo, hi *K, seen *int) (int, error) {
	*seen++
	if lo != nil && t.cmp(n.key, *lo) <= 0 {
		return 0, fmt.Errorf("%w: bst order: key %v not above lower bound %v", ErrInvariant, n.key, *lo)
	}
	if hi != nil && t.cmp(n.key, *hi) >= 0 {
		return 0, fmt.Errorf("%w: bst order: key %v not below upper bound %v", ErrInvariant, n.key, *hi)
	}
	if n.kind == kindSubtree {
		if n.sub == nil {
			return 0, fmt.Errorf("%w: subtree node %v without a tree", ErrInvariant, n.key)
		}
		if err := n.sub.Verify(); err != nil {
			return 0, fmt.Errorf("under key %v: %w", n.key, err)
		}
	}

	heights := [2]int{}
	for i, childID := range [2]scopetree.ObjectId{n.left, n.right} {
		child := t.node(childID)
		if child == nil {
			if childID.IsValid() {
				return 0, fmt.Errorf("%w: dangling child handle under %v", ErrInvariant, n.key)
			}
			continue
		}
		if child.parent != n.id {
			return 0, fmt.Errorf("%w: child %v does not point back to parent %v", ErrInvariant, child.key, n.key)
		}
		if n.color == red && child.color == red {
			return 0, fmt.Errorf("%w: red node %v has red child %v", ErrInvariant, n.key, child.key)
		}
		var h int
		var err error
		if i == 0 {
			h, err = t.verifyNode(child, lo, &n.key, seen)
		} else {
			h, err = t.verifyNode(child, &n.key, hi, seen)
		}
		if err != nil {
			return 0, err
		}
		heights[i] = h
	}
	if heights[0] != heights[1] {
		return 0, fmt.Errorf("%w: black height differs under %v: %d vs %d", ErrInvariant, n.key, heights[0], heights[1])
	}
	if n.color == black {
		return heights[0] + 1, nil
	}
	return heights[0], nil
}

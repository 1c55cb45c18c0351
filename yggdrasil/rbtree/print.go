package rbtree

import (
	"fmt"
	"io"

	"github.com/xlab/treeprint"
)

// Format renders the tree structure, colours included, for debugging.
// Nil formatters fall back to fmt.Sprint.
func (t *Tree[K, V]) Format(keyFmt func(K) string, valueFmt func(V) string) string {
	if keyFmt == nil {
		keyFmt = func(k K) string { return fmt.Sprint(k) }
	}
	if valueFmt == nil {
		valueFmt = func(v V) string { return fmt.Sprint(v) }
	}
	tp := treeprint.NewWithRoot(fmt.Sprintf("rbtree (%d nodes, scope %s)", t.count, t.working.Name()))
	if root := t.Root(); root != nil {
		t.printNode(tp, root, "", keyFmt, valueFmt)
	}
	return tp.String()
}

// Print writes Format's output to w.
func (t *Tree[K, V]) Print(w io.Writer, keyFmt func(K) string, valueFmt func(V) string) error {
	_, err := io.WriteString(w, t.Format(keyFmt, valueFmt))
	return err
}

// String implements fmt.Stringer.
func (t *Tree[K, V]) String() string {
	return t.Format(nil, nil)
}

func (t *Tree[K, V]) printNode(parent treeprint.Tree, n *Node[K, V], side string, keyFmt func(K) string, valueFmt func(V) string) {
	label := side + keyFmt(n.key)
	switch {
	case n.kind == kindSubtree:
		label += " => subtree"
	case n.removed:
		label += " (removed)"
	default:
		label += " = " + valueFmt(n.value)
	}
	branch := parent.AddMetaBranch(n.color.String(), label)

	if n.kind == kindSubtree && n.sub != nil {
		if root := n.sub.Root(); root != nil {
			n.sub.printNode(branch, root, "* ", keyFmt, valueFmt)
		}
	}
	if left := t.node(n.left); left != nil {
		t.printNode(branch, left, "L ", keyFmt, valueFmt)
	}
	if right := t.node(n.right); right != nil {
		t.printNode(branch, right, "R ", keyFmt, valueFmt)
	}
}

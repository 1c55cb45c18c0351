package rbtree

import (
	"github.com/cbehopkins/scopetree"
)

type color uint8

const (
	red color = iota
	black
)

func (c color) String() string {
	if c == black {
		return "B"
	}
	return "R"
}

// nodeKind tags what a node stores: user data or a nested tree.
type nodeKind uint8

const (
	kindLeaf nodeKind = iota
	kindSubtree
)

// Node is a slot in a tree's node slab. Links are slab handles, not pointers.
// A *Node stays valid until the tree's working scope resets.
type Node[K, V any] struct {
	key   K
	value V
	sub   *Tree[K, V]

	id     scopetree.ObjectId
	parent scopetree.ObjectId
	left   scopetree.ObjectId
	right  scopetree.ObjectId

	color   color
	kind    nodeKind
	removed bool
}

// Key returns the node's key.
func (n *Node[K, V]) Key() K {
	return n.key
}

// Value returns the stored value. It is the zero value for removed and
// subtree nodes.
func (n *Node[K, V]) Value() V {
	return n.value
}

// ValuePtr gives in-place access to the stored value. Augmented trees use it
// to maintain derived fields without reinserting.
func (n *Node[K, V]) ValuePtr() *V {
	return &n.value
}

// ID returns the node's slab handle.
func (n *Node[K, V]) ID() scopetree.ObjectId {
	return n.id
}

// IsRed reports the node colour.
func (n *Node[K, V]) IsRed() bool {
	return n.color == red
}

// IsSubtree reports whether the node selects a nested tree rather than
// holding user data.
func (n *Node[K, V]) IsSubtree() bool {
	return n.kind == kindSubtree
}

// Removed reports whether the node is a tombstone.
func (n *Node[K, V]) Removed() bool {
	return n.removed
}

// live reports whether the node holds user data visible to lookups.
func (n *Node[K, V]) live() bool {
	return n.kind == kindLeaf && !n.removed
}

package rbtree

import (
	"github.com/cbehopkins/scopetree"
)

// WalkFunc is invoked for each live value during traversal. Returning true
// stops the traversal.
type WalkFunc[K, V any] func(key K, value V) bool

// Walk visits live values in key order. Removed nodes are skipped and subtree
// selectors are descended into instead of being reported, so a composite-key
// tree yields only its innermost keys. Walk reports whether fn stopped it early.
func (t *Tree[K, V]) Walk(fn WalkFunc[K, V]) bool {
	return t.inOrderWalk(t.root, fn)
}

// inOrderWalk performs in-order traversal: left, node, right.
func (t *Tree[K, V]) inOrderWalk(id scopetree.ObjectId, fn WalkFunc[K, V]) bool {
	n := t.node(id)
	if n == nil {
		return false
	}
	if t.inOrderWalk(n.left, fn) {
		return true
	}
	switch {
	case n.kind == kindSubtree:
		if n.sub != nil && n.sub.Walk(fn) {
			return true
		}
	case !n.removed:
		if fn(n.key, n.value) {
			return true
		}
	}
	return t.inOrderWalk(n.right, fn)
}

// WalkNodes visits every node at this level in key order, tombstones and
// subtree selectors included, without descending into nested trees.
// Returning true from fn stops the traversal.
func (t *Tree[K, V]) WalkNodes(fn func(n *Node[K, V]) bool) bool {
	var walk func(id scopetree.ObjectId) bool
	walk = func(id scopetree.ObjectId) bool {
		n := t.node(id)
		if n == nil {
			return false
		}
		return walk(n.left) || fn(n) || walk(n.right)
	}
	return walk(t.root)
}

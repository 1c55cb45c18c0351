package rbtree

import (
	"github.com/cbehopkins/scopetree/yggdrasil/types"
)

// find returns the node whose key equals key, live or not, and the last node
// visited on the way down.
func (t *Tree[K, V]) find(key K, cmp types.Compare[K]) (match, last *Node[K, V]) {
	cur := t.node(t.root)
	for cur != nil {
		c := cmp(key, cur.key)
		if c == 0 {
			return cur, cur
		}
		last = cur
		if c < 0 {
			cur = t.node(cur.left)
		} else {
			cur = t.node(cur.right)
		}
	}
	return nil, last
}

// Lookup returns the value stored under key. Missing keys, removed keys and
// keys that select a nested subtree all report false.
func (t *Tree[K, V]) Lookup(key K) (V, bool) {
	return t.LookupCmp(key, t.cmp)
}

// LookupCmp is Lookup with a caller-supplied comparator.
func (t *Tree[K, V]) LookupCmp(key K, cmp types.Compare[K]) (V, bool) {
	var zero V
	n, _ := t.find(key, cmp)
	if n == nil || !n.live() {
		return zero, false
	}
	return n.value, true
}

// Find returns the node stored under key, tombstones included; nil if absent.
func (t *Tree[K, V]) Find(key K) *Node[K, V] {
	n, _ := t.find(key, t.cmp)
	return n
}

// LookupLE returns the value with the greatest key not exceeding key.
// Removed nodes and subtree selectors are skipped.
func (t *Tree[K, V]) LookupLE(key K) (V, bool) {
	var zero V
	n := t.floor(key)
	for n != nil && !n.live() {
		n = t.predecessor(n)
	}
	if n == nil {
		return zero, false
	}
	return n.value, true
}

// LookupGE returns the value with the smallest key not below key.
// Removed nodes and subtree selectors are skipped.
func (t *Tree[K, V]) LookupGE(key K) (V, bool) {
	var zero V
	n := t.ceiling(key)
	for n != nil && !n.live() {
		n = t.successor(n)
	}
	if n == nil {
		return zero, false
	}
	return n.value, true
}

// floor finds the node with the greatest key <= key. After falling off the
// tree it walks back up: the last visited node answers if its key is small
// enough; otherwise the first ancestor reached from a right child does, since
// the descent went right at that ancestor.
func (t *Tree[K, V]) floor(key K) *Node[K, V] {
	match, n := t.find(key, t.cmp)
	if match != nil {
		return match
	}
	for n != nil {
		if t.cmp(n.key, key) <= 0 {
			return n
		}
		parent := t.node(n.parent)
		if parent != nil && parent.right == n.id {
			return parent
		}
		n = parent
	}
	return nil
}

// ceiling is the mirror image of floor.
func (t *Tree[K, V]) ceiling(key K) *Node[K, V] {
	match, n := t.find(key, t.cmp)
	if match != nil {
		return match
	}
	for n != nil {
		if t.cmp(n.key, key) >= 0 {
			return n
		}
		parent := t.node(n.parent)
		if parent != nil && parent.left == n.id {
			return parent
		}
		n = parent
	}
	return nil
}

// predecessor is the previous node in key order.
func (t *Tree[K, V]) predecessor(n *Node[K, V]) *Node[K, V] {
	if left := t.node(n.left); left != nil {
		for right := t.node(left.right); right != nil; right = t.node(left.right) {
			left = right
		}
		return left
	}
	parent := t.node(n.parent)
	for parent != nil && parent.left == n.id {
		n = parent
		parent = t.node(n.parent)
	}
	return parent
}

// successor is the next node in key order.
func (t *Tree[K, V]) successor(n *Node[K, V]) *Node[K, V] {
	if right := t.node(n.right); right != nil {
		for left := t.node(right.left); left != nil; left = t.node(right.left) {
			right = left
		}
		return right
	}
	parent := t.node(n.parent)
	for parent != nil && parent.right == n.id {
		n = parent
		parent = t.node(n.parent)
	}
	return parent
}

// Remove soft-deletes key: the node stays in place with its tombstone set and
// its value cleared. It reports whether a live value was removed.
func (t *Tree[K, V]) Remove(key K) bool {
	return t.RemoveCmp(key, t.cmp)
}

// RemoveCmp is Remove with a caller-supplied comparator.
func (t *Tree[K, V]) RemoveCmp(key K, cmp types.Compare[K]) bool {
	n, _ := t.find(key, cmp)
	if n == nil || !n.live() {
		return false
	}
	t.mustBeWritable()
	var zero V
	n.value = zero
	n.removed = true
	return true
}

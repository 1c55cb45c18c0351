package rbtree

import (
	"github.com/cbehopkins/scopetree"
	atypes "github.com/cbehopkins/scopetree/allocator/types"
	"github.com/cbehopkins/scopetree/yggdrasil/types"
)

// StringTree is a Tree keyed by byte strings. Keys are copied into the working
// scope on insert, so callers may reuse their buffers.
//
// The tree is ordered by the flags it was created with. Operations passing the
// same flags run in O(log n). A case-sensitive operation on a case-insensitive
// tree is still a descent plus an exact check; a case-insensitive operation on
// a case-sensitive tree has to scan, because equal-when-folded keys need not be
// adjacent in byte order.
type StringTree[V any] struct {
	*Tree[[]byte, V]
	flags types.StringFlags
}

func dupBytes(s atypes.Scope, k []byte) ([]byte, error) {
	return s.Dup(k)
}

// NewString creates a single-scope string tree ordered according to flags.
func NewString[V any](scope atypes.Scope, flags types.StringFlags) *StringTree[V] {
	t := New[[]byte, V](scope, types.StringCompare(flags))
	t.dupKey = dupBytes
	return &StringTree[V]{Tree: t, flags: flags}
}

// NewStringDualScope creates a string tree that survives working resets.
func NewStringDualScope[V any](control, working atypes.Scope, flags types.StringFlags) *StringTree[V] {
	t := NewDualScope[[]byte, V](control, working, types.StringCompare(flags))
	t.dupKey = dupBytes
	return &StringTree[V]{Tree: t, flags: flags}
}

// Flags returns the flags the tree is ordered by.
func (t *StringTree[V]) Flags() types.StringFlags {
	return t.flags
}

// InsertString stores value under key compared according to flags. A matching
// removed key is revived.
//
// A folded tree keeps one spelling per folded class, so a case-sensitive insert
// of a different spelling of a stored key panics with a contract violation. A
// case-insensitive insert on a case-sensitive tree scans every node, O(n).
func (t *StringTree[V]) InsertString(key string, value V, flags types.StringFlags) {
	if flags == t.flags {
		t.Insert([]byte(key), value)
		return
	}
	if t.folded() {
		n, _ := t.find([]byte(key), t.cmp)
		if n == nil {
			t.Insert([]byte(key), value)
			return
		}
		if types.StringCompare(flags)([]byte(key), n.key) != 0 {
			scopetree.Violation("rbtree: key %q collides with stored key %q on a case-insensitive tree", key, n.key)
		}
		t.mustBeWritable()
		n.value = value
		n.removed = false
		return
	}
	if n := t.match([]byte(key), flags); n != nil {
		t.mustBeWritable()
		n.value = value
		n.removed = false
		return
	}
	t.Insert([]byte(key), value)
}

// LookupString returns the value stored under key compared according to flags.
// A case-insensitive lookup on a case-sensitive tree scans every node, O(n);
// every other combination is a single O(log n) descent.
func (t *StringTree[V]) LookupString(key string, flags types.StringFlags) (V, bool) {
	n := t.match([]byte(key), flags)
	if n == nil || !n.live() {
		var zero V
		return zero, false
	}
	return n.value, true
}

// RemoveString soft-deletes key. It reports whether a live value was removed.
// Like LookupString it costs O(n) for a case-insensitive call on a
// case-sensitive tree and O(log n) otherwise.
func (t *StringTree[V]) RemoveString(key string, flags types.StringFlags) bool {
	n := t.match([]byte(key), flags)
	if n == nil || !n.live() {
		return false
	}
	t.mustBeWritable()
	var zero V
	n.value = zero
	n.removed = true
	return true
}

func (t *StringTree[V]) folded() bool {
	return t.flags&types.CaseInsensitive != 0
}

// match finds the node for key under flags, preferring a live node when
// several stored keys compare equal.
func (t *StringTree[V]) match(key []byte, flags types.StringFlags) *Node[[]byte, V] {
	if flags == t.flags {
		n, _ := t.find(key, t.cmp)
		return n
	}
	cmp := types.StringCompare(flags)
	if t.folded() {
		// Folded order: at most one stored key per folded class.
		n, _ := t.find(key, t.cmp)
		if n == nil || cmp(key, n.key) != 0 {
			return nil
		}
		return n
	}
	var found *Node[[]byte, V]
	t.WalkNodes(func(n *Node[[]byte, V]) bool {
		if cmp(key, n.key) != 0 {
			return false
		}
		if found == nil || (!found.live() && n.live()) {
			found = n
		}
		return found.live()
	})
	return found
}

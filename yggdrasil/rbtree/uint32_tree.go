package rbtree

import (
	"github.com/cbehopkins/scopetree"
	atypes "github.com/cbehopkins/scopetree/allocator/types"
	"github.com/cbehopkins/scopetree/yggdrasil/types"
)

// Uint32Tree is a Tree keyed by unsigned 32-bit integers. It adds predecessor
// lookups and composite keys on top of the generic operations.
type Uint32Tree[V any] struct {
	*Tree[uint32, V]
}

// NewUint32 creates a single-scope tree keyed by uint32.
func NewUint32[V any](scope atypes.Scope) *Uint32Tree[V] {
	return &Uint32Tree[V]{New[uint32, V](scope, types.Uint32Compare)}
}

// NewUint32DualScope creates a uint32 tree that survives working resets.
func NewUint32DualScope[V any](control, working atypes.Scope) *Uint32Tree[V] {
	return &Uint32Tree[V]{NewDualScope[uint32, V](control, working, types.Uint32Compare)}
}

// Insert32 stores value under key, overwriting any existing value.
func (t *Uint32Tree[V]) Insert32(key uint32, value V) {
	t.Insert(key, value)
}

// Lookup32 returns the value stored under key.
func (t *Uint32Tree[V]) Lookup32(key uint32) (V, bool) {
	return t.Lookup(key)
}

// Lookup32LE returns the value with the greatest key <= key. Callers that
// index open-ended ranges by their start use it to find the range in force
// at a given point.
func (t *Uint32Tree[V]) Lookup32LE(key uint32) (V, bool) {
	return t.LookupLE(key)
}

// Lookup32GE returns the value with the smallest key >= key.
func (t *Uint32Tree[V]) Lookup32GE(key uint32) (V, bool) {
	return t.LookupGE(key)
}

// Remove32 soft-deletes key.
func (t *Uint32Tree[V]) Remove32(key uint32) bool {
	return t.Remove(key)
}

// LookupOrInsert32 returns the value under key, storing create() first when
// the key is absent.
func (t *Uint32Tree[V]) LookupOrInsert32(key uint32, create func() V) V {
	n, _ := t.LookupOrInsert(key, create, false)
	return n.value
}

// InsertArray stores value under a composite key. Every 32-bit value of the
// flattened key but the last selects (creating if needed) a nested subtree;
// the last is inserted into the innermost subtree.
//
// A prefix that already holds a value cannot also select a subtree; mixing
// the two panics.
func (t *Uint32Tree[V]) InsertArray(key types.CompositeKey, value V) {
	flat := key.Flatten()
	if len(flat) == 0 {
		scopetree.Violation("rbtree.InsertArray: empty composite key")
	}
	cur := t.Tree
	for _, k := range flat[:len(flat)-1] {
		cur = cur.subtreeFor(k)
	}
	cur.Insert(flat[len(flat)-1], value)
}

// LookupArray returns the value stored under a composite key.
func (t *Uint32Tree[V]) LookupArray(key types.CompositeKey) (V, bool) {
	cur, last, ok := t.resolve(key)
	if !ok {
		var zero V
		return zero, false
	}
	return cur.Lookup(last)
}

// LookupArrayLE resolves every level of a composite key exactly except the
// last value, for which it returns the predecessor-or-equal match.
func (t *Uint32Tree[V]) LookupArrayLE(key types.CompositeKey) (V, bool) {
	cur, last, ok := t.resolve(key)
	if !ok {
		var zero V
		return zero, false
	}
	return cur.LookupLE(last)
}

// RemoveArray soft-deletes the value under a composite key.
func (t *Uint32Tree[V]) RemoveArray(key types.CompositeKey) bool {
	cur, last, ok := t.resolve(key)
	if !ok {
		return false
	}
	return cur.Remove(last)
}

// resolve walks the nested subtrees selected by all but the last value.
func (t *Uint32Tree[V]) resolve(key types.CompositeKey) (*Tree[uint32, V], uint32, bool) {
	flat := key.Flatten()
	if len(flat) == 0 {
		scopetree.Violation("rbtree: empty composite key")
	}
	cur := t.Tree
	for _, k := range flat[:len(flat)-1] {
		n, _ := cur.find(k, cur.cmp)
		if n == nil || n.kind != kindSubtree || n.sub == nil {
			return nil, 0, false
		}
		cur = n.sub
	}
	return cur, flat[len(flat)-1], true
}

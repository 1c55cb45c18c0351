// Package itree is an interval tree built on the scope-aware red-black tree.
//
// Every node carries the largest upper bound found in its subtree. Insertion
// pushes a new bound up the ancestor chain before rebalancing, and each
// rotation re-derives the bound of the two nodes it moved, so the field is
// exact after every operation. Overlap queries use it to skip subtrees that
// end before the query starts.
package itree

import (
	"cmp"
	"fmt"
	"io"

	"github.com/cbehopkins/scopetree"
	atypes "github.com/cbehopkins/scopetree/allocator/types"
	"github.com/cbehopkins/scopetree/yggdrasil/rbtree"
)

// Range is a closed interval [Low, High].
type Range struct {
	Low  uint64
	High uint64
}

// Overlaps reports whether r and o share at least one point.
func (r Range) Overlaps(o Range) bool {
	return r.Low <= o.High && o.Low <= r.High
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Low, r.High)
}

// compareRanges orders by Low, then High, so intervals sharing a start are
// kept as distinct nodes.
func compareRanges(a, b Range) int {
	if c := cmp.Compare(a.Low, b.Low); c != 0 {
		return c
	}
	return cmp.Compare(a.High, b.High)
}

// Interval is a stored range and its value.
type Interval[V any] struct {
	Range
	Value V
}

type entry[V any] struct {
	maxEdge uint64
	value   V
}

// Tree indexes values by closed uint64 intervals.
type Tree[V any] struct {
	tree *rbtree.Tree[Range, entry[V]]
}

// New creates an interval tree owned by a single scope.
func New[V any](scope atypes.Scope) *Tree[V] {
	return wrap(rbtree.New[Range, entry[V]](scope, compareRanges))
}

// NewDualScope creates an interval tree that empties on working resets and
// ends with its control scope.
func NewDualScope[V any](control, working atypes.Scope) *Tree[V] {
	return wrap(rbtree.NewDualScope[Range, entry[V]](control, working, compareRanges))
}

func wrap[V any](t *rbtree.Tree[Range, entry[V]]) *Tree[V] {
	t.SetAttachHook(propagate[V])
	t.SetRotateHook(func(t *rbtree.Tree[Range, entry[V]], n *rbtree.Node[Range, entry[V]]) {
		recompute(t, n)
	})
	return &Tree[V]{tree: t}
}

// recompute sets n's bound from its own range and its children. It reports
// whether the bound changed.
func recompute[V any](t *rbtree.Tree[Range, entry[V]], n *rbtree.Node[Range, entry[V]]) bool {
	edge := n.Key().High
	if l := t.LeftOf(n); l != nil {
		edge = max(edge, l.Value().maxEdge)
	}
	if r := t.RightOf(n); r != nil {
		edge = max(edge, r.Value().maxEdge)
	}
	e := n.ValuePtr()
	if e.maxEdge == edge {
		return false
	}
	e.maxEdge = edge
	return true
}

// propagate runs on a freshly linked leaf. Ancestors above the first one whose
// bound is unchanged already hold the right value.
func propagate[V any](t *rbtree.Tree[Range, entry[V]], n *rbtree.Node[Range, entry[V]]) {
	recompute(t, n)
	for p := t.ParentOf(n); p != nil; p = t.ParentOf(p) {
		if !recompute(t, p) {
			return
		}
	}
}

// Insert stores value under [low, high]. Re-inserting an identical range
// replaces its value. low must not exceed high.
func (t *Tree[V]) Insert(low, high uint64, value V) {
	if low > high {
		scopetree.Violation("itree.Insert: low %d exceeds high %d", low, high)
	}
	t.tree.InsertFunc(Range{Low: low, High: high}, func(old entry[V], _ bool) entry[V] {
		old.value = value
		return old
	}, compareRanges)
}

// Lookup returns the value stored under exactly [low, high].
func (t *Tree[V]) Lookup(low, high uint64) (V, bool) {
	e, ok := t.tree.Lookup(Range{Low: low, High: high})
	return e.value, ok
}

// FindIntervals returns every stored interval overlapping [low, high],
// ordered by Low then High.
func (t *Tree[V]) FindIntervals(low, high uint64) []Interval[V] {
	var out []Interval[V]
	t.VisitIntervals(low, high, func(iv Interval[V]) bool {
		out = append(out, iv)
		return false
	})
	return out
}

// VisitIntervals calls fn for each interval overlapping [low, high] in order.
// Returning true from fn stops the search. VisitIntervals reports whether it
// was stopped.
func (t *Tree[V]) VisitIntervals(low, high uint64, fn func(Interval[V]) bool) bool {
	if low > high {
		scopetree.Violation("itree.VisitIntervals: low %d exceeds high %d", low, high)
	}
	return t.visit(t.tree.Root(), Range{Low: low, High: high}, fn)
}

func (t *Tree[V]) visit(n *rbtree.Node[Range, entry[V]], q Range, fn func(Interval[V]) bool) bool {
	// Nothing below ends at or after the query start.
	if n == nil || q.Low > n.Value().maxEdge {
		return false
	}
	if t.visit(t.tree.LeftOf(n), q, fn) {
		return true
	}
	r := n.Key()
	if r.Overlaps(q) && !n.Removed() {
		if fn(Interval[V]{Range: r, Value: n.Value().value}) {
			return true
		}
	}
	// Everything to the right starts at or after r.Low.
	if r.Low > q.High {
		return false
	}
	return t.visit(t.tree.RightOf(n), q, fn)
}

// Walk visits every interval in order. Returning true from fn stops the walk.
func (t *Tree[V]) Walk(fn func(Interval[V]) bool) bool {
	return t.tree.Walk(func(r Range, e entry[V]) bool {
		return fn(Interval[V]{Range: r, Value: e.value})
	})
}

// MaxEdge returns the largest High in the tree.
func (t *Tree[V]) MaxEdge() (uint64, bool) {
	root := t.tree.Root()
	if root == nil {
		return 0, false
	}
	return root.Value().maxEdge, true
}

// IsEmpty reports whether the tree holds no intervals.
func (t *Tree[V]) IsEmpty() bool {
	return t.tree.IsEmpty()
}

// Len returns the number of stored intervals.
func (t *Tree[V]) Len() int {
	return t.tree.NodeCount()
}

// Height returns the height of the underlying red-black tree.
func (t *Tree[V]) Height() int {
	return t.tree.Height()
}

// Verify checks the red-black invariants and every node's bound.
func (t *Tree[V]) Verify() error {
	if err := t.tree.Verify(); err != nil {
		return err
	}
	_, err := t.verifyEdges(t.tree.Root())
	return err
}

func (t *Tree[V]) verifyEdges(n *rbtree.Node[Range, entry[V]]) (uint64, error) {
	if n == nil {
		return 0, nil
	}
	want := n.Key().High
	for _, child := range []*rbtree.Node[Range, entry[V]]{t.tree.LeftOf(n), t.tree.RightOf(n)} {
		if child == nil {
			continue
		}
		edge, err := t.verifyEdges(child)
		if err != nil {
			return 0, err
		}
		want = max(want, edge)
	}
	if got := n.Value().maxEdge; got != want {
		return 0, fmt.Errorf("%w: node %v has max edge %d, subtree reaches %d",
			rbtree.ErrInvariant, n.Key(), got, want)
	}
	return want, nil
}

// Format renders the tree with each node's bound.
func (t *Tree[V]) Format() string {
	return t.tree.Format(Range.String, func(e entry[V]) string {
		return fmt.Sprintf("%v (max %d)", e.value, e.maxEdge)
	})
}

// Print writes Format's output to w.
func (t *Tree[V]) Print(w io.Writer) error {
	_, err := io.WriteString(w, t.Format())
	return err
}

// Package rbtree provides a scope-aware red-black tree.
//
// # Core Components
//
// Tree: a red-black tree over any key type ordered by a three-way comparator.
// Nodes live in a slab owned by the tree's working scope; when that scope
// resets the tree empties in O(1) without visiting its nodes.
//
// Uint32Tree: a Tree keyed by uint32 with predecessor lookups and composite
// (hierarchical) keys resolved through nested subtrees.
//
// StringTree: a Tree keyed by byte strings duplicated into the working scope,
// compared case-sensitively or with ASCII case folding.
//
// # Scopes
//
// A tree built with New lives and dies with one scope: after that scope resets
// or is destroyed the tree reads as empty and must not be written again.
//
// A tree built with NewDualScope keeps its control block in a long-lived
// control scope and its nodes in a working scope. Every working reset empties
// the tree, which stays usable for the next generation of data. Resetting or
// destroying the control scope ends the tree and removes its subscription on
// the working scope.
//
// # Usage Example
//
//	file := allocator.MustNew(allocator.Config{Name: "file"})
//	app := allocator.MustNew(allocator.Config{Name: "app"})
//
//	frames := rbtree.NewUint32DualScope[string](app, file)
//	frames.Insert32(10, "setup")
//	frames.Insert32(20, "teardown")
//	cfg, _ := frames.Lookup32LE(15) // "setup"
//
//	file.Reset() // frames is now empty and ready for the next capture
//
// Trees are not safe for concurrent use.
package rbtree

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cbehopkins/scopetree"
	"github.com/cbehopkins/scopetree/allocator/block"
	atypes "github.com/cbehopkins/scopetree/allocator/types"
	"github.com/cbehopkins/scopetree/yggdrasil/types"
)

// slotsPerChunk sizes the node slab chunks.
const slotsPerChunk = 64

type treeState uint8

const (
	stateLive treeState = iota
	// stateExpired: the working scope freed the nodes; reads are empty.
	stateExpired
	// stateDestroyed: the control scope freed the control block.
	stateDestroyed
)

// NodeHook observes structural changes. Augmented trees use it to keep
// derived per-node fields consistent.
type NodeHook[K, V any] func(t *Tree[K, V], n *Node[K, V])

// Tree is a red-black tree whose nodes are owned by a working scope.
type Tree[K, V any] struct {
	working atypes.Scope
	control atypes.Scope
	cmp     types.Compare[K]
	nodes   *block.Slab[Node[K, V]]
	root    scopetree.ObjectId
	count   int

	// dupKey copies a key into the working scope when a node is created.
	dupKey func(atypes.Scope, K) (K, error)

	attachHook NodeHook[K, V]
	rotateHook NodeHook[K, V]

	workingCb atypes.CallbackId
	controlCb atypes.CallbackId

	nested bool
	state  treeState
	logger *zap.Logger
}

// New creates a tree whose control block and nodes both belong to scope.
// cmp is the default comparator used by Insert and Lookup.
func New[K, V any](scope atypes.Scope, cmp types.Compare[K]) *Tree[K, V] {
	if scope == nil {
		scopetree.Violation("rbtree.New: nil scope")
	}
	t := newTree[K, V](scope, scope, cmp)
	t.workingCb = scope.Subscribe(t.onSingleScope)
	return t
}

// NewDualScope creates a tree whose control block lives in control and whose
// nodes live in working. The tree survives working resets.
func NewDualScope[K, V any](control, working atypes.Scope, cmp types.Compare[K]) *Tree[K, V] {
	if control == nil || working == nil {
		scopetree.Violation("rbtree.NewDualScope: nil scope")
	}
	t := newTree[K, V](control, working, cmp)
	t.workingCb = working.Subscribe(t.onWorking)
	t.controlCb = control.Subscribe(t.onControl)
	return t
}

func newTree[K, V any](control, working atypes.Scope, cmp types.Compare[K]) *Tree[K, V] {
	if cmp == nil {
		scopetree.Violation("rbtree: nil comparator")
	}
	nodes, err := block.New[Node[K, V]](slotsPerChunk)
	if err != nil {
		panic(fmt.Errorf("rbtree: node slab: %w", err))
	}
	return &Tree[K, V]{
		working: working,
		control: control,
		cmp:     cmp,
		nodes:   nodes,
		logger:  working.Logger().Named("rbtree"),
	}
}

// newNested creates a subtree sharing this tree's slab, scopes and key
// handling. Nested trees hold no subscriptions: they are reachable only
// through their parent's nodes and vanish with them.
func (t *Tree[K, V]) newNested() *Tree[K, V] {
	return &Tree[K, V]{
		working: t.working,
		control: t.control,
		cmp:     t.cmp,
		nodes:   t.nodes,
		dupKey:  t.dupKey,
		nested:  true,
		logger:  t.logger,
	}
}

// onSingleScope handles both events for a single-scope tree: the nodes and
// the control block are gone together.
func (t *Tree[K, V]) onSingleScope(s atypes.Scope, ev atypes.Event) bool {
	dropped := t.clear()
	t.state = stateExpired
	t.logger.Debug("tree expired with its scope",
		zap.String("scope", s.Name()), zap.Stringer("event", ev), zap.Int("nodes_dropped", dropped))
	return false
}

// onWorking empties the tree when the node scope resets. A destroyed working
// scope also ends the tree's interest in its control scope.
func (t *Tree[K, V]) onWorking(s atypes.Scope, ev atypes.Event) bool {
	dropped := t.clear()
	if ev == atypes.EventDestroy {
		t.state = stateExpired
		if err := t.control.Unsubscribe(t.controlCb); err != nil {
			t.logger.Warn("unsubscribing from control scope", zap.Error(err))
		}
		t.logger.Debug("working scope destroyed", zap.String("scope", s.Name()), zap.Int("nodes_dropped", dropped))
		return false
	}
	t.logger.Debug("tree emptied by working scope reset", zap.String("scope", s.Name()), zap.Int("nodes_dropped", dropped))
	return true
}

// onControl ends the tree when the scope holding its control block is freed.
func (t *Tree[K, V]) onControl(s atypes.Scope, ev atypes.Event) bool {
	if t.state == stateLive {
		if err := t.working.Unsubscribe(t.workingCb); err != nil {
			t.logger.Warn("unsubscribing from working scope", zap.Error(err))
		}
	}
	dropped := t.clear()
	t.state = stateDestroyed
	t.logger.Debug("tree destroyed with its control scope",
		zap.String("scope", s.Name()), zap.Stringer("event", ev), zap.Int("nodes_dropped", dropped))
	return false
}

// clear drops every node in O(chunks). It returns the number of nodes dropped
// across this tree and its nested subtrees.
func (t *Tree[K, V]) clear() int {
	dropped := t.nodes.Len()
	t.root = scopetree.ObjNotAllocated
	t.count = 0
	t.nodes.Reset()
	return dropped
}

func (t *Tree[K, V]) mustBeWritable() {
	switch t.state {
	case stateExpired:
		scopetree.Violation("rbtree: write to a tree whose working scope %q was freed", t.working.Name())
	case stateDestroyed:
		scopetree.Violation("rbtree: write to a tree whose control scope %q was freed", t.control.Name())
	}
}

// SetRotateHook registers h to run after every structural change made by
// rebalancing: for each rotation it runs on the demoted node and then on the
// new local subtree root, and it runs on every recoloured node. Pass nil to clear.
func (t *Tree[K, V]) SetRotateHook(h NodeHook[K, V]) {
	t.rotateHook = h
}

// SetAttachHook registers h to run on a freshly linked node before
// rebalancing starts. Pass nil to clear.
func (t *Tree[K, V]) SetAttachHook(h NodeHook[K, V]) {
	t.attachHook = h
}

func (t *Tree[K, V]) node(id scopetree.ObjectId) *Node[K, V] {
	if !id.IsValid() {
		return nil
	}
	return t.nodes.Get(id)
}

// Root returns the root node, nil for an empty tree.
func (t *Tree[K, V]) Root() *Node[K, V] {
	return t.node(t.root)
}

// LeftOf returns n's left child, nil if absent.
func (t *Tree[K, V]) LeftOf(n *Node[K, V]) *Node[K, V] {
	return t.node(n.left)
}

// RightOf returns n's right child, nil if absent.
func (t *Tree[K, V]) RightOf(n *Node[K, V]) *Node[K, V] {
	return t.node(n.right)
}

// ParentOf returns n's parent, nil for the root.
func (t *Tree[K, V]) ParentOf(n *Node[K, V]) *Node[K, V] {
	return t.node(n.parent)
}

// IsEmpty reports whether the tree has no nodes.
func (t *Tree[K, V]) IsEmpty() bool {
	return !t.root.IsValid()
}

// NodeCount returns the number of nodes at this level of the tree, tombstones
// and subtree selectors included.
func (t *Tree[K, V]) NodeCount() int {
	return t.count
}

// Count returns the number of live values, nested subtrees included.
func (t *Tree[K, V]) Count() int {
	total := 0
	t.Walk(func(K, V) bool {
		total++
		return false
	})
	return total
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[K, V]) Height() int {
	var height func(id scopetree.ObjectId) int
	height = func(id scopetree.ObjectId) int {
		n := t.node(id)
		if n == nil {
			return 0
		}
		return 1 + max(height(n.left), height(n.right))
	}
	return height(t.root)
}

// Scopes returns the control and working scopes. They are the same scope for
// a tree built with New.
func (t *Tree[K, V]) Scopes() (control, working atypes.Scope) {
	return t.control, t.working
}

// Compare returns the tree's default comparator.
func (t *Tree[K, V]) Compare() types.Compare[K] {
	return t.cmp
}

package rbtree

import (
	"fmt"

	"github.com/cbehopkins/scopetree"
	"github.com/cbehopkins/scopetree/yggdrasil/types"
)

// Insert stores value under key using the default comparator. An existing key
// is overwritten in place (and revived if it was removed); the node is returned
// either way.
func (t *Tree[K, V]) Insert(key K, value V) *Node[K, V] {
	return t.InsertCmp(key, value, t.cmp)
}

// InsertCmp is Insert with a caller-supplied comparator. The comparator must
// order keys the same way as every other comparator used on this tree.
func (t *Tree[K, V]) InsertCmp(key K, value V, cmp types.Compare[K]) *Node[K, V] {
	return t.InsertFunc(key, func(V, bool) V { return value }, cmp)
}

// InsertFunc stores fn(old, exists) under key. old is the node's current
// value: the stored value when exists is true, otherwise the zero value or
// whatever an attach hook wrote into the new node.
func (t *Tree[K, V]) InsertFunc(key K, fn func(old V, exists bool) V, cmp types.Compare[K]) *Node[K, V] {
	n, created := t.findOrCreate(key, kindLeaf, cmp)
	if !created && n.kind == kindSubtree {
		scopetree.Violation("rbtree: leaf insert on a key that selects a nested subtree")
	}
	exists := !created && !n.removed
	n.value = fn(n.value, exists)
	n.removed = false
	return n
}

// LookupOrInsert returns the node for key, creating it with create() when
// absent. An existing live node is overwritten with create() only when replace
// is set. inserted reports whether a node was created or revived.
func (t *Tree[K, V]) LookupOrInsert(key K, create func() V, replace bool) (n *Node[K, V], inserted bool) {
	n, created := t.findOrCreate(key, kindLeaf, t.cmp)
	if !created && n.kind == kindSubtree {
		scopetree.Violation("rbtree: leaf insert on a key that selects a nested subtree")
	}
	if created || n.removed || replace {
		inserted = created || n.removed
		n.value = create()
		n.removed = false
	}
	return n, inserted
}

// subtreeFor returns the nested tree selected by key, creating the selector
// node and its tree when absent. A removed leaf is converted in place.
func (t *Tree[K, V]) subtreeFor(key K) *Tree[K, V] {
	n, created := t.findOrCreate(key, kindSubtree, t.cmp)
	if !created && n.kind == kindLeaf {
		if !n.removed {
			scopetree.Violation("rbtree: key prefix is already a leaf, cannot select a nested subtree")
		}
		var zero V
		n.kind = kindSubtree
		n.value = zero
		n.removed = false
	}
	if n.sub == nil {
		n.sub = t.newNested()
	}
	return n.sub
}

// findOrCreate descends to key. On a miss it links a new red node of the given
// kind and rebalances.
func (t *Tree[K, V]) findOrCreate(key K, kind nodeKind, cmp types.Compare[K]) (*Node[K, V], bool) {
	t.mustBeWritable()

	cur := t.node(t.root)
	if cur == nil {
		n := t.newNode(key, kind)
		t.root = n.id
		t.attached(n)
		t.insertFixup(n)
		return n, true
	}
	for {
		c := cmp(key, cur.key)
		if c == 0 {
			return cur, false
		}
		next := cur.right
		if c < 0 {
			next = cur.left
		}
		if !next.IsValid() {
			n := t.newNode(key, kind)
			n.parent = cur.id
			if c < 0 {
				cur.left = n.id
			} else {
				cur.right = n.id
			}
			t.attached(n)
			t.insertFixup(n)
			return n, true
		}
		cur = t.node(next)
	}
}

func (t *Tree[K, V]) newNode(key K, kind nodeKind) *Node[K, V] {
	if t.dupKey != nil {
		dup, err := t.dupKey(t.working, key)
		if err != nil {
			panic(fmt.Errorf("rbtree: copying key into scope %q: %w", t.working.Name(), err))
		}
		key = dup
	}
	id, n := t.nodes.Alloc()
	n.id = id
	n.key = key
	n.color = red
	n.kind = kind
	t.count++
	return n
}

func (t *Tree[K, V]) attached(n *Node[K, V]) {
	if t.attachHook != nil {
		t.attachHook(t, n)
	}
}

func (t *Tree[K, V]) touched(n *Node[K, V]) {
	if t.rotateHook != nil && n != nil {
		t.rotateHook(t, n)
	}
}

func (t *Tree[K, V]) recolor(n *Node[K, V], c color) {
	if n.color != c {
		n.color = c
		t.touched(n)
	}
}

// insertFixup restores the red-black invariants after linking the red node n.
func (t *Tree[K, V]) insertFixup(n *Node[K, V]) {
	for {
		parent := t.node(n.parent)

		// Case 1: n is the root.
		if parent == nil {
			t.recolor(n, black)
			return
		}

		// Case 2: a black parent already satisfies every invariant.
		if parent.color == black {
			return
		}

		// A red parent is never the root, so the grandparent exists.
		grand := t.node(parent.parent)
		uncle := t.node(grand.left)
		if parent.id == grand.left {
			uncle = t.node(grand.right)
		}

		// Case 3: red uncle. Push the blackness down and continue from grand.
		if uncle != nil && uncle.color == red {
			t.recolor(parent, black)
			t.recolor(uncle, black)
			t.recolor(grand, red)
			n = grand
			continue
		}

		// Case 4: bent path. Straighten it so n becomes the outer grandchild.
		if n.id == parent.right && parent.id == grand.left {
			t.rotateLeft(parent)
			n = parent
		} else if n.id == parent.left && parent.id == grand.right {
			t.rotateRight(parent)
			n = parent
		}

		// Case 5: straight path.
		parent = t.node(n.parent)
		grand = t.node(parent.parent)
		t.recolor(parent, black)
		t.recolor(grand, red)
		if n.id == parent.left {
			t.rotateRight(grand)
		} else {
			t.rotateLeft(grand)
		}
		return
	}
}

// replaceChild points old's parent (or the root) at repl.
func (t *Tree[K, V]) replaceChild(old, repl *Node[K, V]) {
	parent := t.node(old.parent)
	repl.parent = old.parent
	switch {
	case parent == nil:
		t.root = repl.id
	case parent.left == old.id:
		parent.left = repl.id
	default:
		parent.right = repl.id
	}
}

// rotateLeft performs a left rotation on the given node.
func (t *Tree[K, V]) rotateLeft(node *Node[K, V]) {
	newRoot := t.node(node.right)
	t.replaceChild(node, newRoot)

	node.right = newRoot.left
	if inner := t.node(newRoot.left); inner != nil {
		inner.parent = node.id
	}
	newRoot.left = node.id
	node.parent = newRoot.id

	t.touched(node)
	t.touched(newRoot)
}

// rotateRight performs a right rotation on the given node.
func (t *Tree[K, V]) rotateRight(node *Node[K, V]) {
	newRoot := t.node(node.left)
	t.replaceChild(node, newRoot)

	node.left = newRoot.right
	if inner := t.node(newRoot.right); inner != nil {
		inner.parent = node.id
	}
	newRoot.right = node.id
	node.parent = newRoot.id

	t.touched(node)
	t.touched(newRoot)
}

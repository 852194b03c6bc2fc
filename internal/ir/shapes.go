package ir

import "github.com/roach88/qgraph/internal/xtype"

// Leaf is a node with no children (True, False, XmlContext, Unknown).
type Leaf struct {
	nodeBase
}

func (n *Leaf) Len() int { return 0 }

func (n *Leaf) Child(i int) Node {
	n.checkIndex(i, 0, "Child")
	return nil
}

func (n *Leaf) SetChild(i int, _ Node) {
	n.checkIndex(i, 0, "SetChild")
}

// Unary is a node with exactly one child.
type Unary struct {
	nodeBase
	child Node
}

func (n *Unary) Len() int { return 1 }

func (n *Unary) Child(i int) Node {
	n.checkIndex(i, 1, "Child")
	return n.child
}

func (n *Unary) SetChild(i int, c Node) {
	n.checkIndex(i, 1, "SetChild")
	checkSlot(n.kind, i, c)
	n.child = c
}

// Operand returns the only child.
func (n *Unary) Operand() Node { return n.child }

// Binary is a node with exactly two children.
type Binary struct {
	nodeBase
	left, right Node
}

func (n *Binary) Len() int { return 2 }

func (n *Binary) Child(i int) Node {
	n.checkIndex(i, 2, "Child")
	if i == 0 {
		return n.left
	}
	return n.right
}

func (n *Binary) SetChild(i int, c Node) {
	n.checkIndex(i, 2, "SetChild")
	checkSlot(n.kind, i, c)
	if i == 0 {
		n.left = c
	} else {
		n.right = c
	}
}

func (n *Binary) Left() Node { return n.left }
func (n *Binary) Right() Node { return n.right }

// Variable returns the binding iterator of a Loop, Filter or Sort.
// It returns nil for every other kind.
func (n *Binary) Variable() *Iterator {
	switch n.kind {
	case KindLoop, KindFilter, KindSort:
		it, _ := n.left.(*Iterator)
		return it
	}
	return nil
}

// Ternary is a node with exactly three children.
type Ternary struct {
	nodeBase
	left, center, right Node
}

func (n *Ternary) Len() int { return 3 }

func (n *Ternary) Child(i int) Node {
	n.checkIndex(i, 3, "Child")
	switch i {
	case 0:
		return n.left
	case 1:
		return n.center
	default:
		return n.right
	}
}

func (n *Ternary) SetChild(i int, c Node) {
	n.checkIndex(i, 3, "SetChild")
	checkSlot(n.kind, i, c)
	switch i {
	case 0:
		n.left = c
	case 1:
		n.center = c
	default:
		n.right = c
	}
}

func (n *Ternary) Left() Node { return n.left }
func (n *Ternary) Center() Node { return n.center }
func (n *Ternary) Right() Node { return n.right }

// List is a node with a variable number of children.
//
// Sequence and BranchList derive their type from their children. The derived
// type is cached; every mutation marks the cache dirty and the next Type call
// recomputes it.
type List struct {
	nodeBase
	items []Node
	dirty bool
}

func (n *List) Len() int { return len(n.items) }

func (n *List) Child(i int) Node {
	n.checkIndex(i, len(n.items), "Child")
	return n.items[i]
}

func (n *List) SetChild(i int, c Node) {
	n.checkIndex(i, len(n.items), "SetChild")
	checkSlot(n.kind, i, c)
	n.items[i] = c
	n.dirty = true
}

// Insert places c at index i, shifting later children right. i may equal
// Len() to append.
func (n *List) Insert(i int, c Node) {
	n.checkIndex(i, len(n.items)+1, "Insert")
	checkSlot(n.kind, i, c)
	n.items = append(n.items, nil)
	copy(n.items[i+1:], n.items[i:])
	n.items[i] = c
	n.dirty = true
}

// Append adds c after the last child.
func (n *List) Append(c Node) { n.Insert(len(n.items), c) }

// RemoveAt removes and returns the child at index i.
func (n *List) RemoveAt(i int) Node {
	n.checkIndex(i, len(n.items), "RemoveAt")
	c := n.items[i]
	copy(n.items[i:], n.items[i+1:])
	n.items[len(n.items)-1] = nil
	n.items = n.items[:len(n.items)-1]
	n.dirty = true
	return c
}

// Children returns a copy of the child slice.
func (n *List) Children() []Node {
	out := make([]Node, len(n.items))
	copy(out, n.items)
	return out
}

// DerivesType reports whether the list's type is computed from its children.
func (n *List) DerivesType() bool {
	return n.kind == KindSequence || n.kind == KindBranchList
}

// Type returns the list type, recomputing a derived type if a mutation
// happened since the last call.
func (n *List) Type() xtype.Type {
	if n.DerivesType() && n.dirty {
		n.typ = n.fold()
		n.dirty = false
	}
	return n.typ
}

// SetType assigns an explicit type. Lists with a derived type reject it.
func (n *List) SetType(t xtype.Type) {
	if n.DerivesType() {
		if t == n.Type() {
			return
		}
		contractf(n.kind, "SetType", "type is derived from children")
	}
	n.typ = t
}

func (n *List) fold() xtype.Type {
	if n.kind == KindSequence {
		t := xtype.Empty
		for _, c := range n.items {
			t = xtype.Concat(t, c.Type())
		}
		return t
	}
	if len(n.items) == 0 {
		return xtype.Empty
	}
	t := n.items[0].Type()
	for _, c := range n.items[1:] {
		t = xtype.Union(t, c.Type())
	}
	return t
}

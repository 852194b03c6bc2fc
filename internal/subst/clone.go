package subst

import "github.com/roach88/qgraph/internal/ir"

// Cloner deep-copies subtrees, applying the substitutions in a List.
//
// References defined inside the copied subtree get fresh clones and every
// use inside the subtree is rewired to the clone. References defined
// outside stay shared. Any node the caller has added to the List is replaced
// wherever it occurs, which is how inlining binds arguments to parameters.
type Cloner struct {
	f    *ir.Factory
	subs *List

	// pending holds definitions whose clone is registered but not filled.
	pending map[ir.Node]bool
}

// NewCloner returns a cloner that allocates through f and consults subs.
// A nil subs starts with no substitutions.
func NewCloner(f *ir.Factory, subs *List) *Cloner {
	if subs == nil {
		subs = &List{}
	}
	return &Cloner{f: f, subs: subs}
}

// Clone returns a deep copy of n. The substitution list is left as it was
// found.
func (c *Cloner) Clone(n ir.Node) ir.Node {
	if n == nil {
		return nil
	}
	c.pending = make(map[ir.Node]bool)

	// Register clones of every definition first so that uses appearing
	// before their definition in document order are rewired too.
	pushed := 0
	ir.Walk(n, func(_ ir.Node, _ int, d ir.Node, ref bool) bool {
		if ref {
			return false
		}
		if _, ok := c.subs.Find(d); ok {
			return false
		}
		if d.Kind().IsReference() {
			c.subs.Add(d, c.f.ShallowClone(d))
			c.pending[d] = true
			pushed++
		}
		return true
	})
	defer c.subs.RemoveLastN(pushed)

	return c.clone(n, false)
}

func (c *Cloner) clone(n ir.Node, ref bool) ir.Node {
	repl, found := c.subs.Find(n)
	if ref {
		if found {
			return repl
		}
		return n
	}

	var cp ir.Node
	switch {
	case c.pending[n]:
		delete(c.pending, n)
		cp = repl
	case found:
		return repl
	default:
		cp = c.f.ShallowClone(n)
	}

	for i := 0; i < n.Len(); i++ {
		if child := n.Child(i); child != nil {
			cp.SetChild(i, c.clone(child, ir.IsReference(n, i)))
		}
	}
	return cp
}

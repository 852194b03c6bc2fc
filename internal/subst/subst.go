// Package subst provides the substitution list used by optimization passes
// for scoped find-and-replace over node graphs.
package subst

import (
	"fmt"

	"github.com/roach88/qgraph/internal/ir"
)

type pair struct {
	find, replace ir.Node
}

// List is an ordered list of (find, replace) pairs. Lookups scan from the
// most recently added pair, so an inner rewrite scope shadows outer ones.
type List struct {
	pairs []pair
}

// Add pushes a pair.
func (l *List) Add(find, replace ir.Node) {
	l.pairs = append(l.pairs, pair{find: find, replace: replace})
}

// RemoveLast pops the most recent pair.
func (l *List) RemoveLast() {
	l.RemoveLastN(1)
}

// RemoveLastN pops the n most recent pairs, typically when leaving a scope.
// Popping more pairs than the list holds empties it; a negative n panics.
func (l *List) RemoveLastN(n int) {
	if n < 0 {
		panic(fmt.Sprintf("subst: RemoveLastN(%d): negative count", n))
	}
	if n > len(l.pairs) {
		n = len(l.pairs)
	}
	clear(l.pairs[len(l.pairs)-n:])
	l.pairs = l.pairs[:len(l.pairs)-n]
}

// Find returns the replacement for n, comparing by identity.
func (l *List) Find(n ir.Node) (ir.Node, bool) {
	for i := len(l.pairs) - 1; i >= 0; i-- {
		if ir.SameNode(l.pairs[i].find, n) {
			return l.pairs[i].replace, true
		}
	}
	return nil, false
}

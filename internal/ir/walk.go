package ir

// IsReference reports whether parent.Child(i) is a use of a reference
// rather than the place where the reference is defined.
//
// Definitions sit in child 0 of Loop, Filter and Sort, in every slot of the
// global variable, global parameter, formal parameter and function lists.
// A Function is a use only as the target of an Invoke. Everywhere else a
// Reference is a use.
func IsReference(parent Node, i int) bool {
	child := parent.Child(i)
	if child == nil || !child.Kind().IsReference() {
		return false
	}
	switch parent.Kind() {
	case KindLoop, KindFilter, KindSort:
		return i != 0
	case KindGlobalVariableList, KindGlobalParameterList, KindFormalParameterList, KindFunctionList:
		return false
	case KindInvoke:
		return true
	}
	return child.Kind() != KindFunction
}

// VisitFunc is called for every edge of the graph. parent is nil for the
// root. Returning false skips the children of n.
type VisitFunc func(parent Node, index int, n Node, ref bool) bool

// Walk visits root and its descendants in document order. Reference uses
// are reported but not descended into, so recursion terminates.
func Walk(root Node, visit VisitFunc) {
	if root == nil {
		return
	}
	if visit(nil, -1, root, false) {
		walkChildren(root, visit)
	}
}

func walkChildren(n Node, visit VisitFunc) {
	for i := 0; i < n.Len(); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		ref := IsReference(n, i)
		if visit(n, i, c, ref) && !ref {
			walkChildren(c, visit)
		}
	}
}

// Count returns the number of distinct nodes reachable from root by
// Walk, counting each reference definition once.
func Count(root Node) int {
	seen := make(map[Node]bool)
	Walk(root, func(_ Node, _ int, n Node, ref bool) bool {
		if ref {
			return false
		}
		seen[n] = true
		return true
	})
	return len(seen)
}

package ir

import "fmt"

// ValidationResult contains the structural diagnostics of a graph.
type ValidationResult struct {
	// Valid is true when no diagnostics were found.
	Valid bool

	// Warnings lists every problem found, in document order.
	Warnings []string
}

// Validate checks a graph for structural problems that the constructors
// cannot catch one node at a time:
//
//  1. nil children outside optional slots
//  2. references used but never defined in the graph
//  3. references defined more than once
//  4. Invoke targets missing from the program function list
//  5. Program slots holding the wrong node kind
//
// Validate is a pure function with no side effects.
func Validate(root Node) ValidationResult {
	v := &validator{
		warnings: []string{},
		defined:  make(map[Node]int),
	}
	v.validate(root)

	return ValidationResult{
		Valid:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
	defined  map[Node]int
	used     []Node
	invoked  []*Function
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validate(root Node) {
	if root == nil {
		v.addWarning("nil root")
		return
	}

	if p, ok := root.(*Program); ok {
		v.validateProgram(p)
	}

	Walk(root, func(parent Node, i int, n Node, ref bool) bool {
		if ref {
			v.used = append(v.used, n)
			if parent.Kind() == KindInvoke {
				v.invoked = append(v.invoked, n.(*Function))
			}
			return false
		}
		if n.Kind().IsReference() {
			v.defined[n]++
			if v.defined[n] == 2 {
				v.addWarning("%s %s defined more than once", n.Kind(), describe(n))
			}
		}
		v.validateChildren(n)
		return true
	})

	reported := make(map[Node]bool)
	for _, n := range v.used {
		if v.defined[n] == 0 && !reported[n] {
			reported[n] = true
			v.addWarning("%s %s used but never defined", n.Kind(), describe(n))
		}
	}

	if p, ok := root.(*Program); ok {
		v.validateInvokes(p)
	}
}

func (v *validator) validateChildren(n Node) {
	for i := 0; i < n.Len(); i++ {
		if n.Child(i) != nil {
			continue
		}
		if n.Kind() == KindParameter && i == 1 {
			continue
		}
		v.addWarning("%s %s has nil child at index %d", n.Kind(), describe(n), i)
	}
}

func (v *validator) validateProgram(p *Program) {
	for i := 0; i < p.Len(); i++ {
		c := p.Child(i)
		if c == nil {
			continue
		}
		want := programSlotKinds[i]
		if want == nil {
			continue
		}
		ok := false
		for _, k := range want {
			ok = ok || c.Kind() == k
		}
		if !ok {
			v.addWarning("Program slot %d holds %s, expected %v", i, c.Kind(), want)
		}
	}
}

func (v *validator) validateInvokes(p *Program) {
	fns := p.Functions()
	if fns == nil {
		return
	}
	listed := make(map[Node]bool, fns.Len())
	for _, fn := range fns.items {
		listed[fn] = true
	}
	reported := make(map[Node]bool)
	for _, fn := range v.invoked {
		if !listed[fn] && !reported[fn] {
			reported[fn] = true
			v.addWarning("Invoke target %s is not in the function list", describe(fn))
		}
	}
}

// describe names a node for diagnostics.
func describe(n Node) string {
	if r, ok := n.(Reference); ok && r.DebugName() != "" {
		return fmt.Sprintf("#%d (%s)", n.ID(), r.DebugName())
	}
	return fmt.Sprintf("#%d", n.ID())
}

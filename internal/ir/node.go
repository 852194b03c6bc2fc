package ir

import (
	"fmt"

	"github.com/roach88/qgraph/internal/xtype"
)

// NodeID is the stable handle of a node inside its factory's Arena.
// Zero is never assigned.
type NodeID uint32

// NoNodeID is the invalid handle.
const NoNodeID NodeID = 0

// IsValid reports whether id was assigned by an Arena.
func (id NodeID) IsValid() bool { return id != NoNodeID }

// Node is one vertex of the program graph.
//
// This is a sealed interface: only the shapes in this package implement it,
// so a type switch over *Leaf, *Unary, *Binary, *Ternary, *List, *Literal,
// *Name, *Iterator, *Parameter, *Function and *Program is exhaustive.
//
// Child and SetChild panic with *ContractError when the index is outside
// [0, Len()).
type Node interface {
	Kind() Kind
	ID() NodeID

	Type() xtype.Type
	SetType(xtype.Type)

	Source() SourceRange
	SetSource(SourceRange)

	// Annotation is an opaque slot for optimization passes.
	Annotation() any
	SetAnnotation(any)

	Len() int
	Child(i int) Node
	SetChild(i int, child Node)

	base() *nodeBase
}

type nodeBase struct {
	kind Kind
	id   NodeID
	typ  xtype.Type
	src  SourceRange
	ann  any
}

func (b *nodeBase) base() *nodeBase { return b }
func (b *nodeBase) Kind() Kind { return b.kind }
func (b *nodeBase) ID() NodeID { return b.id }
func (b *nodeBase) Type() xtype.Type { return b.typ }
func (b *nodeBase) SetType(t xtype.Type) { b.typ = t }
func (b *nodeBase) Source() SourceRange { return b.src }
func (b *nodeBase) SetSource(r SourceRange) { b.src = r }
func (b *nodeBase) Annotation() any { return b.ann }
func (b *nodeBase) SetAnnotation(a any) { b.ann = a }
func (b *nodeBase) checkIndex(i, n int, op string) {
	if i < 0 || i >= n {
		contractf(b.kind, op, "index %d out of range [0,%d)", i, n)
	}
}

// SameNode reports whether a and b are the same node. References are only
// ever compared this way, never structurally.
func SameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ID().IsValid() && b.ID().IsValid() {
		return a.ID() == b.ID() && a == b
	}
	return a == b
}

// SourceRange is the source span a node was produced from.
// The zero value means "unknown".
type SourceRange struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

// IsZero reports whether r carries no location.
func (r SourceRange) IsZero() bool { return r == SourceRange{} }

// String renders r as "[l,c -- l,c]".
func (r SourceRange) String() string {
	return fmt.Sprintf("[%d,%d -- %d,%d]", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// ParseSourceRange reads a range rendered by SourceRange.String.
func ParseSourceRange(s string) (SourceRange, error) {
	var r SourceRange
	_, err := fmt.Sscanf(s, "[%d,%d -- %d,%d]", &r.StartLine, &r.StartCol, &r.EndLine, &r.EndCol)
	if err != nil {
		return SourceRange{}, fmt.Errorf("parse source range %q: %w", s, err)
	}
	return r, nil
}

// ContractError is raised (via panic) when a producer violates a structural
// contract: bad child index, wrong node kind in a typed slot, or an operand
// whose type cannot appear in its position. These indicate a bug in the code
// building the graph and are never retried.
type ContractError struct {
	Kind    Kind
	Op      string
	Message string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Op, e.Message)
}

func contractf(k Kind, op, format string, args ...any) {
	panic(&ContractError{Kind: k, Op: op, Message: fmt.Sprintf(format, args...)})
}

// checkSlot enforces the kind-specific requirements on what may be placed in
// child slot i of a parent of kind k. nil is accepted only where the slot is
// optional.
func checkSlot(k Kind, i int, child Node) {
	if child == nil {
		if k == KindParameter && i == 1 {
			return
		}
		contractf(k, "SetChild", "nil child at index %d", i)
	}

	switch k {
	case KindLoop, KindFilter, KindSort:
		if i == 0 {
			requireIterator(k, child)
		}
		if k == KindSort && i == 1 {
			requireKind(k, child, KindSortKeyList)
		}
	case KindInvoke:
		if i == 0 {
			if _, ok := child.(*Function); !ok {
				contractf(k, "SetChild", "function operand must be a Function, got %s", child.Kind())
			}
		} else {
			requireKind(k, child, KindActualParameterList)
		}
	case KindPositionOf:
		requireIterator(k, child)
	case KindChoice:
		if i == 1 {
			requireKind(k, child, KindBranchList)
		}
	case KindFunction:
		switch i {
		case 0:
			requireKind(k, child, KindFormalParameterList)
		case 2:
			requireKind(k, child, KindTrue, KindFalse)
		}
	case KindParameter:
		if i == 1 {
			requireKind(k, child, KindLiteralQName)
		}
	case KindTypeAssert, KindIsType, KindXsltConvert:
		if i == 1 {
			requireKind(k, child, KindLiteralType)
		}
	case KindFunctionList:
		requireKind(k, child, KindFunction)
	case KindGlobalVariableList:
		requireKind(k, child, KindLet)
	case KindGlobalParameterList, KindFormalParameterList:
		requireKind(k, child, KindParameter)
	case KindSortKeyList:
		requireKind(k, child, KindSortKey)
	case KindProgram:
		checkProgramSlot(i, child)
	}
}

func requireIterator(k Kind, n Node) {
	if _, ok := n.(*Iterator); !ok {
		contractf(k, "SetChild", "binding operand must be an Iterator, got %s", n.Kind())
	}
}

func requireKind(k Kind, n Node, want ...Kind) {
	for _, w := range want {
		if n.Kind() == w {
			return
		}
	}
	contractf(k, "SetChild", "expected %v, got %s", want, n.Kind())
}

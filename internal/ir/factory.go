package ir

import (
	"log/slog"

	"github.com/roach88/qgraph/internal/xtype"
)

// Factory creates nodes. Each Factory owns one Arena; graphs built by
// different factories share no mutable state.
//
// Factory is not safe for concurrent use.
type Factory struct {
	arena *Arena
	trace []func(Node)
}

// Option configures a Factory.
type Option func(*Factory)

// WithTrace registers fn to be called with every node the factory creates.
func WithTrace(fn func(Node)) Option {
	return func(f *Factory) {
		f.trace = append(f.trace, fn)
	}
}

// WithLogger logs every created node at debug level.
func WithLogger(logger *slog.Logger) Option {
	return WithTrace(func(n Node) {
		logger.Debug("node created",
			"kind", n.Kind().String(),
			"id", n.ID(),
			"type", n.Type().String())
	})
}

// NewFactory returns a factory with a fresh arena.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{arena: NewArena()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Arena returns the arena holding every node this factory created.
func (f *Factory) Arena() *Arena { return f.arena }

// track is the single funnel every construction goes through.
func track[N Node](f *Factory, n N) N {
	b := n.base()
	b.id = f.arena.register(n)
	for _, fn := range f.trace {
		fn(n)
	}
	return n
}

func requireShape(k Kind, want Shape) {
	if !k.IsValid() {
		contractf(k, "New", "invalid kind")
	}
	if k.Shape() != want {
		contractf(k, "New", "kind has shape %d, constructor builds shape %d", k.Shape(), want)
	}
}

// NewLeaf creates a childless node of kind k.
func (f *Factory) NewLeaf(k Kind, t xtype.Type) *Leaf {
	requireShape(k, ShapeLeaf)
	return track(f, &Leaf{nodeBase: nodeBase{kind: k, typ: t}})
}

// NewUnary creates a one-child node of kind k.
func (f *Factory) NewUnary(k Kind, child Node, t xtype.Type) *Unary {
	requireShape(k, ShapeUnary)
	n := &Unary{nodeBase: nodeBase{kind: k, typ: t}}
	n.SetChild(0, child)
	return track(f, n)
}

// NewBinary creates a two-child node of kind k.
func (f *Factory) NewBinary(k Kind, left, right Node, t xtype.Type) *Binary {
	requireShape(k, ShapeBinary)
	n := &Binary{nodeBase: nodeBase{kind: k, typ: t}}
	n.SetChild(0, left)
	n.SetChild(1, right)
	return track(f, n)
}

// NewTernary creates a three-child node of kind k.
func (f *Factory) NewTernary(k Kind, left, center, right Node, t xtype.Type) *Ternary {
	requireShape(k, ShapeTernary)
	n := &Ternary{nodeBase: nodeBase{kind: k, typ: t}}
	n.SetChild(0, left)
	n.SetChild(1, center)
	n.SetChild(2, right)
	return track(f, n)
}

// NewList creates a list node of kind k. t is ignored for Sequence and
// BranchList, whose type is derived from the items.
func (f *Factory) NewList(k Kind, t xtype.Type, items ...Node) *List {
	requireShape(k, ShapeList)
	n := &List{nodeBase: nodeBase{kind: k, typ: t}, items: make([]Node, 0, len(items))}
	for _, it := range items {
		n.Append(it)
	}
	n.dirty = true
	return track(f, n)
}

// NewLiteral creates a literal node of kind k with payload v.
func (f *Factory) NewLiteral(k Kind, v any, t xtype.Type) *Literal {
	requireShape(k, ShapeLiteral)
	return track(f, &Literal{nodeBase: nodeBase{kind: k, typ: t}, value: v})
}

// NewIterator creates a For or Let binding.
func (f *Factory) NewIterator(k Kind, binding Node, t xtype.Type) *Iterator {
	requireShape(k, ShapeIterator)
	n := &Iterator{nodeBase: nodeBase{kind: k, typ: t}}
	n.SetChild(0, binding)
	return track(f, n)
}

// NewParameter creates a parameter. name may be nil.
func (f *Factory) NewParameter(defaultValue Node, name *Name, t xtype.Type) *Parameter {
	n := &Parameter{nodeBase: nodeBase{kind: KindParameter, typ: t}}
	n.SetChild(0, defaultValue)
	if name != nil {
		n.SetChild(1, name)
	}
	return track(f, n)
}

// NewFunction creates a function with declared return type t.
func (f *Factory) NewFunction(args *List, definition, sideEffects Node, t xtype.Type) *Function {
	n := &Function{nodeBase: nodeBase{kind: KindFunction, typ: t}}
	n.SetChild(FunctionArguments, args)
	n.SetChild(FunctionDefinition, definition)
	n.SetChild(FunctionSideEffects, sideEffects)
	return track(f, n)
}

// ShallowClone copies n into a new node with a new handle. Children are
// shared, not copied; a List gets its own backing slice so later inserts on
// either side stay private.
func (f *Factory) ShallowClone(n Node) Node {
	var c Node
	switch n := n.(type) {
	case *Leaf:
		cp := *n
		c = &cp
	case *Unary:
		cp := *n
		c = &cp
	case *Binary:
		cp := *n
		c = &cp
	case *Ternary:
		cp := *n
		c = &cp
	case *List:
		cp := *n
		cp.items = append([]Node(nil), n.items...)
		c = &cp
	case *Literal:
		cp := *n
		c = &cp
	case *Name:
		cp := *n
		c = &cp
	case *Iterator:
		cp := *n
		c = &cp
	case *Parameter:
		cp := *n
		c = &cp
	case *Function:
		cp := *n
		c = &cp
	case *Program:
		cp := *n
		c = &cp
	default:
		contractf(KindUnknown, "ShallowClone", "unsupported node %T", n)
	}
	return track(f, c)
}

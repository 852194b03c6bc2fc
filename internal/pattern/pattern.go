// Package pattern provides the construction façade used by front ends.
//
// A pattern Factory embeds an ir.Factory and shadows the constructors that
// have algebraic folding rules: boolean operators, conditionals, choices,
// loops, filters, sequences, string concatenation and document-order
// sorting. Every other constructor is the embedded one, unchanged.
//
// In debug mode no folding happens, so the graph mirrors the source
// structure one to one. Tooling that shows the graph to users runs in debug
// mode.
package pattern

import (
	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/xtype"
)

// Factory builds nodes, folding where the operands are statically known.
type Factory struct {
	*ir.Factory
	debug bool
}

// Option configures a Factory.
type Option func(*Factory)

// Debug disables every folding rule.
func Debug() Option {
	return func(p *Factory) { p.debug = true }
}

// WithDebug sets debug mode from a flag.
func WithDebug(on bool) Option {
	return func(p *Factory) { p.debug = on }
}

// New wraps f.
func New(f *ir.Factory, opts ...Option) *Factory {
	p := &Factory{Factory: f}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsDebug reports whether folding is disabled.
func (p *Factory) IsDebug() bool { return p.debug }

// Base returns the underlying node factory.
func (p *Factory) Base() *ir.Factory { return p.Factory }

// Program creates a program root and records the debug mode on it.
func (p *Factory) Program(root ir.Node) *ir.Program {
	prog := p.Factory.Program(root)
	if p.debug {
		prog.SetChild(ir.ProgramDebug, p.Factory.True())
	}
	return prog
}

//-----------------------------------------------------------------------------
// Literal shorthands

// Boolean returns a True or False leaf.
func (p *Factory) Boolean(b bool) ir.Node {
	if b {
		return p.Factory.True()
	}
	return p.Factory.False()
}

func (p *Factory) Int(i int32) ir.Node { return p.LiteralInt32(i) }

func (p *Factory) Integer(i int64) ir.Node { return p.LiteralInt64(i) }

func (p *Factory) Double(d float64) ir.Node { return p.LiteralDouble(d) }

func (p *Factory) Str(s string) ir.Node { return p.LiteralString(s) }

// Empty returns the canonical empty sequence.
func (p *Factory) Empty() ir.Node { return p.Factory.Sequence() }

//-----------------------------------------------------------------------------
// Boolean operators

func (p *Factory) And(left, right ir.Node) ir.Node {
	ir.RequireBoolean(ir.KindAnd, left)
	ir.RequireBoolean(ir.KindAnd, right)
	if !p.debug {
		// true and x = x, x and false = false
		if left.Kind() == ir.KindTrue || right.Kind() == ir.KindFalse {
			return right
		}
		// false and x = false, x and true = x
		if left.Kind() == ir.KindFalse || right.Kind() == ir.KindTrue {
			return left
		}
	}
	return p.Factory.And(left, right)
}

func (p *Factory) Or(left, right ir.Node) ir.Node {
	ir.RequireBoolean(ir.KindOr, left)
	ir.RequireBoolean(ir.KindOr, right)
	if !p.debug {
		// true or x = true, x or false = x
		if left.Kind() == ir.KindTrue || right.Kind() == ir.KindFalse {
			return left
		}
		// false or x = x, x or true = true
		if left.Kind() == ir.KindFalse || right.Kind() == ir.KindTrue {
			return right
		}
	}
	return p.Factory.Or(left, right)
}

func (p *Factory) Not(child ir.Node) ir.Node {
	ir.RequireBoolean(ir.KindNot, child)
	if !p.debug {
		switch child.Kind() {
		case ir.KindTrue:
			return p.Factory.False()
		case ir.KindFalse:
			return p.Factory.True()
		case ir.KindNot:
			return child.Child(0)
		}
	}
	return p.Factory.Not(child)
}

//-----------------------------------------------------------------------------
// Choice

func (p *Factory) Conditional(cond, then, els ir.Node) ir.Node {
	ir.RequireBoolean(ir.KindConditional, cond)
	if !p.debug {
		switch cond.Kind() {
		case ir.KindTrue:
			return then
		case ir.KindFalse:
			return els
		case ir.KindNot:
			return p.Conditional(cond.Child(0), els, then)
		}
	}
	return p.Factory.Conditional(cond, then, els)
}

// Choice selects a branch by the integer value of selector.
//
// A single branch becomes a Loop over a Let of the selector; two branches
// become a Conditional testing selector = 0. The single-branch form drops
// the selector's value, so it is only equivalent when evaluating the
// selector has no observable effect.
func (p *Factory) Choice(selector ir.Node, branches *ir.List) ir.Node {
	if !p.debug {
		switch branches.Len() {
		case 1:
			return p.Factory.Loop(p.Factory.Let(selector), branches.Child(0))
		case 2:
			return p.Factory.Conditional(
				p.Factory.Eq(selector, p.Int(0)),
				branches.Child(0),
				branches.Child(1))
		}
	}
	return p.Factory.Choice(selector, branches)
}

//-----------------------------------------------------------------------------
// Collections

// Sequence returns the empty sequence for no items, the item itself for one
// item, and a Sequence list otherwise.
func (p *Factory) Sequence(items ...ir.Node) ir.Node {
	if len(items) == 1 && !p.debug {
		return items[0]
	}
	return p.Factory.Sequence(items...)
}

func (p *Factory) Length(child ir.Node) ir.Node {
	if !p.debug && isEmptySequence(child) {
		return p.Int(0)
	}
	return p.Factory.Length(child)
}

func (p *Factory) IsEmpty(child ir.Node) ir.Node {
	if !p.debug && isEmptySequence(child) {
		return p.Factory.True()
	}
	return p.Factory.IsEmpty(child)
}

func isEmptySequence(n ir.Node) bool {
	return n.Kind() == ir.KindSequence && n.Len() == 0
}

//-----------------------------------------------------------------------------
// Strings

// StrConcat concatenates values with no delimiter. A single singleton value
// is returned as is.
func (p *Factory) StrConcat(values ...ir.Node) ir.Node {
	if !p.debug && len(values) == 1 && values[0].Type().IsSingleton() {
		return values[0]
	}
	return p.Factory.StrConcat(p.Str(""), p.Sequence(values...))
}

// StrJoin concatenates values separated by delimiter.
func (p *Factory) StrJoin(delimiter ir.Node, values ...ir.Node) ir.Node {
	return p.Factory.StrConcat(delimiter, p.Sequence(values...))
}

//-----------------------------------------------------------------------------
// Loops and sorting

// Loop evaluates body once per binding of v. A loop whose body is the
// variable itself is the binding.
func (p *Factory) Loop(v *ir.Iterator, body ir.Node) ir.Node {
	if !p.debug && ir.SameNode(body, v) {
		return v.Binding()
	}
	return p.Factory.Loop(v, body)
}

// Filter keeps the bindings of v for which body is true. A filter that is
// always true is the binding; an always-false filter is kept because the
// binding may still have effects.
func (p *Factory) Filter(v *ir.Iterator, body ir.Node) ir.Node {
	ir.RequireBoolean(ir.KindFilter, body)
	if !p.debug && body.Kind() == ir.KindTrue {
		return v.Binding()
	}
	return p.Factory.Filter(v, body)
}

// DocOrderDistinct sorts child into document order without duplicates. A
// child already in that order is returned unchanged.
func (p *Factory) DocOrderDistinct(child ir.Node) ir.Node {
	if !p.debug && (child.Kind() == ir.KindDocOrderDistinct || child.Type().DocOrder) {
		return child
	}
	return p.Factory.DocOrderDistinct(child)
}

//-----------------------------------------------------------------------------
// Functions

// Function creates a function with the given formal parameters.
func (p *Factory) Function(args []ir.Node, body ir.Node, sideEffects bool, t xtype.Type) *ir.Function {
	return p.Factory.Function(p.FormalParameterList(args...), body, p.Boolean(sideEffects), t)
}

// Invoke calls fn with args.
func (p *Factory) Invoke(fn *ir.Function, args ...ir.Node) ir.Node {
	return p.Factory.Invoke(fn, p.ActualParameterList(args...))
}

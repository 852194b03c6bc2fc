package fixture

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/pattern"
	"github.com/roach88/qgraph/internal/xtype"
)

// opFunc compiles an expression struct. expr is the whole struct, arg the
// value of its operator field.
type opFunc func(c *compiler, expr, arg cue.Value) (ir.Node, error)

type operator struct {
	compile opFunc
	extra   []string // fields allowed next to the operator
}

var operators map[string]operator

func init() {
	operators = map[string]operator{
		// literals
		"int":     {compile: intLiteral},
		"long":    {compile: longLiteral},
		"double":  {compile: doubleLiteral},
		"decimal": {compile: decimalLiteral},
		"string":  {compile: stringLiteral},
		"bool":    {compile: boolLiteral},
		"qname":   {compile: qnameLiteral},
		"empty":   {compile: func(c *compiler, _, _ cue.Value) (ir.Node, error) { return c.p.Empty(), nil }},
		"context": {compile: func(c *compiler, _, _ cue.Value) (ir.Node, error) { return c.p.XmlContext(), nil }},
		"unknown": {compile: unknownNode},
		"ref":     {compile: ref},

		// boolean
		"and": binary((*pattern.Factory).And),
		"or":  binary((*pattern.Factory).Or),
		"not": unary((*pattern.Factory).Not),

		// choice
		"cond":   {compile: conditional},
		"choice": {compile: choice},

		// collections
		"seq":     {compile: sequence},
		"length":  unary((*pattern.Factory).Length),
		"isEmpty": unary((*pattern.Factory).IsEmpty),
		"union":   binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Union(a, b) }),
		"intersect": binary(func(p *pattern.Factory, a, b ir.Node) ir.Node {
			return p.Intersection(a, b)
		}),
		"except": binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Difference(a, b) }),
		"sum":    unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Sum(a) }),
		"avg":    unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Average(a) }),
		"min":    unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Minimum(a) }),
		"max":    unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Maximum(a) }),

		// arithmetic
		"negate": unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Negate(a) }),
		"add":    binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Add(a, b) }),
		"sub":    binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Subtract(a, b) }),
		"mul":    binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Multiply(a, b) }),
		"div":    binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Divide(a, b) }),
		"mod":    binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Modulo(a, b) }),

		// strings
		"concat":    {compile: concat},
		"join":      {compile: join},
		"strLength": unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.StrLength(a) }),

		// comparison
		"eq":     binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Eq(a, b) }),
		"ne":     binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Ne(a, b) }),
		"lt":     binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Lt(a, b) }),
		"le":     binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Le(a, b) }),
		"gt":     binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Gt(a, b) }),
		"ge":     binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Ge(a, b) }),
		"is":     binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Is(a, b) }),
		"before": binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Before(a, b) }),
		"after":  binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.After(a, b) }),

		// iteration
		"loop":   {compile: loop},
		"filter": {compile: filter},
		"ddo":    unary((*pattern.Factory).DocOrderDistinct),

		// functions
		"invoke": {compile: invoke, extra: []string{"args"}},

		// navigation and construction
		"content":    unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Content(a) }),
		"parent":     unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Parent(a) }),
		"root":       unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Root(a) }),
		"descendant": unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Descendant(a) }),
		"ancestor":   unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Ancestor(a) }),
		"attribute":  binary(func(p *pattern.Factory, a, b ir.Node) ir.Node { return p.Attribute(a, b) }),
		"element":    {compile: element},
		"text":       unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.TextCtor(a) }),
		"document":   unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.DocumentCtor(a) }),
		"nameOf":     unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.NameOf(a) }),
		"localName":  unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.LocalNameOf(a) }),

		// types
		"typeAssert": {compile: typed(func(p *pattern.Factory, a ir.Node, t xtype.Type) ir.Node { return p.TypeAssert(a, t) })},
		"isType":     {compile: typed(func(p *pattern.Factory, a ir.Node, t xtype.Type) ir.Node { return p.IsType(a, t) })},
		"convert":    {compile: typed(func(p *pattern.Factory, a ir.Node, t xtype.Type) ir.Node { return p.XsltConvert(a, t) })},

		// specials
		"error":   unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Error(a) }),
		"warning": unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Warning(a) }),
		"nop":     unary(func(p *pattern.Factory, a ir.Node) ir.Node { return p.Nop(a) }),
	}
}

// expr compiles one expression struct.
func (c *compiler) expr(v cue.Value) (ir.Node, error) {
	c.pos = v
	iter, err := v.Fields()
	if err != nil {
		return nil, schemaError(v, "expression must be a struct")
	}

	var name string
	var labels []string
	for iter.Next() {
		label := iter.Label()
		labels = append(labels, label)
		if _, ok := operators[label]; ok {
			if name != "" {
				return nil, &LoadError{Code: ErrCodeOperator, Message: fmt.Sprintf("expression has two operators: %s and %s", name, label), Pos: v.Pos()}
			}
			name = label
		}
	}
	if name == "" {
		return nil, &LoadError{Code: ErrCodeOperator, Message: fmt.Sprintf("no operator among fields [%s]", strings.Join(labels, ", ")), Pos: v.Pos()}
	}

	op := operators[name]
	for _, label := range labels {
		if label != name && !slices.Contains(op.extra, label) {
			return nil, &LoadError{Code: ErrCodeOperator, Message: fmt.Sprintf("field %q is not allowed with %s", label, name), Pos: v.Pos()}
		}
	}

	arg := v.LookupPath(cue.MakePath(cue.Str(name)))
	n, err := op.compile(c, v, arg)
	if err != nil {
		return nil, err
	}
	// Folding may hand back an operand, and refs return the shared
	// definition; neither gets this expression's position.
	if name != "ref" && n.Source().IsZero() {
		n.SetSource(sourceOf(v))
	}
	return n, nil
}

// exprs compiles a list of expressions.
func (c *compiler) exprs(v cue.Value) ([]ir.Node, error) {
	iter, err := v.List()
	if err != nil {
		return nil, schemaError(v, "expected a list of expressions")
	}
	var out []ir.Node
	for iter.Next() {
		n, err := c.expr(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// exactly compiles a list that must hold n expressions.
func (c *compiler) exactly(v cue.Value, n int) ([]ir.Node, error) {
	ops, err := c.exprs(v)
	if err != nil {
		return nil, err
	}
	if len(ops) != n {
		return nil, schemaError(v, fmt.Sprintf("expected %d operands, got %d", n, len(ops)))
	}
	return ops, nil
}

func (c *compiler) field(v cue.Value, name string) (ir.Node, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, schemaError(v, name+" is required")
	}
	return c.expr(fv)
}

// sourceOf maps the CUE position of v to a zero-width source range.
func sourceOf(v cue.Value) ir.SourceRange {
	pos := v.Pos()
	if !pos.IsValid() {
		return ir.SourceRange{}
	}
	return ir.SourceRange{StartLine: pos.Line(), StartCol: pos.Column(), EndLine: pos.Line(), EndCol: pos.Column()}
}

//-----------------------------------------------------------------------------
// Shapes

func unary(fn func(p *pattern.Factory, a ir.Node) ir.Node) operator {
	return operator{compile: func(c *compiler, _, arg cue.Value) (ir.Node, error) {
		a, err := c.expr(arg)
		if err != nil {
			return nil, err
		}
		c.pos = arg
		return fn(c.p, a), nil
	}}
}

func binary(fn func(p *pattern.Factory, a, b ir.Node) ir.Node) operator {
	return operator{compile: func(c *compiler, _, arg cue.Value) (ir.Node, error) {
		ops, err := c.exactly(arg, 2)
		if err != nil {
			return nil, err
		}
		c.pos = arg
		return fn(c.p, ops[0], ops[1]), nil
	}}
}

func typed(fn func(p *pattern.Factory, a ir.Node, t xtype.Type) ir.Node) opFunc {
	return func(c *compiler, _, arg cue.Value) (ir.Node, error) {
		a, err := c.field(arg, "expr")
		if err != nil {
			return nil, err
		}
		t, err := c.typeField(arg, "type")
		if err != nil {
			return nil, err
		}
		c.pos = arg
		return fn(c.p, a, t), nil
	}
}

//-----------------------------------------------------------------------------
// Literals

func intLiteral(c *compiler, _, arg cue.Value) (ir.Node, error) {
	i, err := arg.Int64()
	if err != nil || i < math.MinInt32 || i > math.MaxInt32 {
		return nil, schemaError(arg, "int must be a 32-bit integer")
	}
	return c.p.Int(int32(i)), nil
}

func longLiteral(c *compiler, _, arg cue.Value) (ir.Node, error) {
	i, err := arg.Int64()
	if err != nil {
		return nil, schemaError(arg, "long must be a 64-bit integer")
	}
	return c.p.Integer(i), nil
}

func doubleLiteral(c *compiler, _, arg cue.Value) (ir.Node, error) {
	if s, err := arg.String(); err == nil {
		v, perr := ir.ParseLiteral(ir.KindLiteralDouble, s)
		if perr != nil {
			return nil, schemaError(arg, perr.Error())
		}
		return c.p.Double(v.(float64)), nil
	}
	f, err := arg.Float64()
	if err != nil {
		return nil, schemaError(arg, "double must be a number or INF, -INF, NaN")
	}
	return c.p.Double(f), nil
}

func decimalLiteral(c *compiler, _, arg cue.Value) (ir.Node, error) {
	s, err := arg.String()
	if err != nil {
		return nil, schemaError(arg, "decimal must be written as a string")
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, schemaError(arg, fmt.Sprintf("decimal %q: %v", s, err))
	}
	return c.p.LiteralDecimal(d), nil
}

func stringLiteral(c *compiler, _, arg cue.Value) (ir.Node, error) {
	s, err := arg.String()
	if err != nil {
		return nil, schemaError(arg, "string must be a string")
	}
	return c.p.Str(s), nil
}

func boolLiteral(c *compiler, _, arg cue.Value) (ir.Node, error) {
	b, err := arg.Bool()
	if err != nil {
		return nil, schemaError(arg, "bool must be a bool")
	}
	return c.p.Boolean(b), nil
}

func qnameLiteral(c *compiler, _, arg cue.Value) (ir.Node, error) {
	local, err := arg.LookupPath(cue.ParsePath("local")).String()
	if err != nil {
		return nil, schemaError(arg, "qname needs a local name")
	}
	ns, _ := arg.LookupPath(cue.ParsePath("ns")).String()
	prefix, _ := arg.LookupPath(cue.ParsePath("prefix")).String()
	return c.p.LiteralQName(local, ns, prefix), nil
}

func unknownNode(c *compiler, _, arg cue.Value) (ir.Node, error) {
	s, err := arg.String()
	if err != nil {
		return nil, schemaError(arg, "unknown takes a type string")
	}
	t, err := xtype.Parse(s)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeType, Message: err.Error(), Pos: arg.Pos()}
	}
	return c.p.Unknown(t), nil
}

func ref(c *compiler, _, arg cue.Value) (ir.Node, error) {
	name, err := arg.String()
	if err != nil {
		return nil, schemaError(arg, "ref takes a name")
	}
	n, ok := c.scope.lookup(name)
	if !ok {
		return nil, &LoadError{Code: ErrCodeUnresolved, Message: fmt.Sprintf("%s is not in scope", name), Pos: arg.Pos()}
	}
	return n, nil
}

//-----------------------------------------------------------------------------
// Composite operators

func conditional(c *compiler, _, arg cue.Value) (ir.Node, error) {
	ops, err := c.exactly(arg, 3)
	if err != nil {
		return nil, err
	}
	c.pos = arg
	return c.p.Conditional(ops[0], ops[1], ops[2]), nil
}

// choice: {select: expr, branches: [expr, ...]}
func choice(c *compiler, _, arg cue.Value) (ir.Node, error) {
	sel, err := c.field(arg, "select")
	if err != nil {
		return nil, err
	}
	branches, err := c.exprs(arg.LookupPath(cue.ParsePath("branches")))
	if err != nil {
		return nil, err
	}
	c.pos = arg
	return c.p.Choice(sel, c.p.BranchList(branches...)), nil
}

func sequence(c *compiler, _, arg cue.Value) (ir.Node, error) {
	items, err := c.exprs(arg)
	if err != nil {
		return nil, err
	}
	return c.p.Sequence(items...), nil
}

func concat(c *compiler, _, arg cue.Value) (ir.Node, error) {
	values, err := c.exprs(arg)
	if err != nil {
		return nil, err
	}
	c.pos = arg
	return c.p.StrConcat(values...), nil
}

// join: {delimiter: expr, values: [expr, ...]}
func join(c *compiler, _, arg cue.Value) (ir.Node, error) {
	delim, err := c.field(arg, "delimiter")
	if err != nil {
		return nil, err
	}
	values, err := c.exprs(arg.LookupPath(cue.ParsePath("values")))
	if err != nil {
		return nil, err
	}
	c.pos = arg
	return c.p.StrJoin(delim, values...), nil
}

// iteration reads {each|bind: name, over: expr}, a For or a Let, and binds
// name while the body compiles.
func (c *compiler) iteration(arg cue.Value, bodyField string) (*ir.Iterator, ir.Node, error) {
	kind, nameVal := ir.KindFor, arg.LookupPath(cue.ParsePath("each"))
	if !nameVal.Exists() {
		kind, nameVal = ir.KindLet, arg.LookupPath(cue.ParsePath("bind"))
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, nil, schemaError(arg, "iteration needs an each or bind name")
	}
	binding, err := c.field(arg, "over")
	if err != nil {
		return nil, nil, err
	}

	var v *ir.Iterator
	if kind == ir.KindFor {
		v = c.p.For(binding)
	} else {
		v = c.p.Let(binding)
	}
	v.SetDebugName(name)

	saved := c.scope
	c.bind(name, v)
	body, err := c.field(arg, bodyField)
	c.scope = saved
	if err != nil {
		return nil, nil, err
	}
	c.pos = arg
	return v, body, nil
}

// loop: {each: name, over: expr, return: expr}
func loop(c *compiler, _, arg cue.Value) (ir.Node, error) {
	v, body, err := c.iteration(arg, "return")
	if err != nil {
		return nil, err
	}
	return c.p.Loop(v, body), nil
}

// filter: {each: name, over: expr, where: expr}
func filter(c *compiler, _, arg cue.Value) (ir.Node, error) {
	v, body, err := c.iteration(arg, "where")
	if err != nil {
		return nil, err
	}
	return c.p.Filter(v, body), nil
}

// invoke: name, args: [expr, ...]
func invoke(c *compiler, expr, arg cue.Value) (ir.Node, error) {
	name, err := arg.String()
	if err != nil {
		return nil, schemaError(arg, "invoke takes a function name")
	}
	fn, ok := c.funcs[name]
	if !ok {
		return nil, &LoadError{Code: ErrCodeUnresolved, Message: fmt.Sprintf("function %s is not defined", name), Pos: arg.Pos()}
	}
	var args []ir.Node
	if av := expr.LookupPath(cue.ParsePath("args")); av.Exists() {
		if args, err = c.exprs(av); err != nil {
			return nil, err
		}
	}
	if want := fn.Arguments().Len(); len(args) != want {
		return nil, schemaError(expr, fmt.Sprintf("function %s takes %d arguments, got %d", name, want, len(args)))
	}
	c.pos = expr
	return c.p.Invoke(fn, args...), nil
}

// element: {name: expr, content: expr}
func element(c *compiler, _, arg cue.Value) (ir.Node, error) {
	name, err := c.field(arg, "name")
	if err != nil {
		return nil, err
	}
	content, err := c.field(arg, "content")
	if err != nil {
		return nil, err
	}
	c.pos = arg
	return c.p.ElementCtor(name, content), nil
}

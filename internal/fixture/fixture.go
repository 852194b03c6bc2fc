// Package fixture builds program graphs from CUE documents.
//
// A fixture describes a whole program:
//
//	debug: false
//	params: limit: {type: "xs:int", default: {int: 10}}
//	globals: start: {int: 1}
//	functions: count: {
//		args: [{name: "n", type: "xs:int"}]
//		type: "xs:int"
//		body: {cond: [{le: [{ref: "n"}, {int: 0}]}, {int: 0},
//			{add: [{int: 1}, {invoke: "count", args: [{sub: [{ref: "n"}, {int: 1}]}]}]}]}
//	}
//	root: {invoke: "count", args: [{ref: "limit"}]}
//
// Expressions are structs with exactly one operator field. Every node is
// built through the pattern factory, so fixtures exercise its folding rules
// unless debug is set.
package fixture

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/pattern"
	"github.com/roach88/qgraph/internal/xtype"
)

// Option configures loading.
type Option func(*options)

type options struct {
	factory *ir.Factory
	debug   bool
	logger  *slog.Logger
}

// WithFactory builds nodes with f instead of a fresh factory.
func WithFactory(f *ir.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithDebug forces debug mode regardless of the fixture's debug field.
func WithDebug(on bool) Option {
	return func(o *options) { o.debug = on }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// LoadFile reads and compiles the fixture at path.
func LoadFile(path string, opts ...Option) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}
	return Load(data, path, opts...)
}

// Load compiles fixture source. filename is used in error positions.
func Load(data []byte, filename string, opts ...Option) (*ir.Program, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v, opts...)
}

// Compile builds the program described by v.
func Compile(v cue.Value, opts ...Option) (prog *ir.Program, err error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = ir.NewFactory()
	}

	debug := o.debug
	if dv := v.LookupPath(cue.ParsePath("debug")); dv.Exists() {
		b, err := dv.Bool()
		if err != nil {
			return nil, schemaError(dv, "debug must be a bool")
		}
		debug = debug || b
	}

	c := &compiler{
		p:     pattern.New(o.factory, pattern.WithDebug(debug)),
		funcs: make(map[string]*ir.Function),
		pos:   v,
	}
	defer func() {
		if rec := recover(); rec != nil {
			ce, ok := rec.(*ir.ContractError)
			if !ok {
				panic(rec)
			}
			prog, err = nil, &LoadError{Code: ErrCodeContract, Message: ce.Error(), Pos: c.pos.Pos()}
		}
	}()

	prog, err = c.program(v)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("fixture compiled",
		"debug", debug,
		"functions", prog.Functions().Len(),
		"globals", prog.GlobalVariables().Len(),
		"nodes", ir.Count(prog))
	return prog, nil
}

// scope is a chain of named bindings, innermost first.
type scope struct {
	name string
	node ir.Node
	up   *scope
}

func (s *scope) lookup(name string) (ir.Node, bool) {
	for ; s != nil; s = s.up {
		if s.name == name {
			return s.node, true
		}
	}
	return nil, false
}

type compiler struct {
	p     *pattern.Factory
	funcs map[string]*ir.Function
	scope *scope

	// value being compiled, for positions of contract errors
	pos cue.Value
}

func (c *compiler) bind(name string, n ir.Node) {
	c.scope = &scope{name: name, node: n, up: c.scope}
}

func (c *compiler) program(v cue.Value) (*ir.Program, error) {
	// Functions are declared before anything else so that globals and
	// bodies can call any of them, including themselves.
	type pending struct {
		fn   *ir.Function
		args []string
		body cue.Value
	}
	var bodies []pending
	fnList := c.p.FunctionList()
	err := eachField(v, "functions", func(name string, fv cue.Value) error {
		fn, args, err := c.declareFunction(name, fv)
		if err != nil {
			return err
		}
		c.funcs[name] = fn
		fnList.Append(fn)
		bodies = append(bodies, pending{fn: fn, args: args, body: fv.LookupPath(cue.ParsePath("body"))})
		return nil
	})
	if err != nil {
		return nil, err
	}

	params := c.p.GlobalParameterList()
	err = eachField(v, "params", func(name string, pv cue.Value) error {
		t, err := c.typeField(pv, "type")
		if err != nil {
			return err
		}
		var def ir.Node
		if dv := pv.LookupPath(cue.ParsePath("default")); dv.Exists() {
			if def, err = c.expr(dv); err != nil {
				return err
			}
		}
		param := c.p.Parameter(def, c.p.LiteralQName(name, "", ""), t)
		param.SetDebugName(name)
		params.Append(param)
		c.bind(name, param)
		return nil
	})
	if err != nil {
		return nil, err
	}

	globals := c.p.GlobalVariableList()
	err = eachField(v, "globals", func(name string, gv cue.Value) error {
		binding, err := c.expr(gv)
		if err != nil {
			return err
		}
		let := c.p.Let(binding)
		let.SetDebugName(name)
		globals.Append(let)
		c.bind(name, let)
		return nil
	})
	if err != nil {
		return nil, err
	}

	outer := c.scope
	for _, b := range bodies {
		for i, name := range b.args {
			c.bind(name, b.fn.Arguments().Child(i))
		}
		if !b.body.Exists() {
			return nil, schemaError(b.body, fmt.Sprintf("function %s has no body", b.fn.DebugName()))
		}
		body, err := c.expr(b.body)
		if err != nil {
			return nil, err
		}
		b.fn.SetDefinition(body)
		c.scope = outer
	}

	rv := v.LookupPath(cue.ParsePath("root"))
	if !rv.Exists() {
		return nil, schemaError(v, "root is required")
	}
	root, err := c.expr(rv)
	if err != nil {
		return nil, err
	}

	prog := c.p.Program(root)
	prog.SetChild(ir.ProgramGlobalParameters, params)
	prog.SetChild(ir.ProgramGlobalVariables, globals)
	prog.SetChild(ir.ProgramFunctions, fnList)
	return prog, nil
}

func (c *compiler) declareFunction(name string, fv cue.Value) (*ir.Function, []string, error) {
	t, err := c.typeField(fv, "type")
	if err != nil {
		return nil, nil, err
	}
	sideEffects := false
	if sv := fv.LookupPath(cue.ParsePath("sideEffects")); sv.Exists() {
		if sideEffects, err = sv.Bool(); err != nil {
			return nil, nil, schemaError(sv, "sideEffects must be a bool")
		}
	}

	var args []ir.Node
	var names []string
	if av := fv.LookupPath(cue.ParsePath("args")); av.Exists() {
		iter, err := av.List()
		if err != nil {
			return nil, nil, schemaError(av, "args must be a list")
		}
		for iter.Next() {
			arg := iter.Value()
			argName, err := arg.LookupPath(cue.ParsePath("name")).String()
			if err != nil {
				return nil, nil, schemaError(arg, "argument name must be a string")
			}
			at, err := c.typeField(arg, "type")
			if err != nil {
				return nil, nil, err
			}
			param := c.p.Parameter(nil, c.p.LiteralQName(argName, "", ""), at)
			param.SetDebugName(argName)
			args = append(args, param)
			names = append(names, argName)
		}
	}

	fn := c.p.Function(args, c.p.Unknown(t), sideEffects, t)
	fn.SetDebugName(name)
	return fn, names, nil
}

func (c *compiler) typeField(v cue.Value, field string) (xtype.Type, error) {
	tv := v.LookupPath(cue.ParsePath(field))
	s, err := tv.String()
	if err != nil {
		return xtype.Type{}, schemaError(v, fmt.Sprintf("%s must be a type string", field))
	}
	t, err := xtype.Parse(s)
	if err != nil {
		return xtype.Type{}, &LoadError{Code: ErrCodeType, Message: err.Error(), Pos: tv.Pos()}
	}
	return t, nil
}

// eachField calls fn for every field of the struct at path, in declaration
// order. A missing path is not an error.
func eachField(v cue.Value, path string, fn func(name string, fv cue.Value) error) error {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return schemaError(sv, path+" must be a struct")
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func schemaError(v cue.Value, msg string) *LoadError {
	return &LoadError{Code: ErrCodeSchema, Message: msg, Pos: v.Pos()}
}

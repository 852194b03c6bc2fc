package irxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/xtype"
)

// readState tracks where the reader is in the document.
type readState uint8

const (
	stateInitial readState = iota
	stateInForwardDecls
	stateInBody
	stateDone
)

// frame is an element whose end tag has not been seen yet.
type frame struct {
	name     string
	attrs    map[string]string
	children []ir.Node
	text     strings.Builder
	line     int
	col      int
	decl     bool // entry of ForwardDecls
}

func (fr *frame) attr(name string) (string, bool) {
	v, ok := fr.attrs[name]
	return v, ok
}

// programParts accumulates the children of the Program element.
type programParts struct {
	attrs      map[string]string
	debug      bool
	settings   *ir.OutputSettings
	whitespace []ir.WhitespaceRule
	early      []ir.EarlyBoundType
	params     *ir.List
	vars       *ir.List
	funcs      *ir.List
	roots      []ir.Node
}

type reader struct {
	f     *ir.Factory
	dec   *xml.Decoder
	state readState

	stack []*frame
	prog  *programParts
	out   *ir.Program

	scope   map[string]ir.Node
	pending map[string]ir.Node

	// element being read, for error context
	cur *frame
}

// Read parses a document written by Write and rebuilds the graph with f.
// Reference identity is restored: every use of an id is the same node as
// its definition.
func Read(r io.Reader, f *ir.Factory) (prog *ir.Program, err error) {
	rd := &reader{
		f:       f,
		dec:     xml.NewDecoder(r),
		scope:   make(map[string]ir.Node),
		pending: make(map[string]ir.Node),
	}
	defer func() {
		if rec := recover(); rec != nil {
			ce, ok := rec.(*ir.ContractError)
			if !ok {
				panic(rec)
			}
			prog, err = nil, rd.errorf(fmt.Errorf("%w: %v", ErrContract, ce))
		}
	}()
	if err := rd.run(); err != nil {
		return nil, err
	}
	return rd.out, nil
}

func (r *reader) run() error {
	for {
		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return r.errorf(fmt.Errorf("%w: %v", ErrStructure, err))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := r.start(t); err != nil {
				return err
			}
		case xml.EndElement:
			if err := r.end(); err != nil {
				return err
			}
		case xml.CharData:
			if len(r.stack) > 0 {
				r.stack[len(r.stack)-1].text.Write(t)
			}
		}
	}

	if r.state != stateDone {
		return r.errorf(fmt.Errorf("%w: unexpected end of document", ErrStructure))
	}
	if len(r.pending) > 0 {
		ids := make([]string, 0, len(r.pending))
		for id := range r.pending {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		return r.errorf(fmt.Errorf("%w: %s", ErrDanglingDecl, strings.Join(ids, ", ")))
	}
	return nil
}

func (r *reader) start(t xml.StartElement) error {
	line, col := r.dec.InputPos()
	fr := &frame{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr)), line: line, col: col}
	for _, a := range t.Attr {
		fr.attrs[a.Name.Local] = a.Value
	}
	r.cur = fr

	switch r.state {
	case stateInitial:
		if len(r.stack) == 0 {
			if fr.name != ir.KindProgram.String() {
				return r.errorf(fmt.Errorf("%w: document element is <%s>, want <Program>", ErrStructure, fr.name))
			}
			if v, ok := fr.attr(attrVersion); ok {
				if err := ir.CheckNotationVersion(v); err != nil {
					return r.errorf(err)
				}
			}
			r.prog = &programParts{attrs: fr.attrs}
			r.stack = append(r.stack, fr)
			return nil
		}
		if fr.name == elemForwardDecls {
			r.state = stateInForwardDecls
			r.stack = append(r.stack, fr)
			return nil
		}
		r.state = stateInBody

	case stateInForwardDecls:
		if r.parent().name != elemForwardDecls {
			return r.errorf(fmt.Errorf("%w: forward declaration <%s> has content", ErrStructure, r.parent().name))
		}
		fr.decl = true
		r.stack = append(r.stack, fr)
		return nil

	case stateDone:
		return r.errorf(fmt.Errorf("%w: content after </Program>", ErrStructure))
	}

	if r.atProgramLevel() {
		switch fr.name {
		case elemForwardDecls:
			return r.errorf(fmt.Errorf("%w: ForwardDecls must be the first child of Program", ErrStructure))
		case elemOutputSettings:
			s := new(ir.OutputSettings)
			if err := r.dec.DecodeElement(s, &t); err != nil {
				return r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
			}
			r.prog.settings = s
			return nil
		case elemWhitespaceRules:
			var v whitespaceRules
			if err := r.dec.DecodeElement(&v, &t); err != nil {
				return r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
			}
			r.prog.whitespace = v.Rules
			return nil
		case elemEarlyBoundTypes:
			var v earlyBoundTypes
			if err := r.dec.DecodeElement(&v, &t); err != nil {
				return r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
			}
			r.prog.early = v.Types
			return nil
		}
	}

	if fr.name == ir.KindLiteralObject.String() {
		return r.object(fr, t)
	}
	r.stack = append(r.stack, fr)
	return nil
}

func (r *reader) end() error {
	fr := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.cur = fr

	switch {
	case len(r.stack) == 0:
		return r.finishProgram()
	case fr.name == elemForwardDecls:
		r.state = stateInBody
		return nil
	case fr.decl:
		return r.declare(fr)
	case fr.name == elemDebug && r.atProgramLevel():
		switch strings.TrimSpace(fr.text.String()) {
		case "true":
			r.prog.debug = true
		case "false":
			r.prog.debug = false
		default:
			return r.errorf(fmt.Errorf("%w: Debug must be true or false", ErrBadPayload))
		}
		return nil
	case fr.name == elemRefTo:
		id, ok := fr.attr(attrID)
		if !ok {
			return r.errorf(fmt.Errorf("%w: id", ErrMissingAttr))
		}
		n, ok := r.scope[id]
		if !ok {
			return r.errorf(fmt.Errorf("%w: %s", ErrUnresolvedRef, id))
		}
		return r.emit(n)
	}

	n, err := r.build(fr)
	if err != nil {
		return err
	}
	return r.emit(n)
}

// emit hands a finished node to the enclosing element.
func (r *reader) emit(n ir.Node) error {
	if !r.atProgramLevel() {
		parent := r.parent()
		parent.children = append(parent.children, n)
		return nil
	}
	switch n.Kind() {
	case ir.KindGlobalParameterList:
		r.prog.params = n.(*ir.List)
	case ir.KindGlobalVariableList:
		r.prog.vars = n.(*ir.List)
	case ir.KindFunctionList:
		r.prog.funcs = n.(*ir.List)
	default:
		r.prog.roots = append(r.prog.roots, n)
	}
	return nil
}

func (r *reader) finishProgram() error {
	p := r.prog
	if len(p.roots) != 1 {
		return r.errorf(fmt.Errorf("%w: Program has %d root expressions, want 1", ErrStructure, len(p.roots)))
	}
	prog := r.f.Program(p.roots[0])
	if p.debug {
		prog.SetChild(ir.ProgramDebug, r.f.True())
	}
	if p.settings != nil {
		prog.SetChild(ir.ProgramOutputSettings, r.f.LiteralObject(p.settings))
	}
	prog.SetChild(ir.ProgramWhitespaceRules, r.f.LiteralObject(nonNil(p.whitespace)))
	prog.SetChild(ir.ProgramEarlyBoundTypes, r.f.LiteralObject(nonNil(p.early)))
	if p.params != nil {
		prog.SetChild(ir.ProgramGlobalParameters, p.params)
	}
	if p.vars != nil {
		prog.SetChild(ir.ProgramGlobalVariables, p.vars)
	}
	if p.funcs != nil {
		prog.SetChild(ir.ProgramFunctions, p.funcs)
	}
	if v, ok := p.attrs[attrType]; ok {
		t, err := xtype.Parse(v)
		if err != nil {
			return r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
		}
		prog.SetType(t)
	}
	r.out = prog
	r.state = stateDone
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

//-----------------------------------------------------------------------------
// References

// declare creates the placeholder for a forward declaration. Its children
// are Unknown dummies that are replaced when the definition is read.
func (r *reader) declare(fr *frame) error {
	k, ok := ir.ParseKind(fr.name)
	if !ok || !k.IsReference() {
		return r.errorf(fmt.Errorf("%w: <%s> cannot be forward declared", ErrUnknownElement, fr.name))
	}
	id, ok := fr.attr(attrID)
	if !ok {
		return r.errorf(fmt.Errorf("%w: id", ErrMissingAttr))
	}
	if _, dup := r.scope[id]; dup {
		return r.errorf(fmt.Errorf("%w: %s", ErrDuplicateID, id))
	}
	t, err := r.requireType(fr)
	if err != nil {
		return err
	}

	var n ir.Node
	switch k {
	case ir.KindFor, ir.KindLet:
		n = r.f.NewIterator(k, r.f.Unknown(t), t)
	case ir.KindParameter:
		n = r.f.NewParameter(r.f.Unknown(t), nil, t)
	case ir.KindFunction:
		n = r.f.NewFunction(r.f.FormalParameterList(), r.f.Unknown(t), r.f.False(), t)
	}
	if name, ok := fr.attr(attrName); ok {
		n.(ir.Reference).SetDebugName(name)
	}
	r.scope[id] = n
	r.pending[id] = n
	return nil
}

// define registers a freshly built reference definition. When the id was
// forward declared, the placeholder takes over the definition's children
// and is returned in its place so earlier uses see the real node.
func (r *reader) define(fr *frame, n ir.Node) (ir.Node, error) {
	id, ok := fr.attr(attrID)
	if !ok {
		return nil, r.errorf(fmt.Errorf("%w: id", ErrMissingAttr))
	}
	if name, ok := fr.attr(attrName); ok {
		n.(ir.Reference).SetDebugName(name)
	}

	ph, declared := r.pending[id]
	if !declared {
		if _, dup := r.scope[id]; dup {
			return nil, r.errorf(fmt.Errorf("%w: %s", ErrDuplicateID, id))
		}
		r.scope[id] = n
		return n, nil
	}
	if ph.Kind() != n.Kind() {
		return nil, r.errorf(fmt.Errorf("%w: %s declared as %s, defined as %s", ErrStructure, id, ph.Kind(), n.Kind()))
	}
	for i := 0; i < n.Len(); i++ {
		ph.SetChild(i, n.Child(i))
	}
	ph.SetType(n.Type())
	ph.SetSource(n.Source())
	ph.(ir.Reference).SetDebugName(n.(ir.Reference).DebugName())
	delete(r.pending, id)
	return ph, nil
}

//-----------------------------------------------------------------------------
// Nodes

func (r *reader) build(fr *frame) (ir.Node, error) {
	k, ok := ir.ParseKind(fr.name)
	if !ok || builders[k] == nil {
		return nil, r.errorf(fmt.Errorf("%w: <%s>", ErrUnknownElement, fr.name))
	}
	n, err := builders[k](r, fr)
	if err != nil {
		return nil, err
	}
	if err := r.applyAttrs(fr, n); err != nil {
		return nil, err
	}
	if k.IsReference() {
		return r.define(fr, n)
	}
	return n, nil
}

// applyAttrs sets the explicit type and source range. Lists whose type is
// derived from their items ignore the recorded type.
func (r *reader) applyAttrs(fr *frame, n ir.Node) error {
	if v, ok := fr.attr(attrType); ok {
		t, err := xtype.Parse(v)
		if err != nil {
			return r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
		}
		if l, ok := n.(*ir.List); !ok || !l.DerivesType() {
			n.SetType(t)
		}
	}
	if v, ok := fr.attr(attrLineInfo); ok {
		src, err := ir.ParseSourceRange(v)
		if err != nil {
			return r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
		}
		n.SetSource(src)
	}
	return nil
}

// object reads a LiteralObject element, decoding its payload by class.
func (r *reader) object(fr *frame, t xml.StartElement) error {
	class, ok := fr.attr(attrClass)
	if !ok {
		return r.errorf(fmt.Errorf("%w: class", ErrMissingAttr))
	}
	v, ok := newObject(class)
	if !ok {
		return r.errorf(fmt.Errorf("%w: object class %q", ErrBadPayload, class))
	}
	if err := r.dec.DecodeElement(v, &t); err != nil {
		return r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
	}
	n := r.f.LiteralObject(v)
	if err := r.applyAttrs(fr, n); err != nil {
		return err
	}
	return r.emit(n)
}

func (r *reader) requireType(fr *frame) (xtype.Type, error) {
	v, ok := fr.attr(attrType)
	if !ok {
		return xtype.Type{}, r.errorf(fmt.Errorf("%w: %s", ErrMissingAttr, attrType))
	}
	t, err := xtype.Parse(v)
	if err != nil {
		return xtype.Type{}, r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
	}
	return t, nil
}

func (r *reader) parent() *frame { return r.stack[len(r.stack)-1] }

// atProgramLevel reports whether the innermost open element is Program.
func (r *reader) atProgramLevel() bool { return len(r.stack) == 1 }

func (r *reader) errorf(err error) *ReadError {
	e := &ReadError{Err: err}
	if r.cur != nil {
		e.Line, e.Column = r.cur.line, r.cur.col
		e.Element = r.cur.name
		e.ID = r.cur.attrs[attrID]
	} else {
		e.Line, e.Column = r.dec.InputPos()
	}
	return e
}

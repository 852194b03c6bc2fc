package irxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/roach88/qgraph/internal/ir"
)

// WriteOption configures Write.
type WriteOption func(*writeConfig)

type writeConfig struct {
	indent   string
	noSource bool
}

// WithIndent indents nested elements by indent per level. The default is
// two spaces; an empty string writes the document on one line.
func WithIndent(indent string) WriteOption {
	return func(c *writeConfig) { c.indent = indent }
}

// WithoutSource omits lineInfo attributes, so the output does not depend on
// where the graph was built from.
func WithoutSource() WriteOption {
	return func(c *writeConfig) { c.noSource = true }
}

// idPrefix is used to generate ids for references without a debug name.
var idPrefix = map[ir.Kind]string{
	ir.KindFor:       "for",
	ir.KindLet:       "let",
	ir.KindParameter: "param",
	ir.KindFunction:  "func",
}

type writer struct {
	enc *xml.Encoder

	ids    map[ir.Node]string
	taken  map[string]bool
	counts map[string]int

	// Planning state. started is set when a definition is entered and
	// complete when it is left; a use of a reference that is not complete
	// needs a forward declaration.
	started  map[ir.Node]bool
	complete map[ir.Node]bool
	declared map[ir.Node]bool
	forward  []ir.Node

	emitted  map[ir.Node]bool
	noSource bool
}

// Write serializes prog to w.
func Write(w io.Writer, prog *ir.Program, opts ...WriteOption) error {
	cfg := writeConfig{indent: "  "}
	for _, opt := range opts {
		opt(&cfg)
	}

	wr := newWriter(w)
	wr.noSource = cfg.noSource
	if cfg.indent != "" {
		wr.enc.Indent("", cfg.indent)
	}

	if err := wr.plan(prog); err != nil {
		return err
	}
	if err := wr.program(prog); err != nil {
		return err
	}
	if err := wr.enc.Close(); err != nil {
		return fmt.Errorf("irxml: write: %w", err)
	}
	if cfg.indent != "" {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("irxml: write: %w", err)
		}
	}
	return nil
}

// ForwardDecls returns the ids Write would forward-declare for prog, in
// declaration order.
func ForwardDecls(prog *ir.Program) ([]string, error) {
	wr := newWriter(io.Discard)
	if err := wr.plan(prog); err != nil {
		return nil, err
	}
	ids := make([]string, len(wr.forward))
	for i, n := range wr.forward {
		ids[i] = wr.ids[n]
	}
	return ids, nil
}

func newWriter(w io.Writer) *writer {
	return &writer{
		enc:      xml.NewEncoder(w),
		ids:      make(map[ir.Node]string),
		taken:    make(map[string]bool),
		counts:   make(map[string]int),
		started:  make(map[ir.Node]bool),
		complete: make(map[ir.Node]bool),
		declared: make(map[ir.Node]bool),
		emitted:  make(map[ir.Node]bool),
	}
}

//-----------------------------------------------------------------------------
// Planning

// plan walks the graph in the order it will be written, assigning ids and
// collecting the references that are used before they are defined.
func (w *writer) plan(prog *ir.Program) error {
	for i := 0; i < prog.Len(); i++ {
		if c := prog.Child(i); c != nil && isNodeSlot(i) {
			w.visit(c, ir.IsReference(prog, i))
		}
	}
	for _, n := range w.forward {
		if !w.started[n] {
			return fmt.Errorf("irxml: %s %s is used but never defined", n.Kind(), w.ids[n])
		}
	}
	return nil
}

func (w *writer) visit(n ir.Node, ref bool) {
	if n.Kind().IsReference() {
		w.assign(n)
		if ref || w.started[n] {
			if !w.complete[n] && !w.declared[n] {
				w.declared[n] = true
				w.forward = append(w.forward, n)
			}
			return
		}
		w.started[n] = true
		defer func() { w.complete[n] = true }()
	}
	for i := 0; i < n.Len(); i++ {
		if c := n.Child(i); c != nil {
			w.visit(c, ir.IsReference(n, i))
		}
	}
}

// assign gives n its id on first sight: "$" plus the debug name when it is
// free and writable as XML, otherwise "$" plus a kind prefix and a counter.
func (w *writer) assign(n ir.Node) {
	if _, ok := w.ids[n]; ok {
		return
	}
	var id string
	if r, ok := n.(ir.Reference); ok && r.DebugName() != "" && !w.taken["$"+r.DebugName()] &&
		checkText(n, "", r.DebugName()) == nil {
		id = "$" + r.DebugName()
	} else {
		prefix := idPrefix[n.Kind()]
		for {
			w.counts[prefix]++
			id = "$" + prefix + strconv.Itoa(w.counts[prefix])
			if !w.taken[id] {
				break
			}
		}
	}
	w.taken[id] = true
	w.ids[n] = id
}

// isNodeSlot reports whether program slot i holds graph nodes rather than
// an opaque payload.
func isNodeSlot(i int) bool {
	switch i {
	case ir.ProgramGlobalParameters, ir.ProgramGlobalVariables, ir.ProgramFunctions, ir.ProgramRoot:
		return true
	}
	return false
}

//-----------------------------------------------------------------------------
// Emission

func (w *writer) program(prog *ir.Program) error {
	start := xml.StartElement{
		Name: xml.Name{Local: ir.KindProgram.String()},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: attrVersion}, Value: ir.NotationVersion},
			{Name: xml.Name{Local: attrType}, Value: prog.Type().String()},
		},
	}
	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}

	if len(w.forward) > 0 {
		if err := w.forwardDecls(); err != nil {
			return err
		}
	}

	for i := 0; i < prog.Len(); i++ {
		var err error
		switch i {
		case ir.ProgramDebug:
			err = w.text(elemDebug, nil, strconv.FormatBool(prog.IsDebug()))
		case ir.ProgramOutputSettings:
			if s := prog.OutputSettings(); s != nil {
				err = w.enc.EncodeElement(s, element(elemOutputSettings))
			}
		case ir.ProgramWhitespaceRules:
			err = w.enc.EncodeElement(whitespaceRules{Rules: prog.WhitespaceRules()}, element(elemWhitespaceRules))
		case ir.ProgramEarlyBoundTypes:
			err = w.enc.EncodeElement(earlyBoundTypes{Types: prog.EarlyBoundTypes()}, element(elemEarlyBoundTypes))
		default:
			err = w.node(prog.Child(i), ir.IsReference(prog, i))
		}
		if err != nil {
			return err
		}
	}
	return w.enc.EncodeToken(start.End())
}

func (w *writer) forwardDecls() error {
	start := element(elemForwardDecls)
	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}
	for _, n := range w.forward {
		attrs, err := w.refAttrs(n)
		if err != nil {
			return err
		}
		decl := xml.StartElement{Name: xml.Name{Local: n.Kind().String()}, Attr: attrs}
		if err := w.enc.EncodeToken(decl); err != nil {
			return err
		}
		if err := w.enc.EncodeToken(decl.End()); err != nil {
			return err
		}
	}
	return w.enc.EncodeToken(start.End())
}

func (w *writer) node(n ir.Node, ref bool) error {
	if n.Kind().IsReference() && (ref || w.emitted[n]) {
		return w.empty(elemRefTo, []xml.Attr{attr(attrID, w.ids[n])})
	}

	start := xml.StartElement{Name: xml.Name{Local: n.Kind().String()}}
	switch v := n.(type) {
	case ir.Reference:
		w.emitted[n] = true
		attrs, err := w.refAttrs(n)
		if err != nil {
			return err
		}
		start.Attr = attrs
	case *ir.Name:
		for _, part := range []string{v.Local, v.Namespace, v.Prefix} {
			if err := checkText(n, "", part); err != nil {
				return err
			}
		}
		start.Attr = append(start.Attr, attr(attrLocal, v.Local))
		if v.Namespace != "" {
			start.Attr = append(start.Attr, attr(attrNS, v.Namespace))
		}
		if v.Prefix != "" {
			start.Attr = append(start.Attr, attr(attrPrefix, v.Prefix))
		}
		start.Attr = append(start.Attr, w.commonAttrs(n)...)
	default:
		start.Attr = w.commonAttrs(n)
	}

	if lit, ok := n.(*ir.Literal); ok {
		return w.literal(lit, start)
	}

	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}
	for i := 0; i < n.Len(); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if err := w.node(c, ir.IsReference(n, i)); err != nil {
			return err
		}
	}
	return w.enc.EncodeToken(start.End())
}

func (w *writer) literal(lit *ir.Literal, start xml.StartElement) error {
	if lit.Kind() != ir.KindLiteralObject {
		s := lit.String()
		if err := checkText(lit, "", s); err != nil {
			return err
		}
		return w.text(start.Name.Local, start.Attr, s)
	}
	class, ok := classOf(lit.Value())
	if !ok {
		return fmt.Errorf("irxml: no object class registered for %T", lit.Value())
	}
	start.Attr = append([]xml.Attr{attr(attrClass, class)}, start.Attr...)
	return w.enc.EncodeElement(lit.Value(), start)
}

// refAttrs are the attributes of a reference definition or declaration.
func (w *writer) refAttrs(n ir.Node) ([]xml.Attr, error) {
	attrs := []xml.Attr{attr(attrID, w.ids[n])}
	if name := n.(ir.Reference).DebugName(); name != "" {
		if err := checkText(n, w.ids[n], name); err != nil {
			return nil, err
		}
		attrs = append(attrs, attr(attrName, name))
	}
	return append(attrs, w.commonAttrs(n)...), nil
}

// checkText reports an error when s cannot be written as XML character data
// without being altered. encoding/xml replaces such text with U+FFFD.
func checkText(n ir.Node, id, s string) error {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return notRepresentable(n, id, fmt.Sprintf("invalid UTF-8 at byte %d", i))
			}
		}
		if !isXMLChar(r) {
			return notRepresentable(n, id, fmt.Sprintf("character %U at byte %d", r, i))
		}
	}
	return nil
}

func notRepresentable(n ir.Node, id, detail string) error {
	what := n.Kind().String()
	if id != "" {
		what += " " + id
	}
	return fmt.Errorf("irxml: %s: %w: %s", what, ErrNotRepresentable, detail)
}

// isXMLChar reports whether r is in the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func (w *writer) commonAttrs(n ir.Node) []xml.Attr {
	attrs := []xml.Attr{attr(attrType, n.Type().String())}
	if src := n.Source(); !src.IsZero() && !w.noSource {
		attrs = append(attrs, attr(attrLineInfo, src.String()))
	}
	return attrs
}

func (w *writer) text(name string, attrs []xml.Attr, s string) error {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}
	if s != "" {
		if err := w.enc.EncodeToken(xml.CharData(s)); err != nil {
			return err
		}
	}
	return w.enc.EncodeToken(start.End())
}

func (w *writer) empty(name string, attrs []xml.Attr) error {
	return w.text(name, attrs, "")
}

func element(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

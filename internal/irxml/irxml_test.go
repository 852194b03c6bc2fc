package irxml

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/xtype"
)

// countdown builds count(n) = if n <= 0 then 0 else 1 + count(n - 1) and a
// program calling count(3).
func countdown(f *ir.Factory) (*ir.Program, *ir.Function) {
	n := f.Parameter(nil, f.LiteralQName("n", "", ""), xtype.Int)
	n.SetDebugName("n")
	fn := f.Function(f.FormalParameterList(n), f.Unknown(xtype.Int), f.False(), xtype.Int)
	fn.SetDebugName("count")
	fn.SetDefinition(f.Conditional(
		f.Le(n, f.LiteralInt32(0)),
		f.LiteralInt32(0),
		f.Add(f.LiteralInt32(1), f.Invoke(fn, f.ActualParameterList(f.Subtract(n, f.LiteralInt32(1)))))))

	prog := f.Program(f.Invoke(fn, f.ActualParameterList(f.LiteralInt32(3))))
	prog.Functions().Append(fn)
	return prog, fn
}

func write(t *testing.T, prog *ir.Program) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, prog))
	return buf.Bytes()
}

func TestForwardDecls(t *testing.T) {
	prog, _ := countdown(ir.NewFactory())

	ids, err := ForwardDecls(prog)
	require.NoError(t, err)
	assert.Equal(t, []string{"$count"}, ids)
}

func TestWrite_WithoutSource(t *testing.T) {
	prog := kitchenSink(ir.NewFactory())
	assert.Contains(t, string(write(t, prog)), `lineInfo="[3,1 -- 3,20]"`)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, prog, WithoutSource()))
	assert.NotContains(t, buf.String(), "lineInfo")
}

func TestWrite_Golden(t *testing.T) {
	prog, _ := countdown(ir.NewFactory())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "recursive_function", write(t, prog))
}

func TestRoundTrip_RecursiveFunction(t *testing.T) {
	prog, _ := countdown(ir.NewFactory())
	data := write(t, prog)

	got, err := Read(bytes.NewReader(data), ir.NewFactory())
	require.NoError(t, err)

	assert.Equal(t, ir.MustFingerprint(prog), ir.MustFingerprint(got))
	assert.True(t, ir.Validate(got).Valid, "%v", ir.Validate(got).Warnings)

	fn := got.Functions().Child(0).(*ir.Function)
	assert.Equal(t, "count", fn.DebugName())
	assert.Same(t, fn, got.Root().Child(0), "root call targets the definition")

	self := fn.Definition().Child(2).Child(1)
	require.Equal(t, ir.KindInvoke, self.Kind())
	assert.Same(t, fn, self.Child(0), "recursive call targets the definition")

	n := fn.Arguments().Child(0)
	assert.Same(t, n, fn.Definition().Child(0).Child(0))
	assert.Equal(t, ir.KindLe, fn.Definition().Child(0).Kind())

	assert.Equal(t, data, write(t, got), "write is stable across a round trip")
}

// kitchenSink exercises payloads, forward declarations from the globals,
// iterators and literal text that needs escaping.
func kitchenSink(f *ir.Factory) *ir.Program {
	fn := f.Function(f.FormalParameterList(), f.LiteralString("late"), f.True(), xtype.String)
	fn.SetDebugName("late")
	global := f.Let(f.Invoke(fn, f.ActualParameterList()))
	global.SetSource(ir.SourceRange{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 20})

	x := f.For(f.Content(f.XmlContext()))
	y := f.For(f.Descendant(x))
	dec, _, _ := apd.NewFromString("12.50")
	root := f.Sequence(
		f.Loop(x, f.ElementCtor(f.LiteralQName("item", "urn:x", "x"), f.Filter(y, f.Is(y, x)))),
		f.LiteralString("a<b & \"c\"\n\ttail "),
		f.LiteralString(""),
		f.LiteralDouble(math.Inf(-1)),
		f.LiteralDouble(0.1),
		f.LiteralInt64(-1<<40),
		f.LiteralDecimal(dec),
		f.TypeAssert(global, xtype.StringQ),
		f.Choice(f.LiteralInt32(1), f.BranchList(f.LiteralString("a"), f.LiteralString("b"), f.Unknown(xtype.ItemS))),
		f.XsltConvert(f.LiteralInt32(1), xtype.Double),
	)

	prog := f.Program(root)
	prog.SetChild(ir.ProgramDebug, f.True())
	prog.SetChild(ir.ProgramOutputSettings, f.LiteralObject(&ir.OutputSettings{Method: "html", Encoding: "utf-16", Indent: true, MediaType: "text/html"}))
	prog.SetChild(ir.ProgramWhitespaceRules, f.LiteralObject([]ir.WhitespaceRule{{Local: "pre", Preserve: true}, {Namespace: "urn:x"}}))
	prog.SetChild(ir.ProgramEarlyBoundTypes, f.LiteralObject([]ir.EarlyBoundType{{Namespace: "urn:ext", TypeName: "Ext"}}))
	prog.GlobalVariables().Append(global)
	prog.Functions().Append(fn)
	return prog
}

func TestRoundTrip_KitchenSink(t *testing.T) {
	prog := kitchenSink(ir.NewFactory())
	data := write(t, prog)
	assert.Contains(t, string(data), `<ForwardDecls>`, "global calls a function defined later")

	got, err := Read(bytes.NewReader(data), ir.NewFactory())
	require.NoError(t, err)

	assert.Equal(t, ir.MustFingerprint(prog), ir.MustFingerprint(got))
	assert.True(t, got.IsDebug())
	assert.Equal(t, "text/html", got.OutputSettings().MediaType)
	assert.Equal(t, prog.WhitespaceRules(), got.WhitespaceRules())
	assert.Equal(t, prog.EarlyBoundTypes(), got.EarlyBoundTypes())

	global := got.GlobalVariables().Child(0)
	assert.Equal(t, ir.SourceRange{StartLine: 3, StartCol: 1, EndLine: 3, EndCol: 20}, global.Source())
	assert.Same(t, got.Functions().Child(0), global.Child(0).Child(0))

	items := got.Root().(*ir.List)
	assert.Equal(t, "a<b & \"c\"\n\ttail ", items.Child(1).(*ir.Literal).Value())
	assert.Equal(t, "", items.Child(2).(*ir.Literal).Value())
	assert.True(t, math.IsInf(items.Child(3).(*ir.Literal).Value().(float64), -1))

	name := items.Child(0).Child(1).Child(0).(*ir.Name)
	assert.Equal(t, "urn:x", name.Namespace)
	assert.Equal(t, "x", name.Prefix)

	assert.Equal(t, data, write(t, got))
}

func TestRoundTrip_LiteralObject(t *testing.T) {
	f := ir.NewFactory()
	prog := f.Program(f.Sequence(f.LiteralObject(&ir.OutputSettings{Method: "text"}), f.LiteralInt32(1)))

	got, err := Read(bytes.NewReader(write(t, prog)), ir.NewFactory())
	require.NoError(t, err)

	obj := got.Root().Child(0).(*ir.Literal)
	assert.Equal(t, &ir.OutputSettings{Method: "text"}, obj.Value())
	assert.Equal(t, ir.MustFingerprint(prog), ir.MustFingerprint(got))
}

func TestRoundTrip_GeneratedIDs(t *testing.T) {
	f := ir.NewFactory()
	a := f.Let(f.LiteralInt32(1))
	b := f.Let(f.LiteralInt32(2))
	b.SetDebugName("let1") // taken by the id generated for a
	prog := f.Program(f.Add(a, b))
	prog.GlobalVariables().Append(a)
	prog.GlobalVariables().Append(b)

	data := write(t, prog)
	assert.Contains(t, string(data), `<Let id="$let1" xmlType="xs:int">`)
	assert.Contains(t, string(data), `<Let id="$let2" name="let1" xmlType="xs:int">`)

	got, err := Read(bytes.NewReader(data), ir.NewFactory())
	require.NoError(t, err)
	assert.Same(t, got.GlobalVariables().Child(0), got.Root().Child(0))
	assert.Same(t, got.GlobalVariables().Child(1), got.Root().Child(1))
}

func TestWrite_UndefinedReference(t *testing.T) {
	f := ir.NewFactory()
	v := f.Let(f.LiteralInt32(1))
	err := Write(&bytes.Buffer{}, f.Program(f.Negate(v)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never defined")
}

type unregistered struct{ A int }

func TestWrite_UnregisteredObject(t *testing.T) {
	f := ir.NewFactory()
	err := Write(&bytes.Buffer{}, f.Program(f.LiteralObject(&unregistered{A: 1})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no object class")
}

func TestWrite_TextNotRepresentable(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *ir.Factory) *ir.Program
		want  string
	}{
		{
			name:  "invalid utf-8 string",
			build: func(f *ir.Factory) *ir.Program { return f.Program(f.LiteralString("\xff\xfe bad utf8")) },
			want:  "LiteralString",
		},
		{
			name:  "control character",
			build: func(f *ir.Factory) *ir.Program { return f.Program(f.LiteralString("ctl\x01char")) },
			want:  "U+0001",
		},
		{
			name:  "qname part",
			build: func(f *ir.Factory) *ir.Program { return f.Program(f.LiteralQName("a\x02b", "", "")) },
			want:  "LiteralQName",
		},
		{
			name: "debug name",
			build: func(f *ir.Factory) *ir.Program {
				v := f.Let(f.LiteralInt32(1))
				v.SetDebugName("x\x00")
				prog := f.Program(f.Negate(v))
				prog.GlobalVariables().Append(v)
				return prog
			},
			want: "Let $let1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Write(&bytes.Buffer{}, tt.build(ir.NewFactory()))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotRepresentable)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRoundTrip_StringWhitespaceAndAstral(t *testing.T) {
	const s = "tab\tline\nmusic \U0001D11E end"
	f := ir.NewFactory()
	prog := f.Program(f.LiteralString(s))

	got, err := Read(bytes.NewReader(write(t, prog)), ir.NewFactory())
	require.NoError(t, err)
	assert.Equal(t, s, got.Root().(*ir.Literal).Value())
}

func TestRead_ProgramChildrenAnyOrder(t *testing.T) {
	doc := `<Program><FunctionList/><True/><Debug>true</Debug><GlobalParameterList/><EarlyBoundTypes/></Program>`
	got, err := Read(strings.NewReader(doc), ir.NewFactory())
	require.NoError(t, err)

	assert.Equal(t, ir.KindTrue, got.Root().Kind())
	assert.True(t, got.IsDebug())
	assert.Equal(t, ir.DefaultOutputSettings(), got.OutputSettings())
	assert.Equal(t, 0, got.GlobalVariables().Len())
	assert.Equal(t, 0, got.GlobalParameters().Len())
	assert.Equal(t, 0, got.Functions().Len())
	assert.NotNil(t, got.WhitespaceRules())
	assert.Empty(t, got.WhitespaceRules())
	assert.Empty(t, got.EarlyBoundTypes())
}

func TestRead_ProgramRootOnly(t *testing.T) {
	got, err := Read(strings.NewReader(`<Program><LiteralInt32>7</LiteralInt32></Program>`), ir.NewFactory())
	require.NoError(t, err)

	assert.False(t, got.IsDebug())
	assert.Equal(t, xtype.Int, got.Type())
	assert.Equal(t, ir.DefaultOutputSettings(), got.OutputSettings())
	assert.Equal(t, ir.MustFingerprint(ir.NewFactory().Program(ir.NewFactory().LiteralInt32(7))), ir.MustFingerprint(got))
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unresolved reference",
			doc:  `<Program><Negate><RefTo id="$x"/></Negate></Program>`,
			want: ErrUnresolvedRef,
		},
		{
			name: "dangling forward declaration",
			doc: `<Program><ForwardDecls><Let id="$x" xmlType="xs:int"/></ForwardDecls>
				<Negate><RefTo id="$x"/></Negate></Program>`,
			want: ErrDanglingDecl,
		},
		{
			name: "unknown element",
			doc:  `<Program><Frobnicate/></Program>`,
			want: ErrUnknownElement,
		},
		{
			name: "wrong arity",
			doc:  `<Program><Negate/></Program>`,
			want: ErrBadArity,
		},
		{
			name: "no root",
			doc:  `<Program><Debug>false</Debug></Program>`,
			want: ErrStructure,
		},
		{
			name: "two roots",
			doc:  `<Program><True/><False/></Program>`,
			want: ErrStructure,
		},
		{
			name: "late forward declarations",
			doc:  `<Program><Debug>true</Debug><ForwardDecls/><True/></Program>`,
			want: ErrStructure,
		},
		{
			name: "bad literal",
			doc:  `<Program><LiteralInt32>twelve</LiteralInt32></Program>`,
			want: ErrBadPayload,
		},
		{
			name: "unknown without type",
			doc:  `<Program><Unknown/></Program>`,
			want: ErrMissingAttr,
		},
		{
			name: "truncated",
			doc:  `<Program><True/>`,
			want: ErrStructure,
		},
		{
			name: "duplicate id",
			doc: `<Program><GlobalVariableList>
				<Let id="$x"><True/></Let><Let id="$x"><False/></Let>
				</GlobalVariableList><True/></Program>`,
			want: ErrDuplicateID,
		},
		{
			name: "non-boolean filter",
			doc: `<Program><Filter><For id="$i"><Content><XmlContext/></Content></For>
				<LiteralInt32>1</LiteralInt32></Filter></Program>`,
			want: ErrContract,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc), ir.NewFactory())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var re *ReadError
			require.ErrorAs(t, err, &re)
			assert.Positive(t, re.Line)
		})
	}
}

func TestRead_ErrorContext(t *testing.T) {
	doc := `<Program>
  <GlobalVariableList>
    <Let id="$x" xmlType="xs:int"><LiteralInt32>oops</LiteralInt32></Let>
  </GlobalVariableList>
  <True/>
</Program>`
	_, err := Read(strings.NewReader(doc), ir.NewFactory())

	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Line)
	assert.Equal(t, "LiteralInt32", re.Element)
	assert.Contains(t, re.Error(), "<LiteralInt32>")
}

func TestRead_IncompatibleVersion(t *testing.T) {
	_, err := Read(strings.NewReader(`<Program version="2.0.0"><True/></Program>`), ir.NewFactory())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2.0.0")
}

func TestRead_DerivedListIgnoresRecordedType(t *testing.T) {
	doc := `<Program><Sequence xmlType="node*"><LiteralInt32>1</LiteralInt32></Sequence></Program>`
	got, err := Read(strings.NewReader(doc), ir.NewFactory())
	require.NoError(t, err)
	assert.Equal(t, xtype.Int, got.Root().Type())
}

func TestRead_ExplicitTypeWins(t *testing.T) {
	doc := `<Program><Content xmlType="node+"><XmlContext/></Content></Program>`
	got, err := Read(strings.NewReader(doc), ir.NewFactory())
	require.NoError(t, err)
	assert.Equal(t, xtype.Of(xtype.KindNode, xtype.OneOrMore), got.Root().Type())
}

func TestBuilders_CoverEveryKind(t *testing.T) {
	for k := ir.Kind(0); int(k) < ir.KindCount; k++ {
		switch k {
		case ir.KindProgram, ir.KindLiteralObject:
			continue
		}
		assert.NotNil(t, builders[k], "no builder for %s", k)
	}
}

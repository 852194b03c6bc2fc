package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qgraph/internal/xtype"
)

// requireContract asserts that fn panics with a *ContractError.
func requireContract(t *testing.T, fn func()) *ContractError {
	t.Helper()
	var got *ContractError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a contract panic")
			ce, ok := r.(*ContractError)
			require.True(t, ok, "panic value %T is not *ContractError", r)
			got = ce
		}()
		fn()
	}()
	return got
}

func TestFixedArity_ChildRoundTrip(t *testing.T) {
	f := NewFactory()
	a, b, c := f.LiteralInt32(1), f.LiteralInt32(2), f.LiteralInt32(3)
	cond := f.True()

	nodes := []struct {
		name     string
		n        Node
		children []Node
	}{
		{"unary", f.Negate(a), []Node{a}},
		{"binary", f.Add(a, b), []Node{a, b}},
		{"ternary", f.Conditional(cond, b, c), []Node{cond, b, c}},
	}

	for _, tt := range nodes {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.children {
				assert.Same(t, want, tt.n.Child(i))
			}
			for i := 0; i < tt.n.Len(); i++ {
				before := make([]Node, tt.n.Len())
				for j := range before {
					before[j] = tt.n.Child(j)
				}
				var repl Node = f.LiteralInt32(int32(100 + i))
				if tt.n.Kind() == KindConditional && i == 0 {
					repl = f.False()
				}
				tt.n.SetChild(i, repl)
				for j := range before {
					if j == i {
						assert.Same(t, repl, tt.n.Child(j))
					} else {
						assert.Same(t, before[j], tt.n.Child(j), "slot %d must be untouched", j)
					}
				}
			}
		})
	}
}

func TestChild_OutOfRangePanics(t *testing.T) {
	f := NewFactory()
	n := f.Add(f.LiteralInt32(1), f.LiteralInt32(2))

	ce := requireContract(t, func() { n.Child(2) })
	assert.Equal(t, KindAdd, ce.Kind)
	assert.Equal(t, "Child", ce.Op)

	requireContract(t, func() { n.SetChild(-1, f.True()) })
	requireContract(t, func() { f.True().Child(0) })
	requireContract(t, func() { f.Sequence().Child(0) })
	requireContract(t, func() { f.Program(f.True()).SetChild(8, f.True()) })
}

func TestSetChild_NilRejected(t *testing.T) {
	f := NewFactory()
	n := f.Negate(f.LiteralInt32(1))
	requireContract(t, func() { n.SetChild(0, nil) })
}

func TestList_TypeCacheMatchesFold(t *testing.T) {
	f := NewFactory()
	seq := f.Sequence()
	assert.Equal(t, xtype.Empty, seq.Type())

	fold := func() xtype.Type {
		t := xtype.Empty
		for _, c := range seq.Children() {
			t = xtype.Concat(t, c.Type())
		}
		return t
	}

	steps := []func(){
		func() { seq.Append(f.LiteralInt32(1)) },
		func() { seq.Append(f.LiteralString("a")) },
		func() { seq.Insert(0, f.Sequence()) },
		func() { seq.RemoveAt(1) },
		func() { seq.SetChild(0, f.XmlContext()) },
		func() { seq.RemoveAt(0) },
		func() { seq.RemoveAt(0) },
	}
	for i, step := range steps {
		step()
		assert.Equal(t, fold(), seq.Type(), "after step %d", i)
	}
	assert.Equal(t, 0, seq.Len())
}

func TestList_SequenceDropsDocOrder(t *testing.T) {
	f := NewFactory()
	ddo := f.DocOrderDistinct(f.Content(f.XmlContext()))
	require.True(t, ddo.Type().DocOrder)

	seq := f.Sequence(ddo)
	assert.False(t, seq.Type().DocOrder)
}

func TestList_BranchListUnion(t *testing.T) {
	f := NewFactory()
	bl := f.BranchList(f.LiteralInt32(1), f.Sequence())
	assert.Equal(t, xtype.Of(xtype.KindInt, xtype.Optional), bl.Type())

	bl.Append(f.LiteralString("x"))
	assert.Equal(t, xtype.AtomicQ, bl.Type())
}

func TestList_DerivedTypeIsNotAssignable(t *testing.T) {
	f := NewFactory()
	seq := f.Sequence(f.True())
	seq.SetType(xtype.Boolean) // no-op: matches the derived type
	requireContract(t, func() { seq.SetType(xtype.String) })

	args := f.ActualParameterList()
	args.SetType(xtype.Item)
	assert.Equal(t, xtype.Item, args.Type())
}

func TestList_InsertShiftsAndRemoveReturns(t *testing.T) {
	f := NewFactory()
	a, b, c := f.LiteralInt32(1), f.LiteralInt32(2), f.LiteralInt32(3)
	l := f.Sequence(a, c)
	l.Insert(1, b)
	assert.Equal(t, []Node{a, b, c}, l.Children())

	got := l.RemoveAt(0)
	assert.Same(t, a, got)
	assert.Equal(t, []Node{b, c}, l.Children())

	requireContract(t, func() { l.Insert(3, a) })
}

func TestShallowClone_ListCopiesBacking(t *testing.T) {
	f := NewFactory()
	a := f.LiteralInt32(1)
	orig := f.Sequence(a)
	clone := f.ShallowClone(orig).(*List)

	clone.Append(f.LiteralInt32(2))
	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, 2, clone.Len())
	assert.Same(t, a, clone.Child(0), "children are shared")
	assert.NotEqual(t, orig.ID(), clone.ID())
}

func TestSlotRequirements(t *testing.T) {
	f := NewFactory()

	t.Run("loop needs iterator", func(t *testing.T) {
		l := f.Loop(f.For(f.Sequence()), f.True())
		requireContract(t, func() { l.SetChild(0, f.True()) })
	})

	t.Run("invoke needs function", func(t *testing.T) {
		fn := f.Function(f.FormalParameterList(), f.True(), f.False(), xtype.Boolean)
		inv := f.Invoke(fn, f.ActualParameterList())
		requireContract(t, func() { inv.SetChild(0, f.Let(f.True())) })
		requireContract(t, func() { inv.SetChild(1, f.Sequence()) })
	})

	t.Run("typed lists", func(t *testing.T) {
		requireContract(t, func() { f.FunctionList(f.True()) })
		requireContract(t, func() { f.GlobalVariableList(f.For(f.True())) })
		requireContract(t, func() { f.FormalParameterList(f.Let(f.True())) })
	})

	t.Run("boolean operands", func(t *testing.T) {
		requireContract(t, func() { f.And(f.True(), f.LiteralInt32(1)) })
		requireContract(t, func() { f.Not(f.LiteralString("x")) })
		requireContract(t, func() { f.Conditional(f.LiteralInt32(0), f.True(), f.False()) })
		requireContract(t, func() { f.Filter(f.For(f.XmlContext()), f.XmlContext()) })
	})

	t.Run("program slots", func(t *testing.T) {
		p := f.Program(f.True())
		requireContract(t, func() { p.SetChild(ProgramFunctions, f.Sequence()) })
		requireContract(t, func() { p.SetChild(ProgramDebug, f.LiteralInt32(1)) })
	})
}

func TestProgram_TypeFollowsRoot(t *testing.T) {
	f := NewFactory()
	p := f.Program(f.True())
	assert.Equal(t, xtype.Boolean, p.Type())

	p.SetChild(ProgramRoot, f.LiteralString("done"))
	assert.Equal(t, xtype.String, p.Type())

	p.SetChild(ProgramDebug, f.True())
	assert.Equal(t, xtype.String, p.Type())
}

func TestSourceRange_RoundTrip(t *testing.T) {
	r := SourceRange{StartLine: 3, StartCol: 7, EndLine: 4, EndCol: 1}
	assert.Equal(t, "[3,7 -- 4,1]", r.String())

	got, err := ParseSourceRange(r.String())
	require.NoError(t, err)
	assert.Equal(t, r, got)

	_, err = ParseSourceRange("3:7")
	assert.Error(t, err)
}

func TestName_EqualityIgnoresPrefix(t *testing.T) {
	f := NewFactory()
	a := f.LiteralQName("item", "urn:x", "a")
	b := f.LiteralQName("item", "urn:x", "b")
	c := f.LiteralQName("item", "urn:y", "a")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	m := map[NameKey]int{a.Key(): 1}
	assert.Equal(t, 1, m[b.Key()])
	assert.Equal(t, "a:item", a.String())
}

func TestSameNode(t *testing.T) {
	f := NewFactory()
	x := f.Let(f.True())
	y := f.Let(f.True())
	assert.True(t, SameNode(x, x))
	assert.False(t, SameNode(x, y))
	assert.True(t, SameNode(nil, nil))
	assert.False(t, SameNode(x, nil))
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Determinism(t *testing.T) {
	build := func() Node {
		f := NewFactory()
		p, _ := recursiveProgram(f)
		return p
	}

	fp1, err := Fingerprint(build())
	require.NoError(t, err)
	fp2, err := Fingerprint(build())
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2, "Fingerprint must be deterministic")
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprint_IgnoresHandlesAndDebugInfo(t *testing.T) {
	f1 := NewFactory()
	a := f1.Let(f1.LiteralString("x"))
	a.SetDebugName("a")
	a.SetSource(SourceRange{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 9})
	g1 := f1.Loop(a, a)

	f2 := NewFactory()
	f2.LiteralInt32(0) // shifts every handle
	b := f2.Let(f2.LiteralString("x"))
	b.SetDebugName("b")
	g2 := f2.Loop(b, b)

	assert.Equal(t, MustFingerprint(g1), MustFingerprint(g2))
}

func TestFingerprint_ChangesWithStructure(t *testing.T) {
	f := NewFactory()
	x := f.Let(f.LiteralString("x"))
	y := f.Let(f.LiteralString("x"))

	shared := f.Sequence(f.Loop(x, x), f.Loop(y, x))
	distinct := f.Sequence(f.Loop(x, x), f.Loop(y, y))

	assert.NotEqual(t, MustFingerprint(shared), MustFingerprint(distinct),
		"aliasing pattern is part of the identity")

	assert.NotEqual(t,
		MustFingerprint(f.LiteralInt32(1)),
		MustFingerprint(f.LiteralInt64(1)),
		"literal kind is part of the identity")
}

func TestFingerprint_NormalizesStrings(t *testing.T) {
	f := NewFactory()
	composed := f.LiteralString("caf\u00e9")
	decomposed := f.LiteralString("cafe\u0301")
	assert.Equal(t, MustFingerprint(composed), MustFingerprint(decomposed))
}

func TestMarshalCanonical_Format(t *testing.T) {
	f := NewFactory()
	it := f.For(f.Sequence(f.LiteralInt32(7)))
	g := f.Loop(it, it)

	got, err := MarshalCanonical(g)
	require.NoError(t, err)
	want := "0 Loop \"xs:int\"\n" +
		"1 For \"xs:int\" def 1\n" +
		"2 Sequence \"xs:int\"\n" +
		"3 LiteralInt32 \"xs:int\" \"7\"\n" +
		"1 ref 1\n"
	assert.Equal(t, want, string(got))

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonical_UnencodableObject(t *testing.T) {
	f := NewFactory()
	_, err := MarshalCanonical(f.LiteralObject(func() {}))
	assert.Error(t, err)
}

func TestCheckNotationVersion(t *testing.T) {
	assert.NoError(t, CheckNotationVersion(NotationVersion))
	assert.NoError(t, CheckNotationVersion("1.4.2"))
	assert.Error(t, CheckNotationVersion("2.0.0"))
	assert.Error(t, CheckNotationVersion("banana"))
}

package xtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardinality_Add(t *testing.T) {
	tests := []struct {
		name string
		a, b Cardinality
		want Cardinality
	}{
		{"none+none", None, None, None},
		{"none+one", None, One, One},
		{"one+one", One, One, OneOrMore},
		{"optional+optional", Optional, Optional, Many},
		{"optional+one", Optional, One, OneOrMore},
		{"many+none", Many, None, Many},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Add(tt.b))
		})
	}
}

func TestCardinality_Mul(t *testing.T) {
	assert.Equal(t, None, Many.Mul(None))
	assert.Equal(t, Optional, One.Mul(Optional))
	assert.Equal(t, Many, Optional.Mul(OneOrMore))
	assert.Equal(t, OneOrMore, OneOrMore.Mul(One))
}

func TestConcat_DropsDocOrder(t *testing.T) {
	got := Concat(NodeSDod, NodeSDod)
	assert.False(t, got.DocOrder)
	assert.Equal(t, KindNode, got.Kind)
	assert.Equal(t, Many, got.Card)

	// Even a single distinct operand loses the guarantee.
	single := Concat(Empty, NodeSDod)
	assert.False(t, single.DocOrder)
}

func TestConcat_KindJoin(t *testing.T) {
	assert.Equal(t, Type{Kind: KindAtomic, Card: OneOrMore}, Concat(Int, String))
	assert.Equal(t, Type{Kind: KindItem, Card: OneOrMore}, Concat(Node, String))
	assert.Equal(t, Empty, Concat(Empty, Empty))
}

func TestUnion(t *testing.T) {
	assert.Equal(t, Optional, Union(Int, Empty).Card)
	assert.Equal(t, KindInt, Union(Int, Empty).Kind)
	assert.True(t, Union(NodeSDod, NodeSDod).DocOrder)
	assert.False(t, Union(NodeSDod, NodeS).DocOrder)
	assert.True(t, Union(NodeSDod, Empty).DocOrder)
	assert.Equal(t, Atomic, Union(Int, Double))
}

func TestStringParse_RoundTrip(t *testing.T) {
	types := []Type{Empty, Item, ItemQ, ItemS, Node, NodeS, NodeSDod, String, Boolean,
		Int, Integer, Double, Decimal, QName, Of(KindString, OneOrMore), {}}

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			got, err := Parse(typ.String())
			require.NoError(t, err)
			assert.Equal(t, typ, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "node* dod", NodeSDod.String())
	assert.Equal(t, "xs:int", Int.String())
	assert.Equal(t, "xs:string?", StringQ.String())
	assert.Equal(t, "empty", Empty.String())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)

	_, err = Parse("xs:float")
	assert.Error(t, err)
}

func TestOf_NoneIsEmpty(t *testing.T) {
	assert.Equal(t, Empty, Of(KindNode, None))
	assert.Equal(t, Empty, Node.WithCard(None))
}

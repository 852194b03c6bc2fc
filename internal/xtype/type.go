// Package xtype provides the type descriptor attached to every IR node.
//
// A Type pairs an item kind (what each item of a value is) with a
// cardinality (how many items there are). A third property, DocOrder,
// records that a node sequence is known to be in distinct document order.
//
// Types are small comparable values; two types are equal iff == holds.
package xtype

import (
	"fmt"
	"strings"
)

// ItemKind identifies the kind of each item in a value.
type ItemKind uint8

const (
	KindNone ItemKind = iota // no items (only valid with cardinality None)
	KindItem                 // any item
	KindNode                 // any node
	KindAtomic               // any atomic value
	KindString
	KindBoolean
	KindInt     // 32-bit integer
	KindInteger // 64-bit integer
	KindDouble
	KindDecimal
	KindQName

	kindCount
)

var kindNames = [...]string{
	KindNone:    "none",
	KindItem:    "item",
	KindNode:    "node",
	KindAtomic:  "xs:anyAtomicType",
	KindString:  "xs:string",
	KindBoolean: "xs:boolean",
	KindInt:     "xs:int",
	KindInteger: "xs:integer",
	KindDouble:  "xs:double",
	KindDecimal: "xs:decimal",
	KindQName:   "xs:QName",
}

// Fails to compile if kindNames and the ItemKind list drift apart.
var _ [kindCount]string = kindNames

// String returns the notation name of the kind.
func (k ItemKind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("ItemKind(%d)", k)
	}
	return kindNames[k]
}

// IsAtomic reports whether k is KindAtomic or one of its subkinds.
func (k ItemKind) IsAtomic() bool {
	return k >= KindAtomic && k < kindCount
}

// join returns the narrowest kind containing both a and b.
func join(a, b ItemKind) ItemKind {
	switch {
	case a == KindNone:
		return b
	case b == KindNone:
		return a
	case a == b:
		return a
	case a.IsAtomic() && b.IsAtomic():
		return KindAtomic
	default:
		return KindItem
	}
}

// Type is an item kind plus cardinality plus the distinct-document-order flag.
type Type struct {
	Kind     ItemKind
	Card     Cardinality
	DocOrder bool
}

// Predefined types.
var (
	Empty    = Type{Kind: KindNone, Card: None}
	Item     = Type{Kind: KindItem, Card: One}
	ItemQ    = Type{Kind: KindItem, Card: Optional}
	ItemS    = Type{Kind: KindItem, Card: Many}
	Node     = Type{Kind: KindNode, Card: One}
	NodeQ    = Type{Kind: KindNode, Card: Optional}
	NodeS    = Type{Kind: KindNode, Card: Many}
	NodeSDod = Type{Kind: KindNode, Card: Many, DocOrder: true}
	Atomic   = Type{Kind: KindAtomic, Card: One}
	AtomicQ  = Type{Kind: KindAtomic, Card: Optional}
	String   = Type{Kind: KindString, Card: One}
	StringQ  = Type{Kind: KindString, Card: Optional}
	Boolean  = Type{Kind: KindBoolean, Card: One}
	Int      = Type{Kind: KindInt, Card: One}
	Integer  = Type{Kind: KindInteger, Card: One}
	Double   = Type{Kind: KindDouble, Card: One}
	Decimal  = Type{Kind: KindDecimal, Card: One}
	QName    = Type{Kind: KindQName, Card: One}
)

// Of returns a type of kind k with cardinality c.
// A None cardinality always yields Empty.
func Of(k ItemKind, c Cardinality) Type {
	c = c.normalize()
	if c == None {
		return Empty
	}
	return Type{Kind: k, Card: c}
}

// WithCard returns t with its cardinality replaced.
func (t Type) WithCard(c Cardinality) Type {
	r := Of(t.Kind, c)
	r.DocOrder = t.DocOrder && r.Card != None
	return r
}

// Distinct returns t marked as being in distinct document order.
func (t Type) Distinct() Type {
	t.DocOrder = true
	return t
}

// IsEmpty reports whether t describes the empty sequence.
func (t Type) IsEmpty() bool { return t.Card == None }

// IsSingleton reports whether t describes exactly one item.
func (t Type) IsSingleton() bool { return t.Card == One }

// IsBoolean reports whether t is a single boolean.
func (t Type) IsBoolean() bool { return t.Kind == KindBoolean && t.Card == One }

// IsNode reports whether every item of t is a node.
func (t Type) IsNode() bool { return t.Kind == KindNode }

// Concat returns the type of a followed by b.
//
// Concatenation never yields distinct document order, even when both inputs
// have it: the two halves may overlap or be out of order.
func Concat(a, b Type) Type {
	switch {
	case a.IsEmpty():
		b.DocOrder = false
		return b
	case b.IsEmpty():
		a.DocOrder = false
		return a
	}
	return Type{Kind: join(a.Kind, b.Kind), Card: a.Card.Add(b.Card)}
}

// Union returns the type of a value that is either a or b.
func Union(a, b Type) Type {
	kind := join(a.Kind, b.Kind)
	card := (a.Card | b.Card).normalize()
	if card == None {
		return Empty
	}
	return Type{
		Kind:     kind,
		Card:     card,
		DocOrder: (a.DocOrder || a.IsEmpty()) && (b.DocOrder || b.IsEmpty()),
	}
}

// String renders t in notation form, e.g. "node* dod", "xs:int?", "empty".
func (t Type) String() string {
	var s string
	switch t.Card {
	case 0:
		s = "void"
	case None:
		s = "empty"
	default:
		s = t.Kind.String() + t.Card.suffix()
	}
	if t.DocOrder {
		s += " dod"
	}
	return s
}

// Parse reads a type rendered by Type.String.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	var t Type
	if rest, ok := strings.CutSuffix(s, " dod"); ok {
		t.DocOrder = true
		s = strings.TrimSpace(rest)
	}

	switch s {
	case "void":
		return Type{DocOrder: t.DocOrder}, nil
	case "empty":
		return Type{Kind: KindNone, Card: None, DocOrder: t.DocOrder}, nil
	case "":
		return Type{}, fmt.Errorf("empty type string")
	}

	card := One
	switch s[len(s)-1] {
	case '?':
		card, s = Optional, s[:len(s)-1]
	case '*':
		card, s = Many, s[:len(s)-1]
	case '+':
		card, s = OneOrMore, s[:len(s)-1]
	}

	for k := KindNone; k < kindCount; k++ {
		if kindNames[k] == s {
			t.Kind = k
			t.Card = card
			return t, nil
		}
	}
	return Type{}, fmt.Errorf("unknown item kind %q", s)
}

package ir

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/qgraph/internal/xtype"
)

// Literal wraps an immutable payload. The Go type of Value depends on the
// kind:
//
//	LiteralString   string
//	LiteralInt32    int32
//	LiteralInt64    int64
//	LiteralDouble   float64
//	LiteralDecimal  *apd.Decimal
//	LiteralType     xtype.Type
//	LiteralObject   any
type Literal struct {
	nodeBase
	value any
}

func (n *Literal) Len() int { return 0 }

func (n *Literal) Child(i int) Node {
	n.checkIndex(i, 0, "Child")
	return nil
}

func (n *Literal) SetChild(i int, _ Node) {
	n.checkIndex(i, 0, "SetChild")
}

// Value returns the payload.
func (n *Literal) Value() any { return n.value }

// String renders the payload in the culture-invariant form used by the
// notation.
func (n *Literal) String() string {
	return FormatLiteral(n.value)
}

// FormatLiteral renders a literal payload. Doubles use the shortest
// round-tripping form, with INF, -INF and NaN for the special values.
func FormatLiteral(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		switch {
		case math.IsInf(v, 1):
			return "INF"
		case math.IsInf(v, -1):
			return "-INF"
		case math.IsNaN(v):
			return "NaN"
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *apd.Decimal:
		return v.Text('f')
	case xtype.Type:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// ParseLiteral is the inverse of FormatLiteral for the scalar literal kinds.
func ParseLiteral(k Kind, s string) (any, error) {
	switch k {
	case KindLiteralString:
		return s, nil
	case KindLiteralInt32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", k, err)
		}
		return int32(v), nil
	case KindLiteralInt64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", k, err)
		}
		return v, nil
	case KindLiteralDouble:
		switch s {
		case "INF":
			return math.Inf(1), nil
		case "-INF":
			return math.Inf(-1), nil
		case "NaN":
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", k, err)
		}
		return v, nil
	case KindLiteralDecimal:
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", k, err)
		}
		return d, nil
	case KindLiteralType:
		t, err := xtype.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", k, err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("%s has no text form", k)
}

// Name is a qualified-name literal. Equality ignores the prefix.
type Name struct {
	nodeBase
	Local     string
	Namespace string
	Prefix    string
}

// NameKey identifies a name by local part and namespace. It is comparable
// and can key a map.
type NameKey struct {
	Local     string
	Namespace string
}

func (n *Name) Len() int { return 0 }

func (n *Name) Child(i int) Node {
	n.checkIndex(i, 0, "Child")
	return nil
}

func (n *Name) SetChild(i int, _ Node) {
	n.checkIndex(i, 0, "SetChild")
}

// Key returns the prefix-free identity of the name.
func (n *Name) Key() NameKey {
	return NameKey{Local: n.Local, Namespace: n.Namespace}
}

// Equal compares local name and namespace.
func (n *Name) Equal(o *Name) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Key() == o.Key()
}

// String renders the name as prefix:local, or local when unprefixed.
func (n *Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

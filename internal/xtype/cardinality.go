package xtype

// Cardinality is a set over {zero, one, more} item counts.
type Cardinality uint8

const (
	cardZero Cardinality = 1 << iota
	cardOne
	cardMore
)

// Named cardinalities.
const (
	None      = cardZero
	One       = cardOne
	Optional  = cardZero | cardOne
	OneOrMore = cardOne | cardMore
	Many      = cardZero | cardOne | cardMore
)

var cardBits = [...]Cardinality{cardZero, cardOne, cardMore}

// normalize widens "more" to also include "one" so that only the five named
// cardinalities are ever produced.
func (c Cardinality) normalize() Cardinality {
	if c&cardMore != 0 {
		c |= cardOne
	}
	return c
}

// Add returns the cardinality of a sequence of c items followed by o items.
func (c Cardinality) Add(o Cardinality) Cardinality {
	return c.combine(o, func(x, y Cardinality) Cardinality {
		switch {
		case x == cardZero:
			return y
		case y == cardZero:
			return x
		default:
			return cardMore
		}
	})
}

// Mul returns the cardinality of o items produced for each of c items.
func (c Cardinality) Mul(o Cardinality) Cardinality {
	return c.combine(o, func(x, y Cardinality) Cardinality {
		switch {
		case x == cardZero || y == cardZero:
			return cardZero
		case x == cardOne:
			return y
		case y == cardOne:
			return x
		default:
			return cardMore
		}
	})
}

func (c Cardinality) combine(o Cardinality, op func(x, y Cardinality) Cardinality) Cardinality {
	var r Cardinality
	for _, x := range cardBits {
		if c&x == 0 {
			continue
		}
		for _, y := range cardBits {
			if o&y != 0 {
				r |= op(x, y)
			}
		}
	}
	return r.normalize()
}

// AllowsZero reports whether the empty sequence is a member of c.
func (c Cardinality) AllowsZero() bool { return c&cardZero != 0 }

func (c Cardinality) suffix() string {
	switch c.normalize() {
	case One:
		return ""
	case Optional:
		return "?"
	case OneOrMore:
		return "+"
	default:
		return "*"
	}
}

// String names the cardinality.
func (c Cardinality) String() string {
	switch c.normalize() {
	case 0:
		return "void"
	case None:
		return "none"
	case One:
		return "one"
	case Optional:
		return "optional"
	case OneOrMore:
		return "one-or-more"
	default:
		return "many"
	}
}

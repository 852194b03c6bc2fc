package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical byte encoding of the graph rooted
// at root. It is the ONLY encoding that should be used for fingerprints.
//
// The encoding is one line per node in Walk order:
//
//	<depth> <kind> <type> [payload]
//
// References are numbered by first appearance, so the same graph read back
// from the notation encodes identically even though its handles differ.
// Source ranges, annotations and debug names are excluded. Strings are NFC
// normalized.
func MarshalCanonical(root Node) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("nil root")
	}
	c := &canonicalizer{refs: make(map[Node]int)}
	c.node(0, root, false)
	if c.err != nil {
		return nil, c.err
	}
	return c.buf.Bytes(), nil
}

type canonicalizer struct {
	buf  bytes.Buffer
	refs map[Node]int
	err  error
}

func (c *canonicalizer) number(n Node) int {
	id, ok := c.refs[n]
	if !ok {
		id = len(c.refs) + 1
		c.refs[n] = id
	}
	return id
}

func (c *canonicalizer) node(depth int, n Node, ref bool) {
	if c.err != nil {
		return
	}
	c.buf.WriteString(strconv.Itoa(depth))
	c.buf.WriteByte(' ')
	if n == nil {
		c.buf.WriteString("nil\n")
		return
	}
	if ref {
		fmt.Fprintf(&c.buf, "ref %d\n", c.number(n))
		return
	}

	c.buf.WriteString(n.Kind().String())
	c.buf.WriteByte(' ')
	c.buf.WriteString(strconv.Quote(n.Type().String()))

	switch n := n.(type) {
	case *Literal:
		c.buf.WriteByte(' ')
		c.payload(n)
	case *Name:
		fmt.Fprintf(&c.buf, " %s %s", canonicalString(n.Local), canonicalString(n.Namespace))
	case Reference:
		fmt.Fprintf(&c.buf, " def %d", c.number(n))
	}
	c.buf.WriteByte('\n')

	for i := 0; i < n.Len(); i++ {
		c.node(depth+1, n.Child(i), IsReference(n, i))
	}
}

func (c *canonicalizer) payload(n *Literal) {
	if n.Kind() != KindLiteralObject {
		c.buf.WriteString(canonicalString(n.String()))
		return
	}
	data, err := json.Marshal(n.Value())
	if err != nil {
		c.err = fmt.Errorf("canonical payload of #%d: %w", n.ID(), err)
		return
	}
	fmt.Fprintf(&c.buf, "%T ", n.Value())
	c.buf.Write(data)
}

// canonicalString quotes s after NFC normalization.
func canonicalString(s string) string {
	return strconv.Quote(norm.NFC.String(s))
}

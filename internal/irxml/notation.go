// Package irxml reads and writes the XML-like debugging notation of a
// program graph.
//
// Every node is an element named after its kind. References are written
// once, at their definition, with an id attribute; every later use is an
// empty RefTo element naming that id. A reference used before its
// definition in document order (a recursive function, a global that calls a
// function declared later) is announced in a ForwardDecls element at the
// top of the program so the reader can hand out a placeholder and patch it
// in place when the definition arrives.
package irxml

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/roach88/qgraph/internal/ir"
)

// Element and attribute names of the notation that are not node kinds.
const (
	elemForwardDecls    = "ForwardDecls"
	elemRefTo           = "RefTo"
	elemDebug           = "Debug"
	elemOutputSettings  = "OutputSettings"
	elemWhitespaceRules = "WhitespaceRules"
	elemEarlyBoundTypes = "EarlyBoundTypes"

	attrVersion  = "version"
	attrType     = "xmlType"
	attrLineInfo = "lineInfo"
	attrID       = "id"
	attrName     = "name"
	attrLocal    = "local"
	attrNS       = "ns"
	attrPrefix   = "prefix"
	attrClass    = "class"
)

// Sentinel errors wrapped by ReadError.
var (
	ErrUnknownElement = errors.New("unknown element")
	ErrUnresolvedRef  = errors.New("unresolved reference")
	ErrDanglingDecl   = errors.New("forward declaration never defined")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrMissingAttr    = errors.New("missing attribute")
	ErrBadArity       = errors.New("wrong number of children")
	ErrBadPayload     = errors.New("malformed payload")
	ErrStructure      = errors.New("malformed document")
	ErrContract       = errors.New("structural contract violated")

	// ErrNotRepresentable is returned by Write for text that XML cannot
	// carry unchanged.
	ErrNotRepresentable = errors.New("not representable in XML")
)

// ReadError describes why a document could not be turned into a graph. It
// carries the element (node kind) and reference id being read when the
// failure happened.
type ReadError struct {
	Line, Column int
	Element      string
	ID           string
	Err          error
}

func (e *ReadError) Error() string {
	where := fmt.Sprintf("line %d:%d", e.Line, e.Column)
	if e.Element != "" {
		where += " <" + e.Element
		if e.ID != "" {
			where += " id=" + e.ID
		}
		where += ">"
	}
	return fmt.Sprintf("irxml: %s: %v", where, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

//-----------------------------------------------------------------------------
// LiteralObject registry

// LiteralObject payloads are written with a class attribute and the payload
// marshaled by encoding/xml into the element. Only registered payload types
// can be written or read.
var objects = struct {
	sync.RWMutex
	byClass map[string]func() any
	byType  map[reflect.Type]string
}{
	byClass: make(map[string]func() any),
	byType:  make(map[reflect.Type]string),
}

// RegisterObject makes payloads of type *T writable and readable under
// class. Registering the same class twice panics.
func RegisterObject[T any](class string) {
	objects.Lock()
	defer objects.Unlock()
	if _, dup := objects.byClass[class]; dup {
		panic(fmt.Sprintf("irxml: object class %q registered twice", class))
	}
	objects.byClass[class] = func() any { return new(T) }
	objects.byType[reflect.TypeOf((*T)(nil))] = class
}

func classOf(v any) (string, bool) {
	objects.RLock()
	defer objects.RUnlock()
	c, ok := objects.byType[reflect.TypeOf(v)]
	return c, ok
}

func newObject(class string) (any, bool) {
	objects.RLock()
	defer objects.RUnlock()
	mk, ok := objects.byClass[class]
	if !ok {
		return nil, false
	}
	return mk(), true
}

func init() {
	RegisterObject[ir.OutputSettings]("OutputSettings")
}

// whitespaceRules and earlyBoundTypes wrap the program payload slices so
// each entry becomes a child element.
type whitespaceRules struct {
	Rules []ir.WhitespaceRule `xml:"Rule"`
}

type earlyBoundTypes struct {
	Types []ir.EarlyBoundType `xml:"Type"`
}

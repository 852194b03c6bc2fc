package ir

// reference holds what every Reference kind shares: an optional debug name
// used only for diagnostics and serialization ids.
type reference struct {
	debugName string
}

// DebugName returns the diagnostic name of the binding, possibly empty.
func (r *reference) DebugName() string { return r.debugName }

// SetDebugName sets the diagnostic name of the binding.
func (r *reference) SetDebugName(s string) { r.debugName = s }

// Reference is implemented by the node kinds that introduce a binding: For,
// Let, Parameter and Function. Uses point to the same Go value; the graph
// stops being a tree exactly here.
type Reference interface {
	Node
	DebugName() string
	SetDebugName(string)
}

var (
	_ Reference = (*Iterator)(nil)
	_ Reference = (*Parameter)(nil)
	_ Reference = (*Function)(nil)
)

// Iterator is a For or Let binding. Its single child is the bound
// expression.
type Iterator struct {
	nodeBase
	reference
	binding Node
}

func (n *Iterator) Len() int { return 1 }

func (n *Iterator) Child(i int) Node {
	n.checkIndex(i, 1, "Child")
	return n.binding
}

func (n *Iterator) SetChild(i int, c Node) {
	n.checkIndex(i, 1, "SetChild")
	checkSlot(n.kind, i, c)
	n.binding = c
}

// Binding returns the bound expression.
func (n *Iterator) Binding() Node { return n.binding }

// Parameter is a global or formal parameter: a default value plus an
// optional name (nil for anonymous formals).
type Parameter struct {
	nodeBase
	reference
	defaultValue Node
	name         *Name
}

func (n *Parameter) Len() int { return 2 }

func (n *Parameter) Child(i int) Node {
	n.checkIndex(i, 2, "Child")
	if i == 0 {
		return n.defaultValue
	}
	if n.name == nil {
		return nil
	}
	return n.name
}

func (n *Parameter) SetChild(i int, c Node) {
	n.checkIndex(i, 2, "SetChild")
	checkSlot(n.kind, i, c)
	if i == 0 {
		n.defaultValue = c
		return
	}
	if c == nil {
		n.name = nil
		return
	}
	n.name = c.(*Name)
}

// DefaultValue returns the value used when no argument is supplied.
func (n *Parameter) DefaultValue() Node { return n.defaultValue }

// Name returns the external name, or nil.
func (n *Parameter) Name() *Name { return n.name }

// Function is a user function: formal parameters, body and a side-effect
// flag (a True or False leaf). Its type is the declared return type.
type Function struct {
	nodeBase
	reference
	args        Node
	definition  Node
	sideEffects Node
}

// Function child indices.
const (
	FunctionArguments = iota
	FunctionDefinition
	FunctionSideEffects
)

func (n *Function) Len() int { return 3 }

func (n *Function) Child(i int) Node {
	n.checkIndex(i, 3, "Child")
	switch i {
	case FunctionArguments:
		return n.args
	case FunctionDefinition:
		return n.definition
	default:
		return n.sideEffects
	}
}

func (n *Function) SetChild(i int, c Node) {
	n.checkIndex(i, 3, "SetChild")
	checkSlot(n.kind, i, c)
	switch i {
	case FunctionArguments:
		n.args = c
	case FunctionDefinition:
		n.definition = c
	default:
		n.sideEffects = c
	}
}

// Arguments returns the FormalParameterList.
func (n *Function) Arguments() *List {
	l, _ := n.args.(*List)
	return l
}

// Definition returns the body.
func (n *Function) Definition() Node { return n.definition }

// SetDefinition replaces the body. Recursive functions are built by creating
// the function with a placeholder body and setting the real one once the
// function node exists.
func (n *Function) SetDefinition(body Node) { n.SetChild(FunctionDefinition, body) }

// HasSideEffects reports whether the side-effect flag is True.
func (n *Function) HasSideEffects() bool {
	return n.sideEffects != nil && n.sideEffects.Kind() == KindTrue
}

package ir

// Program child indices. The program root is a fixed composite; every slot
// is always populated.
const (
	ProgramDebug = iota
	ProgramOutputSettings
	ProgramWhitespaceRules
	ProgramGlobalParameters
	ProgramGlobalVariables
	ProgramEarlyBoundTypes
	ProgramFunctions
	ProgramRoot

	programArity
)

// OutputSettings is the default serialization settings payload carried by
// the program root as a LiteralObject.
type OutputSettings struct {
	Method             string `json:"method" xml:"method,attr"`
	Encoding           string `json:"encoding" xml:"encoding,attr"`
	Indent             bool   `json:"indent" xml:"indent,attr"`
	OmitXMLDeclaration bool   `json:"omit_xml_declaration" xml:"omitXmlDeclaration,attr"`
	Standalone         string `json:"standalone,omitempty" xml:"standalone,attr,omitempty"`
	MediaType          string `json:"media_type,omitempty" xml:"mediaType,attr,omitempty"`
}

// DefaultOutputSettings returns the settings installed by Factory.Program.
func DefaultOutputSettings() *OutputSettings {
	return &OutputSettings{Method: "xml", Encoding: "utf-8"}
}

// WhitespaceRule strips or preserves whitespace-only text for elements
// matching a name test. An empty Local matches any local name.
type WhitespaceRule struct {
	Local     string `json:"local" xml:"local,attr"`
	Namespace string `json:"namespace" xml:"namespace,attr"`
	Preserve  bool   `json:"preserve" xml:"preserve,attr"`
}

// EarlyBoundType names a host extension type whose methods are bound at
// compile time.
type EarlyBoundType struct {
	Namespace string `json:"namespace" xml:"namespace,attr"`
	TypeName  string `json:"type_name" xml:"typeName,attr"`
}

// Program is the root of a compiled graph.
type Program struct {
	nodeBase
	slots [programArity]Node
}

func (n *Program) Len() int { return programArity }

func (n *Program) Child(i int) Node {
	n.checkIndex(i, programArity, "Child")
	return n.slots[i]
}

// SetChild replaces slot i. Replacing the root also takes on its type.
func (n *Program) SetChild(i int, c Node) {
	n.checkIndex(i, programArity, "SetChild")
	checkSlot(n.kind, i, c)
	n.slots[i] = c
	if i == ProgramRoot && c != nil {
		n.typ = c.Type()
	}
}

// IsDebug reports whether the debug flag is True.
func (n *Program) IsDebug() bool {
	return n.slots[ProgramDebug] != nil && n.slots[ProgramDebug].Kind() == KindTrue
}

// Root returns the main expression.
func (n *Program) Root() Node { return n.slots[ProgramRoot] }

// Functions returns the FunctionList.
func (n *Program) Functions() *List { return n.list(ProgramFunctions) }

// GlobalVariables returns the GlobalVariableList.
func (n *Program) GlobalVariables() *List { return n.list(ProgramGlobalVariables) }

// GlobalParameters returns the GlobalParameterList.
func (n *Program) GlobalParameters() *List { return n.list(ProgramGlobalParameters) }

// OutputSettings returns the output settings payload, or nil.
func (n *Program) OutputSettings() *OutputSettings {
	v, _ := n.payload(ProgramOutputSettings).(*OutputSettings)
	return v
}

// WhitespaceRules returns the whitespace rule payload.
func (n *Program) WhitespaceRules() []WhitespaceRule {
	v, _ := n.payload(ProgramWhitespaceRules).([]WhitespaceRule)
	return v
}

// EarlyBoundTypes returns the early-bound type payload.
func (n *Program) EarlyBoundTypes() []EarlyBoundType {
	v, _ := n.payload(ProgramEarlyBoundTypes).([]EarlyBoundType)
	return v
}

func (n *Program) list(i int) *List {
	l, _ := n.slots[i].(*List)
	return l
}

func (n *Program) payload(i int) any {
	lit, ok := n.slots[i].(*Literal)
	if !ok {
		return nil
	}
	return lit.value
}

var programSlotKinds = [programArity][]Kind{
	ProgramDebug:            {KindTrue, KindFalse},
	ProgramOutputSettings:   {KindLiteralObject},
	ProgramWhitespaceRules:  {KindLiteralObject},
	ProgramGlobalParameters: {KindGlobalParameterList},
	ProgramGlobalVariables:  {KindGlobalVariableList},
	ProgramEarlyBoundTypes:  {KindLiteralObject},
	ProgramFunctions:        {KindFunctionList},
	ProgramRoot:             nil,
}

func checkProgramSlot(i int, c Node) {
	if want := programSlotKinds[i]; want != nil {
		requireKind(KindProgram, c, want...)
	}
}

package ir

import "fmt"

// Kind is the closed set of node kinds.
type Kind uint8

const (
	// Meta
	KindUnknown Kind = iota
	KindProgram
	KindFunctionList
	KindGlobalVariableList
	KindGlobalParameterList
	KindActualParameterList
	KindFormalParameterList
	KindSortKeyList
	KindBranchList
	KindOptimizeBarrier

	// Specials
	KindDataSource
	KindNop
	KindError
	KindWarning

	// Variables
	KindFor
	KindLet
	KindParameter
	KindPositionOf

	// Literals
	KindTrue
	KindFalse
	KindLiteralString
	KindLiteralInt32
	KindLiteralInt64
	KindLiteralDouble
	KindLiteralDecimal
	KindLiteralQName
	KindLiteralType
	KindLiteralObject

	// Boolean operators
	KindAnd
	KindOr
	KindNot

	// Choice
	KindConditional
	KindChoice

	// Collection operators
	KindLength
	KindSequence
	KindUnion
	KindIntersection
	KindDifference
	KindAverage
	KindSum
	KindMinimum
	KindMaximum

	// Arithmetic
	KindNegate
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindModulo

	// Strings
	KindStrLength
	KindStrConcat
	KindStrParseQName

	// Value comparison
	KindNe
	KindEq
	KindGt
	KindGe
	KindLt
	KindLe

	// Node comparison
	KindIs
	KindAfter
	KindBefore

	// Loops
	KindLoop
	KindFilter

	// Sorting
	KindSort
	KindSortKey
	KindDocOrderDistinct

	// Functions
	KindFunction
	KindInvoke

	// Navigation
	KindContent
	KindAttribute
	KindParent
	KindRoot
	KindXmlContext
	KindDescendant
	KindDescendantOrSelf
	KindAncestor
	KindAncestorOrSelf
	KindPreceding
	KindFollowingSibling
	KindPrecedingSibling
	KindNodeRange
	KindDeref

	// Construction
	KindElementCtor
	KindAttributeCtor
	KindCommentCtor
	KindPICtor
	KindTextCtor
	KindRawTextCtor
	KindDocumentCtor
	KindNamespaceDecl
	KindRtfCtor

	// Node properties
	KindNameOf
	KindLocalNameOf
	KindNamespaceUriOf
	KindPrefixOf

	// Type operators
	KindTypeAssert
	KindIsType
	KindIsEmpty

	// XPath
	KindXPathNodeValue
	KindXPathFollowing
	KindXPathPreceding
	KindXPathNamespace

	// XSLT
	KindXsltGenerateId
	KindXsltInvokeLateBound
	KindXsltInvokeEarlyBound
	KindXsltCopy
	KindXsltCopyOf
	KindXsltConvert

	kindCount
)

// KindCount is the number of node kinds. Tables indexed by Kind use it as
// their length so that a missing entry is a compile error.
const KindCount = int(kindCount)

// Shape is the structural class of a kind: how many children it has and
// which Go type represents it.
type Shape uint8

const (
	ShapeLeaf      Shape = iota // *Leaf, no children
	ShapeUnary                  // *Unary
	ShapeBinary                 // *Binary
	ShapeTernary                // *Ternary
	ShapeList                   // *List
	ShapeLiteral                // *Literal
	ShapeName                   // *Name
	ShapeIterator               // *Iterator
	ShapeParameter              // *Parameter
	ShapeFunction               // *Function
	ShapeProgram                // *Program
)

type kindInfo struct {
	name  string
	shape Shape
}

var kinds = [...]kindInfo{
	KindUnknown:             {"Unknown", ShapeLeaf},
	KindProgram:             {"Program", ShapeProgram},
	KindFunctionList:        {"FunctionList", ShapeList},
	KindGlobalVariableList:  {"GlobalVariableList", ShapeList},
	KindGlobalParameterList: {"GlobalParameterList", ShapeList},
	KindActualParameterList: {"ActualParameterList", ShapeList},
	KindFormalParameterList: {"FormalParameterList", ShapeList},
	KindSortKeyList:         {"SortKeyList", ShapeList},
	KindBranchList:          {"BranchList", ShapeList},
	KindOptimizeBarrier:     {"OptimizeBarrier", ShapeUnary},

	KindDataSource: {"DataSource", ShapeBinary},
	KindNop:        {"Nop", ShapeUnary},
	KindError:      {"Error", ShapeUnary},
	KindWarning:    {"Warning", ShapeUnary},

	KindFor:        {"For", ShapeIterator},
	KindLet:        {"Let", ShapeIterator},
	KindParameter:  {"Parameter", ShapeParameter},
	KindPositionOf: {"PositionOf", ShapeUnary},

	KindTrue:           {"True", ShapeLeaf},
	KindFalse:          {"False", ShapeLeaf},
	KindLiteralString:  {"LiteralString", ShapeLiteral},
	KindLiteralInt32:   {"LiteralInt32", ShapeLiteral},
	KindLiteralInt64:   {"LiteralInt64", ShapeLiteral},
	KindLiteralDouble:  {"LiteralDouble", ShapeLiteral},
	KindLiteralDecimal: {"LiteralDecimal", ShapeLiteral},
	KindLiteralQName:   {"LiteralQName", ShapeName},
	KindLiteralType:    {"LiteralType", ShapeLiteral},
	KindLiteralObject:  {"LiteralObject", ShapeLiteral},

	KindAnd: {"And", ShapeBinary},
	KindOr:  {"Or", ShapeBinary},
	KindNot: {"Not", ShapeUnary},

	KindConditional: {"Conditional", ShapeTernary},
	KindChoice:      {"Choice", ShapeBinary},

	KindLength:       {"Length", ShapeUnary},
	KindSequence:     {"Sequence", ShapeList},
	KindUnion:        {"Union", ShapeBinary},
	KindIntersection: {"Intersection", ShapeBinary},
	KindDifference:   {"Difference", ShapeBinary},
	KindAverage:      {"Average", ShapeUnary},
	KindSum:          {"Sum", ShapeUnary},
	KindMinimum:      {"Minimum", ShapeUnary},
	KindMaximum:      {"Maximum", ShapeUnary},

	KindNegate:   {"Negate", ShapeUnary},
	KindAdd:      {"Add", ShapeBinary},
	KindSubtract: {"Subtract", ShapeBinary},
	KindMultiply: {"Multiply", ShapeBinary},
	KindDivide:   {"Divide", ShapeBinary},
	KindModulo:   {"Modulo", ShapeBinary},

	KindStrLength:     {"StrLength", ShapeUnary},
	KindStrConcat:     {"StrConcat", ShapeBinary},
	KindStrParseQName: {"StrParseQName", ShapeBinary},

	KindNe: {"Ne", ShapeBinary},
	KindEq: {"Eq", ShapeBinary},
	KindGt: {"Gt", ShapeBinary},
	KindGe: {"Ge", ShapeBinary},
	KindLt: {"Lt", ShapeBinary},
	KindLe: {"Le", ShapeBinary},

	KindIs:     {"Is", ShapeBinary},
	KindAfter:  {"After", ShapeBinary},
	KindBefore: {"Before", ShapeBinary},

	KindLoop:   {"Loop", ShapeBinary},
	KindFilter: {"Filter", ShapeBinary},

	KindSort:             {"Sort", ShapeBinary},
	KindSortKey:          {"SortKey", ShapeBinary},
	KindDocOrderDistinct: {"DocOrderDistinct", ShapeUnary},

	KindFunction: {"Function", ShapeFunction},
	KindInvoke:   {"Invoke", ShapeBinary},

	KindContent:          {"Content", ShapeUnary},
	KindAttribute:        {"Attribute", ShapeBinary},
	KindParent:           {"Parent", ShapeUnary},
	KindRoot:             {"Root", ShapeUnary},
	KindXmlContext:       {"XmlContext", ShapeLeaf},
	KindDescendant:       {"Descendant", ShapeUnary},
	KindDescendantOrSelf: {"DescendantOrSelf", ShapeUnary},
	KindAncestor:         {"Ancestor", ShapeUnary},
	KindAncestorOrSelf:   {"AncestorOrSelf", ShapeUnary},
	KindPreceding:        {"Preceding", ShapeUnary},
	KindFollowingSibling: {"FollowingSibling", ShapeUnary},
	KindPrecedingSibling: {"PrecedingSibling", ShapeUnary},
	KindNodeRange:        {"NodeRange", ShapeBinary},
	KindDeref:            {"Deref", ShapeBinary},

	KindElementCtor:   {"ElementCtor", ShapeBinary},
	KindAttributeCtor: {"AttributeCtor", ShapeBinary},
	KindCommentCtor:   {"CommentCtor", ShapeUnary},
	KindPICtor:        {"PICtor", ShapeBinary},
	KindTextCtor:      {"TextCtor", ShapeUnary},
	KindRawTextCtor:   {"RawTextCtor", ShapeUnary},
	KindDocumentCtor:  {"DocumentCtor", ShapeUnary},
	KindNamespaceDecl: {"NamespaceDecl", ShapeBinary},
	KindRtfCtor:       {"RtfCtor", ShapeBinary},

	KindNameOf:         {"NameOf", ShapeUnary},
	KindLocalNameOf:    {"LocalNameOf", ShapeUnary},
	KindNamespaceUriOf: {"NamespaceUriOf", ShapeUnary},
	KindPrefixOf:       {"PrefixOf", ShapeUnary},

	KindTypeAssert: {"TypeAssert", ShapeBinary},
	KindIsType:     {"IsType", ShapeBinary},
	KindIsEmpty:    {"IsEmpty", ShapeUnary},

	KindXPathNodeValue: {"XPathNodeValue", ShapeUnary},
	KindXPathFollowing: {"XPathFollowing", ShapeUnary},
	KindXPathPreceding: {"XPathPreceding", ShapeUnary},
	KindXPathNamespace: {"XPathNamespace", ShapeUnary},

	KindXsltGenerateId:       {"XsltGenerateId", ShapeUnary},
	KindXsltInvokeLateBound:  {"XsltInvokeLateBound", ShapeBinary},
	KindXsltInvokeEarlyBound: {"XsltInvokeEarlyBound", ShapeTernary},
	KindXsltCopy:             {"XsltCopy", ShapeBinary},
	KindXsltCopyOf:           {"XsltCopyOf", ShapeUnary},
	KindXsltConvert:          {"XsltConvert", ShapeBinary},
}

var _ [KindCount]kindInfo = kinds

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, KindCount)
	for k := Kind(0); k < kindCount; k++ {
		m[kinds[k].name] = k
	}
	return m
}()

// String returns the kind name used by the external notation.
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kinds[k].name
}

// Shape returns the structural class of k.
func (k Kind) Shape() Shape {
	return kinds[k].shape
}

// IsValid reports whether k is a member of the closed kind set.
func (k Kind) IsValid() bool { return k < kindCount }

// IsReference reports whether nodes of kind k introduce a binding that other
// nodes refer to by identity.
func (k Kind) IsReference() bool {
	switch k {
	case KindFor, KindLet, KindParameter, KindFunction:
		return true
	}
	return false
}

// IsLiteral reports whether k carries a literal payload (names included).
func (k Kind) IsLiteral() bool {
	s := k.Shape()
	return s == ShapeLiteral || s == ShapeName
}

// ParseKind looks a kind up by its notation name.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

package ir

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/qgraph/internal/xtype"
)

// This file holds one constructor per node kind. Each computes the node type
// with inferType unless the type is an explicit argument.

func (f *Factory) unary(k Kind, child Node) *Unary {
	return f.NewUnary(k, child, inferType(k, child))
}

func (f *Factory) binary(k Kind, left, right Node) *Binary {
	return f.NewBinary(k, left, right, inferType(k, left, right))
}

func (f *Factory) list(k Kind, items []Node) *List {
	return f.NewList(k, inferType(k), items...)
}

//-----------------------------------------------------------------------------
// Meta

// Program creates a program root around root with every other slot set to
// its default: debug off, default output settings, no whitespace rules,
// parameters, variables, early-bound types or functions.
func (f *Factory) Program(root Node) *Program {
	n := &Program{nodeBase: nodeBase{kind: KindProgram}}
	n.SetChild(ProgramDebug, f.False())
	n.SetChild(ProgramOutputSettings, f.LiteralObject(DefaultOutputSettings()))
	n.SetChild(ProgramWhitespaceRules, f.LiteralObject([]WhitespaceRule{}))
	n.SetChild(ProgramGlobalParameters, f.GlobalParameterList())
	n.SetChild(ProgramGlobalVariables, f.GlobalVariableList())
	n.SetChild(ProgramEarlyBoundTypes, f.LiteralObject([]EarlyBoundType{}))
	n.SetChild(ProgramFunctions, f.FunctionList())
	n.SetChild(ProgramRoot, root)
	return track(f, n)
}

func (f *Factory) FunctionList(items ...Node) *List {
	return f.list(KindFunctionList, items)
}

func (f *Factory) GlobalVariableList(items ...Node) *List {
	return f.list(KindGlobalVariableList, items)
}

func (f *Factory) GlobalParameterList(items ...Node) *List {
	return f.list(KindGlobalParameterList, items)
}

func (f *Factory) ActualParameterList(items ...Node) *List {
	return f.list(KindActualParameterList, items)
}

func (f *Factory) FormalParameterList(items ...Node) *List {
	return f.list(KindFormalParameterList, items)
}

func (f *Factory) SortKeyList(items ...Node) *List {
	return f.list(KindSortKeyList, items)
}

func (f *Factory) BranchList(items ...Node) *List {
	return f.NewList(KindBranchList, xtype.Empty, items...)
}

func (f *Factory) OptimizeBarrier(child Node) *Unary { return f.unary(KindOptimizeBarrier, child) }

//-----------------------------------------------------------------------------
// Specials

// Unknown creates a placeholder node of type t.
func (f *Factory) Unknown(t xtype.Type) *Leaf { return f.NewLeaf(KindUnknown, t) }

func (f *Factory) DataSource(name, baseURI Node) *Binary {
	return f.binary(KindDataSource, name, baseURI)
}

func (f *Factory) Nop(child Node) *Unary { return f.unary(KindNop, child) }
func (f *Factory) Error(msg Node) *Unary { return f.unary(KindError, msg) }
func (f *Factory) Warning(msg Node) *Unary { return f.unary(KindWarning, msg) }

//-----------------------------------------------------------------------------
// Variables

func (f *Factory) For(binding Node) *Iterator {
	return f.NewIterator(KindFor, binding, inferType(KindFor, binding))
}

func (f *Factory) Let(binding Node) *Iterator {
	return f.NewIterator(KindLet, binding, inferType(KindLet, binding))
}

// Parameter creates a parameter of type t. A nil default value becomes the
// empty sequence; name may be nil.
func (f *Factory) Parameter(defaultValue Node, name *Name, t xtype.Type) *Parameter {
	if defaultValue == nil {
		defaultValue = f.Sequence()
	}
	return f.NewParameter(defaultValue, name, t)
}

func (f *Factory) PositionOf(it *Iterator) *Unary { return f.unary(KindPositionOf, it) }

//-----------------------------------------------------------------------------
// Literals

func (f *Factory) True() *Leaf { return f.NewLeaf(KindTrue, xtype.Boolean) }
func (f *Factory) False() *Leaf { return f.NewLeaf(KindFalse, xtype.Boolean) }

func (f *Factory) literal(k Kind, v any) *Literal {
	return f.NewLiteral(k, v, inferType(k))
}

func (f *Factory) LiteralString(v string) *Literal { return f.literal(KindLiteralString, v) }
func (f *Factory) LiteralInt32(v int32) *Literal { return f.literal(KindLiteralInt32, v) }
func (f *Factory) LiteralInt64(v int64) *Literal { return f.literal(KindLiteralInt64, v) }
func (f *Factory) LiteralDouble(v float64) *Literal { return f.literal(KindLiteralDouble, v) }

func (f *Factory) LiteralDecimal(v *apd.Decimal) *Literal {
	return f.literal(KindLiteralDecimal, v)
}

func (f *Factory) LiteralType(t xtype.Type) *Literal { return f.literal(KindLiteralType, t) }
func (f *Factory) LiteralObject(v any) *Literal { return f.literal(KindLiteralObject, v) }

func (f *Factory) LiteralQName(local, namespace, prefix string) *Name {
	return track(f, &Name{
		nodeBase:  nodeBase{kind: KindLiteralQName, typ: xtype.QName},
		Local:     local,
		Namespace: namespace,
		Prefix:    prefix,
	})
}

//-----------------------------------------------------------------------------
// Boolean operators

func (f *Factory) And(left, right Node) *Binary {
	RequireBoolean(KindAnd, left)
	RequireBoolean(KindAnd, right)
	return f.binary(KindAnd, left, right)
}

func (f *Factory) Or(left, right Node) *Binary {
	RequireBoolean(KindOr, left)
	RequireBoolean(KindOr, right)
	return f.binary(KindOr, left, right)
}

func (f *Factory) Not(child Node) *Unary {
	RequireBoolean(KindNot, child)
	return f.unary(KindNot, child)
}

//-----------------------------------------------------------------------------
// Choice

func (f *Factory) Conditional(cond, then, els Node) *Ternary {
	RequireBoolean(KindConditional, cond)
	return f.NewTernary(KindConditional, cond, then, els, inferType(KindConditional, cond, then, els))
}

func (f *Factory) Choice(selector Node, branches *List) *Binary {
	return f.binary(KindChoice, selector, branches)
}

//-----------------------------------------------------------------------------
// Collections

func (f *Factory) Length(child Node) *Unary { return f.unary(KindLength, child) }

// Sequence creates a Sequence list. Its type is the concatenation of the
// item types.
func (f *Factory) Sequence(items ...Node) *List {
	return f.NewList(KindSequence, xtype.Empty, items...)
}

func (f *Factory) Union(left, right Node) *Binary { return f.binary(KindUnion, left, right) }
func (f *Factory) Intersection(left, right Node) *Binary { return f.binary(KindIntersection, left, right) }
func (f *Factory) Difference(left, right Node) *Binary { return f.binary(KindDifference, left, right) }
func (f *Factory) Average(child Node) *Unary { return f.unary(KindAverage, child) }
func (f *Factory) Sum(child Node) *Unary { return f.unary(KindSum, child) }
func (f *Factory) Minimum(child Node) *Unary { return f.unary(KindMinimum, child) }
func (f *Factory) Maximum(child Node) *Unary { return f.unary(KindMaximum, child) }

//-----------------------------------------------------------------------------
// Arithmetic

func (f *Factory) Negate(child Node) *Unary { return f.unary(KindNegate, child) }
func (f *Factory) Add(left, right Node) *Binary { return f.binary(KindAdd, left, right) }
func (f *Factory) Subtract(left, right Node) *Binary { return f.binary(KindSubtract, left, right) }
func (f *Factory) Multiply(left, right Node) *Binary { return f.binary(KindMultiply, left, right) }
func (f *Factory) Divide(left, right Node) *Binary { return f.binary(KindDivide, left, right) }
func (f *Factory) Modulo(left, right Node) *Binary { return f.binary(KindModulo, left, right) }

//-----------------------------------------------------------------------------
// Strings

func (f *Factory) StrLength(child Node) *Unary { return f.unary(KindStrLength, child) }

// StrConcat joins the items of values, separated by delimiter.
func (f *Factory) StrConcat(delimiter, values Node) *Binary {
	return f.binary(KindStrConcat, delimiter, values)
}

func (f *Factory) StrParseQName(str, ns Node) *Binary {
	return f.binary(KindStrParseQName, str, ns)
}

//-----------------------------------------------------------------------------
// Comparisons

func (f *Factory) Ne(left, right Node) *Binary { return f.binary(KindNe, left, right) }
func (f *Factory) Eq(left, right Node) *Binary { return f.binary(KindEq, left, right) }
func (f *Factory) Gt(left, right Node) *Binary { return f.binary(KindGt, left, right) }
func (f *Factory) Ge(left, right Node) *Binary { return f.binary(KindGe, left, right) }
func (f *Factory) Lt(left, right Node) *Binary { return f.binary(KindLt, left, right) }
func (f *Factory) Le(left, right Node) *Binary { return f.binary(KindLe, left, right) }
func (f *Factory) Is(left, right Node) *Binary { return f.binary(KindIs, left, right) }
func (f *Factory) After(left, right Node) *Binary { return f.binary(KindAfter, left, right) }
func (f *Factory) Before(left, right Node) *Binary { return f.binary(KindBefore, left, right) }

//-----------------------------------------------------------------------------
// Loops and sorting

func (f *Factory) Loop(v *Iterator, body Node) *Binary {
	return f.binary(KindLoop, v, body)
}

func (f *Factory) Filter(v *Iterator, body Node) *Binary {
	RequireBoolean(KindFilter, body)
	return f.binary(KindFilter, v, body)
}

func (f *Factory) Sort(v *Iterator, keys *List) *Binary {
	return f.binary(KindSort, v, keys)
}

func (f *Factory) SortKey(key, collation Node) *Binary {
	return f.binary(KindSortKey, key, collation)
}

func (f *Factory) DocOrderDistinct(child Node) *Unary {
	return f.unary(KindDocOrderDistinct, child)
}

//-----------------------------------------------------------------------------
// Functions

// Function creates a function returning t. sideEffects must be True or False.
func (f *Factory) Function(args *List, definition, sideEffects Node, t xtype.Type) *Function {
	return f.NewFunction(args, definition, sideEffects, t)
}

func (f *Factory) Invoke(fn *Function, args *List) *Binary {
	return f.binary(KindInvoke, fn, args)
}

//-----------------------------------------------------------------------------
// Navigation

func (f *Factory) Content(ctx Node) *Unary { return f.unary(KindContent, ctx) }

func (f *Factory) Attribute(ctx, name Node) *Binary {
	return f.binary(KindAttribute, ctx, name)
}

func (f *Factory) Parent(ctx Node) *Unary { return f.unary(KindParent, ctx) }
func (f *Factory) Root(ctx Node) *Unary { return f.unary(KindRoot, ctx) }
func (f *Factory) XmlContext() *Leaf { return f.NewLeaf(KindXmlContext, xtype.Node) }
func (f *Factory) Descendant(ctx Node) *Unary { return f.unary(KindDescendant, ctx) }
func (f *Factory) DescendantOrSelf(ctx Node) *Unary { return f.unary(KindDescendantOrSelf, ctx) }
func (f *Factory) Ancestor(ctx Node) *Unary { return f.unary(KindAncestor, ctx) }
func (f *Factory) AncestorOrSelf(ctx Node) *Unary { return f.unary(KindAncestorOrSelf, ctx) }
func (f *Factory) Preceding(ctx Node) *Unary { return f.unary(KindPreceding, ctx) }
func (f *Factory) FollowingSibling(ctx Node) *Unary { return f.unary(KindFollowingSibling, ctx) }
func (f *Factory) PrecedingSibling(ctx Node) *Unary { return f.unary(KindPrecedingSibling, ctx) }

func (f *Factory) NodeRange(start, end Node) *Binary {
	return f.binary(KindNodeRange, start, end)
}

func (f *Factory) Deref(ctx, id Node) *Binary { return f.binary(KindDeref, ctx, id) }

//-----------------------------------------------------------------------------
// Construction

func (f *Factory) ElementCtor(name, content Node) *Binary {
	return f.binary(KindElementCtor, name, content)
}

func (f *Factory) AttributeCtor(name, value Node) *Binary {
	return f.binary(KindAttributeCtor, name, value)
}

func (f *Factory) CommentCtor(content Node) *Unary { return f.unary(KindCommentCtor, content) }

func (f *Factory) PICtor(name, content Node) *Binary {
	return f.binary(KindPICtor, name, content)
}

func (f *Factory) TextCtor(content Node) *Unary { return f.unary(KindTextCtor, content) }
func (f *Factory) RawTextCtor(content Node) *Unary { return f.unary(KindRawTextCtor, content) }
func (f *Factory) DocumentCtor(content Node) *Unary { return f.unary(KindDocumentCtor, content) }

func (f *Factory) NamespaceDecl(prefix, uri Node) *Binary {
	return f.binary(KindNamespaceDecl, prefix, uri)
}

func (f *Factory) RtfCtor(content, baseURI Node) *Binary {
	return f.binary(KindRtfCtor, content, baseURI)
}

//-----------------------------------------------------------------------------
// Node properties

func (f *Factory) NameOf(n Node) *Unary { return f.unary(KindNameOf, n) }
func (f *Factory) LocalNameOf(n Node) *Unary { return f.unary(KindLocalNameOf, n) }
func (f *Factory) NamespaceUriOf(n Node) *Unary { return f.unary(KindNamespaceUriOf, n) }
func (f *Factory) PrefixOf(n Node) *Unary { return f.unary(KindPrefixOf, n) }

//-----------------------------------------------------------------------------
// Type operators

func (f *Factory) TypeAssert(src Node, t xtype.Type) *Binary {
	return f.binary(KindTypeAssert, src, f.LiteralType(t))
}

func (f *Factory) IsType(src Node, t xtype.Type) *Binary {
	return f.binary(KindIsType, src, f.LiteralType(t))
}

func (f *Factory) IsEmpty(src Node) *Unary { return f.unary(KindIsEmpty, src) }

//-----------------------------------------------------------------------------
// XPath

func (f *Factory) XPathNodeValue(n Node) *Unary { return f.unary(KindXPathNodeValue, n) }
func (f *Factory) XPathFollowing(n Node) *Unary { return f.unary(KindXPathFollowing, n) }
func (f *Factory) XPathPreceding(n Node) *Unary { return f.unary(KindXPathPreceding, n) }
func (f *Factory) XPathNamespace(n Node) *Unary { return f.unary(KindXPathNamespace, n) }

//-----------------------------------------------------------------------------
// XSLT

func (f *Factory) XsltGenerateId(n Node) *Unary { return f.unary(KindXsltGenerateId, n) }

func (f *Factory) XsltInvokeLateBound(name Node, args *List) *Binary {
	return f.binary(KindXsltInvokeLateBound, name, args)
}

// XsltInvokeEarlyBound calls a method of an early-bound extension type.
// The result type is supplied by the caller.
func (f *Factory) XsltInvokeEarlyBound(name, method Node, args *List, t xtype.Type) *Ternary {
	return f.NewTernary(KindXsltInvokeEarlyBound, name, method, args, t)
}

func (f *Factory) XsltCopy(n, content Node) *Binary {
	return f.binary(KindXsltCopy, n, content)
}

func (f *Factory) XsltCopyOf(n Node) *Unary { return f.unary(KindXsltCopyOf, n) }

func (f *Factory) XsltConvert(src Node, t xtype.Type) *Binary {
	return f.binary(KindXsltConvert, src, f.LiteralType(t))
}

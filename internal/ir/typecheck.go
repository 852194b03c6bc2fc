package ir

import "github.com/roach88/qgraph/internal/xtype"

// inferType computes the static type of a node of kind k over the given
// operands. Kinds whose type is always supplied by the caller (Unknown,
// Parameter, Function, XsltInvokeEarlyBound) and the derived lists are not
// handled here.
func inferType(k Kind, ops ...Node) xtype.Type {
	switch k {
	case KindTrue, KindFalse, KindAnd, KindOr, KindNot,
		KindNe, KindEq, KindGt, KindGe, KindLt, KindLe,
		KindIs, KindAfter, KindBefore, KindIsType, KindIsEmpty:
		return xtype.Boolean

	case KindLiteralString, KindStrConcat, KindLocalNameOf, KindNamespaceUriOf,
		KindPrefixOf, KindXPathNodeValue, KindXsltGenerateId:
		return xtype.String
	case KindLiteralInt32, KindLength, KindStrLength, KindPositionOf:
		return xtype.Int
	case KindLiteralInt64:
		return xtype.Integer
	case KindLiteralDouble:
		return xtype.Double
	case KindLiteralDecimal:
		return xtype.Decimal
	case KindLiteralQName, KindStrParseQName, KindNameOf:
		return xtype.QName
	case KindLiteralType, KindLiteralObject:
		return xtype.Item

	case KindFunctionList, KindGlobalVariableList, KindGlobalParameterList,
		KindActualParameterList, KindFormalParameterList, KindSortKeyList,
		KindXsltInvokeLateBound:
		return xtype.ItemS

	case KindOptimizeBarrier, KindNop, KindNegate, KindXsltCopyOf:
		return ops[0].Type()
	case KindProgram:
		return ops[ProgramRoot].Type()
	case KindDataSource:
		return xtype.NodeQ
	case KindError, KindWarning:
		return xtype.Empty

	case KindFor:
		b := ops[0].Type()
		if b.IsEmpty() {
			return xtype.Empty
		}
		return xtype.Of(b.Kind, xtype.One)
	case KindLet:
		return ops[0].Type()

	case KindConditional:
		return xtype.Union(ops[1].Type(), ops[2].Type())
	case KindChoice:
		return ops[1].Type()

	case KindUnion, KindIntersection, KindDifference,
		KindDescendant, KindDescendantOrSelf, KindAncestor, KindAncestorOrSelf,
		KindPreceding, KindFollowingSibling, KindPrecedingSibling,
		KindNodeRange, KindDeref,
		KindXPathFollowing, KindXPathPreceding, KindXPathNamespace:
		return xtype.NodeSDod
	case KindSum:
		return xtype.Of(aggregateKind(ops[0]), xtype.One)
	case KindAverage, KindMinimum, KindMaximum:
		card := xtype.One
		if ops[0].Type().Card.AllowsZero() {
			card = xtype.Optional
		}
		return xtype.Of(aggregateKind(ops[0]), card)

	case KindAdd, KindSubtract, KindMultiply, KindDivide, KindModulo:
		return xtype.Of(xtype.Union(ops[0].Type(), ops[1].Type()).Kind, xtype.One)

	case KindLoop:
		v := ops[0].(*Iterator)
		card := xtype.One
		if v.Kind() == KindFor {
			card = v.Binding().Type().Card
		}
		body := ops[1].Type()
		return xtype.Of(body.Kind, card.Mul(body.Card))
	case KindFilter:
		b := ops[0].(*Iterator).Binding().Type()
		return b.WithCard(b.Card | xtype.None)
	case KindSort:
		t := ops[0].(*Iterator).Binding().Type()
		t.DocOrder = false
		return t
	case KindSortKey:
		return ops[0].Type()
	case KindDocOrderDistinct:
		return ops[0].Type().Distinct()

	case KindInvoke:
		return ops[0].Type()

	case KindContent:
		return xtype.NodeS
	case KindAttribute, KindParent:
		return xtype.NodeQ
	case KindRoot, KindXmlContext,
		KindElementCtor, KindAttributeCtor, KindCommentCtor, KindPICtor,
		KindTextCtor, KindRawTextCtor, KindDocumentCtor, KindNamespaceDecl,
		KindRtfCtor, KindXsltCopy:
		return xtype.Node

	case KindTypeAssert, KindXsltConvert:
		return ops[1].(*Literal).Value().(xtype.Type)
	}
	contractf(k, "inferType", "type must be supplied explicitly")
	return xtype.Type{}
}

func aggregateKind(n Node) xtype.ItemKind {
	k := n.Type().Kind
	if k == xtype.KindNone {
		return xtype.KindDouble
	}
	return k
}

// requireBoolean panics when an operand in a boolean position is not typed
// as a single boolean.
func RequireBoolean(k Kind, n Node) {
	if !n.Type().IsBoolean() {
		contractf(k, "New", "operand %s must be xs:boolean, got %s", n.Kind(), n.Type())
	}
}

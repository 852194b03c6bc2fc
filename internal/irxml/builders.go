package irxml

import (
	"fmt"

	"github.com/roach88/qgraph/internal/ir"
	"github.com/roach88/qgraph/internal/xtype"
)

// builder turns a closed element into a node. Children have already been
// built and sit in fr.children in document order.
type builder func(r *reader, fr *frame) (ir.Node, error)

// builders dispatches on kind. Program is assembled by the reader itself.
var builders = [...]builder{
	ir.KindUnknown:             unknown,
	ir.KindProgram:             nil,
	ir.KindFunctionList:        list((*ir.Factory).FunctionList),
	ir.KindGlobalVariableList:  list((*ir.Factory).GlobalVariableList),
	ir.KindGlobalParameterList: list((*ir.Factory).GlobalParameterList),
	ir.KindActualParameterList: list((*ir.Factory).ActualParameterList),
	ir.KindFormalParameterList: list((*ir.Factory).FormalParameterList),
	ir.KindSortKeyList:         list((*ir.Factory).SortKeyList),
	ir.KindBranchList:          list((*ir.Factory).BranchList),
	ir.KindOptimizeBarrier:     unary((*ir.Factory).OptimizeBarrier),

	ir.KindDataSource: binary((*ir.Factory).DataSource),
	ir.KindNop:        unary((*ir.Factory).Nop),
	ir.KindError:      unary((*ir.Factory).Error),
	ir.KindWarning:    unary((*ir.Factory).Warning),

	ir.KindFor:        iterator((*ir.Factory).For),
	ir.KindLet:        iterator((*ir.Factory).Let),
	ir.KindParameter:  parameter,
	ir.KindPositionOf: positionOf,

	ir.KindTrue:           leaf((*ir.Factory).True),
	ir.KindFalse:          leaf((*ir.Factory).False),
	ir.KindLiteralString:  literal(ir.KindLiteralString),
	ir.KindLiteralInt32:   literal(ir.KindLiteralInt32),
	ir.KindLiteralInt64:   literal(ir.KindLiteralInt64),
	ir.KindLiteralDouble:  literal(ir.KindLiteralDouble),
	ir.KindLiteralDecimal: literal(ir.KindLiteralDecimal),
	ir.KindLiteralQName:   qname,
	ir.KindLiteralType:    literal(ir.KindLiteralType),
	ir.KindLiteralObject:  nil, // decoded from the token stream, see reader.object

	ir.KindAnd: binary((*ir.Factory).And),
	ir.KindOr:  binary((*ir.Factory).Or),
	ir.KindNot: unary((*ir.Factory).Not),

	ir.KindConditional: ternary((*ir.Factory).Conditional),
	ir.KindChoice:      choice,

	ir.KindLength:       unary((*ir.Factory).Length),
	ir.KindSequence:     list((*ir.Factory).Sequence),
	ir.KindUnion:        binary((*ir.Factory).Union),
	ir.KindIntersection: binary((*ir.Factory).Intersection),
	ir.KindDifference:   binary((*ir.Factory).Difference),
	ir.KindAverage:      unary((*ir.Factory).Average),
	ir.KindSum:          unary((*ir.Factory).Sum),
	ir.KindMinimum:      unary((*ir.Factory).Minimum),
	ir.KindMaximum:      unary((*ir.Factory).Maximum),

	ir.KindNegate:   unary((*ir.Factory).Negate),
	ir.KindAdd:      binary((*ir.Factory).Add),
	ir.KindSubtract: binary((*ir.Factory).Subtract),
	ir.KindMultiply: binary((*ir.Factory).Multiply),
	ir.KindDivide:   binary((*ir.Factory).Divide),
	ir.KindModulo:   binary((*ir.Factory).Modulo),

	ir.KindStrLength:     unary((*ir.Factory).StrLength),
	ir.KindStrConcat:     binary((*ir.Factory).StrConcat),
	ir.KindStrParseQName: binary((*ir.Factory).StrParseQName),

	ir.KindNe: binary((*ir.Factory).Ne),
	ir.KindEq: binary((*ir.Factory).Eq),
	ir.KindGt: binary((*ir.Factory).Gt),
	ir.KindGe: binary((*ir.Factory).Ge),
	ir.KindLt: binary((*ir.Factory).Lt),
	ir.KindLe: binary((*ir.Factory).Le),

	ir.KindIs:     binary((*ir.Factory).Is),
	ir.KindAfter:  binary((*ir.Factory).After),
	ir.KindBefore: binary((*ir.Factory).Before),

	ir.KindLoop:   iterated((*ir.Factory).Loop),
	ir.KindFilter: iterated((*ir.Factory).Filter),

	ir.KindSort:             sort,
	ir.KindSortKey:          binary((*ir.Factory).SortKey),
	ir.KindDocOrderDistinct: unary((*ir.Factory).DocOrderDistinct),

	ir.KindFunction: function,
	ir.KindInvoke:   invoke,

	ir.KindContent:          unary((*ir.Factory).Content),
	ir.KindAttribute:        binary((*ir.Factory).Attribute),
	ir.KindParent:           unary((*ir.Factory).Parent),
	ir.KindRoot:             unary((*ir.Factory).Root),
	ir.KindXmlContext:       leaf((*ir.Factory).XmlContext),
	ir.KindDescendant:       unary((*ir.Factory).Descendant),
	ir.KindDescendantOrSelf: unary((*ir.Factory).DescendantOrSelf),
	ir.KindAncestor:         unary((*ir.Factory).Ancestor),
	ir.KindAncestorOrSelf:   unary((*ir.Factory).AncestorOrSelf),
	ir.KindPreceding:        unary((*ir.Factory).Preceding),
	ir.KindFollowingSibling: unary((*ir.Factory).FollowingSibling),
	ir.KindPrecedingSibling: unary((*ir.Factory).PrecedingSibling),
	ir.KindNodeRange:        binary((*ir.Factory).NodeRange),
	ir.KindDeref:            binary((*ir.Factory).Deref),

	ir.KindElementCtor:   binary((*ir.Factory).ElementCtor),
	ir.KindAttributeCtor: binary((*ir.Factory).AttributeCtor),
	ir.KindCommentCtor:   unary((*ir.Factory).CommentCtor),
	ir.KindPICtor:        binary((*ir.Factory).PICtor),
	ir.KindTextCtor:      unary((*ir.Factory).TextCtor),
	ir.KindRawTextCtor:   unary((*ir.Factory).RawTextCtor),
	ir.KindDocumentCtor:  unary((*ir.Factory).DocumentCtor),
	ir.KindNamespaceDecl: binary((*ir.Factory).NamespaceDecl),
	ir.KindRtfCtor:       binary((*ir.Factory).RtfCtor),

	ir.KindNameOf:         unary((*ir.Factory).NameOf),
	ir.KindLocalNameOf:    unary((*ir.Factory).LocalNameOf),
	ir.KindNamespaceUriOf: unary((*ir.Factory).NamespaceUriOf),
	ir.KindPrefixOf:       unary((*ir.Factory).PrefixOf),

	ir.KindTypeAssert: typed((*ir.Factory).TypeAssert),
	ir.KindIsType:     typed((*ir.Factory).IsType),
	ir.KindIsEmpty:    unary((*ir.Factory).IsEmpty),

	ir.KindXPathNodeValue: unary((*ir.Factory).XPathNodeValue),
	ir.KindXPathFollowing: unary((*ir.Factory).XPathFollowing),
	ir.KindXPathPreceding: unary((*ir.Factory).XPathPreceding),
	ir.KindXPathNamespace: unary((*ir.Factory).XPathNamespace),

	ir.KindXsltGenerateId:       unary((*ir.Factory).XsltGenerateId),
	ir.KindXsltInvokeLateBound:  lateBound,
	ir.KindXsltInvokeEarlyBound: earlyBound,
	ir.KindXsltCopy:             binary((*ir.Factory).XsltCopy),
	ir.KindXsltCopyOf:           unary((*ir.Factory).XsltCopyOf),
	ir.KindXsltConvert:          typed((*ir.Factory).XsltConvert),
}

var _ [ir.KindCount]builder = builders

//-----------------------------------------------------------------------------
// Shape helpers

func leaf(fn func(*ir.Factory) *ir.Leaf) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 0); err != nil {
			return nil, err
		}
		return fn(r.f), nil
	}
}

func unary(fn func(*ir.Factory, ir.Node) *ir.Unary) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 1); err != nil {
			return nil, err
		}
		return fn(r.f, fr.children[0]), nil
	}
}

func binary(fn func(*ir.Factory, ir.Node, ir.Node) *ir.Binary) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 2); err != nil {
			return nil, err
		}
		return fn(r.f, fr.children[0], fr.children[1]), nil
	}
}

func ternary(fn func(*ir.Factory, ir.Node, ir.Node, ir.Node) *ir.Ternary) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 3); err != nil {
			return nil, err
		}
		return fn(r.f, fr.children[0], fr.children[1], fr.children[2]), nil
	}
}

func list(fn func(*ir.Factory, ...ir.Node) *ir.List) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		return fn(r.f, fr.children...), nil
	}
}

func iterator(fn func(*ir.Factory, ir.Node) *ir.Iterator) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 1); err != nil {
			return nil, err
		}
		return fn(r.f, fr.children[0]), nil
	}
}

// iterated builds Loop and Filter, whose first child is the iterator.
func iterated(fn func(*ir.Factory, *ir.Iterator, ir.Node) *ir.Binary) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 2); err != nil {
			return nil, err
		}
		v, err := childAs[*ir.Iterator](r, fr, 0)
		if err != nil {
			return nil, err
		}
		return fn(r.f, v, fr.children[1]), nil
	}
}

// typed builds the kinds whose second child is a LiteralType.
func typed(fn func(*ir.Factory, ir.Node, xtype.Type) *ir.Binary) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 2); err != nil {
			return nil, err
		}
		lit, err := childAs[*ir.Literal](r, fr, 1)
		if err != nil {
			return nil, err
		}
		t, ok := lit.Value().(xtype.Type)
		if !ok {
			return nil, r.errorf(fmt.Errorf("%w: child 1 is %s, want LiteralType", ErrStructure, lit.Kind()))
		}
		return fn(r.f, fr.children[0], t), nil
	}
}

func literal(k ir.Kind) builder {
	return func(r *reader, fr *frame) (ir.Node, error) {
		if err := r.arity(fr, 0); err != nil {
			return nil, err
		}
		v, err := ir.ParseLiteral(k, fr.text.String())
		if err != nil {
			return nil, r.errorf(fmt.Errorf("%w: %v", ErrBadPayload, err))
		}
		return r.f.NewLiteral(k, v, literalType(k, v)), nil
	}
}

// literalType is the type a scalar literal gets before any explicit
// xmlType is applied.
func literalType(k ir.Kind, v any) xtype.Type {
	switch k {
	case ir.KindLiteralString:
		return xtype.String
	case ir.KindLiteralInt32:
		return xtype.Int
	case ir.KindLiteralInt64:
		return xtype.Integer
	case ir.KindLiteralDouble:
		return xtype.Double
	case ir.KindLiteralDecimal:
		return xtype.Decimal
	}
	return xtype.Atomic
}

//-----------------------------------------------------------------------------
// Kinds with their own layout

func unknown(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 0); err != nil {
		return nil, err
	}
	t, err := r.requireType(fr)
	if err != nil {
		return nil, err
	}
	return r.f.Unknown(t), nil
}

func qname(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 0); err != nil {
		return nil, err
	}
	local, ok := fr.attr(attrLocal)
	if !ok {
		return nil, r.errorf(fmt.Errorf("%w: %s", ErrMissingAttr, attrLocal))
	}
	return r.f.LiteralQName(local, fr.attrs[attrNS], fr.attrs[attrPrefix]), nil
}

func parameter(r *reader, fr *frame) (ir.Node, error) {
	if len(fr.children) != 1 && len(fr.children) != 2 {
		return nil, r.errorf(fmt.Errorf("%w: Parameter has %d, want 1 or 2", ErrBadArity, len(fr.children)))
	}
	t, err := r.requireType(fr)
	if err != nil {
		return nil, err
	}
	var name *ir.Name
	if len(fr.children) == 2 {
		if name, err = childAs[*ir.Name](r, fr, 1); err != nil {
			return nil, err
		}
	}
	return r.f.Parameter(fr.children[0], name, t), nil
}

func positionOf(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 1); err != nil {
		return nil, err
	}
	v, err := childAs[*ir.Iterator](r, fr, 0)
	if err != nil {
		return nil, err
	}
	return r.f.PositionOf(v), nil
}

func choice(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 2); err != nil {
		return nil, err
	}
	branches, err := childAs[*ir.List](r, fr, 1)
	if err != nil {
		return nil, err
	}
	return r.f.Choice(fr.children[0], branches), nil
}

func sort(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 2); err != nil {
		return nil, err
	}
	v, err := childAs[*ir.Iterator](r, fr, 0)
	if err != nil {
		return nil, err
	}
	keys, err := childAs[*ir.List](r, fr, 1)
	if err != nil {
		return nil, err
	}
	return r.f.Sort(v, keys), nil
}

func function(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 3); err != nil {
		return nil, err
	}
	t, err := r.requireType(fr)
	if err != nil {
		return nil, err
	}
	args, err := childAs[*ir.List](r, fr, 0)
	if err != nil {
		return nil, err
	}
	return r.f.Function(args, fr.children[1], fr.children[2], t), nil
}

func invoke(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 2); err != nil {
		return nil, err
	}
	fn, err := childAs[*ir.Function](r, fr, 0)
	if err != nil {
		return nil, err
	}
	args, err := childAs[*ir.List](r, fr, 1)
	if err != nil {
		return nil, err
	}
	return r.f.Invoke(fn, args), nil
}

func lateBound(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 2); err != nil {
		return nil, err
	}
	args, err := childAs[*ir.List](r, fr, 1)
	if err != nil {
		return nil, err
	}
	return r.f.XsltInvokeLateBound(fr.children[0], args), nil
}

func earlyBound(r *reader, fr *frame) (ir.Node, error) {
	if err := r.arity(fr, 3); err != nil {
		return nil, err
	}
	t, err := r.requireType(fr)
	if err != nil {
		return nil, err
	}
	args, err := childAs[*ir.List](r, fr, 2)
	if err != nil {
		return nil, err
	}
	return r.f.XsltInvokeEarlyBound(fr.children[0], fr.children[1], args, t), nil
}

//-----------------------------------------------------------------------------

func (r *reader) arity(fr *frame, n int) error {
	if len(fr.children) != n {
		return r.errorf(fmt.Errorf("%w: %s has %d, want %d", ErrBadArity, fr.name, len(fr.children), n))
	}
	return nil
}

func childAs[N ir.Node](r *reader, fr *frame, i int) (N, error) {
	n, ok := fr.children[i].(N)
	if !ok {
		var zero N
		return zero, r.errorf(fmt.Errorf("%w: %s child %d is %s", ErrStructure, fr.name, i, fr.children[i].Kind()))
	}
	return n, nil
}

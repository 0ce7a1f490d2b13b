package tyck

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/types"
)

// CoercionKind names the assignment-compatibility plan computed for one
// (dst, src) pair, grounded on original_source's TypeCheck.hpp
// `CoercionKind` enum (spec §4.4 "coercion plan").
type CoercionKind uint8

const (
	CoercionExact CoercionKind = iota
	CoercionNullToOptionalNone
	CoercionLiftToOptionalSome
	CoercionInferThenExact
	CoercionInferThenLiftToOptionalSome
	CoercionReject
)

// CoercionPlan is the result of classifying one assignment/initialization
// site: whether it's legal, and what the source expression's final
// resolved type ends up being.
type CoercionPlan struct {
	Kind     CoercionKind
	Dst      types.ID
	SrcAfter types.ID
	OK       bool
}

// classifyAssign computes the CoercionPlan for assigning a value of type
// src (produced by expression srcExpr) to a destination of type dst (spec
// §4.4 `can_assign`/coercion plan).
func (c *Checker) classifyAssign(dst types.ID, srcExpr ast.ExprID, src types.ID) CoercionPlan {
	if dst == types.ErrorID || src == types.ErrorID {
		return CoercionPlan{Kind: CoercionExact, Dst: dst, SrcAfter: dst, OK: true}
	}
	if dst == src {
		return CoercionPlan{Kind: CoercionExact, Dst: dst, SrcAfter: dst, OK: true}
	}

	srcT := c.pool.Get(src)
	dstT := c.pool.Get(dst)

	// null -> T? (None)
	if srcT.Kind == types.KOptional && srcT.Elem == c.pool.BuiltinID(types.BNever) && dstT.Kind == types.KOptional {
		return CoercionPlan{Kind: CoercionNullToOptionalNone, Dst: dst, SrcAfter: dst, OK: true}
	}

	// {integer} literal -> exact builtin int, checked by arbitrary precision
	if srcT.Kind == types.KBuiltin && srcT.Builtin == types.BInferInteger {
		if dstT.Kind == types.KBuiltin && dstT.Builtin.IsInt() {
			if c.intLiteralFits(srcExpr, dstT.Builtin) {
				return CoercionPlan{Kind: CoercionInferThenExact, Dst: dst, SrcAfter: dst, OK: true}
			}
			return CoercionPlan{Kind: CoercionReject, Dst: dst, OK: false}
		}
		if dstT.Kind == types.KOptional {
			elemT := c.pool.Get(dstT.Elem)
			if elemT.Kind == types.KBuiltin && elemT.Builtin.IsInt() && c.intLiteralFits(srcExpr, elemT.Builtin) {
				return CoercionPlan{Kind: CoercionInferThenLiftToOptionalSome, Dst: dst, SrcAfter: dst, OK: true}
			}
		}
		return CoercionPlan{Kind: CoercionReject, Dst: dst, OK: false}
	}

	// T -> T? (lift to Some)
	if dstT.Kind == types.KOptional && dstT.Elem == src {
		return CoercionPlan{Kind: CoercionLiftToOptionalSome, Dst: dst, SrcAfter: dst, OK: true}
	}

	return CoercionPlan{Kind: CoercionReject, Dst: dst, OK: false}
}

// intLiteralFits reports whether the literal-backed expression srcExpr
// (an integer literal, or an error/non-literal treated permissively) fits
// builtin b. Non-literal {integer}-typed expressions (there are none in
// this grammar; every {integer} originates from a literal) are treated as
// fitting, since there's no literal text to range-check.
func (c *Checker) intLiteralFits(srcExpr ast.ExprID, b types.Builtin) bool {
	if srcExpr == ast.InvalidExpr {
		return true
	}
	e := c.a.Expr(srcExpr)
	if e.Kind != ast.EIntLit {
		return true
	}
	return FitsInt(e.Text, b)
}

// checkAssignable runs classifyAssign and reports code at span(srcExpr) if
// the plan rejects, annotating the diagnostic with what (context) the
// mismatch occurred in.
func (c *Checker) checkAssignable(dst types.ID, srcExpr ast.ExprID, src types.ID, code errors.Code, context string) bool {
	plan := c.classifyAssign(dst, srcExpr, src)
	if plan.OK {
		return true
	}
	span := c.a.Expr(srcExpr).Span
	c.bag.Add(errors.New(code, "tyck", &span, "type mismatch in %s", context))
	return false
}

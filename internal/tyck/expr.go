package tyck

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/types"
)

// checkExpr assigns and returns the type of expr id, recording it in
// exprTypes. Errors don't stop the walk: a mismatch resolves to ErrorID and
// checking continues (spec §7, accumulate-and-continue).
func (c *Checker) checkExpr(id ast.ExprID) types.ID {
	if id == ast.InvalidExpr {
		return types.ErrorID
	}
	if ty, ok := c.exprTypes[id]; ok {
		return ty
	}
	ty := c.checkExprUncached(id)
	c.exprTypes[id] = ty
	return ty
}

func (c *Checker) checkExprUncached(id ast.ExprID) types.ID {
	e := c.a.Expr(id)
	switch e.Kind {
	case ast.EIdent:
		if symID, ok := c.rr.ExprSym[id]; ok {
			return c.rr.Syms.Get(symID).Type
		}
		return types.ErrorID

	case ast.EIntLit:
		return c.pool.BuiltinID(types.BInferInteger)

	case ast.EFloatLit:
		return c.pool.BuiltinID(types.BF64)

	case ast.EStringLit:
		return c.pool.InternPath([]string{"string"})

	case ast.ECharLit:
		return c.pool.BuiltinID(types.BChar)

	case ast.EBoolLit:
		return c.pool.BuiltinID(types.BBool)

	case ast.ENullLit:
		return c.pool.MakeOptional(c.pool.BuiltinID(types.BNever))

	case ast.EUnary:
		return c.checkExpr(e.A)

	case ast.EBinary:
		lt := c.checkExpr(e.A)
		rt := c.checkExpr(e.B)
		return c.checkBinaryOp(e, lt, rt)

	case ast.ETernary:
		ct := c.checkExpr(e.A)
		if ct != types.ErrorID && ct != c.pool.BuiltinID(types.BBool) {
			c.bag.Add(errors.New(errors.TypeCondMustBeBool, "tyck", &e.Span, "ternary condition must be bool"))
		}
		tt := c.checkExpr(e.B)
		et := c.checkExpr(e.C)
		return c.joinTypes(tt, et)

	case ast.EAssign:
		if e.A != ast.InvalidExpr && c.a.Expr(e.A).Place == ast.PlaceNone {
			c.bag.Add(errors.New(errors.AssignLhsMustBePlace, "tyck", &e.Span, "assignment target must be a place expression"))
		}
		dstTy := c.checkExpr(e.A)
		srcTy := c.checkExpr(e.B)
		c.checkAssignable(dstTy, e.B, srcTy, errors.TypeMismatch, "assignment")
		return dstTy

	case ast.EPostfixInc:
		if e.A != ast.InvalidExpr && c.a.Expr(e.A).Place == ast.PlaceNone {
			c.bag.Add(errors.New(errors.PostfixOperandMustBePlace, "tyck", &e.Span, "++ operand must be a place expression"))
		}
		return c.checkExpr(e.A)

	case ast.EIndex:
		baseTy := c.checkExpr(e.A)
		idxTy := c.checkExpr(e.B)
		if idxTy != types.ErrorID && idxTy != c.pool.BuiltinID(types.BUSize) && idxTy != c.pool.BuiltinID(types.BInferInteger) {
			c.bag.Add(errors.New(errors.TypeIndexMustBeUSize, "tyck", &e.Span, "index expression must be usize"))
		}
		bt := c.pool.Get(baseTy)
		if bt.Kind == types.KArray {
			return bt.Elem
		}
		if bt.Kind == types.KBorrow {
			inner := c.pool.Get(bt.Elem)
			if inner.Kind == types.KArray {
				return inner.Elem
			}
		}
		return types.ErrorID

	case ast.ERange:
		c.checkExpr(e.A)
		c.checkExpr(e.B)
		return c.pool.BuiltinID(types.BVoid)

	case ast.EField:
		baseTy := c.checkExpr(e.A)
		return c.checkFieldAccess(baseTy, e.Text, e.Span)

	case ast.ECall:
		return c.checkCall(id, e)

	case ast.EBorrow:
		if e.A != ast.InvalidExpr && c.a.Expr(e.A).Place == ast.PlaceNone {
			c.bag.Add(errors.New(errors.BorrowOperandMustBePlace, "tyck", &e.Span, "borrow operand must be a place expression"))
		}
		inner := c.checkExpr(e.A)
		return c.pool.MakeBorrow(inner, e.UnaryIsMut)

	case ast.EEscape:
		if e.A != ast.InvalidExpr && c.a.Expr(e.A).Place == ast.PlaceNone {
			c.bag.Add(errors.New(errors.EscapeOperandMustBePlace, "tyck", &e.Span, "escape operand must be a place expression"))
		}
		inner := c.checkExpr(e.A)
		if c.pool.IsBorrow(inner) {
			c.bag.Add(errors.New(errors.EscapeOperandMustNotBeBorrow, "tyck", &e.Span, "cannot take && of a borrow"))
			return types.ErrorID
		}
		if len(c.fnCtx) > 0 && (c.fnCtx[len(c.fnCtx)-1].IsPure || c.fnCtx[len(c.fnCtx)-1].IsComptime) {
			c.bag.Add(errors.New(errors.TypeEscapeNotAllowedInPureComptime, "tyck", &e.Span, "&& is not allowed in a pure/comptime function"))
		}
		return c.pool.MakeEscape(inner)

	case ast.ECast:
		srcTy := c.checkExpr(e.A)
		return c.checkCast(srcTy, e)

	case ast.EIfExpr:
		ct := c.checkExpr(e.A)
		if ct != types.ErrorID && ct != c.pool.BuiltinID(types.BBool) {
			c.bag.Add(errors.New(errors.TypeCondMustBeBool, "tyck", &e.Span, "if condition must be bool"))
		}
		tt := c.checkThenElse(e.ThenID, e.ThenIsStmt)
		et := c.checkThenElse(e.ElseID, e.ElseIsStmt)
		return c.joinTypes(tt, et)

	case ast.EBlockExpr:
		c.checkStmt(e.BodyStmt)
		if e.TailExpr != ast.InvalidExpr {
			return c.checkExpr(e.TailExpr)
		}
		return c.pool.BuiltinID(types.BVoid)

	case ast.ELoopExpr:
		return c.checkLoop(id, e)

	case ast.EBreak:
		return c.checkBreak(e)

	case ast.EContinue:
		return c.pool.BuiltinID(types.BNever)

	case ast.EReturn:
		return c.checkReturn(e)

	case ast.EArrayLit:
		elemTy := types.ErrorID
		for i, elID := range c.a.ExprSlice(e.ElemBegin, e.ElemCount) {
			t := c.checkExpr(elID)
			if i == 0 {
				elemTy = t
			} else {
				c.checkAssignable(elemTy, elID, t, errors.TypeMismatch, "array literal element")
			}
		}
		return c.pool.MakeArray(elemTy, int(e.ElemCount))

	case ast.EFieldInit:
		return c.checkFieldInit(e)
	}
	return types.ErrorID
}

// checkThenElse type-checks an if-arm that may be stored as either a
// statement or expression ID (spec §4.3); a statement arm types as void.
func (c *Checker) checkThenElse(id uint32, isStmt bool) types.ID {
	if isStmt {
		c.checkStmt(ast.StmtID(id))
		return c.pool.BuiltinID(types.BVoid)
	}
	if ast.ExprID(id) == ast.InvalidExpr {
		return c.pool.BuiltinID(types.BVoid)
	}
	return c.checkExpr(ast.ExprID(id))
}

// joinTypes produces the type of a two-armed expression (if/ternary): equal
// arms pass through; an error arm is absorbed; an {integer} arm takes the
// other arm's integer type; otherwise a mismatch is reported and ErrorID
// returned.
func (c *Checker) joinTypes(a, b types.ID) types.ID {
	if a == b {
		return a
	}
	if a == types.ErrorID {
		return b
	}
	if b == types.ErrorID {
		return a
	}
	deferredA := c.pool.Get(a).Kind == types.KBuiltin && c.pool.Get(a).Builtin == types.BInferInteger
	deferredB := c.pool.Get(b).Kind == types.KBuiltin && c.pool.Get(b).Builtin == types.BInferInteger
	if deferredA && c.pool.Get(b).Builtin.IsInt() {
		return b
	}
	if deferredB && c.pool.Get(a).Builtin.IsInt() {
		return a
	}
	c.bag.Add(errors.New(errors.TypeMismatch, "tyck", nil, "incompatible branch types"))
	return types.ErrorID
}

func (c *Checker) checkFieldAccess(baseTy types.ID, name string, span ast.Span) types.ID {
	bt := c.pool.Get(baseTy)
	target := bt
	if bt.Kind == types.KBorrow {
		target = c.pool.Get(bt.Elem)
	}
	if target.Kind != types.KNamedUser {
		if baseTy != types.ErrorID {
			c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &span, "field access on non-struct type"))
		}
		return types.ErrorID
	}
	typeName := ""
	if len(target.Path) > 0 {
		typeName = target.Path[len(target.Path)-1]
	}
	info, ok := c.types_[typeName]
	if !ok {
		return types.ErrorID
	}
	for _, f := range info.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &span, "type %q has no field %q", typeName, name))
	return types.ErrorID
}

func (c *Checker) checkFieldInit(e ast.Expr) types.ID {
	info, ok := c.types_[e.Text]
	ty := types.ErrorID
	if ok {
		ty = info.Type
	} else {
		c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &e.Span, "unknown type %q in field-init literal", e.Text))
	}
	for _, fm := range c.a.FieldMemberSlice(e.FieldBegin, e.FieldCount) {
		if fm.Value == ast.InvalidExpr {
			continue
		}
		srcTy := c.checkExpr(fm.Value)
		if !ok {
			continue
		}
		for _, f := range info.Fields {
			if f.Name == fm.Name {
				c.checkAssignable(f.Type, fm.Value, srcTy, errors.TypeMismatch, "field initializer")
			}
		}
	}
	return ty
}

func (c *Checker) checkCast(srcTy types.ID, e ast.Expr) types.ID {
	dstTy := ResolveTypeArg(c.pool, c.a, e.CastTo)
	srcT := c.pool.Get(srcTy)
	if e.CastKind != ast.CastOptional && srcT.Kind == types.KOptional {
		dstOpt := c.pool.Get(dstTy)
		if dstOpt.Kind != types.KOptional {
			c.bag.Add(errors.New(errors.TyckCastNullToNonOptional, "tyck", &e.Span,
				"casting an optional to a non-optional type requires as? or as!"))
			return types.ErrorID
		}
	}
	return dstTy
}

func (c *Checker) checkBreak(e ast.Expr) types.ID {
	if len(c.loopCtx) == 0 {
		if e.A != ast.InvalidExpr {
			c.bag.Add(errors.New(errors.TypeBreakValueOnlyInLoopExpr, "tyck", &e.Span, "break with a value is only allowed inside a loop expression"))
		}
		return c.pool.BuiltinID(types.BNever)
	}
	lc := c.loopCtx[len(c.loopCtx)-1]
	if e.A != ast.InvalidExpr {
		vt := c.checkExpr(e.A)
		lc.HasValueBreak = true
		if !lc.sawFirst {
			lc.JoinedType = vt
			lc.sawFirst = true
		} else {
			lc.JoinedType = c.joinTypes(lc.JoinedType, vt)
		}
	}
	return c.pool.BuiltinID(types.BNever)
}

func (c *Checker) checkReturn(e ast.Expr) types.ID {
	if len(c.fnCtx) == 0 {
		c.bag.Add(errors.New(errors.TypeReturnOutsideFn, "tyck", &e.Span, "return outside of a function body"))
		if e.A != ast.InvalidExpr {
			c.checkExpr(e.A)
		}
		return c.pool.BuiltinID(types.BNever)
	}
	fc := c.fnCtx[len(c.fnCtx)-1]
	if e.A == ast.InvalidExpr {
		if fc.Ret != c.pool.BuiltinID(types.BVoid) {
			c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &e.Span, "missing return value"))
		}
		return c.pool.BuiltinID(types.BNever)
	}
	vt := c.checkExpr(e.A)
	c.checkAssignable(fc.Ret, e.A, vt, errors.TypeMismatch, "return value")
	return c.pool.BuiltinID(types.BNever)
}

func (c *Checker) checkLoop(id ast.ExprID, e ast.Expr) types.ID {
	iterTy := c.checkExpr(e.A)
	elemTy := types.ErrorID
	it := c.pool.Get(iterTy)
	switch it.Kind {
	case types.KArray:
		elemTy = it.Elem
	case types.KBorrow:
		inner := c.pool.Get(it.Elem)
		if inner.Kind == types.KArray {
			elemTy = inner.Elem
		}
	}
	if e.LoopVarName != "" {
		if symID, ok := c.rr.LoopVarSym[id]; ok {
			c.rr.Syms.SetType(symID, elemTy)
		}
	}
	c.loopCtx = append(c.loopCtx, &loopContext{})
	c.checkStmt(e.BodyStmt)
	lc := c.loopCtx[len(c.loopCtx)-1]
	c.loopCtx = c.loopCtx[:len(c.loopCtx)-1]
	if lc.HasValueBreak {
		return lc.JoinedType
	}
	return c.pool.BuiltinID(types.BVoid)
}

// checkBinaryOp type-checks an operator expression, first against builtin
// arithmetic/comparison rules, falling back to `acts` operator overload
// resolution for user types (spec §4.4).
func (c *Checker) checkBinaryOp(e ast.Expr, lt, rt types.ID) types.ID {
	ltT, rtT := c.pool.Get(lt), c.pool.Get(rt)
	comparison := e.Op == "==" || e.Op == "!=" || e.Op == "<" || e.Op == "<=" || e.Op == ">" || e.Op == ">="
	logical := e.Op == "&&" || e.Op == "||"

	if logical {
		if lt != types.ErrorID && lt != c.pool.BuiltinID(types.BBool) {
			c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &e.Span, "logical operator operand must be bool"))
		}
		if rt != types.ErrorID && rt != c.pool.BuiltinID(types.BBool) {
			c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &e.Span, "logical operator operand must be bool"))
		}
		return c.pool.BuiltinID(types.BBool)
	}

	if ltT.Kind == types.KBuiltin && rtT.Kind == types.KBuiltin && (ltT.Builtin.IsInt() || ltT.Builtin.IsFloat()) {
		unified := c.joinTypes(lt, rt)
		if comparison {
			return c.pool.BuiltinID(types.BBool)
		}
		return unified
	}

	if target, ok := c.resolveOperatorOverload(e, lt, rt); ok {
		return target
	}
	c.bag.Add(errors.New(errors.OverloadNoMatchingCall, "tyck", &e.Span, "no matching operator %q overload", e.Op))
	return types.ErrorID
}

// resolveOperatorOverload picks the `acts` declaration for e.Op, looked up
// by the textual operator key, whose acts-for type is exactly lt and whose
// second parameter type is exactly rt. No ranking is applied: a second exact
// match is reported as OverloadAmbiguousCall and the first match is used.
func (c *Checker) resolveOperatorOverload(e ast.Expr, lt, rt types.ID) (types.ID, bool) {
	candidates := c.rr.ActsOverloads[e.Op]
	var best *FnSig
	for _, stmtID := range candidates {
		sig := c.actsSigs[stmtID]
		if sig == nil || sig.ActsForType != lt {
			continue
		}
		if len(sig.Positional) < 2 || sig.Positional[1].Type != rt {
			continue
		}
		if best != nil {
			c.bag.Add(errors.New(errors.OverloadAmbiguousCall, "tyck", &e.Span, "ambiguous operator %q overload", e.Op))
			return best.Ret, true
		}
		best = sig
	}
	if best == nil {
		return types.ErrorID, false
	}
	return best.Ret, true
}

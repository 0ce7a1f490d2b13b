package tyck

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/types"
)

// checkStmt type-checks one statement. Declarations nested below top level
// (SBlock contents) reach here; SFnDecl/SActsDecl/STypeDecl never nest in
// the surface grammar so they aren't handled again here.
func (c *Checker) checkStmt(id ast.StmtID) {
	if id == ast.InvalidStmt {
		return
	}
	s := c.a.Stmt(id)
	switch s.Kind {
	case ast.SExprStmt:
		c.checkExpr(s.Init)

	case ast.SBlock:
		for _, child := range c.a.StmtSlice(s.StmtBegin, s.StmtCount) {
			c.checkStmt(child)
		}

	case ast.SVarDecl:
		var dstTy types.ID
		symID, hasSym := c.rr.StmtSym[id]
		if s.TypeAnno != ast.InvalidTypeArg {
			dstTy = ResolveTypeArg(c.pool, c.a, s.TypeAnno)
		}
		if s.Init != ast.InvalidExpr {
			srcTy := c.checkExpr(s.Init)
			if s.TypeAnno != ast.InvalidTypeArg {
				c.checkAssignable(dstTy, s.Init, srcTy, errors.TypeLetInitMismatch, "let/set initializer")
				if hasSym {
					c.rr.Syms.SetType(symID, dstTy)
				}
			} else if hasSym {
				c.rr.Syms.SetType(symID, c.resolveDeferred(srcTy, s.Init))
			}
		} else if hasSym && s.TypeAnno != ast.InvalidTypeArg {
			c.rr.Syms.SetType(symID, dstTy)
		}
	}
}

// resolveDeferred finalizes a `{integer}`-tagged expression type once no
// destination annotation constrains it: literal integers with no type
// context default to i32 if they fit, else IntLiteralDoesNotFit is
// reported; a non-literal {integer} expression defaults to i32 unchecked
// (spec §4.4 "Deferred integer inference").
func (c *Checker) resolveDeferred(ty types.ID, exprID ast.ExprID) types.ID {
	t := c.pool.Get(ty)
	if t.Kind != types.KBuiltin || t.Builtin != types.BInferInteger {
		return ty
	}
	e := c.a.Expr(exprID)
	if e.Kind != ast.EIntLit {
		return c.pool.BuiltinID(types.BI32)
	}
	if FitsInt(e.Text, types.BI32) {
		return c.pool.BuiltinID(types.BI32)
	}
	c.bag.Add(errors.New(errors.IntLiteralDoesNotFit, "tyck", &e.Span,
		"integer literal %s does not fit in the default i32 and has no other type context", e.Text))
	return types.ErrorID
}

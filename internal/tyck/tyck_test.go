package tyck

import (
	"testing"

	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/resolve"
	"github.com/parusbuild/parusc/internal/symtab"
	"github.com/parusbuild/parusc/internal/types"
	"github.com/stretchr/testify/require"
)

// buildLetDecl constructs `let x: i32 = <lit>;` as a single top-level
// SVarDecl over a fresh arena, returning the decl id.
func buildLetDecl(a *ast.Arena, lit string, typeName string) ast.StmtID {
	litID := a.AddExpr(ast.Expr{Kind: ast.EIntLit, Text: lit})
	annoID := a.AddTypeArg(ast.TypeArg{Kind: ast.TANamed, Path: []string{typeName}})
	return a.AddStmt(ast.Stmt{Kind: ast.SVarDecl, Name: "x", TypeAnno: annoID, Init: litID})
}

func TestDeferredIntLiteralFitsAnnotatedType(t *testing.T) {
	a := ast.New()
	decl := buildLetDecl(a, "42", "i8")
	pool := types.NewPool()
	rr := resolve.New(a, pool, symtab.ShadowAllow).Resolve([]ast.StmtID{decl})
	require.Empty(t, rr.Bag.Errors())

	res := New(a, pool, rr).Check([]ast.StmtID{decl})
	require.Empty(t, res.Bag.Errors())
}

func TestDeferredIntLiteralOverflowsAnnotatedType(t *testing.T) {
	a := ast.New()
	decl := buildLetDecl(a, "1000", "i8")
	pool := types.NewPool()
	rr := resolve.New(a, pool, symtab.ShadowAllow).Resolve([]ast.StmtID{decl})

	res := New(a, pool, rr).Check([]ast.StmtID{decl})
	require.NotEmpty(t, res.Bag.Errors())
}

func TestUnannotatedIntLiteralDefaultsToI32(t *testing.T) {
	a := ast.New()
	litID := a.AddExpr(ast.Expr{Kind: ast.EIntLit, Text: "7"})
	decl := a.AddStmt(ast.Stmt{Kind: ast.SVarDecl, Name: "x", TypeAnno: ast.InvalidTypeArg, Init: litID})

	pool := types.NewPool()
	rr := resolve.New(a, pool, symtab.ShadowAllow).Resolve([]ast.StmtID{decl})
	res := New(a, pool, rr).Check([]ast.StmtID{decl})
	require.Empty(t, res.Bag.Errors())

	symID := rr.StmtSym[decl]
	require.Equal(t, pool.BuiltinID(types.BI32), rr.Syms.Get(symID).Type)
}

func TestReturnOutsideFunctionIsReported(t *testing.T) {
	a := ast.New()
	retExpr := a.AddExpr(ast.Expr{Kind: ast.EReturn, A: ast.InvalidExpr})
	stmt := a.AddStmt(ast.Stmt{Kind: ast.SExprStmt, Init: retExpr})
	block := a.AddStmt(ast.Stmt{Kind: ast.SBlock})
	begin, count := a.PushStmtIDs([]ast.StmtID{stmt})
	a.Stmts[block].StmtBegin, a.Stmts[block].StmtCount = begin, count

	pool := types.NewPool()
	rr := resolve.New(a, pool, symtab.ShadowAllow).Resolve(nil)
	c := New(a, pool, rr)
	c.checkStmt(block)
	require.NotEmpty(t, c.bag.Errors())
	require.Equal(t, "TypeReturnOutsideFn", string(c.bag.Errors()[0].Code))
}

func TestFunctionOverloadResolutionPicksExactPositionalMatch(t *testing.T) {
	a := ast.New()
	i32Anno := a.AddTypeArg(ast.TypeArg{Kind: ast.TANamed, Path: []string{"i32"}})
	f64Anno := a.AddTypeArg(ast.TypeArg{Kind: ast.TANamed, Path: []string{"f64"}})

	p1 := a.AddParam(ast.Param{Name: "a", Type: i32Anno, Default: ast.InvalidExpr})
	fn1 := a.AddStmt(ast.Stmt{Kind: ast.SFnDecl, Name: "f", ParamBegin: uint32(p1), ParamCount: 1, ReturnType: i32Anno, Body: ast.InvalidStmt})

	p2 := a.AddParam(ast.Param{Name: "a", Type: f64Anno, Default: ast.InvalidExpr})
	fn2 := a.AddStmt(ast.Stmt{Kind: ast.SFnDecl, Name: "f", ParamBegin: uint32(p2), ParamCount: 1, ReturnType: f64Anno, Body: ast.InvalidStmt})

	argLit := a.AddExpr(ast.Expr{Kind: ast.EFloatLit, Text: "1.5"})
	argID := a.AddArg(ast.Arg{Value: argLit})
	argBegin, argCount := uint32(argID), uint32(1)
	calleeIdent := a.AddExpr(ast.Expr{Kind: ast.EIdent, Text: "f"})
	callExpr := a.AddExpr(ast.Expr{Kind: ast.ECall, A: calleeIdent, ArgBegin: argBegin, ArgCount: argCount})
	exprStmt := a.AddStmt(ast.Stmt{Kind: ast.SExprStmt, Init: callExpr})

	decls := []ast.StmtID{fn1, fn2}
	pool := types.NewPool()
	rr := resolve.New(a, pool, symtab.ShadowAllow).Resolve(decls)
	require.Empty(t, rr.Bag.Errors())

	c := New(a, pool, rr)
	res := c.Check(decls)
	c.checkStmt(exprStmt)
	require.Empty(t, res.Bag.Errors())
	require.Equal(t, fn2, c.callTarget[callExpr])
}

package parser

import (
	"testing"

	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/lexer"
)

func parse(t *testing.T, src string) (*Parser, []ast.StmtID) {
	t.Helper()
	l := lexer.New(src, "test.pr")
	p := New(l)
	decls := p.ParseFile()
	return p, decls
}

func requireNoErrors(t *testing.T, p *Parser) {
	t.Helper()
	if errs := p.Bag.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
}

func firstFnBody(t *testing.T, p *Parser, decls []ast.StmtID) ast.Expr {
	t.Helper()
	if len(decls) == 0 {
		t.Fatalf("no top-level declarations parsed")
	}
	fn := p.Arena.Stmt(decls[0])
	if fn.Kind != ast.SFnDecl {
		t.Fatalf("expected SFnDecl, got %v", fn.Kind)
	}
	body := p.Arena.Stmt(fn.Body)
	stmts := p.Arena.StmtSlice(body.StmtBegin, body.StmtCount)
	if len(stmts) == 0 {
		t.Fatalf("function body has no statements")
	}
	exprStmt := p.Arena.Stmt(stmts[0])
	return p.Arena.Expr(exprStmt.Init)
}

func TestOperatorPrecedence(t *testing.T) {
	p, decls := parse(t, `fn f() -> i32 { 1 + 2 * 3 }`)
	requireNoErrors(t, p)
	e := firstFnBody(t, p, decls)
	if e.Kind != ast.EBinary || e.Op != "+" {
		t.Fatalf("expected top-level '+', got %v %q", e.Kind, e.Op)
	}
	rhs := p.Arena.Expr(e.B)
	if rhs.Kind != ast.EBinary || rhs.Op != "*" {
		t.Fatalf("expected '*' nested under '+', got %v %q", rhs.Kind, rhs.Op)
	}
}

func TestTernaryDoesNotNestSilently(t *testing.T) {
	_, decls := parse(t, `fn f() -> i32 { x ? 1 : y ? 2 : 3 }`)
	if len(decls) == 0 {
		t.Fatalf("expected a parsed declaration despite the nested ternary diagnostic")
	}
}

func TestTernaryNestedEmitsDiagnostic(t *testing.T) {
	l := lexer.New(`fn f() -> i32 { x ? 1 : y ? 2 : 3 }`, "test.pr")
	p := New(l)
	p.ParseFile()
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.NestedTernaryNotAllowed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected NestedTernaryNotAllowed diagnostic, got %v", p.Bag.Errors())
	}
}

func TestTernaryParenthesizedNestingIsFine(t *testing.T) {
	p, _ := parse(t, `fn f() -> i32 { x ? 1 : (y ? 2 : 3) }`)
	requireNoErrors(t, p)
}

func TestBorrowAndEscapePrefix(t *testing.T) {
	p, decls := parse(t, `fn f() { let r = &x; let m = &mut x; let e = &&x; }`)
	requireNoErrors(t, p)
	if len(decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(decls))
	}
}

func TestAmbiguousAmpPrefixChainDiagnostic(t *testing.T) {
	l := lexer.New(`fn f() { let r = & &x; }`, "test.pr")
	p := New(l)
	p.ParseFile()
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.AmbiguousAmpPrefixChain {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected AmbiguousAmpPrefixChain diagnostic, got %v", p.Bag.Errors())
	}
}

func TestCallArgsPositionalAndLabeled(t *testing.T) {
	p, decls := parse(t, `fn f() { g(1, 2, label: 3) }`)
	requireNoErrors(t, p)
	e := firstFnBody(t, p, decls)
	if e.Kind != ast.ECall {
		t.Fatalf("expected ECall, got %v", e.Kind)
	}
	args := p.Arena.ArgSlice(e.ArgBegin, e.ArgCount)
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[2].Label != "label" {
		t.Fatalf("expected third arg labeled 'label', got %q", args[2].Label)
	}
	if args[0].Label != "" || args[1].Label != "" {
		t.Fatalf("expected first two args unlabeled")
	}
}

func TestCastSuffixForms(t *testing.T) {
	for _, tt := range []struct {
		src  string
		kind ast.CastKind
	}{
		{`fn f() { x as i32 }`, ast.CastExact},
		{`fn f() { x as? i32 }`, ast.CastOptional},
		{`fn f() { x as! i32 }`, ast.CastForce},
	} {
		p, decls := parse(t, tt.src)
		requireNoErrors(t, p)
		e := firstFnBody(t, p, decls)
		if e.Kind != ast.ECast {
			t.Fatalf("%s: expected ECast, got %v", tt.src, e.Kind)
		}
		if e.CastKind != tt.kind {
			t.Fatalf("%s: expected cast kind %v, got %v", tt.src, tt.kind, e.CastKind)
		}
	}
}

func TestNamedGroupDefaultsOnlyInsideGroup(t *testing.T) {
	l := lexer.New(`fn f(a: i32 = 1) -> i32 { a }`, "test.pr")
	p := New(l)
	p.ParseFile()
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.FnParamDefaultNotAllowedOutsideNamedGroup {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected FnParamDefaultNotAllowedOutsideNamedGroup, got %v", p.Bag.Errors())
	}
}

func TestNamedGroupDefaultsAccepted(t *testing.T) {
	p, decls := parse(t, `fn f(x: i32, { y: i32 = 2, z: i32 = 3 }) -> i32 { x }`)
	requireNoErrors(t, p)
	fn := p.Arena.Stmt(decls[0])
	if fn.ParamCount != 1 {
		t.Fatalf("expected 1 positional param, got %d", fn.ParamCount)
	}
	if fn.NamedParamCount != 2 {
		t.Fatalf("expected 2 named-group params, got %d", fn.NamedParamCount)
	}
	named := p.Arena.ParamSlice(fn.NamedParamBegin, fn.NamedParamCount)
	if named[0].Name != "y" || named[1].Name != "z" {
		t.Fatalf("unexpected named param order: %+v", named)
	}
}

func TestLoopHeaderRecoveryMissingParen(t *testing.T) {
	l := lexer.New(`fn f() { loop v in xs { } }`, "test.pr")
	p := New(l)
	decls := p.ParseFile()
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.LoopHeaderExpectedParen {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected LoopHeaderExpectedParen diagnostic, got %v", p.Bag.Errors())
	}
	if len(decls) != 1 {
		t.Fatalf("expected recovery to still produce 1 declaration, got %d", len(decls))
	}
}

func TestLoopWellFormed(t *testing.T) {
	p, decls := parse(t, `fn f() { loop (v in xs) { v } }`)
	requireNoErrors(t, p)
	e := firstFnBody(t, p, decls)
	if e.Kind != ast.ELoopExpr {
		t.Fatalf("expected ELoopExpr, got %v", e.Kind)
	}
	if e.LoopVarName != "v" {
		t.Fatalf("expected loop var 'v', got %q", e.LoopVarName)
	}
}

func TestBlockExprTailExtraction(t *testing.T) {
	p, decls := parse(t, `fn f() -> i32 { if true { 1 + 1 } else { 2 } }`)
	requireNoErrors(t, p)
	e := firstFnBody(t, p, decls)
	if e.Kind != ast.EIfExpr {
		t.Fatalf("expected EIfExpr, got %v", e.Kind)
	}
	then := p.Arena.Expr(ast.ExprID(e.ThenID))
	if then.Kind != ast.EBlockExpr {
		t.Fatalf("expected then-branch to be EBlockExpr, got %v", then.Kind)
	}
	if then.TailExpr == ast.InvalidExpr {
		t.Fatalf("expected then-branch to have a tail expression")
	}
	tail := p.Arena.Expr(then.TailExpr)
	if tail.Kind != ast.EBinary || tail.Op != "+" {
		t.Fatalf("expected tail expression '1 + 1', got %v %q", tail.Kind, tail.Op)
	}
}

func TestFnBodyStatementSequence(t *testing.T) {
	p, decls := parse(t, `fn f() -> i32 { let x = 1; x + 1 }`)
	requireNoErrors(t, p)
	fn := p.Arena.Stmt(decls[0])
	body := p.Arena.Stmt(fn.Body)
	stmts := p.Arena.StmtSlice(body.StmtBegin, body.StmtCount)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements in the fn body, got %d", len(stmts))
	}
	if p.Arena.Stmt(stmts[0]).Kind != ast.SVarDecl {
		t.Fatalf("expected first statement to be a var decl, got %v", p.Arena.Stmt(stmts[0]).Kind)
	}
	if p.Arena.Stmt(stmts[1]).Kind != ast.SExprStmt {
		t.Fatalf("expected second statement to be an expr stmt, got %v", p.Arena.Stmt(stmts[1]).Kind)
	}
}

func TestAssignRequiresPlace(t *testing.T) {
	l := lexer.New(`fn f() { 1 + 1 = 2; }`, "test.pr")
	p := New(l)
	p.ParseFile()
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.AssignLhsMustBePlace {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected AssignLhsMustBePlace diagnostic, got %v", p.Bag.Errors())
	}
}

func TestActsForOperatorOverload(t *testing.T) {
	p, decls := parse(t, `acts operator "+" for Vec2 (self: Vec2, other: Vec2) -> Vec2 { self }`)
	requireNoErrors(t, p)
	s := p.Arena.Stmt(decls[0])
	if s.Kind != ast.SActsDecl {
		t.Fatalf("expected SActsDecl, got %v", s.Kind)
	}
	if s.OperatorKey != "+" {
		t.Fatalf("expected operator key '+', got %q", s.OperatorKey)
	}
}

func TestActsForOperatorRequiresSelfFirst(t *testing.T) {
	l := lexer.New(`acts operator "+" for Vec2 (other: Vec2) -> Vec2 { other }`, "test.pr")
	p := New(l)
	p.ParseFile()
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.OperatorSelfFirstParamRequired {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected OperatorSelfFirstParamRequired diagnostic, got %v", p.Bag.Errors())
	}
}

func TestTypeDecl(t *testing.T) {
	p, decls := parse(t, `type Point { x: i32, mut y: i32 }`)
	requireNoErrors(t, p)
	s := p.Arena.Stmt(decls[0])
	if s.Kind != ast.STypeDecl || s.Name != "Point" {
		t.Fatalf("expected STypeDecl 'Point', got %v %q", s.Kind, s.Name)
	}
	fields := p.Arena.FieldMemberSlice(s.FieldBegin, s.FieldCount)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].IsMut {
		t.Fatalf("field x should not be mut")
	}
	if !fields[1].IsMut {
		t.Fatalf("field y should be mut")
	}
}

func TestExternDeclRequiresStatic(t *testing.T) {
	l := lexer.New(`extern "C" let x: i32;`, "test.pr")
	p := New(l)
	p.ParseFile()
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.AbiCGlobalMustBeStatic {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected AbiCGlobalMustBeStatic diagnostic, got %v", p.Bag.Errors())
	}
}

func TestExternFnDeclNoBody(t *testing.T) {
	p, decls := parse(t, `extern "C" fn puts(s: &str) -> i32;`)
	requireNoErrors(t, p)
	fn := p.Arena.Stmt(decls[0])
	if fn.Body != ast.InvalidStmt {
		t.Fatalf("expected no body for extern fn decl")
	}
	if fn.Linkage != ast.LinkageExternC {
		t.Fatalf("expected extern C linkage")
	}
}

func TestSynchronizeRecoversAfterGarbageToken(t *testing.T) {
	p, decls := parse(t, `@@@ ; fn f() { 1 }`)
	found := false
	for _, r := range p.Bag.Errors() {
		if r.Code == errors.UnexpectedToken {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected UnexpectedToken diagnostic for garbage input")
	}
	if len(decls) != 1 {
		t.Fatalf("expected parser to recover and still parse the following fn, got %d decls", len(decls))
	}
}

func TestArrayTypeAnnotation(t *testing.T) {
	p, decls := parse(t, `fn f(xs: [i32; 4]) -> i32 { 0 }`)
	requireNoErrors(t, p)
	fn := p.Arena.Stmt(decls[0])
	param := p.Arena.ParamSlice(fn.ParamBegin, fn.ParamCount)[0]
	ty := p.Arena.TypeArgs[param.Type]
	if ty.Kind != ast.TAArray || ty.Size != 4 {
		t.Fatalf("expected fixed array type of size 4, got %+v", ty)
	}
}

func TestFunctionTypeAnnotation(t *testing.T) {
	p, decls := parse(t, `fn f(cb: (i32, i32) -> bool) -> i32 { 0 }`)
	requireNoErrors(t, p)
	fn := p.Arena.Stmt(decls[0])
	param := p.Arena.ParamSlice(fn.ParamBegin, fn.ParamCount)[0]
	ty := p.Arena.TypeArgs[param.Type]
	if ty.Kind != ast.TAFn || ty.ParamCount != 2 {
		t.Fatalf("expected function type with 2 params, got %+v", ty)
	}
}

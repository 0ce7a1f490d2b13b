// Package resolve implements the Parus name resolver (spec §3 C5): a
// pre-order AST walk with an explicit scope stack that binds every
// identifier use to a symbol table ID, recording resolutions indexed by
// ExprId, StmtId, and param index (spec §4.3).
package resolve

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/symtab"
	"github.com/parusbuild/parusc/internal/types"
)

// Result is the resolver's output: the populated symbol table plus
// per-node resolution maps. A ResolvedSymbol entry is present for an
// EIdent expression iff no UndefinedName diagnostic was emitted for its
// span (spec §8 property 3: never both, never neither).
type Result struct {
	Syms *symtab.Table
	Bag  *errors.Bag

	// ExprSym maps an EIdent expression to the symbol it resolved to.
	ExprSym map[ast.ExprID]symtab.ID
	// StmtSym maps an SVarDecl statement to the symbol it declared.
	StmtSym map[ast.StmtID]symtab.ID
	// ParamSym maps a Param (by its arena index) to the symbol it declared.
	ParamSym map[ast.ParamID]symtab.ID
	// FnQualifiedName maps a top-level SFnDecl/SActsDecl to the qualified
	// name it was registered under (plain name for SFnDecl;
	// "operator(<OperatorKey>)" for SActsDecl). The checker copies it into
	// its Result unchanged; overload collection uses FnOverloads instead.
	FnQualifiedName map[ast.StmtID]string
	// FnOverloads maps a plain function name to every SFnDecl declared
	// under it, in declaration order (spec §4.4: "multiple decls allowed;
	// disambiguation happens at call sites").
	FnOverloads map[string][]ast.StmtID
	// ActsOverloads maps an operator key ("+", "==", "++ pre", ...) to
	// every SActsDecl declared for it, across all `acts for` types.
	ActsOverloads map[string][]ast.StmtID
	// LoopVarSym maps an ELoopExpr to the symbol its loop variable was
	// bound to, since the resolver's own scope for it is popped before
	// the checker runs.
	LoopVarSym map[ast.ExprID]symtab.ID
}

// Resolver walks one AST arena and produces a Result.
type Resolver struct {
	a   *ast.Arena
	pool *types.Pool
	syms *symtab.Table
	bag  *errors.Bag

	exprSym  map[ast.ExprID]symtab.ID
	stmtSym  map[ast.StmtID]symtab.ID
	paramSym map[ast.ParamID]symtab.ID
	fnQual   map[ast.StmtID]string
	fnOverloads   map[string][]ast.StmtID
	actsOverloads map[string][]ast.StmtID
	loopVarSym    map[ast.ExprID]symtab.ID

	// loopDepth tracks whether break/continue-bearing constructs are
	// currently inside a loop body; name resolution itself doesn't need
	// this, but it is recorded here since the resolver already owns the
	// single pre-order walk and later stages (checker) read LoopVarName
	// directly off the AST rather than through this table.
	loopDepth int
}

// New creates a Resolver over arena a using pool for builtin-path lookups
// (currently unused directly by resolution but threaded through so a
// future extension, e.g. resolving type-path identifiers, doesn't need a
// new constructor) and policy for the shadowing diagnostic behavior.
func New(a *ast.Arena, pool *types.Pool, policy symtab.ShadowingPolicy) *Resolver {
	return &Resolver{
		a: a, pool: pool, syms: symtab.New(policy), bag: &errors.Bag{},
		exprSym:  map[ast.ExprID]symtab.ID{},
		stmtSym:  map[ast.StmtID]symtab.ID{},
		paramSym: map[ast.ParamID]symtab.ID{},
		fnQual:   map[ast.StmtID]string{},
		fnOverloads:   map[string][]ast.StmtID{},
		actsOverloads: map[string][]ast.StmtID{},
		loopVarSym:    map[ast.ExprID]symtab.ID{},
	}
}

// Resolve walks every top-level declaration and returns the Result.
// Top-level names are registered in a first pass so declaration order
// doesn't matter for calls between top-level functions (spec §4.4
// "Collect top-level").
func (r *Resolver) Resolve(decls []ast.StmtID) *Result {
	for _, id := range decls {
		r.registerTopLevel(id)
	}
	for _, id := range decls {
		r.resolveTopLevelBody(id)
	}
	return &Result{
		Syms: r.syms, Bag: r.bag,
		ExprSym: r.exprSym, StmtSym: r.stmtSym, ParamSym: r.paramSym,
		FnQualifiedName: r.fnQual,
		FnOverloads:     r.fnOverloads,
		ActsOverloads:   r.actsOverloads,
		LoopVarSym:      r.loopVarSym,
	}
}

func (r *Resolver) registerTopLevel(id ast.StmtID) {
	if id == ast.InvalidStmt {
		return
	}
	s := r.a.Stmt(id)
	switch s.Kind {
	case ast.SFnDecl:
		// Functions may be overloaded: only the first declaration under a
		// name allocates a symtab symbol (so EIdent uses referring to the
		// function by name have something to resolve to); later
		// declarations share that symbol and are recorded as additional
		// overload candidates instead of DuplicateDecl errors (spec §4.4).
		if existing, ok := r.syms.LookupLocal(s.Name); ok {
			r.stmtSym[id] = existing
		} else {
			symID, _, _ := r.syms.Insert(s.Name, symtab.KFn, types.Invalid, s.Span, false, false)
			r.stmtSym[id] = symID
		}
		r.fnOverloads[s.Name] = append(r.fnOverloads[s.Name], id)
		r.fnQual[id] = s.Name
	case ast.SVarDecl:
		symID, dup, shadow := r.syms.Insert(s.Name, symtab.KVar, types.Invalid, s.Span, s.IsMut, s.IsStatic)
		if dup {
			r.bag.Add(errors.New(errors.DuplicateDecl, "resolve", &s.Span, "duplicate declaration of %q", s.Name))
		} else {
			r.reportShadow(shadow, s.Name, s.Span)
		}
		r.stmtSym[id] = symID
	case ast.STypeDecl:
		symID, dup, _ := r.syms.Insert(s.Name, symtab.KType, types.Invalid, s.Span, false, false)
		if dup {
			r.bag.Add(errors.New(errors.DuplicateDecl, "resolve", &s.Span, "duplicate declaration of %q", s.Name))
		}
		r.stmtSym[id] = symID
	case ast.SActsDecl:
		// acts-for declarations don't bind a plain name into scope; the
		// checker indexes them by (OperatorKey, ActsForType) instead. The
		// qualified name is recorded for diagnostics/debugging only.
		r.fnQual[id] = "operator(" + s.OperatorKey + ")"
		r.actsOverloads[s.OperatorKey] = append(r.actsOverloads[s.OperatorKey], id)
	}
}

func (r *Resolver) reportShadow(shadow bool, name string, span ast.Span) {
	if !shadow {
		return
	}
	switch r.syms.Policy {
	case symtab.ShadowWarn:
		r.bag.Add(errors.NewWarning(errors.Shadowing, "resolve", &span, "declaration of %q shadows an outer binding", name))
	case symtab.ShadowError:
		r.bag.Add(errors.New(errors.ShadowingNotAllowed, "resolve", &span, "declaration of %q shadows an outer binding", name))
	}
}

func (r *Resolver) resolveTopLevelBody(id ast.StmtID) {
	if id == ast.InvalidStmt {
		return
	}
	s := r.a.Stmt(id)
	switch s.Kind {
	case ast.SFnDecl:
		r.syms.Push()
		r.bindParams(s.ParamBegin, s.ParamCount)
		r.bindParams(s.NamedParamBegin, s.NamedParamCount)
		if s.Body != ast.InvalidStmt {
			r.resolveStmt(s.Body)
		}
		r.syms.Pop()
	case ast.SVarDecl:
		if s.Init != ast.InvalidExpr {
			r.resolveExpr(s.Init)
		}
	case ast.SActsDecl:
		r.syms.Push()
		r.bindParams(s.ParamBegin, s.ParamCount)
		r.bindParams(s.NamedParamBegin, s.NamedParamCount)
		if s.Body != ast.InvalidStmt {
			r.resolveStmt(s.Body)
		}
		r.syms.Pop()
	case ast.STypeDecl:
		// field type annotations carry no identifier expressions to resolve.
	}
}

func (r *Resolver) bindParams(begin, count uint32) {
	if count == 0 {
		return
	}
	for i, p := range r.a.ParamSlice(begin, count) {
		if p.Default != ast.InvalidExpr {
			r.resolveExpr(p.Default)
		}
		symID, dup, _ := r.syms.Insert(p.Name, symtab.KVar, types.Invalid, p.Span, false, false)
		if dup {
			r.bag.Add(errors.New(errors.DuplicateDecl, "resolve", &p.Span, "duplicate parameter name %q", p.Name))
		}
		r.paramSym[ast.ParamID(begin)+ast.ParamID(i)] = symID
	}
}

// resolveStmt dispatches on statement kind. SBlock pushes/pops its own
// scope; SVarDecl resolves its initializer in the *enclosing* scope before
// inserting the new binding, so `let x = x;` binds the RHS `x` to any
// outer `x` rather than to itself.
func (r *Resolver) resolveStmt(id ast.StmtID) {
	if id == ast.InvalidStmt {
		return
	}
	s := r.a.Stmt(id)
	switch s.Kind {
	case ast.SExprStmt:
		r.resolveExpr(s.Init)
	case ast.SBlock:
		r.syms.Push()
		for _, child := range r.a.StmtSlice(s.StmtBegin, s.StmtCount) {
			r.resolveStmt(child)
		}
		r.syms.Pop()
	case ast.SVarDecl:
		if s.Init != ast.InvalidExpr {
			r.resolveExpr(s.Init)
		}
		symID, dup, shadow := r.syms.Insert(s.Name, symtab.KVar, types.Invalid, s.Span, s.IsMut, s.IsStatic)
		if dup {
			r.bag.Add(errors.New(errors.DuplicateDecl, "resolve", &s.Span, "duplicate declaration of %q", s.Name))
		} else {
			r.reportShadow(shadow, s.Name, s.Span)
		}
		r.stmtSym[id] = symID
	case ast.SFnDecl, ast.SActsDecl, ast.STypeDecl:
		// Nested declarations of these kinds aren't part of the surface
		// grammar (only top-level); nothing to do if one somehow appears.
	}
}

// resolveExpr is the core identifier-binding walk. Every EIdent receives
// exactly one outcome: a ResolvedSymbol entry (exprSym) or an
// UndefinedName diagnostic, never both (spec §8 property 3).
func (r *Resolver) resolveExpr(id ast.ExprID) {
	if id == ast.InvalidExpr {
		return
	}
	e := r.a.Expr(id)
	switch e.Kind {
	case ast.EIdent:
		if symID, ok := r.syms.Lookup(e.Text); ok {
			r.exprSym[id] = symID
		} else {
			r.bag.Add(errors.New(errors.UndefinedName, "resolve", &e.Span, "undefined name %q", e.Text))
		}

	case ast.EIntLit, ast.EFloatLit, ast.EStringLit, ast.ECharLit, ast.EBoolLit, ast.ENullLit, ast.EContinue:
		// no children

	case ast.EUnary, ast.EBorrow, ast.EEscape:
		r.resolveExpr(e.A)

	case ast.EBinary, ast.EIndex, ast.EAssign:
		r.resolveExpr(e.A)
		r.resolveExpr(e.B)

	case ast.ETernary:
		r.resolveExpr(e.A)
		r.resolveExpr(e.B)
		r.resolveExpr(e.C)

	case ast.EPostfixInc, ast.EBreak, ast.EReturn:
		r.resolveExpr(e.A)

	case ast.ERange:
		r.resolveExpr(e.A)
		r.resolveExpr(e.B)

	case ast.EField:
		r.resolveExpr(e.A) // Text is a field name, not a binding

	case ast.ECall:
		r.resolveExpr(e.A)
		for _, arg := range r.a.ArgSlice(e.ArgBegin, e.ArgCount) {
			r.resolveExpr(arg.Value)
		}

	case ast.ECast:
		r.resolveExpr(e.A)

	case ast.EIfExpr:
		r.resolveExpr(e.A)
		r.dispatchThenElse(e.ThenID, e.ThenIsStmt)
		r.dispatchThenElse(e.ElseID, e.ElseIsStmt)

	case ast.EBlockExpr:
		// BlockExpr.body_stmt is a statement ID; it must never be treated
		// as an expression ID here (spec §4.3 special case).
		r.resolveStmt(e.BodyStmt)
		if e.TailExpr != ast.InvalidExpr {
			r.resolveExpr(e.TailExpr)
		}

	case ast.ELoopExpr:
		r.resolveExpr(e.A) // iterator, resolved in the outer scope
		r.syms.Push()
		if e.LoopVarName != "" {
			symID, _, _ := r.syms.Insert(e.LoopVarName, symtab.KVar, types.Invalid, e.Span, false, false)
			r.loopVarSym[id] = symID
		}
		r.loopDepth++
		// LoopExpr.body is a statement ID, not an expression (spec §4.3).
		r.resolveStmt(e.BodyStmt)
		r.loopDepth--
		r.syms.Pop()

	case ast.EArrayLit:
		for _, elemID := range r.a.ExprSlice(e.ElemBegin, e.ElemCount) {
			r.resolveExpr(elemID)
		}

	case ast.EFieldInit:
		for _, fm := range r.a.FieldMemberSlice(e.FieldBegin, e.FieldCount) {
			if fm.Value != ast.InvalidExpr {
				r.resolveExpr(fm.Value)
			}
		}
	}
}

// dispatchThenElse resolves an EIfExpr arm that may be either an
// expression or a statement ID depending on parser shape (spec §4.3).
func (r *Resolver) dispatchThenElse(id uint32, isStmt bool) {
	if isStmt {
		r.resolveStmt(ast.StmtID(id))
		return
	}
	if ast.ExprID(id) != ast.InvalidExpr {
		r.resolveExpr(ast.ExprID(id))
	}
}

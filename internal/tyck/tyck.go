// Package tyck implements the Parus type checker (spec §3/§4.4 C6): a
// two-pass walk (collect top-level signatures, then check every
// statement/expression) that assigns a type to every expression,
// validates statement contracts, resolves call overloads, enforces C-ABI
// constraints, and performs deferred integer-literal inference.
package tyck

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/resolve"
	"github.com/parusbuild/parusc/internal/types"
)

// ParamSig is one resolved parameter of a function/operator signature.
type ParamSig struct {
	Name       string
	Type       types.ID
	HasDefault bool
	ExprDefault ast.ExprID
}

// FnSig is a fully resolved function/operator signature.
type FnSig struct {
	Stmt        ast.StmtID
	Positional  []ParamSig
	Named       []ParamSig
	Ret         types.ID
	Qualifiers  ast.FnQualifiers
	ActsForType types.ID // acts-for type for SActsDecl; types.Invalid otherwise
	OperatorKey string
}

// TypeDeclInfo is the resolved shape of a `type Name { ... }` declaration.
type TypeDeclInfo struct {
	Name   string
	Type   types.ID
	Fields []ParamSig // Name/Type/IsMut reused via HasDefault==IsMut
}

// Result is the checker's output (spec §4.4 "TyckResult").
type Result struct {
	ExprTypes  map[ast.ExprID]types.ID
	CallTarget map[ast.ExprID]ast.StmtID // selected overload decl per call site
	FnQualifiedName map[ast.StmtID]string
	Bag        *errors.Bag
}

// Checker walks one resolved AST arena and produces a Result.
type Checker struct {
	a    *ast.Arena
	pool *types.Pool
	rr   *resolve.Result
	bag  *errors.Bag

	exprTypes  map[ast.ExprID]types.ID
	callTarget map[ast.ExprID]ast.StmtID

	fnSigs   map[ast.StmtID]*FnSig
	actsSigs map[ast.StmtID]*FnSig
	types_   map[string]*TypeDeclInfo

	fnCtx  []*fnContext
	loopCtx []*loopContext
}

type fnContext struct {
	Ret        types.ID
	IsPure     bool
	IsComptime bool
}

type loopContext struct {
	HasValueBreak bool
	JoinedType    types.ID
	sawFirst      bool
}

// New creates a Checker over a resolved arena.
func New(a *ast.Arena, pool *types.Pool, rr *resolve.Result) *Checker {
	return &Checker{
		a: a, pool: pool, rr: rr, bag: &errors.Bag{},
		exprTypes:  map[ast.ExprID]types.ID{},
		callTarget: map[ast.ExprID]ast.StmtID{},
		fnSigs:     map[ast.StmtID]*FnSig{},
		actsSigs:   map[ast.StmtID]*FnSig{},
		types_:     map[string]*TypeDeclInfo{},
	}
}

// Check runs both passes over decls and returns the Result.
func (c *Checker) Check(decls []ast.StmtID) *Result {
	for _, id := range decls {
		c.collectTopLevel(id)
	}
	for _, id := range decls {
		c.checkTopLevel(id)
	}
	return &Result{
		ExprTypes:       c.exprTypes,
		CallTarget:      c.callTarget,
		FnQualifiedName: c.rr.FnQualifiedName,
		Bag:             c.bag,
	}
}

func (c *Checker) resolveParamList(begin, count uint32) []ParamSig {
	var out []ParamSig
	for _, p := range c.a.ParamSlice(begin, count) {
		out = append(out, ParamSig{
			Name: p.Name, Type: ResolveTypeArg(c.pool, c.a, p.Type),
			HasDefault: p.Default != ast.InvalidExpr, ExprDefault: p.Default,
		})
	}
	return out
}

func (c *Checker) collectTopLevel(id ast.StmtID) {
	if id == ast.InvalidStmt {
		return
	}
	s := c.a.Stmt(id)
	switch s.Kind {
	case ast.SFnDecl:
		ret := c.pool.BuiltinID(types.BVoid)
		if s.ReturnType != ast.InvalidTypeArg {
			ret = ResolveTypeArg(c.pool, c.a, s.ReturnType)
		}
		sig := &FnSig{
			Stmt: id, Ret: ret, Qualifiers: s.Qualifiers, ActsForType: types.Invalid,
			Positional: c.resolveParamList(s.ParamBegin, s.ParamCount),
			Named:      c.resolveParamList(s.NamedParamBegin, s.NamedParamCount),
		}
		c.fnSigs[id] = sig
		if symID, ok := c.rr.StmtSym[id]; ok {
			c.rr.Syms.SetType(symID, c.fnPoolType(sig))
		}

	case ast.SActsDecl:
		ret := c.pool.BuiltinID(types.BVoid)
		if s.ReturnType != ast.InvalidTypeArg {
			ret = ResolveTypeArg(c.pool, c.a, s.ReturnType)
		}
		sig := &FnSig{
			Stmt: id, Ret: ret, OperatorKey: s.OperatorKey,
			ActsForType: ResolveTypeArg(c.pool, c.a, s.ActsForType),
			Positional:  c.resolveParamList(s.ParamBegin, s.ParamCount),
			Named:       c.resolveParamList(s.NamedParamBegin, s.NamedParamCount),
		}
		c.actsSigs[id] = sig

	case ast.SVarDecl:
		if s.TypeAnno != ast.InvalidTypeArg {
			ty := ResolveTypeArg(c.pool, c.a, s.TypeAnno)
			if symID, ok := c.rr.StmtSym[id]; ok {
				c.rr.Syms.SetType(symID, ty)
			}
		}

	case ast.STypeDecl:
		ty := c.pool.InternPath([]string{s.Name})
		info := &TypeDeclInfo{Name: s.Name, Type: ty}
		for _, f := range c.a.FieldMemberSlice(s.FieldBegin, s.FieldCount) {
			info.Fields = append(info.Fields, ParamSig{
				Name: f.Name, Type: ResolveTypeArg(c.pool, c.a, f.Type), HasDefault: f.IsMut,
			})
		}
		c.types_[s.Name] = info
	}
}

func (c *Checker) fnPoolType(sig *FnSig) types.ID {
	var params []types.ID
	for _, p := range sig.Positional {
		params = append(params, p.Type)
	}
	for _, p := range sig.Named {
		params = append(params, p.Type)
	}
	return c.pool.MakeFn(sig.Ret, params)
}

func (c *Checker) checkTopLevel(id ast.StmtID) {
	if id == ast.InvalidStmt {
		return
	}
	s := c.a.Stmt(id)
	switch s.Kind {
	case ast.SFnDecl:
		sig := c.fnSigs[id]
		c.checkAbiConstraints(s.Name, sig, s.Span)
		c.fnCtx = append(c.fnCtx, &fnContext{Ret: sig.Ret, IsPure: s.IsPure, IsComptime: s.IsComptime})
		c.bindParamTypes(s.ParamBegin, s.ParamCount, sig.Positional)
		c.bindParamTypes(s.NamedParamBegin, s.NamedParamCount, sig.Named)
		if s.Body != ast.InvalidStmt {
			c.checkStmt(s.Body)
		}
		c.fnCtx = c.fnCtx[:len(c.fnCtx)-1]

	case ast.SActsDecl:
		sig := c.actsSigs[id]
		if len(sig.Positional) > 0 && sig.Positional[0].Type != sig.ActsForType {
			c.bag.Add(errors.New(errors.TypeMismatch, "tyck", &s.Span,
				"operator self parameter type must match the acts-for type"))
		}
		c.fnCtx = append(c.fnCtx, &fnContext{Ret: sig.Ret})
		c.bindParamTypes(s.ParamBegin, s.ParamCount, sig.Positional)
		c.bindParamTypes(s.NamedParamBegin, s.NamedParamCount, sig.Named)
		if s.Body != ast.InvalidStmt {
			c.checkStmt(s.Body)
		}
		c.fnCtx = c.fnCtx[:len(c.fnCtx)-1]

	case ast.SVarDecl:
		c.checkStmt(id)
	}
}

// bindParamTypes records each resolved parameter type onto the symbol the
// resolver bound for it.
func (c *Checker) bindParamTypes(begin, count uint32, sigs []ParamSig) {
	for i := range sigs {
		pid := ast.ParamID(begin) + ast.ParamID(i)
		if symID, ok := c.rr.ParamSym[pid]; ok {
			c.rr.Syms.SetType(symID, sigs[i].Type)
		}
	}
}

// checkAbiConstraints enforces spec §4.4's C-ABI rules for extern/export
// functions: no overloading, FFI-safe parameter/return types (named-group
// rejection and self-as-first-param are already enforced at parse time).
func (c *Checker) checkAbiConstraints(name string, sig *FnSig, span ast.Span) {
	if sig.Qualifiers.Linkage == ast.LinkageNone {
		return
	}
	if len(c.rr.FnOverloads[name]) > 1 {
		c.bag.Add(errors.New(errors.AbiCOverloadNotAllowed, "tyck", &span,
			"extern/export function %q cannot be overloaded", name))
	}
	for _, p := range sig.Positional {
		if !c.ffiSafe(p.Type) {
			c.bag.Add(errors.New(errors.AbiCTypeNotFfiSafe, "tyck", &span,
				"parameter %q of %q is not FFI-safe", p.Name, name))
		}
	}
	if sig.Ret != c.pool.BuiltinID(types.BVoid) && !c.ffiSafe(sig.Ret) {
		c.bag.Add(errors.New(errors.AbiCTypeNotFfiSafe, "tyck", &span,
			"return type of %q is not FFI-safe", name))
	}
}

// ffiSafe reports whether ty is legal at a C-ABI boundary: integers,
// floats, bool, char, or a borrow of an FFI-safe type (spec §4.4).
func (c *Checker) ffiSafe(ty types.ID) bool {
	t := c.pool.Get(ty)
	switch t.Kind {
	case types.KBuiltin:
		switch t.Builtin {
		case types.BBool, types.BChar:
			return true
		default:
			return t.Builtin.IsInt() && t.Builtin != types.BInferInteger || t.Builtin.IsFloat()
		}
	case types.KBorrow:
		return c.ffiSafe(t.Elem)
	default:
		return false
	}
}

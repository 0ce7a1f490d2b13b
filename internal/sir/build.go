package sir

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/resolve"
	"github.com/parusbuild/parusc/internal/tyck"
	"github.com/parusbuild/parusc/internal/types"
)

// Builder lowers one resolved, type-checked AST arena into a sir.Module
// (spec §4.5).
type Builder struct {
	a    *ast.Arena
	pool *types.Pool
	rr   *resolve.Result
	tr   *tyck.Result
	mod  *Module

	stmts []StmtID // current block's accumulated statements
}

// New creates a Builder over arena a, using rr/tr for symbol and type
// information already computed by the earlier stages.
func New(a *ast.Arena, pool *types.Pool, rr *resolve.Result, tr *tyck.Result) *Builder {
	return &Builder{a: a, pool: pool, rr: rr, tr: tr, mod: NewModule()}
}

// Build lowers every top-level SFnDecl/SActsDecl in decls and returns the
// populated Module.
func (b *Builder) Build(decls []ast.StmtID) *Module {
	for _, id := range decls {
		b.buildTopLevel(id)
	}
	return b.mod
}

func (b *Builder) buildTopLevel(id ast.StmtID) {
	s := b.a.Stmt(id)
	switch s.Kind {
	case ast.SFnDecl:
		b.buildFunc(s.Name, s, id)
	case ast.SActsDecl:
		fid := b.buildFunc("operator("+s.OperatorKey+")", s, id)
		b.mod.ActsDecls = append(b.mod.ActsDecls, ActsDecl{
			OperatorKey: s.OperatorKey, ActsForType: b.exprTypeOfStmtSig(s), Func: fid,
		})
	case ast.STypeDecl:
		for _, f := range b.a.FieldMemberSlice(s.FieldBegin, s.FieldCount) {
			b.mod.FieldDecls = append(b.mod.FieldDecls, FieldDecl{
				Name: f.Name, Type: tyck.ResolveTypeArg(b.pool, b.a, f.Type), IsMut: f.IsMut,
			})
		}
	case ast.SVarDecl:
		var init ValueID = InvalidValue
		if s.Init != ast.InvalidExpr {
			b.stmts = nil
			init = b.lowerExpr(s.Init)
		}
		b.mod.Globals = append(b.mod.Globals, GlobalVarDecl{
			Name: s.Name, Type: b.declaredType(id), Init: init, IsStatic: s.IsStatic,
		})
	}
}

func (b *Builder) exprTypeOfStmtSig(s ast.Stmt) types.ID {
	if len(b.a.ParamSlice(s.ParamBegin, s.ParamCount)) == 0 {
		return types.ErrorID
	}
	return tyck.ResolveTypeArg(b.pool, b.a, b.a.ParamSlice(s.ParamBegin, s.ParamCount)[0].Type)
}

func (b *Builder) declaredType(stmtID ast.StmtID) types.ID {
	if symID, ok := b.rr.StmtSym[stmtID]; ok {
		return b.rr.Syms.Get(symID).Type
	}
	return types.ErrorID
}

func (b *Builder) buildFunc(name string, s ast.Stmt, declID ast.StmtID) FuncID {
	var paramSyms []uint32
	var paramTypes []types.ID
	for i := range b.a.ParamSlice(s.ParamBegin, s.ParamCount) {
		pid := ast.ParamID(s.ParamBegin) + ast.ParamID(i)
		if symID, ok := b.rr.ParamSym[pid]; ok {
			paramSyms = append(paramSyms, uint32(symID))
			paramTypes = append(paramTypes, b.rr.Syms.Get(symID).Type)
		}
	}
	retType := types.ErrorID
	if s.ReturnType != ast.InvalidTypeArg {
		retType = tyck.ResolveTypeArg(b.pool, b.a, s.ReturnType)
	}

	savedStmts := b.stmts
	b.stmts = nil
	var entry BlockID = InvalidBlock
	if s.Body != ast.InvalidStmt {
		entry = b.lowerBlockStmt(s.Body)
	}
	b.stmts = savedStmts

	return b.mod.AddFunc(Func{
		Name: name, ParamSyms: paramSyms, ParamTypes: paramTypes, RetType: retType,
		Entry: entry, IsPure: s.IsPure, IsComptime: s.IsComptime,
	})
}

// lowerBlockStmt lowers an ast SBlock into a fresh sir.Block, isolating its
// statement accumulation from the caller's.
func (b *Builder) lowerBlockStmt(stmtID ast.StmtID) BlockID {
	saved := b.stmts
	b.stmts = nil
	s := b.a.Stmt(stmtID)
	for _, child := range b.a.StmtSlice(s.StmtBegin, s.StmtCount) {
		b.lowerStmt(child)
	}
	begin, count := b.mod.PushStmtIDs(b.stmts)
	blk := b.mod.AddBlock(Block{StmtBegin: begin, StmtCount: count})
	b.stmts = saved
	return blk
}

func (b *Builder) lowerStmt(id ast.StmtID) {
	if id == ast.InvalidStmt {
		return
	}
	s := b.a.Stmt(id)
	switch s.Kind {
	case ast.SExprStmt:
		v := b.lowerExpr(s.Init)
		b.emit(Stmt{Kind: SValueStmt, Val: v})

	case ast.SBlock:
		blk := b.lowerBlockStmt(id)
		b.emit(Stmt{Kind: SBlockStmt, Block: blk})

	case ast.SVarDecl:
		var init ValueID = InvalidValue
		if s.Init != ast.InvalidExpr {
			init = b.lowerExpr(s.Init)
		}
		origin := uint32(0)
		if symID, ok := b.rr.StmtSym[id]; ok {
			origin = uint32(symID)
		}
		b.emit(Stmt{Kind: SVarDecl, Val: init, Name: s.Name, IsMut: s.IsMut, IsStatic: s.IsStatic, OriginSym: origin})
	}
}

func (b *Builder) emit(s Stmt) {
	b.stmts = append(b.stmts, b.mod.AddStmt(s))
}

// lowerExpr lowers one AST expression into an SIR Value, 1:1 by kind (spec
// §4.5): Ternary lowers to the same shape as IfExpr.
func (b *Builder) lowerExpr(id ast.ExprID) ValueID {
	if id == ast.InvalidExpr {
		return InvalidValue
	}
	e := b.a.Expr(id)
	ty := b.tr.ExprTypes[id]

	switch e.Kind {
	case ast.EIdent:
		origin := uint32(0)
		if symID, ok := b.rr.ExprSym[id]; ok {
			origin = uint32(symID)
		}
		return b.mod.AddValue(Value{Kind: VLocal, Type: ty, Text: e.Text, OriginSym: origin, Place: Local})

	case ast.EIntLit:
		return b.mod.AddValue(Value{Kind: VIntLit, Type: ty, Text: e.Text, Place: NotPlace})
	case ast.EFloatLit:
		return b.mod.AddValue(Value{Kind: VFloatLit, Type: ty, Text: e.Text})
	case ast.EStringLit:
		return b.mod.AddValue(Value{Kind: VStringLit, Type: ty, Text: e.Text})
	case ast.ECharLit:
		return b.mod.AddValue(Value{Kind: VCharLit, Type: ty, Text: e.Text})
	case ast.EBoolLit:
		return b.mod.AddValue(Value{Kind: VBoolLit, Type: ty, Text: e.Text})
	case ast.ENullLit:
		return b.mod.AddValue(Value{Kind: VNullLit, Type: ty})

	case ast.EUnary:
		operand := b.lowerExpr(e.A)
		return b.mod.AddValue(Value{Kind: VUnary, Type: ty, A: operand, Text: e.Op, Effect: Pure})

	case ast.EBinary:
		lhs, rhs := b.lowerExpr(e.A), b.lowerExpr(e.B)
		return b.mod.AddValue(Value{Kind: VBinary, Type: ty, A: lhs, B: rhs, Text: e.Op, Effect: Pure})

	case ast.ETernary:
		cond := b.lowerExpr(e.A)
		thenV := b.lowerExpr(e.B)
		elseV := b.lowerExpr(e.C)
		return b.mod.AddValue(Value{Kind: VIfExpr, Type: ty, A: cond, B: thenV, C: elseV})

	case ast.EAssign:
		lhs := b.lowerExpr(e.A)
		rhs := b.lowerExpr(e.B)
		origin := b.mod.Value(lhs).OriginSym
		return b.mod.AddValue(Value{Kind: VAssign, Type: ty, A: lhs, B: rhs, OriginSym: origin, Place: b.mod.Value(lhs).Place, Effect: MayWrite})

	case ast.EPostfixInc:
		operand := b.lowerExpr(e.A)
		return b.mod.AddValue(Value{Kind: VPostfixInc, Type: ty, A: operand, OriginSym: b.mod.Value(operand).OriginSym, Effect: MayWrite})

	case ast.EIndex:
		base := b.lowerExpr(e.A)
		idx := b.lowerExpr(e.B)
		baseOrigin := b.mod.Value(base).OriginSym
		return b.mod.AddValue(Value{Kind: VIndex, Type: ty, A: base, B: idx, OriginSym: baseOrigin, Place: Index, PlaceElemType: ty})

	case ast.ERange:
		lo, hi := b.lowerExpr(e.A), b.lowerExpr(e.B)
		return b.mod.AddValue(Value{Kind: VBinary, Type: ty, A: lo, B: hi, Text: ".."})

	case ast.EField:
		base := b.lowerExpr(e.A)
		return b.mod.AddValue(Value{Kind: VField, Type: ty, A: base, Text: e.Text, OriginSym: b.mod.Value(base).OriginSym, Place: Field, PlaceElemType: ty})

	case ast.ECall:
		return b.lowerCall(id, e, ty)

	case ast.EBorrow:
		operand := b.lowerExpr(e.A)
		return b.mod.AddValue(Value{Kind: VBorrow, Type: ty, A: operand, OriginSym: b.mod.Value(operand).OriginSym, BorrowIsMut: e.UnaryIsMut})

	case ast.EEscape:
		operand := b.lowerExpr(e.A)
		return b.mod.AddValue(Value{Kind: VEscape, Type: ty, A: operand, OriginSym: b.mod.Value(operand).OriginSym})

	case ast.ECast:
		operand := b.lowerExpr(e.A)
		return b.mod.AddValue(Value{Kind: VCast, Type: ty, A: operand, CastTo: tyck.ResolveTypeArg(b.pool, b.a, e.CastTo)})

	case ast.EIfExpr:
		cond := b.lowerExpr(e.A)
		thenV := b.lowerArmAsValue(e.ThenID, e.ThenIsStmt)
		elseV := b.lowerArmAsValue(e.ElseID, e.ElseIsStmt)
		return b.mod.AddValue(Value{Kind: VIfExpr, Type: ty, A: cond, B: thenV, C: elseV})

	case ast.EBlockExpr:
		blk := b.lowerBlockStmt(e.BodyStmt)
		tail := InvalidValue
		if e.TailExpr != ast.InvalidExpr {
			tail = b.lowerExpr(e.TailExpr)
		}
		return b.mod.AddValue(Value{Kind: VBlockExpr, Type: ty, BlockRef: blk, TailVal: tail})

	case ast.ELoopExpr:
		iter := b.lowerExpr(e.A)
		origin := uint32(0)
		if symID, ok := b.rr.LoopVarSym[id]; ok {
			origin = uint32(symID)
		}
		body := b.lowerBlockStmt(e.BodyStmt)
		return b.mod.AddValue(Value{Kind: VLoopExpr, Type: ty, A: iter, OriginSym: origin, BlockRef: body})

	case ast.EBreak:
		v := InvalidValue
		if e.A != ast.InvalidExpr {
			v = b.lowerExpr(e.A)
		}
		return b.mod.AddValue(Value{Kind: VBreak, Type: ty, A: v})

	case ast.EContinue:
		return b.mod.AddValue(Value{Kind: VContinue, Type: ty})

	case ast.EReturn:
		v := InvalidValue
		if e.A != ast.InvalidExpr {
			v = b.lowerExpr(e.A)
		}
		return b.mod.AddValue(Value{Kind: VReturn, Type: ty, A: v})

	case ast.EArrayLit:
		begin := uint32(len(b.mod.Args))
		for _, elID := range b.a.ExprSlice(e.ElemBegin, e.ElemCount) {
			v := b.lowerExpr(elID)
			b.mod.AddArg(Arg{Value: v})
		}
		return b.mod.AddValue(Value{Kind: VArrayLit, Type: ty, ArgBegin: begin, ArgCount: e.ElemCount})

	case ast.EFieldInit:
		begin := uint32(len(b.mod.FieldMembers))
		for _, fm := range b.a.FieldMemberSlice(e.FieldBegin, e.FieldCount) {
			v := InvalidValue
			if fm.Value != ast.InvalidExpr {
				v = b.lowerExpr(fm.Value)
			}
			b.mod.FieldMembers = append(b.mod.FieldMembers, FieldMember{Name: fm.Name, Value: v})
		}
		return b.mod.AddValue(Value{Kind: VFieldInit, Type: ty, Text: e.Text, ArgBegin: begin, ArgCount: e.FieldCount})
	}
	return InvalidValue
}

// lowerArmAsValue lowers an if-arm that the parser may have stored as
// either a statement or an expression ID (spec §4.3/§4.5): a statement arm
// lowers to a block-wrapped void value.
func (b *Builder) lowerArmAsValue(id uint32, isStmt bool) ValueID {
	if isStmt {
		blk := b.lowerBlockStmt(ast.StmtID(id))
		return b.mod.AddValue(Value{Kind: VBlockExpr, Type: b.pool.BuiltinID(types.BVoid), BlockRef: blk, TailVal: InvalidValue})
	}
	if ast.ExprID(id) == ast.InvalidExpr {
		return InvalidValue
	}
	return b.lowerExpr(ast.ExprID(id))
}

func (b *Builder) lowerCall(id ast.ExprID, e ast.Expr, ty types.ID) ValueID {
	callee := b.lowerExpr(e.A)
	begin := uint32(len(b.mod.Args))
	for _, a := range b.a.ArgSlice(e.ArgBegin, e.ArgCount) {
		v := b.lowerExpr(a.Value)
		b.mod.AddArg(Arg{Value: v, Label: a.Label})
	}
	calleeDecl := uint32(Invalid)
	if stmtID, ok := b.tr.CallTarget[id]; ok {
		calleeDecl = uint32(stmtID)
	}
	return b.mod.AddValue(Value{
		Kind: VCall, Type: ty, A: callee, ArgBegin: begin, ArgCount: e.ArgCount,
		CalleeDecl: calleeDecl, Effect: Unknown,
	})
}

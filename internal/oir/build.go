package oir

import (
	"github.com/parusbuild/parusc/internal/sir"
	"github.com/parusbuild/parusc/internal/types"
)

// binding records whether a SIR symbol is currently bound to a plain SSA
// value or to an addressable stack slot (spec §4.7: "Immutable let from a
// pure-ish initializer becomes an SSA binding... set, let mut, or any
// variable assigned later becomes a slot").
type binding struct {
	isSlot bool
	value  ValueID
}

// scopeUndo is one lexical scope's undo log of env entries it overwrote,
// so popping the scope restores exactly what the enclosing scope saw
// (spec §4.7: "a push/pop scope stack... with an undo log captured per
// scope so re-entering SSA-named outer bindings is correct").
type scopeUndo struct {
	sym  uint32
	prev binding
	had  bool
}

// loopFrame tracks the blocks break/continue target for the loop currently
// being lowered (spec §4.7: "break/continue rely on an on-the-fly loop
// stack maintained by the builder").
type loopFrame struct {
	contTarget BlockID
	exitTarget BlockID
	joinParam  ValueID // InvalidValue if the loop isn't value-producing
}

// funcBuilder lowers one sir.Func into an oir.Function.
type funcBuilder struct {
	mod  *Module
	sirM *sir.Module

	fn    *Function
	curBB BlockID

	env      map[uint32]binding
	undoLog  [][]scopeUndo
	loops    []loopFrame
}

// Builder lowers a whole sir.Module into an oir.Module (spec §4.7).
type Builder struct {
	sirM *sir.Module
	mod  *Module
}

func New(sirM *sir.Module) *Builder {
	return &Builder{sirM: sirM, mod: NewModule()}
}

func (b *Builder) Build() *Module {
	for _, sf := range b.sirM.Funcs {
		b.buildFunc(sf)
	}
	for _, g := range b.sirM.Globals {
		b.mod.AddGlobal(Global{Name: g.Name, Type: g.Type})
	}
	for _, h := range b.sirM.EscapeHandles {
		b.mod.EscapeHints = append(b.mod.EscapeHints, EscapeHint{
			Value: ValueID(h.Value), Kind: mapStorageKind(h.Storage),
		})
	}
	return b.mod
}

func mapStorageKind(k sir.StorageKind) StorageKind {
	switch k {
	case sir.StorageStackSlot:
		return StorageStackSlot
	case sir.StorageCallerSlot:
		return StorageCallerSlot
	case sir.StorageHeapBox:
		return StorageHeapBox
	default:
		return StorageTrivial
	}
}

func (b *Builder) buildFunc(sf sir.Func) {
	fn := Function{Name: sf.Name, RetTy: sf.RetType}
	entry := b.mod.AddBlock(Block{})
	fn.Entry = entry
	fn.Blocks = append(fn.Blocks, entry)
	fid := b.mod.AddFunc(fn)

	fb := &funcBuilder{
		mod: b.mod, sirM: b.sirM,
		fn: &b.mod.Funcs[fid], curBB: entry,
		env: map[uint32]binding{},
	}
	fb.pushScope()
	if sf.Entry != sir.InvalidBlock {
		fb.lowerBlock(sf.Entry)
	}
	fb.popScope()

	if !fb.mod.Blocks[fb.curBB].HasTerm {
		if sf.RetType == types.ErrorID {
			fb.setTerm(Terminator{Kind: TRet})
		} else {
			rv := fb.emitConstNull(sf.RetType)
			fb.setTerm(Terminator{Kind: TRet, HasValue: true, RetValue: rv})
		}
	}
}

// --- environment -----------------------------------------------------

func (fb *funcBuilder) pushScope() { fb.undoLog = append(fb.undoLog, nil) }

func (fb *funcBuilder) popScope() {
	if len(fb.undoLog) == 0 {
		return
	}
	undo := fb.undoLog[len(fb.undoLog)-1]
	fb.undoLog = fb.undoLog[:len(fb.undoLog)-1]
	for i := len(undo) - 1; i >= 0; i-- {
		u := undo[i]
		if u.had {
			fb.env[u.sym] = u.prev
		} else {
			delete(fb.env, u.sym)
		}
	}
}

func (fb *funcBuilder) bind(sym uint32, bnd binding) {
	if len(fb.undoLog) > 0 {
		prev, had := fb.env[sym]
		top := len(fb.undoLog) - 1
		fb.undoLog[top] = append(fb.undoLog[top], scopeUndo{sym: sym, prev: prev, had: had})
	}
	fb.env[sym] = bnd
}

// readLocal resolves a symbol use as either its SSA binding or a Load of
// its slot (spec §4.7).
func (fb *funcBuilder) readLocal(sym uint32, wantTy types.ID) ValueID {
	bnd, ok := fb.env[sym]
	if !ok {
		return fb.emitConstNull(wantTy)
	}
	if !bnd.isSlot {
		return bnd.value
	}
	return fb.emitLoad(wantTy, bnd.value)
}

// ensureSlot materializes (or reuses) an addressable slot for sym,
// demoting a prior SSA binding into the slot's initial store if one
// existed (spec §4.7).
func (fb *funcBuilder) ensureSlot(sym uint32, slotTy types.ID) ValueID {
	if bnd, ok := fb.env[sym]; ok && bnd.isSlot {
		return bnd.value
	}
	slot := fb.emitAlloca(slotTy)
	if bnd, ok := fb.env[sym]; ok && !bnd.isSlot && bnd.value != InvalidValue {
		fb.emitStore(slot, bnd.value)
	}
	fb.bind(sym, binding{isSlot: true, value: slot})
	return slot
}

// --- emission helpers --------------------------------------------------

func (fb *funcBuilder) makeValue(ty types.ID) ValueID { return fb.mod.AddValue(Value{Type: ty}) }

func (fb *funcBuilder) emitInst(inst Inst) InstID {
	iid := fb.mod.AddInst(inst)
	blk := &fb.mod.Blocks[fb.curBB]
	blk.Insts = append(blk.Insts, iid)
	if inst.Result != InvalidValue {
		v := fb.mod.Values[inst.Result]
		v.Def = DefInst
		v.DefA = uint32(iid)
		fb.mod.Values[inst.Result] = v
	}
	return iid
}

func (fb *funcBuilder) hasTerm() bool { return fb.mod.Blocks[fb.curBB].HasTerm }

func (fb *funcBuilder) setTerm(t Terminator) {
	blk := &fb.mod.Blocks[fb.curBB]
	blk.Term = t
	blk.HasTerm = true
}

func (fb *funcBuilder) newBlock() BlockID { return fb.mod.AddBlock(Block{}) }

func (fb *funcBuilder) enterBlock(id BlockID) {
	fb.fn.Blocks = append(fb.fn.Blocks, id)
	fb.curBB = id
}

func (fb *funcBuilder) addBlockParam(bb BlockID, ty types.ID) ValueID {
	v := fb.makeValue(ty)
	idx := uint32(len(fb.mod.Blocks[bb].Params))
	fb.mod.Values[v].Def = DefBlockArg
	fb.mod.Values[v].DefA = uint32(bb)
	fb.mod.Values[v].DefB = idx
	fb.mod.Blocks[bb].Params = append(fb.mod.Blocks[bb].Params, v)
	return v
}

func (fb *funcBuilder) emitConstInt(ty types.ID, text string) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IConstInt, Result: r, Effect: Pure, Text: text})
	return r
}

func (fb *funcBuilder) emitConstText(ty types.ID, text string) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IConstText, Result: r, Effect: Pure, Text: text})
	return r
}

func (fb *funcBuilder) emitConstBool(ty types.ID, text string) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IConstBool, Result: r, Effect: Pure, Text: text})
	return r
}

func (fb *funcBuilder) emitConstNull(ty types.ID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IConstNull, Result: r, Effect: Pure})
	return r
}

func (fb *funcBuilder) emitAlloca(ty types.ID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IAllocaLocal, Result: r, Effect: MayWriteMem, AllocaType: ty})
	return r
}

func (fb *funcBuilder) emitLoad(ty types.ID, slot ValueID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: ILoad, Result: r, Effect: MayReadMem, Slot: slot})
	return r
}

func (fb *funcBuilder) emitStore(slot, val ValueID) {
	fb.emitInst(Inst{Kind: IStore, Result: InvalidValue, Effect: MayWriteMem, Slot: slot, Value: val})
}

func (fb *funcBuilder) emitUnary(ty types.ID, op UnOp, eff Effect, src ValueID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IUnary, Result: r, Effect: eff, UnOp: op, Src: src})
	return r
}

func (fb *funcBuilder) emitBinOp(ty types.ID, eff Effect, op BinOp, lhs, rhs ValueID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IBinOp, Result: r, Effect: eff, BinOpKind: op, Lhs: lhs, Rhs: rhs})
	return r
}

func (fb *funcBuilder) emitCast(ty types.ID, eff Effect, kind CastKind, to types.ID, src ValueID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: ICast, Result: r, Effect: eff, CastKind: kind, CastTo: to, Src: src})
	return r
}

func (fb *funcBuilder) emitIndex(ty types.ID, base, idx ValueID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IIndex, Result: r, Effect: MayReadMem, Base: base, Index: idx})
	return r
}

func (fb *funcBuilder) emitField(ty types.ID, base ValueID) ValueID {
	r := fb.makeValue(ty)
	fb.emitInst(Inst{Kind: IField, Result: r, Effect: MayReadMem, Base: base})
	return r
}

func (fb *funcBuilder) emitCall(ty types.ID, callee ValueID, direct FuncID, args []ValueID) ValueID {
	r := fb.makeValue(ty)
	begin := uint32(len(fb.mod.CallArgs))
	fb.mod.CallArgs = append(fb.mod.CallArgs, args...)
	fb.emitInst(Inst{
		Kind: ICall, Result: r, Effect: Call,
		Callee: callee, DirectCallee: direct,
		ArgBegin: begin, ArgCount: uint32(len(args)),
	})
	return r
}

func (fb *funcBuilder) br(target BlockID, args []ValueID) {
	fb.setTerm(Terminator{Kind: TBr, Target: target, Args: args})
}

func (fb *funcBuilder) condBr(cond ValueID, thenBB BlockID, thenArgs []ValueID, elseBB BlockID, elseArgs []ValueID) {
	fb.setTerm(Terminator{
		Kind: TCondBr, Cond: cond,
		ThenBlock: thenBB, ThenArgs: thenArgs,
		ElseBlock: elseBB, ElseArgs: elseArgs,
	})
}

func (fb *funcBuilder) ret(v ValueID) {
	fb.setTerm(Terminator{Kind: TRet, HasValue: true, RetValue: v})
}

func (fb *funcBuilder) retVoid() {
	fb.setTerm(Terminator{Kind: TRet})
}

// --- operator mapping ---------------------------------------------------

func mapBinOp(text string) BinOp {
	switch text {
	case "+":
		return BAdd
	case "-":
		return BSub
	case "*":
		return BMul
	case "/":
		return BDiv
	case "%":
		return BRem
	case "<":
		return BLt
	case "<=":
		return BLe
	case ">":
		return BGt
	case ">=":
		return BGe
	case "==":
		return BEq
	case "!=":
		return BNe
	case "&&":
		return BAnd
	case "||":
		return BOr
	case "&":
		return BBitAnd
	case "|":
		return BBitOr
	case "^":
		return BBitXor
	case "??":
		return BNullCoalesce
	default:
		return BAdd
	}
}

func mapUnOp(text string) UnOp {
	switch text {
	case "-":
		return UNeg
	case "+":
		return UPlus
	case "!":
		return UNot
	case "~":
		return UBitNot
	default:
		return UPlus
	}
}

func mapCastKind(text string) CastKind {
	switch text {
	case "as?":
		return CastAsOptional
	case "as!":
		return CastAsForce
	default:
		return CastAs
	}
}

// --- statement/expression lowering --------------------------------------

func (fb *funcBuilder) lowerBlock(id sir.BlockID) {
	if id == sir.InvalidBlock {
		return
	}
	blk := fb.sirM.BlockAt(id)
	for _, sid := range fb.sirM.StmtSlice(blk.StmtBegin, blk.StmtCount) {
		if fb.hasTerm() {
			return
		}
		fb.lowerStmt(sid)
	}
}

func (fb *funcBuilder) lowerStmt(id sir.StmtID) {
	s := fb.sirM.Stmt(id)
	switch s.Kind {
	case sir.SValueStmt:
		fb.lowerValue(s.Val)

	case sir.SVarDecl:
		declTy := types.ErrorID
		var init ValueID = InvalidValue
		if s.Val != sir.InvalidValue {
			init = fb.lowerValue(s.Val)
			declTy = fb.sirM.Value(s.Val).Type
		}
		if s.IsMut || s.IsStatic {
			slot := fb.emitAlloca(declTy)
			if init != InvalidValue {
				fb.emitStore(slot, init)
			}
			fb.bind(s.OriginSym, binding{isSlot: true, value: slot})
		} else {
			fb.bind(s.OriginSym, binding{isSlot: false, value: init})
		}

	case sir.SBlockStmt:
		fb.pushScope()
		fb.lowerBlock(s.Block)
		fb.popScope()
	}
}

// lowerValue lowers one sir.Value to its OIR SSA result, mirroring
// spec §4.7's control-flow lowering rules (if/while/do-while/loop all
// reduce to explicit block-parameter-passing branches).
func (fb *funcBuilder) lowerValue(id sir.ValueID) ValueID {
	if id == sir.InvalidValue {
		return InvalidValue
	}
	v := fb.sirM.Value(id)

	switch v.Kind {
	case sir.VIntLit:
		return fb.emitConstInt(v.Type, v.Text)
	case sir.VFloatLit, sir.VStringLit, sir.VCharLit:
		return fb.emitConstText(v.Type, v.Text)
	case sir.VBoolLit:
		return fb.emitConstBool(v.Type, v.Text)
	case sir.VNullLit:
		return fb.emitConstNull(v.Type)

	case sir.VLocal:
		return fb.readLocal(v.OriginSym, v.Type)

	case sir.VUnary:
		src := fb.lowerValue(v.A)
		return fb.emitUnary(v.Type, mapUnOp(v.Text), Pure, src)

	case sir.VBinary:
		lhs := fb.lowerValue(v.A)
		rhs := fb.lowerValue(v.B)
		return fb.emitBinOp(v.Type, Pure, mapBinOp(v.Text), lhs, rhs)

	case sir.VCast:
		src := fb.lowerValue(v.A)
		eff := Pure
		if mapCastKind(v.Text) == CastAsForce {
			eff = MayTrap
		}
		return fb.emitCast(v.Type, eff, mapCastKind(v.Text), v.CastTo, src)

	case sir.VIndex:
		base := fb.lowerValue(v.A)
		idx := fb.lowerValue(v.B)
		return fb.emitIndex(v.Type, base, idx)

	case sir.VField:
		base := fb.lowerValue(v.A)
		return fb.emitField(v.Type, base)

	case sir.VCall:
		callee := fb.lowerValue(v.A)
		var args []ValueID
		for _, a := range fb.sirM.Args[v.ArgBegin : v.ArgBegin+v.ArgCount] {
			args = append(args, fb.lowerValue(a.Value))
		}
		direct := InvalidFunc
		return fb.emitCall(v.Type, callee, direct, args)

	case sir.VAssign:
		return fb.lowerAssign(v)

	case sir.VPostfixInc:
		operand := fb.sirM.Value(v.A)
		old := fb.lowerValue(v.A)
		one := fb.emitConstInt(operand.Type, "1")
		sum := fb.emitBinOp(operand.Type, Pure, BAdd, old, one)
		if operand.Kind == sir.VLocal {
			slot := fb.ensureSlot(operand.OriginSym, operand.Type)
			fb.emitStore(slot, sum)
		}
		return old

	case sir.VIfExpr:
		return fb.lowerIfExpr(v)

	case sir.VBlockExpr:
		fb.pushScope()
		fb.lowerBlock(v.BlockRef)
		var out ValueID
		if v.TailVal != sir.InvalidValue {
			out = fb.lowerValue(v.TailVal)
		} else {
			out = fb.emitConstNull(v.Type)
		}
		fb.popScope()
		return out

	case sir.VLoopExpr:
		return fb.lowerLoop(v)

	case sir.VBreak:
		return fb.lowerBreak(v)

	case sir.VContinue:
		if len(fb.loops) > 0 {
			fb.br(fb.loops[len(fb.loops)-1].contTarget, nil)
		}
		return InvalidValue

	case sir.VReturn:
		if v.A != sir.InvalidValue {
			rv := fb.lowerValue(v.A)
			fb.ret(rv)
		} else {
			fb.retVoid()
		}
		return InvalidValue

	case sir.VBorrow, sir.VEscape:
		// Both are capability-analyzer-only constructs: by the time SIR
		// reaches OIR, materialize_count is zero (spec §3 invariant), so
		// they lower transparently to their operand's value.
		return fb.lowerValue(v.A)

	case sir.VArrayLit, sir.VFieldInit:
		for _, a := range fb.sirM.Args[v.ArgBegin : v.ArgBegin+v.ArgCount] {
			fb.lowerValue(a.Value)
		}
		return fb.emitConstNull(v.Type)

	default:
		return fb.emitConstNull(v.Type)
	}
}

func (fb *funcBuilder) lowerAssign(v sir.Value) ValueID {
	place := fb.sirM.Value(v.A)
	rhs := fb.lowerValue(v.B)

	switch place.Kind {
	case sir.VLocal:
		slotTy := place.Type
		if place.PlaceElemType != types.ErrorID {
			slotTy = place.PlaceElemType
		}
		slot := fb.ensureSlot(place.OriginSym, slotTy)
		fb.emitStore(slot, rhs)
		return rhs
	case sir.VIndex:
		base := fb.lowerValue(place.A)
		idx := fb.lowerValue(place.B)
		_ = fb.emitIndex(place.Type, base, idx) // address computation; v1 has no separate store-to-index inst
		return rhs
	case sir.VField:
		base := fb.lowerValue(place.A)
		_ = fb.emitField(place.Type, base)
		return rhs
	default:
		return rhs
	}
}

// lowerIfExpr builds then/else/join blocks with the join block taking one
// parameter of the if's result type, replacing phi nodes with a block
// argument on each branch's `br` (spec §4.7, design notes).
func (fb *funcBuilder) lowerIfExpr(v sir.Value) ValueID {
	cond := fb.lowerValue(v.A)

	thenBB := fb.newBlock()
	elseBB := fb.newBlock()
	joinBB := fb.newBlock()
	joinParam := fb.addBlockParam(joinBB, v.Type)

	fb.condBr(cond, thenBB, nil, elseBB, nil)

	fb.enterBlock(thenBB)
	fb.pushScope()
	thenVal := fb.lowerValue(v.B)
	fb.popScope()
	if !fb.hasTerm() {
		fb.br(joinBB, []ValueID{thenVal})
	}

	fb.enterBlock(elseBB)
	fb.pushScope()
	elseVal := fb.lowerValue(v.C)
	fb.popScope()
	if !fb.hasTerm() {
		fb.br(joinBB, []ValueID{elseVal})
	}

	fb.enterBlock(joinBB)
	return joinParam
}

// lowerLoop lowers a while-shaped loop: cond/body/exit blocks, with the
// body back-edging to cond (spec §4.7's while rule; `loop (v in iter)` is
// reduced to this same shape after header lowering per spec §4.7).
func (fb *funcBuilder) lowerLoop(v sir.Value) ValueID {
	condBB := fb.newBlock()
	bodyBB := fb.newBlock()
	exitBB := fb.newBlock()
	exitParam := fb.addBlockParam(exitBB, v.Type)

	if !fb.hasTerm() {
		fb.br(condBB, nil)
	}

	fb.enterBlock(condBB)
	cond := fb.lowerValue(v.A)
	fb.condBr(cond, bodyBB, nil, exitBB, []ValueID{fb.emitConstNull(v.Type)})

	fb.enterBlock(bodyBB)
	fb.loops = append(fb.loops, loopFrame{contTarget: condBB, exitTarget: exitBB, joinParam: exitParam})
	fb.pushScope()
	fb.lowerBlock(v.BlockRef)
	fb.popScope()
	fb.loops = fb.loops[:len(fb.loops)-1]
	if !fb.hasTerm() {
		fb.br(condBB, nil)
	}

	fb.enterBlock(exitBB)
	return exitParam
}

// lowerBreak branches to the enclosing loop's exit block, passing the
// break value as the exit block's parameter when the loop is
// value-producing (spec §4.4 "loop value": `break value;` only legal
// inside a value-producing loop expression, already enforced by tyck).
func (fb *funcBuilder) lowerBreak(v sir.Value) ValueID {
	if len(fb.loops) == 0 {
		return InvalidValue
	}
	top := fb.loops[len(fb.loops)-1]
	var val ValueID = InvalidValue
	if v.A != sir.InvalidValue {
		val = fb.lowerValue(v.A)
	}
	if val == InvalidValue {
		val = fb.emitConstNull(v.Type)
	}
	fb.br(top.exitTarget, []ValueID{val})
	return InvalidValue
}

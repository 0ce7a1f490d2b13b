package oir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parusbuild/parusc/internal/types"
)

// nullCoalesceModule builds, directly at the OIR level, one function
// computing `(<lhsKind> ?? rhsLit)` and returning it — the OIR-level
// fixture for the null-coalesce constant-fold scenario (spec §8 scenario
// S5: "OIR input: a ?? b where a is a literal null").
func nullCoalesceModule(i32 types.ID, lhsNull bool) *Module {
	m := NewModule()
	entry := m.AddBlock(Block{})

	lhs := m.AddValue(Value{Type: i32})
	if lhsNull {
		m.AddInst(Inst{Kind: IConstNull, Result: lhs, Effect: Pure})
	} else {
		m.AddInst(Inst{Kind: IConstInt, Result: lhs, Effect: Pure, Text: "7"})
	}
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(0))

	rhs := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IConstInt, Result: rhs, Effect: Pure, Text: "9"})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(1))

	res := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IBinOp, Result: res, Effect: Pure, BinOpKind: BNullCoalesce, Lhs: lhs, Rhs: rhs})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(2))

	m.Blocks[entry].HasTerm = true
	m.Blocks[entry].Term = Terminator{Kind: TRet, HasValue: true, RetValue: res}
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry}})
	return m
}

func TestConstFoldNullCoalesceWithNullLHS(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := nullCoalesceModule(i32, true)

	RunPasses(m)

	term := m.Blocks[0].Term
	require.True(t, term.HasValue)
	rv := m.Values[term.RetValue]
	require.Equal(t, DefInst, rv.Def)
	folded := m.Insts[rv.DefA]
	require.Equal(t, IConstInt, folded.Kind)
	require.Equal(t, "9", folded.Text)
}

func TestConstFoldNullCoalesceWithNonNullLHS(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := nullCoalesceModule(i32, false)

	RunPasses(m)

	term := m.Blocks[0].Term
	rv := m.Values[term.RetValue]
	require.Equal(t, DefInst, rv.Def)
	folded := m.Insts[rv.DefA]
	require.Equal(t, IConstInt, folded.Kind)
	require.Equal(t, "7", folded.Text)
}

func TestConstFoldArithmetic(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	entry := m.AddBlock(Block{})

	a := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IConstInt, Result: a, Effect: Pure, Text: "2"})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(0))

	b := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IConstInt, Result: b, Effect: Pure, Text: "3"})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(1))

	sum := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IBinOp, Result: sum, Effect: Pure, BinOpKind: BAdd, Lhs: a, Rhs: b})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(2))

	m.Blocks[entry].HasTerm = true
	m.Blocks[entry].Term = Terminator{Kind: TRet, HasValue: true, RetValue: sum}
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry}})

	changed := constFold(m)
	require.True(t, changed)

	rv := m.Values[m.Blocks[0].Term.RetValue]
	folded := m.Insts[rv.DefA]
	require.Equal(t, IConstInt, folded.Kind)
	require.Equal(t, "5", folded.Text)
}

// TestDeadConstIsEliminated exercises dce_pure_insts: a const computed
// but never read must disappear (spec §4.8).
func TestDeadConstIsEliminated(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	entry := m.AddBlock(Block{})

	dead := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IConstInt, Result: dead, Effect: Pure, Text: "123"})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(0))

	m.Blocks[entry].HasTerm = true
	m.Blocks[entry].Term = Terminator{Kind: TRet}
	m.AddFunc(Function{Name: "f", RetTy: types.ErrorID, Entry: entry, Blocks: []BlockID{entry}})

	changed := dcePureInsts(m)
	require.True(t, changed)
	require.Empty(t, m.Blocks[0].Insts)
}

// TestLocalLoadForwardRewritesLoadToStoredValue exercises
// local_load_forward: a Load immediately following a Store to the same
// slot, with nothing invalidating in between, is rewritten to the stored
// value (spec §4.8).
func TestLocalLoadForwardRewritesLoadToStoredValue(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	entry := m.AddBlock(Block{})

	slot := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IAllocaLocal, Result: slot, Effect: MayWriteMem, AllocaType: i32})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(0))

	stored := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IConstInt, Result: stored, Effect: Pure, Text: "41"})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(1))

	m.AddInst(Inst{Kind: IStore, Result: InvalidValue, Effect: MayWriteMem, Slot: slot, Value: stored})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(2))

	loaded := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: ILoad, Result: loaded, Effect: MayReadMem, Slot: slot})
	m.Blocks[entry].Insts = append(m.Blocks[entry].Insts, InstID(3))

	m.Blocks[entry].HasTerm = true
	m.Blocks[entry].Term = Terminator{Kind: TRet, HasValue: true, RetValue: loaded}
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry}})

	changed := localLoadForward(m)
	require.True(t, changed)
	require.Equal(t, stored, m.Blocks[0].Term.RetValue)
}

func TestSimplifyCFGMergesIdenticalCondBrTargets(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	target := m.AddBlock(Block{HasTerm: true, Term: Terminator{Kind: TRet}})
	cond := m.AddValue(Value{Type: pool.BuiltinID(types.BBool)})
	m.AddInst(Inst{Kind: IConstBool, Result: cond, Effect: Pure, Text: "true"})
	entry := m.AddBlock(Block{
		Insts:   []InstID{0},
		HasTerm: true,
		Term:    Terminator{Kind: TCondBr, Cond: cond, ThenBlock: target, ElseBlock: target},
	})
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry, target}})

	changed := simplifyCFG(m)
	require.True(t, changed)
	require.Equal(t, TBr, m.Blocks[entry].Term.Kind)
	require.Equal(t, target, m.Blocks[entry].Term.Target)
}

func TestSimplifyCFGRemovesUnreachableBlocks(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	unreachable := m.AddBlock(Block{HasTerm: true, Term: Terminator{Kind: TRet}})
	entry := m.AddBlock(Block{HasTerm: true, Term: Terminator{Kind: TRet}})
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry, unreachable}})

	simplifyCFG(m)
	f := m.Funcs[0]
	require.Len(t, f.Blocks, 1)
	require.Equal(t, entry, f.Blocks[0])
}

// TestPassPipelineIsIdempotent exercises spec §8 property 8: running the
// pipeline twice in a row must not change an already-converged module.
func TestPassPipelineIsIdempotent(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := nullCoalesceModule(i32, true)
	RunPasses(m)

	snapshot := cloneModuleForCompare(m)
	RunPasses(m)
	require.Equal(t, snapshot, m)
}

func cloneModuleForCompare(m *Module) *Module {
	cp := *m
	cp.Values = append([]Value(nil), m.Values...)
	cp.Insts = append([]Inst(nil), m.Insts...)
	cp.Blocks = append([]Block(nil), m.Blocks...)
	cp.Funcs = append([]Function(nil), m.Funcs...)
	cp.Globals = append([]Global(nil), m.Globals...)
	cp.CallArgs = append([]ValueID(nil), m.CallArgs...)
	cp.EscapeHints = append([]EscapeHint(nil), m.EscapeHints...)
	return &cp
}

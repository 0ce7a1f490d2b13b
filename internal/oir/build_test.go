package oir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parusbuild/parusc/internal/sir"
	"github.com/parusbuild/parusc/internal/types"
)

// buildAddFunc constructs, directly against the sir.Module arena, the
// equivalent of `fn add(a: i32, b: i32) -> i32 { return a + b; }` — one
// statement-level return of a binary-op value over two parameter locals.
func buildAddFunc(i32 types.ID) *sir.Module {
	m := sir.NewModule()

	const symA, symB uint32 = 1, 2

	a := m.AddValue(sir.Value{Kind: sir.VLocal, Type: i32, OriginSym: symA, Place: sir.Local})
	b := m.AddValue(sir.Value{Kind: sir.VLocal, Type: i32, OriginSym: symB, Place: sir.Local})
	sum := m.AddValue(sir.Value{Kind: sir.VBinary, Type: i32, A: a, B: b, Text: "+"})
	ret := m.AddValue(sir.Value{Kind: sir.VReturn, Type: i32, A: sum})

	retStmt := m.AddStmt(sir.Stmt{Kind: sir.SValueStmt, Val: ret})
	begin, count := m.PushStmtIDs([]sir.StmtID{retStmt})
	entry := m.AddBlock(sir.Block{StmtBegin: begin, StmtCount: count})

	m.AddFunc(sir.Func{
		Name:       "add",
		ParamSyms:  []uint32{symA, symB},
		ParamTypes: []types.ID{i32, i32},
		RetType:    i32,
		Entry:      entry,
	})
	return m
}

func TestBuilderLowersBinaryReturn(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	sm := buildAddFunc(i32)

	om := New(sm).Build()
	require.Len(t, om.Funcs, 1)

	bag := Verify(om)
	require.Empty(t, bag.Errors())

	f := om.Funcs[0]
	entry := om.Blocks[f.Entry]
	require.True(t, entry.HasTerm)
	require.Equal(t, TRet, entry.Term.Kind)
	require.True(t, entry.Term.HasValue)

	rv := om.Values[entry.Term.RetValue]
	require.Equal(t, DefInst, rv.Def)
	inst := om.Insts[rv.DefA]
	require.Equal(t, IBinOp, inst.Kind)
	require.Equal(t, BAdd, inst.BinOpKind)
}

// buildIfFunc constructs `fn pick(c: bool) -> i32 { if c { return 1; } else
// { return 2; } }` directly at the SIR level, exercising lowerIfExpr's
// then/else/join wiring and the resulting block-parameter join.
func buildIfFunc(i32, boolTy types.ID) *sir.Module {
	m := sir.NewModule()
	const symC uint32 = 1

	cond := m.AddValue(sir.Value{Kind: sir.VLocal, Type: boolTy, OriginSym: symC, Place: sir.Local})

	one := m.AddValue(sir.Value{Kind: sir.VIntLit, Type: i32, Text: "1"})
	retThen := m.AddValue(sir.Value{Kind: sir.VReturn, Type: i32, A: one})
	thenStmt := m.AddStmt(sir.Stmt{Kind: sir.SValueStmt, Val: retThen})
	tBegin, tCount := m.PushStmtIDs([]sir.StmtID{thenStmt})
	thenBlock := m.AddBlock(sir.Block{StmtBegin: tBegin, StmtCount: tCount})
	thenExpr := m.AddValue(sir.Value{Kind: sir.VBlockExpr, Type: types.ErrorID, BlockRef: thenBlock, TailVal: sir.InvalidValue})

	two := m.AddValue(sir.Value{Kind: sir.VIntLit, Type: i32, Text: "2"})
	retElse := m.AddValue(sir.Value{Kind: sir.VReturn, Type: i32, A: two})
	elseStmt := m.AddStmt(sir.Stmt{Kind: sir.SValueStmt, Val: retElse})
	eBegin, eCount := m.PushStmtIDs([]sir.StmtID{elseStmt})
	elseBlock := m.AddBlock(sir.Block{StmtBegin: eBegin, StmtCount: eCount})
	elseExpr := m.AddValue(sir.Value{Kind: sir.VBlockExpr, Type: types.ErrorID, BlockRef: elseBlock, TailVal: sir.InvalidValue})

	ifExpr := m.AddValue(sir.Value{Kind: sir.VIfExpr, Type: types.ErrorID, A: cond, B: thenExpr, C: elseExpr})
	ifStmt := m.AddStmt(sir.Stmt{Kind: sir.SValueStmt, Val: ifExpr})
	begin, count := m.PushStmtIDs([]sir.StmtID{ifStmt})
	entry := m.AddBlock(sir.Block{StmtBegin: begin, StmtCount: count})

	m.AddFunc(sir.Func{
		Name: "pick", ParamSyms: []uint32{symC}, ParamTypes: []types.ID{boolTy},
		RetType: i32, Entry: entry,
	})
	return m
}

func TestBuilderLowersIfExprBothArmsReturning(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	boolTy := pool.BuiltinID(types.BBool)
	sm := buildIfFunc(i32, boolTy)

	om := New(sm).Build()
	bag := Verify(om)
	require.Empty(t, bag.Errors())

	f := om.Funcs[0]
	entry := om.Blocks[f.Entry]
	require.Equal(t, TCondBr, entry.Term.Kind)
}

package oir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parusbuild/parusc/internal/types"
)

// buildTrivialModule constructs a single-block function `fn f() -> i32`
// directly at the OIR level, bypassing the SIR builder, and leaves its
// entry block empty and unterminated for the caller to fill in; this lets
// pass/verifier tests target exact instruction shapes without needing a
// full front-end compile for every case.
func buildTrivialModule(i32 types.ID) (*Module, Function, BlockID) {
	m := NewModule()
	entry := m.AddBlock(Block{})
	f := Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry}}
	fid := m.AddFunc(f)
	return m, m.Funcs[fid], entry
}

func TestVerifyAcceptsWellFormedModule(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)

	m := NewModule()
	entry := m.AddBlock(Block{})
	v := m.AddValue(Value{Type: i32})
	m.AddInst(Inst{Kind: IConstInt, Result: v, Effect: Pure, Text: "42"})
	m.Blocks[entry].Insts = []InstID{0}
	m.Blocks[entry].HasTerm = true
	m.Blocks[entry].Term = Terminator{Kind: TRet, HasValue: true, RetValue: v}
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry}})

	bag := Verify(m)
	require.Empty(t, bag.Errors())
}

func TestVerifyCatchesMissingTerminator(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m, _, entry := buildTrivialModule(i32)
	_ = entry

	bag := Verify(m)
	require.NotEmpty(t, bag.Errors())
	require.Equal(t, "OirMissingTerminator", string(bag.Errors()[0].Code))
}

func TestVerifyCatchesBadBranchTarget(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	entry := m.AddBlock(Block{HasTerm: true, Term: Terminator{Kind: TBr, Target: BlockID(99)}})
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry}})

	bag := Verify(m)
	require.NotEmpty(t, bag.Errors())
	require.Equal(t, "OirBadBranchTarget", string(bag.Errors()[0].Code))
}

func TestVerifyCatchesBranchArgCountMismatch(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	target := m.AddBlock(Block{})
	p := m.AddValue(Value{Type: i32})
	m.Blocks[target].Params = []ValueID{p}
	m.Blocks[target].HasTerm = true
	m.Blocks[target].Term = Terminator{Kind: TRet, HasValue: true, RetValue: p}

	entry := m.AddBlock(Block{HasTerm: true, Term: Terminator{Kind: TBr, Target: target, Args: nil}})
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry, target}})

	bag := Verify(m)
	found := false
	for _, r := range bag.Errors() {
		if string(r.Code) == "OirBranchArgMismatch" {
			found = true
		}
	}
	require.True(t, found, "expected an OirBranchArgMismatch report, got %+v", bag.Errors())
}

func TestVerifyRejectsHeapBoxEscapeHint(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m, _, entry := buildTrivialModule(i32)
	m.Blocks[entry].HasTerm = true
	m.Blocks[entry].Term = Terminator{Kind: TRet}
	v := m.AddValue(Value{Type: i32})
	m.EscapeHints = append(m.EscapeHints, EscapeHint{Value: v, Kind: StorageHeapBox})

	bag := Verify(m)
	found := false
	for _, r := range bag.Errors() {
		if string(r.Code) == "OirEscapeHeapBox" {
			found = true
		}
	}
	require.True(t, found)
}

func TestVerifyCatchesForeignBlockOwnership(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()
	foreign := m.AddBlock(Block{HasTerm: true, Term: Terminator{Kind: TRet}})
	entry := m.AddBlock(Block{HasTerm: true, Term: Terminator{Kind: TBr, Target: foreign}})
	// entry's function doesn't list `foreign` among its own blocks.
	m.AddFunc(Function{Name: "f", RetTy: i32, Entry: entry, Blocks: []BlockID{entry}})

	bag := Verify(m)
	found := false
	for _, r := range bag.Errors() {
		if string(r.Code) == "OirBadBranchTarget" {
			found = true
		}
	}
	require.True(t, found)
}

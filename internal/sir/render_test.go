package sir

import (
	"strings"
	"testing"

	"github.com/parusbuild/parusc/internal/types"
	"github.com/stretchr/testify/require"
)

// TestRenderOneLinePerValueAndStmt is SPEC_FULL §4's supplement: a golden
// textual form so lowering shape can be asserted without comparing Go
// struct literals node-by-node.
func TestRenderOneLinePerValueAndStmt(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()

	const symX uint32 = 1
	sX := buildVarDecl(m, "x", symX, m.AddValue(Value{Kind: VIntLit, Type: i32, Text: "1"}), true)
	finishFunc(m, "f", []StmtID{sX})

	text := m.Render(pool)
	require.True(t, strings.Contains(text, "fn f (#0) {"), text)
	require.True(t, strings.Contains(text, "let mut x = %0;"), text)
	require.True(t, strings.Contains(text, "%0 = int type=i32 \"1\""), text)
}

func TestDumpOmitsTypesWithoutAPool(t *testing.T) {
	m := NewModule()
	sX := buildVarDecl(m, "x", 1, m.AddValue(Value{Kind: VIntLit, Text: "1"}), false)
	finishFunc(m, "f", []StmtID{sX})

	text := m.Dump()
	require.True(t, strings.Contains(text, "%0 = int \"1\""), text)
	require.False(t, strings.Contains(text, "type="))
}

func TestRenderShowsBorrowAndEscapeOperands(t *testing.T) {
	pool := types.NewPool()
	i32 := pool.BuiltinID(types.BI32)
	m := NewModule()

	const symX uint32 = 1
	sX := buildVarDecl(m, "x", symX, m.AddValue(Value{Kind: VIntLit, Type: i32, Text: "1"}), true)
	borrowOperand := buildLocalRef(m, symX, i32)
	borrow := m.AddValue(Value{Kind: VBorrow, Type: pool.MakeBorrow(i32, true), A: borrowOperand, OriginSym: symX, BorrowIsMut: true})
	sA := buildVarDecl(m, "a", 2, borrow, false)
	finishFunc(m, "f", []StmtID{sX, sA})

	text := m.Render(pool)
	require.True(t, strings.Contains(text, "= borrow"), text)
	require.True(t, strings.Contains(text, "mut=true"), text)
}

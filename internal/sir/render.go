package sir

import (
	"fmt"
	"strings"

	"github.com/parusbuild/parusc/internal/types"
)

// valueKindNames mirrors the teacher Core package's one-`String()`-per-node
// convention (internal/core/core.go), collapsed into a single name table
// since every sir.Value shares one struct shape instead of one Go type per
// kind.
var valueKindNames = [...]string{
	VInvalid: "invalid", VLocal: "local", VIntLit: "int", VFloatLit: "float",
	VStringLit: "str", VCharLit: "char", VBoolLit: "bool", VNullLit: "null",
	VUnary: "unary", VBinary: "binary", VTernary: "ternary", VAssign: "assign",
	VPostfixInc: "postfix_inc", VCall: "call", VIndex: "index", VField: "field",
	VBorrow: "borrow", VEscape: "escape", VCast: "cast", VIfExpr: "if",
	VBlockExpr: "block", VLoopExpr: "loop", VBreak: "break", VContinue: "continue",
	VReturn: "return", VArrayLit: "array_lit", VFieldInit: "field_init",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) && valueKindNames[k] != "" {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", k)
}

// renderValue writes one line per spec §4.6's "one line per Value" golden
// form: `%<id> = <kind> type=<T> [operands...]`.
func (m *Module) renderValue(b *strings.Builder, pool *types.Pool, id ValueID) {
	v := m.Values[id]
	fmt.Fprintf(b, "  %%%d = %s", id, v.Kind)
	if pool != nil && v.Type != types.Invalid {
		fmt.Fprintf(b, " type=%s", pool.Render(v.Type))
	}
	if v.Text != "" {
		fmt.Fprintf(b, " %q", v.Text)
	}
	switch v.Kind {
	case VLocal:
		fmt.Fprintf(b, " sym=%d", v.OriginSym)
	case VBorrow:
		fmt.Fprintf(b, " mut=%t %%%d", v.BorrowIsMut, v.A)
	case VEscape:
		fmt.Fprintf(b, " %%%d", v.A)
	case VCall:
		fmt.Fprintf(b, " callee=%%%d args=%d..%d", v.A, v.ArgBegin, v.ArgBegin+v.ArgCount)
	case VField, VIndex:
		fmt.Fprintf(b, " %%%d %%%d", v.A, v.B)
	case VAssign:
		fmt.Fprintf(b, " %%%d = %%%d", v.A, v.B)
	case VBlockExpr:
		fmt.Fprintf(b, " block%d", v.BlockRef)
		if v.TailVal != InvalidValue {
			fmt.Fprintf(b, " tail=%%%d", v.TailVal)
		}
	case VReturn, VBreak:
		if v.A != InvalidValue {
			fmt.Fprintf(b, " %%%d", v.A)
		}
	case VIntLit, VFloatLit, VStringLit, VCharLit, VBoolLit, VNullLit, VContinue:
		// no operands; Text (if any) was already printed above.
	case VUnary, VPostfixInc, VCast:
		fmt.Fprintf(b, " %%%d", v.A)
	case VBinary, VTernary:
		fmt.Fprintf(b, " %%%d %%%d", v.A, v.B)
	case VIfExpr:
		fmt.Fprintf(b, " %%%d %%%d %%%d", v.A, v.B, v.C)
	case VLoopExpr:
		fmt.Fprintf(b, " block%d", v.BlockRef)
	case VArrayLit, VFieldInit:
		fmt.Fprintf(b, " args=%d..%d", v.ArgBegin, v.ArgBegin+v.ArgCount)
	}
	b.WriteByte('\n')
}

// renderStmt writes one line per Stmt, matching renderValue's format.
func (m *Module) renderStmt(b *strings.Builder, id StmtID, indent string) {
	s := m.Stmts[id]
	switch s.Kind {
	case SValueStmt:
		fmt.Fprintf(b, "%s%%%d;\n", indent, s.Val)
	case SVarDecl:
		mut := ""
		if s.IsMut {
			mut = "mut "
		}
		if s.IsStatic {
			mut = "static " + mut
		}
		fmt.Fprintf(b, "%slet %s%s = %%%d; // sym=%d\n", indent, mut, s.Name, s.Val, s.OriginSym)
	case SBlockStmt:
		fmt.Fprintf(b, "%sblock%d {\n", indent, s.Block)
		m.renderBlockStmts(b, s.Block, indent+"  ")
		fmt.Fprintf(b, "%s}\n", indent)
	}
}

func (m *Module) renderBlockStmts(b *strings.Builder, id BlockID, indent string) {
	blk := m.Blocks[id]
	for _, sid := range m.StmtSlice(blk.StmtBegin, blk.StmtCount) {
		m.renderStmt(b, sid, indent)
	}
}

// Render produces a textual form of m: one line per Value, one line per
// Stmt grouped under its owning Func, analogous to the teacher Core
// package's per-node `String()` methods (spec §4.6 supplement: golden
// tests assert lowering shape without comparing Go struct literals
// node-by-node). pool may be nil, in which case value types are omitted.
func (m *Module) Render(pool *types.Pool) string {
	var b strings.Builder
	for fi, fn := range m.Funcs {
		fmt.Fprintf(&b, "fn %s (#%d) {\n", fn.Name, fi)
		if fn.Entry != InvalidBlock {
			m.renderBlockStmts(&b, fn.Entry, "  ")
		}
		b.WriteString("}\n")
	}
	b.WriteString("values:\n")
	for id := range m.Values {
		m.renderValue(&b, pool, ValueID(id))
	}
	return b.String()
}

// Dump is Render with no type pool, for call sites (debug prints, test
// failure messages) that don't have one handy.
func (m *Module) Dump() string { return m.Render(nil) }

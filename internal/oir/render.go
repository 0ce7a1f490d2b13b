package oir

import (
	"fmt"
	"strings"

	"github.com/parusbuild/parusc/internal/types"
)

// instMnemonics names each InstKind the way Cranelift/LLVM textual IR names
// opcodes (`iconst`, `call`, ...), grounded on the block/value label
// format of the reference corpus's golang.org/x/tools/go/ssa WriteFunction
// (golang-tools__ssa-func.go): one function per labeled block, one
// instruction per line.
var instMnemonics = [...]string{
	IConstInt: "iconst", IConstBool: "bconst", IConstNull: "nullconst",
	IConstText: "sconst", IAllocaLocal: "alloca", IUnary: "unary",
	IBinOp: "binop", ICast: "cast", ILoad: "load", IStore: "store",
	ICall: "call", IIndex: "index", IField: "field", IFuncRef: "funcref",
	IGlobalRef: "globalref",
}

func (k InstKind) String() string {
	if int(k) < len(instMnemonics) && instMnemonics[k] != "" {
		return instMnemonics[k]
	}
	return fmt.Sprintf("InstKind(%d)", k)
}

var binOpSymbols = [...]string{
	BAdd: "+", BSub: "-", BMul: "*", BDiv: "/", BRem: "%",
	BLt: "<", BLe: "<=", BGt: ">", BGe: ">=", BEq: "==", BNe: "!=",
	BAnd: "&&", BOr: "||", BBitAnd: "&", BBitOr: "|", BBitXor: "^",
	BNullCoalesce: "??",
}

func (op BinOp) String() string {
	if int(op) < len(binOpSymbols) && binOpSymbols[op] != "" {
		return binOpSymbols[op]
	}
	return fmt.Sprintf("BinOp(%d)", op)
}

var unOpSymbols = [...]string{UNeg: "-", UPlus: "+", UNot: "!", UBitNot: "~"}

func (op UnOp) String() string {
	if int(op) < len(unOpSymbols) && unOpSymbols[op] != "" {
		return unOpSymbols[op]
	}
	return fmt.Sprintf("UnOp(%d)", op)
}

func (m *Module) renderInst(b *strings.Builder, pool *types.Pool, id InstID) {
	inst := m.Insts[id]
	if inst.Result != InvalidValue {
		fmt.Fprintf(b, "    v%d = ", inst.Result)
	} else {
		b.WriteString("    ")
	}
	switch inst.Kind {
	case IConstInt, IConstText:
		fmt.Fprintf(b, "%s %q", inst.Kind, inst.Text)
	case IConstBool:
		fmt.Fprintf(b, "%s %s", inst.Kind, inst.Text)
	case IConstNull:
		b.WriteString(inst.Kind.String())
	case IAllocaLocal:
		fmt.Fprintf(b, "%s.%s", inst.Kind, m.typeName(pool, inst.AllocaType))
	case IUnary:
		fmt.Fprintf(b, "%s v%d", inst.UnOp, inst.Src)
	case IBinOp:
		fmt.Fprintf(b, "v%d %s v%d", inst.Lhs, inst.BinOpKind, inst.Rhs)
	case ICast:
		fmt.Fprintf(b, "cast v%d as %s", inst.Src, m.typeName(pool, inst.CastTo))
	case ILoad:
		fmt.Fprintf(b, "load v%d", inst.Slot)
	case IStore:
		fmt.Fprintf(b, "store v%d, v%d", inst.Slot, inst.Value)
	case ICall:
		b.WriteString("call ")
		if inst.DirectCallee != InvalidFunc {
			fmt.Fprintf(b, "func%d(", inst.DirectCallee)
		} else {
			fmt.Fprintf(b, "v%d(", inst.Callee)
		}
		for i, arg := range m.CallArgs[inst.ArgBegin : inst.ArgBegin+inst.ArgCount] {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "v%d", arg)
		}
		b.WriteByte(')')
	case IIndex:
		fmt.Fprintf(b, "v%d[v%d]", inst.Base, inst.Index)
	case IField:
		fmt.Fprintf(b, "v%d.field", inst.Base)
	case IFuncRef:
		fmt.Fprintf(b, "funcref func%d", inst.Func)
	case IGlobalRef:
		fmt.Fprintf(b, "globalref global%d", inst.Global)
	}
	b.WriteByte('\n')
}

func (m *Module) typeName(pool *types.Pool, id types.ID) string {
	if pool == nil || id == types.Invalid {
		return "?"
	}
	return pool.Render(id)
}

func (m *Module) renderTerm(b *strings.Builder, t Terminator) {
	switch t.Kind {
	case TRet:
		if t.HasValue {
			fmt.Fprintf(b, "    ret v%d\n", t.RetValue)
		} else {
			b.WriteString("    ret\n")
		}
	case TBr:
		fmt.Fprintf(b, "    br block%d(%s)\n", t.Target, renderArgs(t.Args))
	case TCondBr:
		fmt.Fprintf(b, "    condbr v%d, block%d(%s), block%d(%s)\n",
			t.Cond, t.ThenBlock, renderArgs(t.ThenArgs), t.ElseBlock, renderArgs(t.ElseArgs))
	}
}

func renderArgs(args []ValueID) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("v%d", a)
	}
	return strings.Join(parts, ", ")
}

// String renders m in a Cranelift/LLVM-ish textual form
// (`block0(v0: i32):`, `v1 = iconst "1"`, `br block1(v1)`), the printer
// SPEC_FULL §5 commits to for golden tests and failure-message readability.
// pool may be nil; block-parameter and alloca types then print as "?".
func (m *Module) String() string { return m.Render(nil) }

// Render is String with an explicit type pool, so block-parameter types
// print resolved instead of "?".
func (m *Module) Render(pool *types.Pool) string {
	var b strings.Builder
	for fi, fn := range m.Funcs {
		fmt.Fprintf(&b, "func%d %s() -> %s {\n", fi, fn.Name, m.typeName(pool, fn.RetTy))
		for _, bid := range fn.Blocks {
			blk := m.Blocks[bid]
			b.WriteString("  ")
			fmt.Fprintf(&b, "block%d(", bid)
			for i, p := range blk.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "v%d: %s", p, m.typeName(pool, m.Values[p].Type))
			}
			b.WriteString("):\n")
			for _, iid := range blk.Insts {
				m.renderInst(&b, pool, iid)
			}
			if blk.HasTerm {
				m.renderTerm(&b, blk.Term)
			}
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// Diff returns a list of structural differences between a and b, used only
// by tests to assert spec §8 property 8 (running the canonical pass
// pipeline twice is a fixed point: Diff(pipeline(m), pipeline(pipeline(m)))
// must be empty). It compares function/block/instruction shape, not exact
// ValueID numbering, since two structurally-identical modules built by
// independent passes need not number their arenas identically.
func Diff(a, b *Module) []string {
	var diffs []string
	note := func(format string, args ...any) {
		diffs = append(diffs, fmt.Sprintf(format, args...))
	}

	if len(a.Funcs) != len(b.Funcs) {
		note("func count: %d vs %d", len(a.Funcs), len(b.Funcs))
		return diffs
	}
	for fi := range a.Funcs {
		fa, fb := a.Funcs[fi], b.Funcs[fi]
		if fa.Name != fb.Name {
			note("func%d: name %q vs %q", fi, fa.Name, fb.Name)
		}
		if len(fa.Blocks) != len(fb.Blocks) {
			note("func%d (%s): block count %d vs %d", fi, fa.Name, len(fa.Blocks), len(fb.Blocks))
			continue
		}
		for bi := range fa.Blocks {
			blkA, blkB := a.Blocks[fa.Blocks[bi]], b.Blocks[fb.Blocks[bi]]
			if len(blkA.Params) != len(blkB.Params) {
				note("func%d (%s) block%d: param count %d vs %d", fi, fa.Name, bi, len(blkA.Params), len(blkB.Params))
			}
			if len(blkA.Insts) != len(blkB.Insts) {
				note("func%d (%s) block%d: inst count %d vs %d", fi, fa.Name, bi, len(blkA.Insts), len(blkB.Insts))
				continue
			}
			for ii := range blkA.Insts {
				instA, instB := a.Insts[blkA.Insts[ii]], b.Insts[blkB.Insts[ii]]
				if instA.Kind != instB.Kind {
					note("func%d (%s) block%d inst%d: kind %s vs %s", fi, fa.Name, bi, ii, instA.Kind, instB.Kind)
				}
			}
			if blkA.HasTerm != blkB.HasTerm || blkA.Term.Kind != blkB.Term.Kind {
				note("func%d (%s) block%d: terminator mismatch", fi, fa.Name, bi)
			}
		}
	}
	return diffs
}

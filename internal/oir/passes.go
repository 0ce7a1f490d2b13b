package oir

import (
	"math/big"
	"strconv"
	"strings"
)

// substTable is a value-substitution table every rewriting pass goes
// through, so terminator branch arguments get rewritten the same way
// instruction operands do (spec §4.8: "All rewrites go through a value
// substitution table that also rewrites terminators' branch arguments").
type substTable map[ValueID]ValueID

// resolve follows a chain of substitutions to its final representative,
// bounded to guard against a cyclic table.
func (t substTable) resolve(v ValueID) ValueID {
	cur := v
	for i := 0; i < 64; i++ {
		next, ok := t[cur]
		if !ok || next == cur {
			return cur
		}
		cur = next
	}
	return cur
}

func (t substTable) apply(v *ValueID) {
	if *v == InvalidValue {
		return
	}
	*v = t.resolve(*v)
}

func rewriteOperands(m *Module, t substTable) {
	for i := range m.Insts {
		inst := &m.Insts[i]
		switch inst.Kind {
		case IUnary:
			t.apply(&inst.Src)
		case IBinOp:
			t.apply(&inst.Lhs)
			t.apply(&inst.Rhs)
		case ICast:
			t.apply(&inst.Src)
		case ICall:
			t.apply(&inst.Callee)
			for j := inst.ArgBegin; j < inst.ArgBegin+inst.ArgCount; j++ {
				t.apply(&m.CallArgs[j])
			}
		case IIndex:
			t.apply(&inst.Base)
			t.apply(&inst.Index)
		case IField:
			t.apply(&inst.Base)
		case ILoad:
			t.apply(&inst.Slot)
		case IStore:
			t.apply(&inst.Slot)
			t.apply(&inst.Value)
		}
	}

	for i := range m.Blocks {
		b := &m.Blocks[i]
		if !b.HasTerm {
			continue
		}
		switch b.Term.Kind {
		case TRet:
			if b.Term.HasValue {
				t.apply(&b.Term.RetValue)
			}
		case TBr:
			for j := range b.Term.Args {
				t.apply(&b.Term.Args[j])
			}
		case TCondBr:
			t.apply(&b.Term.Cond)
			for j := range b.Term.ThenArgs {
				t.apply(&b.Term.ThenArgs[j])
			}
			for j := range b.Term.ElseArgs {
				t.apply(&b.Term.ElseArgs[j])
			}
		}
	}
}

// RunPasses runs the canonical pipeline once, in order (spec §4.8): CFG
// simplify, constant fold, local load forwarding, pure DCE, CFG simplify
// again. It does not repeat the sequence until nothing changes; the
// passes' changed results are not consulted. Running it twice on an
// already-converged module is a no-op (spec §8 property 8, pass
// idempotence).
func RunPasses(m *Module) {
	simplifyCFG(m)
	constFold(m)
	localLoadForward(m)
	dcePureInsts(m)
	simplifyCFG(m)
}

// --- 1. simplify_cfg -----------------------------------------------------

func simplifyCFG(m *Module) bool {
	changed := simplifyCondBrSameTarget(m)
	for i := range m.Funcs {
		changed = removeUnreachableBlocks(m, &m.Funcs[i]) || changed
	}
	return changed
}

func simplifyCondBrSameTarget(m *Module) bool {
	changed := false
	for i := range m.Blocks {
		b := &m.Blocks[i]
		if !b.HasTerm || b.Term.Kind != TCondBr {
			continue
		}
		c := b.Term
		if c.ThenBlock != c.ElseBlock || !sameArgs(c.ThenArgs, c.ElseArgs) {
			continue
		}
		b.Term = Terminator{Kind: TBr, Target: c.ThenBlock, Args: c.ThenArgs}
		changed = true
	}
	return changed
}

func sameArgs(a, b []ValueID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func removeUnreachableBlocks(m *Module, f *Function) bool {
	if f.Entry == InvalidBlock || int(f.Entry) >= len(m.Blocks) {
		return false
	}
	reach := make(map[BlockID]bool)
	queue := []BlockID{f.Entry}
	reach[f.Entry] = true
	for i := 0; i < len(queue); i++ {
		bb := queue[i]
		if int(bb) >= len(m.Blocks) {
			continue
		}
		b := m.Blocks[bb]
		if !b.HasTerm {
			continue
		}
		push := func(to BlockID) {
			if to == InvalidBlock || int(to) >= len(m.Blocks) || reach[to] {
				return
			}
			reach[to] = true
			queue = append(queue, to)
		}
		switch b.Term.Kind {
		case TBr:
			push(b.Term.Target)
		case TCondBr:
			push(b.Term.ThenBlock)
			push(b.Term.ElseBlock)
		}
	}

	kept := make([]BlockID, 0, len(f.Blocks))
	for _, bb := range f.Blocks {
		if reach[bb] {
			kept = append(kept, bb)
		}
	}
	changed := len(kept) != len(f.Blocks)
	f.Blocks = kept
	return changed
}

// --- 2. const_fold ---------------------------------------------------

func parseIntLit(s string) (int64, bool) {
	s = strings.ReplaceAll(s, "_", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func constAsInt(m *Module, v ValueID) (int64, bool) {
	if v == InvalidValue || int(v) >= len(m.Values) {
		return 0, false
	}
	vv := m.Values[v]
	if vv.Def != DefInst || int(vv.DefA) >= len(m.Insts) {
		return 0, false
	}
	inst := m.Insts[vv.DefA]
	if inst.Kind != IConstInt {
		return 0, false
	}
	return parseIntLit(inst.Text)
}

func constAsBool(m *Module, v ValueID) (bool, bool) {
	if v == InvalidValue || int(v) >= len(m.Values) {
		return false, false
	}
	vv := m.Values[v]
	if vv.Def != DefInst || int(vv.DefA) >= len(m.Insts) {
		return false, false
	}
	inst := m.Insts[vv.DefA]
	if inst.Kind != IConstBool {
		return false, false
	}
	return inst.Text == "true", true
}

func isConstNull(m *Module, v ValueID) bool {
	if v == InvalidValue || int(v) >= len(m.Values) {
		return false
	}
	vv := m.Values[v]
	if vv.Def != DefInst || int(vv.DefA) >= len(m.Insts) {
		return false
	}
	return m.Insts[vv.DefA].Kind == IConstNull
}

// constFold folds unary and binary ops on integer/bool constants. Division
// by zero is left untouched (spec §4.8); the null-coalesce operator with a
// literal null LHS is replaced by the RHS, and with a literal non-null LHS
// by the LHS (spec §4.8, spec §8 scenario S5).
func constFold(m *Module) bool {
	changed := false
	repl := substTable{}

	for i := range m.Insts {
		inst := &m.Insts[i]
		if inst.Result == InvalidValue || int(inst.Result) >= len(m.Values) {
			continue
		}

		if inst.Kind == IUnary {
			if iv, ok := constAsInt(m, inst.Src); ok && (inst.UnOp == UNeg || inst.UnOp == UPlus || inst.UnOp == UBitNot) {
				out := iv
				switch inst.UnOp {
				case UNeg:
					out = -iv
				case UBitNot:
					out = ^iv
				}
				*inst = Inst{Kind: IConstInt, Result: inst.Result, Effect: Pure, Text: strconv.FormatInt(out, 10)}
				changed = true
				continue
			}
			if bv, ok := constAsBool(m, inst.Src); ok && inst.UnOp == UNot {
				*inst = Inst{Kind: IConstBool, Result: inst.Result, Effect: Pure, Text: strconv.FormatBool(!bv)}
				changed = true
				continue
			}
			continue
		}

		if inst.Kind != IBinOp {
			continue
		}

		if inst.BinOpKind == BNullCoalesce {
			if isConstNull(m, inst.Lhs) {
				repl[inst.Result] = inst.Rhs
				changed = true
				continue
			}
			if _, ok := constAsInt(m, inst.Lhs); ok {
				repl[inst.Result] = inst.Lhs
				changed = true
				continue
			}
			if _, ok := constAsBool(m, inst.Lhs); ok {
				repl[inst.Result] = inst.Lhs
				changed = true
				continue
			}
			continue
		}

		if inst.BinOpKind == BAnd || inst.BinOpKind == BOr {
			lb, lok := constAsBool(m, inst.Lhs)
			rb, rok := constAsBool(m, inst.Rhs)
			if !lok || !rok {
				continue
			}
			if inst.BinOpKind == BAnd {
				*inst = constBoolResult(inst.Result, lb && rb)
			} else {
				*inst = constBoolResult(inst.Result, lb || rb)
			}
			changed = true
			continue
		}

		li, lok := constAsInt(m, inst.Lhs)
		ri, rok := constAsInt(m, inst.Rhs)
		if !lok || !rok {
			continue
		}
		switch inst.BinOpKind {
		case BAdd:
			*inst = constIntResult(inst.Result, li+ri)
		case BSub:
			*inst = constIntResult(inst.Result, li-ri)
		case BMul:
			*inst = constIntResult(inst.Result, li*ri)
		case BDiv:
			if ri == 0 {
				continue
			}
			*inst = constIntResult(inst.Result, li/ri)
		case BRem:
			if ri == 0 {
				continue
			}
			*inst = constIntResult(inst.Result, li%ri)
		case BLt:
			*inst = constBoolResult(inst.Result, li < ri)
		case BLe:
			*inst = constBoolResult(inst.Result, li <= ri)
		case BGt:
			*inst = constBoolResult(inst.Result, li > ri)
		case BGe:
			*inst = constBoolResult(inst.Result, li >= ri)
		case BEq:
			*inst = constBoolResult(inst.Result, li == ri)
		case BNe:
			*inst = constBoolResult(inst.Result, li != ri)
		case BBitAnd:
			*inst = constIntResult(inst.Result, li&ri)
		case BBitOr:
			*inst = constIntResult(inst.Result, li|ri)
		case BBitXor:
			*inst = constIntResult(inst.Result, li^ri)
		default:
			continue
		}
		changed = true
	}

	if len(repl) > 0 {
		rewriteOperands(m, repl)
	}
	return changed
}

func constIntResult(result ValueID, v int64) Inst {
	return Inst{Kind: IConstInt, Result: result, Effect: Pure, Text: strconv.FormatInt(v, 10)}
}

func constBoolResult(result ValueID, v bool) Inst {
	return Inst{Kind: IConstBool, Result: result, Effect: Pure, Text: strconv.FormatBool(v)}
}

// This blank reference only keeps math/big imported; folding does not use
// it. parseIntLit fails on literals outside the int64 range (i128/u128
// sized ones), so const_fold leaves ops on such literals in place rather
// than wrapping them.
var _ = big.NewInt

// --- 3. local_load_forward -----------------------------------------------

// localLoadForward tracks the last Store per slot within a single block;
// a subsequent Load of that slot is rewritten to the stored value. Calls
// and unknown-effect instructions invalidate the map (spec §4.8).
func localLoadForward(m *Module) bool {
	changed := false
	repl := substTable{}

	for bi := range m.Blocks {
		slotValue := map[ValueID]ValueID{}
		for _, iid := range m.Blocks[bi].Insts {
			inst := &m.Insts[iid]
			switch {
			case inst.Kind == IStore:
				slotValue[inst.Slot] = repl.resolve(inst.Value)
			case inst.Kind == ILoad:
				if inst.Result == InvalidValue {
					continue
				}
				if v, ok := slotValue[inst.Slot]; ok {
					repl[inst.Result] = repl.resolve(v)
					changed = true
				}
			case inst.Effect == Call || inst.Effect == MayWriteMem || inst.Effect == MayTrap:
				slotValue = map[ValueID]ValueID{}
			}
		}
	}

	if changed {
		rewriteOperands(m, repl)
	}
	return changed
}

// --- 4. dce_pure_insts -----------------------------------------------

func buildUseCount(m *Module) map[ValueID]int {
	uses := map[ValueID]int{}
	add := func(v ValueID) {
		if v == InvalidValue {
			return
		}
		uses[v]++
	}
	for _, inst := range m.Insts {
		switch inst.Kind {
		case IUnary:
			add(inst.Src)
		case IBinOp:
			add(inst.Lhs)
			add(inst.Rhs)
		case ICast:
			add(inst.Src)
		case ICall:
			add(inst.Callee)
			for j := inst.ArgBegin; j < inst.ArgBegin+inst.ArgCount; j++ {
				add(m.CallArgs[j])
			}
		case IIndex:
			add(inst.Base)
			add(inst.Index)
		case IField:
			add(inst.Base)
		case ILoad:
			add(inst.Slot)
		case IStore:
			add(inst.Slot)
			add(inst.Value)
		}
	}
	for _, b := range m.Blocks {
		if !b.HasTerm {
			continue
		}
		switch b.Term.Kind {
		case TRet:
			if b.Term.HasValue {
				add(b.Term.RetValue)
			}
		case TBr:
			for _, a := range b.Term.Args {
				add(a)
			}
		case TCondBr:
			add(b.Term.Cond)
			for _, a := range b.Term.ThenArgs {
				add(a)
			}
			for _, a := range b.Term.ElseArgs {
				add(a)
			}
		}
	}
	return uses
}

// dcePureInsts removes pure instructions whose result has zero uses,
// iterated to fixpoint (spec §4.8).
func dcePureInsts(m *Module) bool {
	changed := false
	for {
		uses := buildUseCount(m)
		roundChanged := false
		for bi := range m.Blocks {
			kept := m.Blocks[bi].Insts[:0:0]
			for _, iid := range m.Blocks[bi].Insts {
				inst := m.Insts[iid]
				unused := inst.Result != InvalidValue && uses[inst.Result] == 0
				if unused && inst.Effect == Pure {
					roundChanged = true
					continue
				}
				kept = append(kept, iid)
			}
			m.Blocks[bi].Insts = kept
		}
		if !roundChanged {
			break
		}
		changed = true
	}
	return changed
}

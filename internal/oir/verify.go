package oir

import (
	"github.com/parusbuild/parusc/internal/errors"
)

// Verify runs the OIR structural verifier (spec §4.9): no block is listed
// by more than one function (a block that no function lists is not
// reported), every listed block ends with a terminator, every
// value/inst/block/func id referenced is in range, branch targets stay
// inside the owning function, branch argument counts and types match the
// target block's parameters, and no escape hint claims HeapBox storage
// (spec §3 invariant: "no escape-handle hint has HeapBox kind" once SIR's
// capability pass has run to completion).
func Verify(m *Module) *errors.Bag {
	bag := &errors.Bag{}

	owner := make([]FuncID, len(m.Blocks))
	for i := range owner {
		owner[i] = InvalidFunc
	}
	for fi := range m.Funcs {
		f := &m.Funcs[fi]
		for _, bb := range f.Blocks {
			if bb == InvalidBlock || int(bb) >= len(m.Blocks) {
				continue
			}
			if owner[bb] == InvalidFunc {
				owner[bb] = FuncID(fi)
			} else if owner[bb] != FuncID(fi) {
				addErr(bag, errors.OirBadBlockOwner, "block #%d is owned by multiple functions (#%d, #%d)", bb, owner[bb], fi)
			}
		}
	}

	for fi := range m.Funcs {
		f := &m.Funcs[fi]
		owned := make(map[BlockID]bool, len(f.Blocks))
		for _, bb := range f.Blocks {
			if bb != InvalidBlock && int(bb) < len(m.Blocks) {
				owned[bb] = true
			}
		}

		if f.Entry == InvalidBlock || int(f.Entry) >= len(m.Blocks) {
			addErr(bag, errors.OirIDOutOfRange, "function has invalid entry: %s", f.Name)
			continue
		}
		if !owned[f.Entry] {
			addErr(bag, errors.OirBadBlockOwner, "function %s entry bb#%d is not present in function block list", f.Name, f.Entry)
		}

		for _, bbid := range f.Blocks {
			if bbid == InvalidBlock || int(bbid) >= len(m.Blocks) {
				addErr(bag, errors.OirIDOutOfRange, "function %s has invalid block id bb#%d", f.Name, bbid)
				continue
			}
			b := &m.Blocks[bbid]
			if !b.HasTerm {
				addErr(bag, errors.OirMissingTerminator, "block has no terminator: #%d", bbid)
			} else {
				verifyTerminator(m, f, bbid, owned, b.Term, bag)
			}
			for _, p := range b.Params {
				checkValueID(m, bag, uint32(bbid), "block(param)", p)
			}
			for _, iid := range b.Insts {
				if int(iid) >= len(m.Insts) {
					addErr(bag, errors.OirIDOutOfRange, "block #%d references invalid inst id i%d", bbid, iid)
					continue
				}
				verifyInstOperands(m, iid, m.Insts[iid], bag)
			}
		}
	}

	for i, h := range m.EscapeHints {
		if h.Value == InvalidValue || int(h.Value) >= len(m.Values) {
			addErr(bag, errors.OirIDOutOfRange, "escape_hint #%d references invalid value id v%d", i, h.Value)
		}
		if h.Kind == StorageHeapBox {
			addErr(bag, errors.OirEscapeHeapBox, "escape_hint #%d uses heap_box kind, forbidden in v0", i)
		}
	}

	return bag
}

func addErr(bag *errors.Bag, code errors.Code, format string, args ...any) {
	bag.Add(errors.New(code, "oir-verify", nil, format, args...))
}

func checkValueID(m *Module, bag *errors.Bag, whereID uint32, whereKind string, vid ValueID) bool {
	if vid == InvalidValue || int(vid) >= len(m.Values) {
		addErr(bag, errors.OirIDOutOfRange, "%s #%d references invalid value id v%d", whereKind, whereID, vid)
		return false
	}
	return true
}

func verifyTerminator(m *Module, f *Function, bbid BlockID, owned map[BlockID]bool, term Terminator, bag *errors.Bag) {
	switch term.Kind {
	case TRet:
		if term.HasValue {
			checkValueID(m, bag, uint32(bbid), "block(term ret)", term.RetValue)
		}

	case TBr:
		if term.Target == InvalidBlock || int(term.Target) >= len(m.Blocks) {
			addErr(bag, errors.OirBadBranchTarget, "block #%d has br with invalid target bb#%d", bbid, term.Target)
			return
		}
		if !owned[term.Target] {
			addErr(bag, errors.OirBadBranchTarget, "block #%d branches to foreign block bb#%d (outside function %s)", bbid, term.Target, f.Name)
		}
		for _, v := range term.Args {
			checkValueID(m, bag, uint32(bbid), "block(term br arg)", v)
		}
		checkBranchArgs(m, bag, bbid, "", term.Target, term.Args)

	case TCondBr:
		checkValueID(m, bag, uint32(bbid), "block(term cond)", term.Cond)
		checkTarget(m, f, bag, bbid, owned, term.ThenBlock, term.ThenArgs, "then")
		checkTarget(m, f, bag, bbid, owned, term.ElseBlock, term.ElseArgs, "else")
	}
}

func checkTarget(m *Module, f *Function, bag *errors.Bag, bbid BlockID, owned map[BlockID]bool, target BlockID, args []ValueID, tag string) {
	if target == InvalidBlock || int(target) >= len(m.Blocks) {
		addErr(bag, errors.OirBadBranchTarget, "block #%d has condbr %s with invalid target bb#%d", bbid, tag, target)
		return
	}
	if !owned[target] {
		addErr(bag, errors.OirBadBranchTarget, "block #%d condbr %s targets foreign block bb#%d (outside function %s)", bbid, tag, target, f.Name)
	}
	for _, v := range args {
		checkValueID(m, bag, uint32(bbid), "block(term condbr arg)", v)
	}
	checkBranchArgs(m, bag, bbid, tag, target, args)
}

// checkBranchArgs enforces spec §8 property 6: branch argument counts and
// types must match the target block's parameters.
func checkBranchArgs(m *Module, bag *errors.Bag, bbid BlockID, tag string, target BlockID, args []ValueID) {
	tb := m.Blocks[target]
	label := "br"
	if tag != "" {
		label = "condbr " + tag
	}
	if len(args) != len(tb.Params) {
		addErr(bag, errors.OirBranchArgMismatch, "block #%d %s arg count mismatch: got %d, target bb#%d expects %d",
			bbid, label, len(args), target, len(tb.Params))
	}
	n := len(args)
	if len(tb.Params) < n {
		n = len(tb.Params)
	}
	for i := 0; i < n; i++ {
		arg, param := args[i], tb.Params[i]
		if arg == InvalidValue || param == InvalidValue {
			continue
		}
		if int(arg) >= len(m.Values) || int(param) >= len(m.Values) {
			continue
		}
		if m.Values[arg].Type != m.Values[param].Type {
			addErr(bag, errors.OirBranchArgMismatch, "block #%d %s arg type mismatch at index %d: arg v%d(ty=%v) != target param v%d(ty=%v)",
				bbid, label, i, arg, m.Values[arg].Type, param, m.Values[param].Type)
		}
	}
}

func verifyInstOperands(m *Module, iid InstID, inst Inst, bag *errors.Bag) {
	if inst.Result != InvalidValue && int(inst.Result) >= len(m.Values) {
		addErr(bag, errors.OirIDOutOfRange, "inst #%d has invalid result id v%d", iid, inst.Result)
	}

	switch inst.Kind {
	case IUnary:
		checkValueID(m, bag, uint32(iid), "inst(unary src)", inst.Src)
	case IBinOp:
		checkValueID(m, bag, uint32(iid), "inst(bin lhs)", inst.Lhs)
		checkValueID(m, bag, uint32(iid), "inst(bin rhs)", inst.Rhs)
	case ICast:
		checkValueID(m, bag, uint32(iid), "inst(cast src)", inst.Src)
	case IFuncRef:
		if inst.Func == InvalidFunc || int(inst.Func) >= len(m.Funcs) {
			addErr(bag, errors.OirIDOutOfRange, "inst #%d has invalid function ref id f%d", iid, inst.Func)
		}
	case IGlobalRef:
		if inst.Global == InvalidGlobal || int(inst.Global) >= len(m.Globals) {
			addErr(bag, errors.OirIDOutOfRange, "inst #%d has invalid global ref id g%d", iid, inst.Global)
		}
	case ICall:
		if inst.DirectCallee == InvalidFunc {
			checkValueID(m, bag, uint32(iid), "inst(call callee)", inst.Callee)
		} else if int(inst.DirectCallee) >= len(m.Funcs) {
			addErr(bag, errors.OirIDOutOfRange, "inst #%d has invalid direct callee id f%d", iid, inst.DirectCallee)
		}
		for j := inst.ArgBegin; j < inst.ArgBegin+inst.ArgCount; j++ {
			if int(j) >= len(m.CallArgs) {
				continue
			}
			checkValueID(m, bag, uint32(iid), "inst(call arg)", m.CallArgs[j])
		}
	case IIndex:
		checkValueID(m, bag, uint32(iid), "inst(index base)", inst.Base)
		checkValueID(m, bag, uint32(iid), "inst(index idx)", inst.Index)
	case IField:
		checkValueID(m, bag, uint32(iid), "inst(field base)", inst.Base)
	case ILoad:
		checkValueID(m, bag, uint32(iid), "inst(load slot)", inst.Slot)
	case IStore:
		checkValueID(m, bag, uint32(iid), "inst(store slot)", inst.Slot)
		checkValueID(m, bag, uint32(iid), "inst(store value)", inst.Value)
	case IConstInt, IConstBool, IConstText, IConstNull, IAllocaLocal:
		// no operand
	}
}

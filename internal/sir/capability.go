package sir

import (
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/types"
)

// symState tracks one symbol's mutability and active-borrow bookkeeping
// across the capability walk (spec §4.6 "State").
type symState struct {
	isMut        bool
	isStatic     bool
	sharedCount  int
	mutCount     int
	movedByEscape bool
}

// capScope is one lexical scope's undo log: which symbols had a shared or
// mutable borrow activated within it, so scope exit can release exactly
// those (spec §4.6: "on scope exit, all borrows activated in that scope
// are released").
type capScope struct {
	sharedActivated []uint32
	mutActivated    []uint32
}

// Analyzer runs the capability (borrow/escape) analysis over one sir.Module
// (spec §4.6, "the hardest subsystem").
type Analyzer struct {
	mod  *Module
	pool *types.Pool
	bag  *errors.Bag

	sym    map[uint32]*symState
	scopes []*capScope
}

// NewAnalyzer creates an Analyzer over mod. Parameter state is seeded per
// function by analyzeFunc, which marks every parameter immutable at entry.
func NewAnalyzer(mod *Module, pool *types.Pool) *Analyzer {
	return &Analyzer{mod: mod, pool: pool, bag: &errors.Bag{}, sym: map[uint32]*symState{}}
}

// Result is the analyzer's output (spec §4.6 "Output").
type Result struct {
	Bag       *errors.Bag
	ErrCount  int
}

// Analyze walks every function body in the module.
func (an *Analyzer) Analyze() *Result {
	for _, fn := range an.mod.Funcs {
		an.analyzeFunc(fn)
	}
	return &Result{Bag: an.bag, ErrCount: len(an.bag.Errors())}
}

func (an *Analyzer) state(sym uint32) *symState {
	s, ok := an.sym[sym]
	if !ok {
		s = &symState{}
		an.sym[sym] = s
	}
	return s
}

func (an *Analyzer) pushScope()  { an.scopes = append(an.scopes, &capScope{}) }
func (an *Analyzer) popScope() {
	if len(an.scopes) == 0 {
		return
	}
	sc := an.scopes[len(an.scopes)-1]
	an.scopes = an.scopes[:len(an.scopes)-1]
	for _, sym := range sc.sharedActivated {
		an.state(sym).sharedCount--
	}
	for _, sym := range sc.mutActivated {
		an.state(sym).mutCount--
	}
}

func (an *Analyzer) activateShared(sym uint32) {
	an.state(sym).sharedCount++
	if len(an.scopes) > 0 {
		top := an.scopes[len(an.scopes)-1]
		top.sharedActivated = append(top.sharedActivated, sym)
	}
}

func (an *Analyzer) activateMut(sym uint32) {
	an.state(sym).mutCount++
	if len(an.scopes) > 0 {
		top := an.scopes[len(an.scopes)-1]
		top.mutActivated = append(top.mutActivated, sym)
	}
}

func (an *Analyzer) analyzeFunc(fn Func) {
	for i, sym := range fn.ParamSyms {
		st := an.state(sym)
		_ = i
		st.isMut = false // parameters are immutable bindings
	}
	an.pushScope()
	if fn.Entry != InvalidBlock {
		an.walkBlock(fn.Entry)
	}
	an.popScope()
}

func (an *Analyzer) walkBlock(id BlockID) {
	blk := an.mod.BlockAt(id)
	an.pushScope()
	for _, sid := range an.mod.StmtSlice(blk.StmtBegin, blk.StmtCount) {
		an.walkStmt(sid)
	}
	an.popScope()
}

func (an *Analyzer) walkStmt(id StmtID) {
	s := an.mod.Stmt(id)
	switch s.Kind {
	case SValueStmt:
		an.walkValue(s.Val)
	case SVarDecl:
		if s.Val != InvalidValue {
			an.walkValue(s.Val)
		}
		an.state(s.OriginSym).isMut = s.IsMut
		an.state(s.OriginSym).isStatic = s.IsStatic
	case SBlockStmt:
		an.walkBlock(s.Block)
	}
}

// rootSymbol walks A-chains of Field/Index/Borrow/Escape values down to the
// originating Local, mirroring original_source's root_place_symbol_.
func (an *Analyzer) rootSymbol(id ValueID) (uint32, bool) {
	for id != InvalidValue {
		v := an.mod.Value(id)
		switch v.Kind {
		case VLocal:
			return v.OriginSym, true
		case VField, VIndex, VBorrow, VEscape:
			id = v.A
		default:
			return 0, false
		}
	}
	return 0, false
}

func (an *Analyzer) walkValue(id ValueID) {
	if id == InvalidValue {
		return
	}
	v := an.mod.Value(id)
	switch v.Kind {
	case VLocal:
		an.checkLocalUse(v)

	case VBorrow:
		an.checkBorrow(id, v)

	case VEscape:
		an.checkEscape(id, v, BoundaryNone)

	case VAssign:
		an.walkAssignLhs(v.A)
		an.walkValue(v.B)
		if an.valueIsBorrow(v.B) {
			if !an.isPlainNonStaticLocal(v.A) {
				an.bag.Add(errors.New(errors.BorrowEscapeToStorage, "capability", nil, "cannot store a borrow into long-lived storage"))
			}
		}
		if sym, ok := an.rootSymbol(v.A); ok {
			an.state(sym).movedByEscape = false
		}

	case VCall:
		an.walkValue(v.A)
		for _, arg := range an.mod.Args[v.ArgBegin : v.ArgBegin+v.ArgCount] {
			an.pushScope()
			an.walkValueAtBoundary(arg.Value, BoundaryCallArg)
			an.popScope()
		}

	case VUnary, VPostfixInc, VCast:
		an.walkValue(v.A)

	case VBinary, VIndex:
		an.walkValue(v.A)
		an.walkValue(v.B)

	case VField:
		an.walkValue(v.A)

	case VIfExpr:
		an.walkValue(v.A)
		an.walkValue(v.B)
		an.walkValue(v.C)

	case VBlockExpr:
		an.walkBlock(v.BlockRef)
		if v.TailVal != InvalidValue {
			an.walkValue(v.TailVal)
		}

	case VLoopExpr:
		an.walkValue(v.A)
		an.walkBlock(v.BlockRef)

	case VBreak:
		if v.A != InvalidValue {
			an.walkValue(v.A)
		}

	case VReturn:
		if v.A != InvalidValue {
			an.walkValueAtBoundary(v.A, BoundaryReturn)
		}

	case VArrayLit, VFieldInit:
		for _, arg := range an.mod.Args[v.ArgBegin : v.ArgBegin+v.ArgCount] {
			an.walkValue(arg.Value)
		}
	}
}

// walkValueAtBoundary walks id the same as walkValue, except that if id is
// itself a VEscape value, the escape is classified as sitting at boundary
// rather than conservatively at BoundaryNone. Only a direct return operand
// or a direct call argument counts (spec §4.6: "legal at a boundary (return
// value, call argument)"); an escape nested deeper inside either position
// (e.g. a field of the returned value) is walked normally and so still
// classifies as BoundaryNone, matching original_source's capability_analysis.cpp
// walk which only tags the operand slot itself, not its subexpressions.
func (an *Analyzer) walkValueAtBoundary(id ValueID, boundary Boundary) {
	if id == InvalidValue {
		return
	}
	v := an.mod.Value(id)
	if v.Kind == VEscape {
		an.checkEscape(id, v, boundary)
		return
	}
	an.walkValue(id)
}

func (an *Analyzer) valueIsBorrow(id ValueID) bool {
	if id == InvalidValue {
		return false
	}
	return an.pool.IsBorrow(an.mod.Value(id).Type)
}

func (an *Analyzer) isPlainNonStaticLocal(id ValueID) bool {
	v := an.mod.Value(id)
	if v.Kind != VLocal {
		return false
	}
	return !an.state(v.OriginSym).isStatic
}

// checkLocalUse enforces spec §4.6's Local rules: use-after-escape-move and
// active-mutable-borrow exclusivity.
func (an *Analyzer) checkLocalUse(v Value) {
	st := an.state(v.OriginSym)
	if st.movedByEscape {
		an.bag.Add(errors.New(errors.UseAfterEscapeMove, "capability", nil, "use of a value after it was moved by &&"))
	}
	if st.mutCount > 0 {
		an.bag.Add(errors.New(errors.BorrowMutDirectAccessConflict, "capability", nil, "direct access conflicts with an active mutable borrow"))
	}
}

func (an *Analyzer) walkAssignLhs(id ValueID) {
	v := an.mod.Value(id)
	sym, ok := an.rootSymbol(id)
	if !ok {
		an.walkValue(id)
		return
	}
	st := an.state(sym)
	if st.mutCount > 0 {
		an.bag.Add(errors.New(errors.BorrowMutDirectAccessConflict, "capability", nil, "assignment target conflicts with an active mutable borrow"))
	} else if st.sharedCount > 0 {
		an.bag.Add(errors.New(errors.BorrowSharedWriteConflict, "capability", nil, "assignment target conflicts with an active shared borrow"))
	}
	if v.Kind == VField || v.Kind == VIndex {
		an.walkValue(v.A)
	}
}

func (an *Analyzer) checkBorrow(id ValueID, v Value) {
	if an.mod.Value(v.A).Place == NotPlace {
		an.bag.Add(errors.New(errors.BorrowOperandMustBePlace, "capability", nil, "borrow operand must be a place expression"))
		return
	}
	sym, ok := an.rootSymbol(v.A)
	if !ok {
		return
	}
	st := an.state(sym)
	if v.BorrowIsMut {
		if !st.isMut {
			an.bag.Add(errors.New(errors.BorrowMutRequiresMutablePlace, "capability", nil, "&mut requires a mutable place"))
			return
		}
		if st.mutCount > 0 {
			an.bag.Add(errors.New(errors.BorrowMutConflict, "capability", nil, "conflicting active &mut borrow"))
			return
		}
		if st.sharedCount > 0 {
			an.bag.Add(errors.New(errors.BorrowMutConflictWithShared, "capability", nil, "&mut conflicts with an active & borrow"))
			return
		}
		an.activateMut(sym)
	} else {
		if st.mutCount > 0 {
			an.bag.Add(errors.New(errors.BorrowSharedConflictWithMut, "capability", nil, "& conflicts with an active &mut borrow"))
			return
		}
		an.activateShared(sym)
	}
}

func (an *Analyzer) checkEscape(id ValueID, v Value, boundary Boundary) {
	if an.mod.Value(v.A).Place == NotPlace {
		an.bag.Add(errors.New(errors.EscapeOperandMustBePlace, "capability", nil, "&& operand must be a place expression"))
		return
	}
	operandTy := an.mod.Value(v.A).Type
	if an.pool.IsBorrow(operandTy) {
		an.bag.Add(errors.New(errors.EscapeOperandMustNotBeBorrow, "capability", nil, "cannot take && of a borrow"))
		return
	}
	sym, ok := an.rootSymbol(v.A)
	if !ok {
		return
	}
	st := an.state(sym)
	if st.mutCount > 0 {
		an.bag.Add(errors.New(errors.EscapeWhileMutBorrowActive, "capability", nil, "&& while a &mut borrow is active"))
		return
	}
	if st.sharedCount > 0 {
		an.bag.Add(errors.New(errors.EscapeWhileBorrowActive, "capability", nil, "&& while a & borrow is active"))
		return
	}
	if boundary == BoundaryNone && !st.isStatic {
		an.bag.Add(errors.New(errors.SirEscapeBoundaryViolation, "capability", nil, "&& is not at a legal boundary (return/call-arg) and the root is not static"))
	}
	st.movedByEscape = true
	an.mod.EscapeHandles = append(an.mod.EscapeHandles, EscapeHandleMeta{
		Value: id, OriginSym: sym, PointeeType: operandTy, Storage: StorageStackSlot,
		Boundary: boundary, OriginIsStatic: st.isStatic,
	})
}

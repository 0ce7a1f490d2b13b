// Package oir implements the Parus SSA intermediate representation (spec
// module C8): basic blocks with explicit block parameters in place of phi
// nodes, a fixed instruction/terminator set, a small canonical pass
// pipeline, and a structural verifier.
package oir

import "github.com/parusbuild/parusc/internal/types"

// Invalid is the reserved sentinel shared with the AST/SIR arenas.
const Invalid uint32 = 0xFFFF_FFFF

type (
	ValueID  uint32
	InstID   uint32
	BlockID  uint32
	FuncID   uint32
	GlobalID uint32
)

const (
	InvalidValue  ValueID  = ValueID(Invalid)
	InvalidInst   InstID   = InstID(Invalid)
	InvalidBlock  BlockID  = BlockID(Invalid)
	InvalidFunc   FuncID   = FuncID(Invalid)
	InvalidGlobal GlobalID = GlobalID(Invalid)
)

// Effect classifies what an Inst may do to memory/control, per spec §3
// ("Each Inst carries an Effect").
type Effect uint8

const (
	Pure Effect = iota
	MayReadMem
	MayWriteMem
	MayTrap
	Call
)

// DefKind discriminates how a Value's def_a/def_b pair is to be read.
type DefKind uint8

const (
	DefInst     DefKind = iota // def_a = InstID, def_b unused
	DefBlockArg                // def_a = BlockID, def_b = param index
	DefFunc                    // def_a = FuncID
	DefGlobal                  // def_a = GlobalID
)

// Value is one SSA value: a result type plus a definition site (spec §3
// OIR, "Value has a result type and a definition site").
type Value struct {
	Type  types.ID
	Def   DefKind
	DefA  uint32
	DefB  uint32
}

// UnOp enumerates the unary operators const_fold/the builder recognize.
type UnOp uint8

const (
	UNeg UnOp = iota
	UPlus
	UNot
	UBitNot
)

// BinOp enumerates the binary operators const_fold/the builder recognize.
type BinOp uint8

const (
	BAdd BinOp = iota
	BSub
	BMul
	BDiv
	BRem
	BLt
	BLe
	BGt
	BGe
	BEq
	BNe
	BAnd
	BOr
	BBitAnd
	BBitOr
	BBitXor
	BNullCoalesce
)

// CastKind mirrors the Language's three cast suffixes (spec §4.2: "as",
// "as?", "as!").
type CastKind uint8

const (
	CastAs CastKind = iota
	CastAsOptional
	CastAsForce
)

// InstKind discriminates Inst's variant, per spec §3's fixed instruction
// set.
type InstKind uint8

const (
	IConstInt InstKind = iota
	IConstBool
	IConstNull
	IConstText
	IAllocaLocal
	IUnary
	IBinOp
	ICast
	ILoad
	IStore
	ICall
	IIndex
	IField
	IFuncRef
	IGlobalRef
)

// Inst is one instruction. Only the fields relevant to Kind are
// meaningful (tagged-variant style, matching ast.Expr/sir.Value).
type Inst struct {
	Kind   InstKind
	Result ValueID // InvalidValue for effect-only instructions (e.g. Store)
	Effect Effect

	Text string // ConstInt/ConstText literal text

	AllocaType types.ID // AllocaLocal

	UnOp  UnOp
	Src   ValueID // Unary/Cast src, Load/Store slot alias via Slot below

	BinOpKind BinOp
	Lhs, Rhs  ValueID

	CastKind CastKind
	CastTo   types.ID

	Slot  ValueID // Load/Store
	Value ValueID // Store

	Callee       ValueID // Call: indirect callee value (if DirectCallee invalid)
	DirectCallee FuncID  // Call: direct callee function, else InvalidFunc
	ArgBegin, ArgCount uint32 // into Module.CallArgs

	Base  ValueID // Index/Field
	Index ValueID // Index

	Func   FuncID   // FuncRef
	Global GlobalID // GlobalRef
}

// TermKind discriminates a Block's Terminator.
type TermKind uint8

const (
	TRet TermKind = iota
	TBr
	TCondBr
)

// Terminator is the control-transfer instruction every sealed Block ends
// with exactly one of (spec §3: "every block has a terminator").
type Terminator struct {
	Kind TermKind

	HasValue bool    // TRet
	RetValue ValueID // TRet

	Target   BlockID   // TBr
	Args     []ValueID // TBr

	Cond      ValueID   // TCondBr
	ThenBlock BlockID   // TCondBr
	ThenArgs  []ValueID // TCondBr
	ElseBlock BlockID   // TCondBr
	ElseArgs  []ValueID // TCondBr
}

// Block is a basic block: a parameter list (block-argument SSA, replacing
// phi nodes per spec §4.9/design notes), an instruction list, and exactly
// one terminator once sealed.
type Block struct {
	Params   []ValueID
	Insts    []InstID
	HasTerm  bool
	Term     Terminator
}

// Function is one lowered function.
type Function struct {
	Name   string
	RetTy  types.ID
	Entry  BlockID
	Blocks []BlockID // every block this function owns, entry included
}

// Global is a top-level variable.
type Global struct {
	Name string
	Type types.ID
}

// Boundary/StorageKind mirror sir.Boundary/sir.StorageKind for the escape
// hints OIR carries through from SIR (spec §3: "no escape-handle hint has
// HeapBox kind").
type StorageKind uint8

const (
	StorageTrivial StorageKind = iota
	StorageStackSlot
	StorageCallerSlot
	StorageHeapBox // reserved; verifier rejects this kind
)

// EscapeHint is the OIR-side residue of sir.EscapeHandleMeta: by the time
// control reaches OIR, materialize_count must be zero (spec §3), so only
// the storage-kind contract needs re-checking here.
type EscapeHint struct {
	Value ValueID
	Kind  StorageKind
}

// Module is the top-level OIR arena for one compilation unit.
type Module struct {
	Values  []Value
	Insts   []Inst
	Blocks  []Block
	Funcs   []Function
	Globals []Global

	CallArgs []ValueID // flat vector backing Inst.ArgBegin/ArgCount

	EscapeHints []EscapeHint
}

func NewModule() *Module { return &Module{} }

func (m *Module) AddValue(v Value) ValueID {
	id := ValueID(len(m.Values))
	m.Values = append(m.Values, v)
	return id
}

func (m *Module) AddInst(i Inst) InstID {
	id := InstID(len(m.Insts))
	m.Insts = append(m.Insts, i)
	return id
}

func (m *Module) AddBlock(b Block) BlockID {
	id := BlockID(len(m.Blocks))
	m.Blocks = append(m.Blocks, b)
	return id
}

func (m *Module) AddFunc(f Function) FuncID {
	id := FuncID(len(m.Funcs))
	m.Funcs = append(m.Funcs, f)
	return id
}

func (m *Module) AddGlobal(g Global) GlobalID {
	id := GlobalID(len(m.Globals))
	m.Globals = append(m.Globals, g)
	return id
}

func (m *Module) Value(id ValueID) Value   { return m.Values[id] }
func (m *Module) Inst(id InstID) Inst      { return m.Insts[id] }
func (m *Module) BlockAt(id BlockID) Block { return m.Blocks[id] }

// Package sir implements the Parus structured intermediate representation
// (spec module C7): a linear arena lowered from the AST, annotated with
// place/effect classes, and checked by a capability (borrow/escape)
// analyzer before anything reaches OIR.
package sir

import "github.com/parusbuild/parusc/internal/types"

// Invalid is the reserved sentinel for every SIR ID type, matching the AST
// arena's convention (spec §3: "a reserved sentinel 0xFFFF_FFFF").
const Invalid uint32 = 0xFFFF_FFFF

type (
	ValueID    uint32
	StmtID     uint32
	BlockID    uint32
	FuncID     uint32
	ArgID      uint32
	FieldDeclID    uint32
	ActsDeclID     uint32
	GlobalVarDeclID uint32
	EscapeHandleID uint32
)

const (
	InvalidValue    ValueID         = ValueID(Invalid)
	InvalidStmt     StmtID          = StmtID(Invalid)
	InvalidBlock    BlockID         = BlockID(Invalid)
	InvalidFunc     FuncID          = FuncID(Invalid)
	InvalidArg      ArgID           = ArgID(Invalid)
	InvalidFieldDecl FieldDeclID    = FieldDeclID(Invalid)
	InvalidActsDecl  ActsDeclID     = ActsDeclID(Invalid)
	InvalidGlobal    GlobalVarDeclID = GlobalVarDeclID(Invalid)
	InvalidEscapeHandle EscapeHandleID = EscapeHandleID(Invalid)
)

// ValueKind mirrors AST expression kinds 1:1, per spec §4.5.
type ValueKind uint8

const (
	VInvalid ValueKind = iota
	VLocal            // OriginSym = resolved symbol id, Text = identifier name
	VIntLit
	VFloatLit
	VStringLit
	VCharLit
	VBoolLit
	VNullLit
	VUnary
	VBinary
	VTernary
	VAssign  // lowered from Ternary->IfExpr is separate; Assign is its own kind
	VPostfixInc
	VCall
	VIndex
	VField
	VBorrow
	VEscape
	VCast
	VIfExpr    // A = condition, B = then value, C = else value
	VBlockExpr // BlockRef = body block, TailVal = tail value or InvalidValue
	VLoopExpr  // A = iterable, BlockRef = body block, OriginSym = loop variable
	VBreak
	VContinue
	VReturn
	VArrayLit
	VFieldInit
)

// PlaceClass classifies whether/how a Value denotes an assignable location.
type PlaceClass uint8

const (
	NotPlace PlaceClass = iota
	Local
	Index
	Field
	Deref
)

// EffectClass summarizes whether evaluating a Value can write memory.
type EffectClass uint8

const (
	Pure EffectClass = iota
	MayWrite
	Unknown
)

// Value is one SIR value node.
type Value struct {
	Kind ValueKind
	Type types.ID

	A, B, C ValueID // up to three value operand references

	Text string // literal text / ident name / field name / operator

	CalleeSym  uint32 // resolved callee symbol (0 = none)
	CalleeDecl uint32 // resolved callee AST decl stmt id, or Invalid

	OriginSym uint32 // root symbol id for capability root-tracking

	Place  PlaceClass
	Effect EffectClass

	ArgBegin, ArgCount uint32 // into Args

	PlaceElemType types.ID // element type for Index/Field places
	CastTo        types.ID
	BorrowIsMut   bool

	BlockRef BlockID // VBlockExpr/VIfExpr/VLoopExpr: associated block
	TailVal  ValueID // VBlockExpr: optional tail value, else InvalidValue
}

// Arg is one call-site argument within the SIR arena.
type Arg struct {
	Value ValueID
	Label string
}

// StmtKind discriminates an SIR statement (SIR statements sequence value
// evaluation the way AST statements do, one level down).
type StmtKind uint8

const (
	SInvalid StmtKind = iota
	SValueStmt // wraps one Value evaluated for effect
	SVarDecl   // declares a local; Val = initializer ValueID or InvalidValue
	SBlockStmt // a nested sequence of statements (its own Block)
)

// Stmt is one SIR statement.
type Stmt struct {
	Kind     StmtKind
	Val      ValueID
	Name     string
	IsMut    bool
	IsStatic bool
	OriginSym uint32
	Block    BlockID // SBlockStmt
}

// Block is a straight-line sequence of statement IDs (no internal control
// flow; branching is expressed through VIfExpr/VLoopExpr value shapes built
// from nested blocks, matching spec §4.5's "BlockExpr becomes SIR
// BlockExpr").
type Block struct {
	StmtBegin, StmtCount uint32
}

// Func is one lowered function body.
type Func struct {
	Name       string
	ParamSyms  []uint32
	ParamTypes []types.ID
	RetType    types.ID
	Entry      BlockID
	IsPure     bool
	IsComptime bool
}

// FieldMember/FieldDecl describe struct-literal and struct-declaration
// fields respectively, at the SIR level (mirrors ast.FieldMember, but
// post-resolution so Type is a types.ID).
type FieldMember struct {
	Name  string
	Value ValueID
}

type FieldDecl struct {
	Name  string
	Type  types.ID
	IsMut bool
}

// ActsDecl records one lowered `acts for T` operator/method declaration.
type ActsDecl struct {
	OperatorKey string
	ActsForType types.ID
	Func        FuncID
}

// GlobalVarDecl is a top-level `let`/`set static` declaration.
type GlobalVarDecl struct {
	Name     string
	Type     types.ID
	Init     ValueID
	IsStatic bool
}

// Boundary classifies where an escape value is legally allowed to flow.
type Boundary uint8

const (
	BoundaryNone Boundary = iota
	BoundaryReturn
	BoundaryCallArg
	BoundaryAbi
	BoundaryFfi
)

// StorageKind classifies how an escape handle's backing storage is
// materialized; HeapBox is reserved and must never reach OIR (spec §3).
type StorageKind uint8

const (
	StorageTrivial StorageKind = iota
	StorageStackSlot
	StorageCallerSlot
	StorageHeapBox // reserved; OIR verifier rejects this kind
)

// EscapeHandleMeta is produced by the capability analyzer for every `&&`
// value (spec §3 SIR, "EscapeHandleMeta").
type EscapeHandleMeta struct {
	Value          ValueID
	OriginSym      uint32
	PointeeType    types.ID
	Storage        StorageKind
	Boundary       Boundary
	OriginIsStatic bool
	DropRequired   bool
	NeedsAbiPack   bool
	NeedsFfiPack   bool
	MaterializeCount int
}

// Module is the top-level SIR arena for one compilation unit.
type Module struct {
	Values        []Value
	Stmts         []Stmt
	Blocks        []Block
	Funcs         []Func
	Args          []Arg
	FieldMembers  []FieldMember
	FieldDecls    []FieldDecl
	ActsDecls     []ActsDecl
	Globals       []GlobalVarDecl
	EscapeHandles []EscapeHandleMeta

	StmtIDs []StmtID // reference-list vector for Block.StmtBegin/Count
}

// NewModule creates an empty Module.
func NewModule() *Module { return &Module{} }

func (m *Module) AddValue(v Value) ValueID {
	id := ValueID(len(m.Values))
	m.Values = append(m.Values, v)
	return id
}

func (m *Module) AddStmt(s Stmt) StmtID {
	id := StmtID(len(m.Stmts))
	m.Stmts = append(m.Stmts, s)
	return id
}

func (m *Module) AddBlock(b Block) BlockID {
	id := BlockID(len(m.Blocks))
	m.Blocks = append(m.Blocks, b)
	return id
}

func (m *Module) AddFunc(f Func) FuncID {
	id := FuncID(len(m.Funcs))
	m.Funcs = append(m.Funcs, f)
	return id
}

func (m *Module) AddArg(a Arg) ArgID {
	id := ArgID(len(m.Args))
	m.Args = append(m.Args, a)
	return id
}

func (m *Module) PushStmtIDs(ids []StmtID) (begin, count uint32) {
	begin = uint32(len(m.StmtIDs))
	m.StmtIDs = append(m.StmtIDs, ids...)
	return begin, uint32(len(ids))
}

func (m *Module) StmtSlice(begin, count uint32) []StmtID {
	return m.StmtIDs[begin : begin+count]
}

func (m *Module) Value(id ValueID) Value   { return m.Values[id] }
func (m *Module) Stmt(id StmtID) Stmt      { return m.Stmts[id] }
func (m *Module) BlockAt(id BlockID) Block { return m.Blocks[id] }

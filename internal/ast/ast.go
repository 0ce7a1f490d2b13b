// Package ast implements the Parus AST arena: a single set of contiguous
// indexed tables holding every parsed node. All cross-references are
// 32-bit indices; no node owns another node by pointer (spec §3 AST).
package ast

import "fmt"

// Invalid is the reserved sentinel denoting an absent/invalid ID.
const Invalid uint32 = 0xFFFF_FFFF

// Pos is a single source position.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Span is a source range.
type Span struct {
	Start Pos
	End   Pos
}

// ExprID, StmtID, ... are 32-bit arena indices. Invalid denotes "no node".
type (
	ExprID          uint32
	StmtID          uint32
	ParamID         uint32
	ArgID           uint32
	NamedGroupArgID uint32
	AttrID          uint32
	FieldMemberID   uint32
	SwitchCaseID    uint32
	TypeArgID       uint32
)

const (
	InvalidExpr          ExprID          = ExprID(Invalid)
	InvalidStmt          StmtID          = StmtID(Invalid)
	InvalidParam         ParamID         = ParamID(Invalid)
	InvalidArg           ArgID           = ArgID(Invalid)
	InvalidNamedGroupArg NamedGroupArgID = NamedGroupArgID(Invalid)
	InvalidAttr          AttrID          = AttrID(Invalid)
	InvalidFieldMember   FieldMemberID   = FieldMemberID(Invalid)
	InvalidSwitchCase    SwitchCaseID    = SwitchCaseID(Invalid)
	InvalidTypeArg       TypeArgID       = TypeArgID(Invalid)
)

// ExprKind discriminates the shape of an Expr. Kind-specific fields are
// documented per kind below and on the Expr struct.
type ExprKind uint8

const (
	EInvalid ExprKind = iota
	EIdent
	EIntLit
	EFloatLit
	EStringLit
	ECharLit
	EBoolLit
	ENullLit
	EUnary     // A = operand; Op = operator token text
	EBinary    // A = lhs, B = rhs; Op = operator token text
	ETernary   // A = cond, B = then, C = else ("?:", never nests)
	EAssign    // A = lhs (place), B = rhs
	EPostfixInc // A = operand (place); ++
	ECall      // A = callee; ArgBegin/ArgCount into Args
	EIndex     // A = base, B = index
	ERange     // A = low, B = high ("a..b", used by slice-borrow &a[x..y])
	EField     // A = base; Text = field name
	EBorrow    // A = operand (place); UnaryIsMut = &mut vs &
	EEscape    // A = operand (place); &&
	ECast      // A = operand; CastTo = TypeArg; CastKind = as/as?/as!
	EIfExpr    // A = cond; ThenID/ElseID (Expr or Stmt, see ThenIsStmt/ElseIsStmt)
	EBlockExpr // BodyStmt = StmtID of the block; TailExpr = ExprID or Invalid
	ELoopExpr  // LoopVarName; A = iterator expr; BodyStmt = StmtID
	EBreak     // A = value or Invalid
	EContinue
	EReturn    // A = value or Invalid
	EArrayLit  // ElemBegin/ElemCount into ExprIDs
	EFieldInit // Text = type path head; FieldBegin/FieldCount into FieldMembers (each FieldMember.Value set)
)

// PlaceKind is a parser-time hint consumed by SIR lowering to classify an
// expression's PlaceClass without re-walking AST shape (spec §4.5).
type PlaceKind uint8

const (
	PlaceNone PlaceKind = iota
	PlaceIdent
	PlaceIndex
	PlaceField
)

// CastKind distinguishes the three cast suffix forms.
type CastKind uint8

const (
	CastExact   CastKind = iota // as T
	CastOptional                // as? T
	CastForce                    // as! T
)

// Expr is one arena-resident expression node. Only the fields relevant to
// Kind are meaningful (tagged-variant style, spec §9).
type Expr struct {
	Kind ExprKind
	Span Span
	Op   string // operator token text for EUnary/EBinary

	A, B, C ExprID // up to three child expression IDs

	Text string // literal text / identifier name / field name

	ArgBegin, ArgCount   uint32 // into Args (ECall)
	ElemBegin, ElemCount uint32 // into ExprIDs (EArrayLit)
	FieldBegin, FieldCount uint32 // into FieldMembers (EFieldInit)

	CastTo   TypeArgID
	CastKind CastKind

	UnaryIsMut bool // EBorrow: &mut vs &

	ThenID, ElseID         uint32 // EIfExpr: ExprID or StmtID depending on Then/ElseIsStmt
	ThenIsStmt, ElseIsStmt bool

	BodyStmt StmtID // EBlockExpr, ELoopExpr: body statement ID
	TailExpr ExprID // EBlockExpr: optional tail expression

	LoopVarName string // ELoopExpr: "v" in loop (v in iter)

	Place PlaceKind // parser-computed place classification
}

// StmtKind discriminates the shape of a Stmt.
type StmtKind uint8

const (
	SInvalid StmtKind = iota
	SExprStmt  // Init = the expression
	SBlock     // StmtBegin/StmtCount into StmtIDs
	SVarDecl   // let/set; Name; IsSet/IsMut/IsStatic; TypeAnno; Init
	SFnDecl    // fn declaration
	STypeDecl  // struct-like type decl; FieldBegin/FieldCount into FieldMembers
	SActsDecl  // acts-for declaration
)

// Linkage distinguishes ordinary declarations from extern/export ones.
type Linkage uint8

const (
	LinkageNone Linkage = iota
	LinkageExternC
	LinkageExportC
)

// Stmt is one arena-resident statement node.
type Stmt struct {
	Kind StmtKind
	Span Span
	Name string

	StmtBegin, StmtCount uint32 // SBlock: into StmtIDs
	FieldBegin, FieldCount uint32 // STypeDecl: into FieldMembers

	// SVarDecl
	IsSet      bool // "set" vs "let"
	IsMut      bool
	IsStatic   bool
	TypeAnno   TypeArgID
	Init       ExprID
	Linkage    Linkage
	Abi        string

	// SFnDecl
	ParamBegin, ParamCount           uint32 // into Params (positional)
	NamedParamBegin, NamedParamCount uint32 // into Params (named-group)
	ReturnType                       TypeArgID
	Body                             StmtID // SBlock, or Invalid for extern decl-only
	IsPure                           bool
	IsComptime                       bool
	Qualifiers                       FnQualifiers

	// SActsDecl
	ActsForType TypeArgID
	OperatorKey string // "+", "==", "++ pre", "++ post", ...
}

// FnQualifiers bundles the fn-declaration ABI/linkage bits referenced by
// the C-ABI checks in spec §4.4.
type FnQualifiers struct {
	Linkage Linkage
	Abi     string // "C" for extern "C"/export "C"
}

// Param is a function parameter (positional or named-group).
type Param struct {
	Name       string
	Type       TypeArgID
	Default    ExprID // Invalid unless inside a named-group
	InNamedGrp bool
	Span       Span
}

// Arg is a call-site argument: positional (Label == "") or labeled.
type Arg struct {
	Value ExprID
	Label string
	Span  Span
}

// Attr is an `@name(args)` attribute attached to a declaration.
type Attr struct {
	Name     string
	ArgBegin uint32
	ArgCount uint32
	Span     Span
}

// FieldMember is a struct field: a declaration field (Value invalid) or a
// struct-literal field initializer (Value set).
type FieldMember struct {
	Name  string
	Type  TypeArgID
	Value ExprID // Invalid for a declaration field
	IsMut bool
	Span  Span
}

// SwitchCase is one `case pattern: { ... }` / `default: { ... }` arm.
type SwitchCase struct {
	Pattern   ExprID // Invalid for default
	IsDefault bool
	Body      StmtID
	Span      Span
}

// TypeArgKind discriminates a syntactic type annotation node (pre-checker;
// the checker resolves these into types.ID via the type pool).
type TypeArgKind uint8

const (
	TANamed TypeArgKind = iota
	TAOptional
	TAArray
	TABorrow
	TAEscape
	TAFn
)

// TypeArg is a syntactic type annotation as written in source.
type TypeArg struct {
	Kind TypeArgKind
	Span Span

	Path []string // TANamed

	Elem TypeArgID // TAOptional, TAArray, TABorrow, TAEscape
	Size int       // TAArray: -1 for unsized

	IsMut bool // TABorrow

	ParamBegin, ParamCount uint32 // TAFn: into TypeArgIDs (not TypeArgs: each
	// parameter's own construction may push nested wrapper entries, so the
	// sequence of top-level parameter IDs is not itself contiguous in
	// TypeArgs -- it needs its own reference-list vector, same reasoning
	// as ExprIDs/StmtIDs).
	Ret TypeArgID
}

// Arena owns every node table. Cross-references between nodes are plain
// indices into these slices (or into ExprIDs/StmtIDs for reference lists);
// nothing here holds a pointer to another node.
type Arena struct {
	Exprs        []Expr
	Stmts        []Stmt
	Params       []Param
	Args         []Arg
	Attrs        []Attr
	FieldMembers []FieldMember
	SwitchCases  []SwitchCase
	TypeArgs     []TypeArg

	// Reference-list vectors: a node referencing a *sequence of existing
	// node IDs* (as opposed to a contiguous run of freshly-created
	// structs) stores a (begin,count) range into one of these.
	ExprIDs   []ExprID
	StmtIDs   []StmtID
	TypeArgIDs []TypeArgID
}

// New creates an empty arena.
func New() *Arena { return &Arena{} }

func (a *Arena) AddExpr(e Expr) ExprID {
	id := ExprID(len(a.Exprs))
	a.Exprs = append(a.Exprs, e)
	return id
}

func (a *Arena) AddStmt(s Stmt) StmtID {
	id := StmtID(len(a.Stmts))
	a.Stmts = append(a.Stmts, s)
	return id
}

func (a *Arena) AddParam(p Param) ParamID {
	id := ParamID(len(a.Params))
	a.Params = append(a.Params, p)
	return id
}

func (a *Arena) AddArg(arg Arg) ArgID {
	id := ArgID(len(a.Args))
	a.Args = append(a.Args, arg)
	return id
}

func (a *Arena) AddAttr(attr Attr) AttrID {
	id := AttrID(len(a.Attrs))
	a.Attrs = append(a.Attrs, attr)
	return id
}

func (a *Arena) AddFieldMember(f FieldMember) FieldMemberID {
	id := FieldMemberID(len(a.FieldMembers))
	a.FieldMembers = append(a.FieldMembers, f)
	return id
}

func (a *Arena) AddSwitchCase(c SwitchCase) SwitchCaseID {
	id := SwitchCaseID(len(a.SwitchCases))
	a.SwitchCases = append(a.SwitchCases, c)
	return id
}

func (a *Arena) AddTypeArg(t TypeArg) TypeArgID {
	id := TypeArgID(len(a.TypeArgs))
	a.TypeArgs = append(a.TypeArgs, t)
	return id
}

// PushExprIDs appends ids to the ExprIDs vector and returns the
// (begin,count) range they now occupy.
func (a *Arena) PushExprIDs(ids []ExprID) (begin, count uint32) {
	begin = uint32(len(a.ExprIDs))
	a.ExprIDs = append(a.ExprIDs, ids...)
	return begin, uint32(len(ids))
}

// PushStmtIDs appends ids to the StmtIDs vector and returns the
// (begin,count) range they now occupy.
func (a *Arena) PushStmtIDs(ids []StmtID) (begin, count uint32) {
	begin = uint32(len(a.StmtIDs))
	a.StmtIDs = append(a.StmtIDs, ids...)
	return begin, uint32(len(ids))
}

// ExprSlice returns the ExprIDs in [begin, begin+count).
func (a *Arena) ExprSlice(begin, count uint32) []ExprID {
	return a.ExprIDs[begin : begin+count]
}

// StmtSlice returns the StmtIDs in [begin, begin+count).
func (a *Arena) StmtSlice(begin, count uint32) []StmtID {
	return a.StmtIDs[begin : begin+count]
}

// PushTypeArgIDs appends ids to the TypeArgIDs vector and returns the
// (begin,count) range they now occupy.
func (a *Arena) PushTypeArgIDs(ids []TypeArgID) (begin, count uint32) {
	begin = uint32(len(a.TypeArgIDs))
	a.TypeArgIDs = append(a.TypeArgIDs, ids...)
	return begin, uint32(len(ids))
}

// TypeArgSlice returns the TypeArgIDs in [begin, begin+count).
func (a *Arena) TypeArgSlice(begin, count uint32) []TypeArgID {
	return a.TypeArgIDs[begin : begin+count]
}

// ParamSlice returns Params in [begin, begin+count).
func (a *Arena) ParamSlice(begin, count uint32) []Param {
	return a.Params[begin : begin+count]
}

// ArgSlice returns Args in [begin, begin+count).
func (a *Arena) ArgSlice(begin, count uint32) []Arg {
	return a.Args[begin : begin+count]
}

// FieldMemberSlice returns FieldMembers in [begin, begin+count).
func (a *Arena) FieldMemberSlice(begin, count uint32) []FieldMember {
	return a.FieldMembers[begin : begin+count]
}

// Expr/Stmt accessors (by value; arena entries are small structs).
func (a *Arena) Expr(id ExprID) Expr { return a.Exprs[id] }
func (a *Arena) Stmt(id StmtID) Stmt { return a.Stmts[id] }

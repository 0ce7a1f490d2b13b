// Package types implements the Parus type pool: structural interning of
// every type term the front-end and SIR/OIR stages need a TypeId for.
package types

import "fmt"

// ID identifies an interned type. The zero value is reserved for the
// sentinel Error type; Invalid is never a valid ID.
type ID uint32

// Invalid is the sentinel used by callers that have not yet resolved a type.
const Invalid ID = 0xFFFF_FFFF

// ErrorID is the canonical error type, always interned at index 0.
const ErrorID ID = 0

// Kind discriminates the structural shape of a Type.
type Kind uint8

const (
	KError Kind = iota
	KBuiltin
	KOptional
	KArray
	KBorrow
	KEscape
	KFunction
	KNamedUser
)

// Builtin enumerates the Language's built-in scalar types, plus the
// internal {integer} inference tag (never spellable by users).
type Builtin uint8

const (
	BNull Builtin = iota
	BVoid
	BNever
	BBool
	BChar
	BI8
	BI16
	BI32
	BI64
	BI128
	BU8
	BU16
	BU32
	BU64
	BU128
	BISize
	BUSize
	BF32
	BF64
	BF128
	BInferInteger // {integer}: deferred literal type, never spellable
)

var builtinNames = map[Builtin]string{
	BNull: "null", BVoid: "void", BNever: "never", BBool: "bool", BChar: "char",
	BI8: "i8", BI16: "i16", BI32: "i32", BI64: "i64", BI128: "i128",
	BU8: "u8", BU16: "u16", BU32: "u32", BU64: "u64", BU128: "u128",
	BISize: "isize", BUSize: "usize",
	BF32: "f32", BF64: "f64", BF128: "f128",
	BInferInteger: "{integer}",
}

func (b Builtin) String() string {
	if s, ok := builtinNames[b]; ok {
		return s
	}
	return fmt.Sprintf("Builtin(%d)", b)
}

// IsSignedInt reports whether b is one of i8..i128 or isize.
func (b Builtin) IsSignedInt() bool {
	switch b {
	case BI8, BI16, BI32, BI64, BI128, BISize:
		return true
	}
	return false
}

// IsUnsignedInt reports whether b is one of u8..u128 or usize.
func (b Builtin) IsUnsignedInt() bool {
	switch b {
	case BU8, BU16, BU32, BU64, BU128, BUSize:
		return true
	}
	return false
}

// IsInt reports whether b is any integer builtin, including {integer}.
func (b Builtin) IsInt() bool {
	return b.IsSignedInt() || b.IsUnsignedInt() || b == BInferInteger
}

// IsFloat reports whether b is a floating-point builtin.
func (b Builtin) IsFloat() bool {
	switch b {
	case BF32, BF64, BF128:
		return true
	}
	return false
}

// Type is a single interned type term. Only the fields relevant to Kind
// are meaningful; this mirrors the tagged-variant style used throughout
// the AST/SIR/OIR arenas (kind + slot fields rather than inheritance).
type Type struct {
	Kind Kind

	Builtin Builtin // KBuiltin

	Elem  ID   // KOptional, KArray, KBorrow, KEscape: wrapped element
	Size  int  // KArray: -1 for unsized T[], >=0 for T[N]
	IsMut bool // KBorrow: &T vs &mut T

	Params []ID // KFunction: parameter types
	Ret    ID   // KFunction: return type

	Path []string // KNamedUser: dotted segments
}

func (t Type) key() string {
	switch t.Kind {
	case KError:
		return "err"
	case KBuiltin:
		return fmt.Sprintf("b:%d", t.Builtin)
	case KOptional:
		return fmt.Sprintf("opt:%d", t.Elem)
	case KArray:
		return fmt.Sprintf("arr:%d:%d", t.Elem, t.Size)
	case KBorrow:
		return fmt.Sprintf("bor:%d:%v", t.Elem, t.IsMut)
	case KEscape:
		return fmt.Sprintf("esc:%d", t.Elem)
	case KFunction:
		s := fmt.Sprintf("fn:%d", t.Ret)
		for _, p := range t.Params {
			s += fmt.Sprintf(",%d", p)
		}
		return s
	case KNamedUser:
		s := "named"
		for _, seg := range t.Path {
			s += "." + seg
		}
		return s
	}
	return "?"
}

// Pool interns type terms by structural identity: interning the same term
// twice yields the same ID. Interning is linear in table size and
// idempotent (see spec §8 property 1).
type Pool struct {
	types   []Type
	byKey   map[string]ID
	builtin map[Builtin]ID
}

// NewPool creates a pool with the Error sentinel and all builtins
// pre-interned, matching the teacher's eager-builtin construction.
func NewPool() *Pool {
	p := &Pool{
		byKey:   make(map[string]ID),
		builtin: make(map[Builtin]ID),
	}
	errID := p.push(Type{Kind: KError})
	if errID != ErrorID {
		panic("types: Error type must be index 0")
	}
	p.byKey[Type{Kind: KError}.key()] = ErrorID

	for b := BNull; b <= BInferInteger; b++ {
		t := Type{Kind: KBuiltin, Builtin: b}
		id := p.push(t)
		p.byKey[t.key()] = id
		p.builtin[b] = id
	}
	return p
}

func (p *Pool) push(t Type) ID {
	id := ID(len(p.types))
	p.types = append(p.types, t)
	return id
}

// Get returns the interned Type for id.
func (p *Pool) Get(id ID) Type {
	if int(id) >= len(p.types) {
		return Type{Kind: KError}
	}
	return p.types[id]
}

// Count returns the number of interned types.
func (p *Pool) Count() int { return len(p.types) }

// BuiltinID returns the ID for a builtin type (always present; eagerly interned).
func (p *Pool) BuiltinID(b Builtin) ID { return p.builtin[b] }

// intern looks up t by structural key, creating and storing a fresh entry
// only if absent.
func (p *Pool) intern(t Type) ID {
	k := t.key()
	if id, ok := p.byKey[k]; ok {
		return id
	}
	id := p.push(t)
	p.byKey[k] = id
	return id
}

// InternPath interns a dotted user-type path. A single-segment name that
// matches a builtin spelling resolves to that builtin instead of creating
// a NamedUser entry; "unit" is reserved and never spellable as a type name.
func (p *Pool) InternPath(segments []string) ID {
	if len(segments) == 1 {
		if segments[0] == "unit" {
			return ErrorID
		}
		for b, name := range builtinNames {
			if b == BInferInteger {
				continue // {integer} is never spellable
			}
			if name == segments[0] {
				return p.builtin[b]
			}
		}
	}
	path := append([]string(nil), segments...)
	return p.intern(Type{Kind: KNamedUser, Path: path})
}

// MakeOptional interns Optional(T).
func (p *Pool) MakeOptional(elem ID) ID {
	return p.intern(Type{Kind: KOptional, Elem: elem})
}

// MakeArray interns Array(T, size). size < 0 denotes an unsized T[].
func (p *Pool) MakeArray(elem ID, size int) ID {
	return p.intern(Type{Kind: KArray, Elem: elem, Size: size})
}

// MakeBorrow interns Borrow(T, is_mut): &T or &mut T.
func (p *Pool) MakeBorrow(elem ID, isMut bool) ID {
	return p.intern(Type{Kind: KBorrow, Elem: elem, IsMut: isMut})
}

// MakeEscape interns Escape(T): &&T. The caller must ensure elem is not
// itself a Borrow (capability analyzer invariant, spec §3).
func (p *Pool) MakeEscape(elem ID) ID {
	return p.intern(Type{Kind: KEscape, Elem: elem})
}

// MakeFn interns Function(ret, params...).
func (p *Pool) MakeFn(ret ID, params []ID) ID {
	ps := append([]ID(nil), params...)
	return p.intern(Type{Kind: KFunction, Ret: ret, Params: ps})
}

// IsBorrow reports whether id denotes a Borrow(T, _).
func (p *Pool) IsBorrow(id ID) bool { return p.Get(id).Kind == KBorrow }

// IsEscape reports whether id denotes an Escape(T).
func (p *Pool) IsEscape(id ID) bool { return p.Get(id).Kind == KEscape }

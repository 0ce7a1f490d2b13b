// Package symtab implements the Parus symbol table (spec §3 C4): a stack
// of lexical scopes mapping name to symbol, with a configurable shadowing
// policy and kind-tagged symbols.
package symtab

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/types"
)

// ID identifies an interned symbol. The zero value is never issued (the
// first symbol gets ID 1), so callers can use 0 as an explicit "no symbol".
type ID uint32

// Invalid denotes "no symbol resolved".
const Invalid ID = 0

// Kind tags what a symbol denotes.
type Kind uint8

const (
	KVar Kind = iota
	KFn
	KType
	KField
	KAct
)

// Symbol is one declared name: its kind, declared type, declaration span,
// and the scope depth it was introduced at.
type Symbol struct {
	ID       ID
	Name     string
	Kind     Kind
	Type     types.ID
	Span     ast.Span
	Depth    int
	IsMut    bool
	IsStatic bool
}

// ShadowingPolicy governs what happens when a name already bound in an
// enclosing (not the same) scope is re-declared in an inner scope.
type ShadowingPolicy uint8

const (
	ShadowAllow ShadowingPolicy = iota
	ShadowWarn
	ShadowError
)

// scope is one lexical level: a flat name->symbol map.
type scope struct {
	names map[string]ID
}

// Table is a stack of scopes over a single growing symbol list. Insertion
// returns (id, isDuplicate, isShadowing) so callers can report diagnostics
// without re-deriving the lookup.
type Table struct {
	Policy  ShadowingPolicy
	symbols []Symbol // index 0 unused, so ID 0 stays Invalid
	scopes  []*scope
}

// New creates a Table with one (global) scope already pushed.
func New(policy ShadowingPolicy) *Table {
	t := &Table{Policy: policy, symbols: make([]Symbol, 1)}
	t.Push()
	return t
}

// Push enters a new lexical scope.
func (t *Table) Push() {
	t.scopes = append(t.scopes, &scope{names: make(map[string]ID)})
}

// Pop exits the innermost lexical scope. Symbols declared in it remain
// addressable by ID (callers that recorded a ResolvedSymbol keep working)
// but are no longer found by name lookup.
func (t *Table) Pop() {
	if len(t.scopes) == 0 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth returns the current scope nesting depth (1 = global scope).
func (t *Table) Depth() int { return len(t.scopes) }

// Get returns the Symbol for id.
func (t *Table) Get(id ID) Symbol {
	if id == Invalid || int(id) >= len(t.symbols) {
		return Symbol{}
	}
	return t.symbols[id]
}

// Lookup searches from the innermost scope outward and returns the first
// match, or (Invalid, false) if name is unbound.
func (t *Table) Lookup(name string) (ID, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if id, ok := t.scopes[i].names[name]; ok {
			return id, true
		}
	}
	return Invalid, false
}

// LookupLocal searches only the innermost scope (used to detect duplicate
// declarations within the same scope).
func (t *Table) LookupLocal(name string) (ID, bool) {
	if len(t.scopes) == 0 {
		return Invalid, false
	}
	id, ok := t.scopes[len(t.scopes)-1].names[name]
	return id, ok
}

// Insert declares name in the current scope and returns the new symbol's
// ID plus whether it duplicated an existing binding in the *same* scope
// and whether it shadowed a binding from an *enclosing* scope. A duplicate
// declaration still allocates a fresh symbol (so callers always get a
// valid ID to attach to the AST node) but does not overwrite the original
// binding visible to earlier uses.
func (t *Table) Insert(name string, kind Kind, ty types.ID, span ast.Span, isMut, isStatic bool) (id ID, isDuplicate, isShadowing bool) {
	cur := t.scopes[len(t.scopes)-1]
	_, dup := cur.names[name]
	_, shadow := t.Lookup(name)
	shadow = shadow && !dup

	sym := Symbol{
		Name: name, Kind: kind, Type: ty, Span: span,
		Depth: len(t.scopes), IsMut: isMut, IsStatic: isStatic,
	}
	id = ID(len(t.symbols))
	sym.ID = id
	t.symbols = append(t.symbols, sym)

	if !dup {
		cur.names[name] = id
	}
	return id, dup, shadow
}

// SetType updates the declared type of an already-inserted symbol (used
// when a declaration's type is only known after its initializer is
// type-checked).
func (t *Table) SetType(id ID, ty types.ID) {
	if id != Invalid && int(id) < len(t.symbols) {
		t.symbols[id].Type = ty
	}
}

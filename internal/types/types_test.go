package types

import "testing"

func TestInternIdempotent(t *testing.T) {
	p := NewPool()
	a := p.InternPath([]string{"Foo", "Bar"})
	b := p.InternPath([]string{"Foo", "Bar"})
	if a != b {
		t.Fatalf("InternPath not idempotent: %d != %d", a, b)
	}
	before := p.Count()
	p.InternPath([]string{"Foo", "Bar"})
	if p.Count() != before {
		t.Fatalf("interning the same path grew the pool: %d -> %d", before, p.Count())
	}
}

func TestBuiltinSingleton(t *testing.T) {
	p := NewPool()
	i32a := p.BuiltinID(BI32)
	i32b := p.InternPath([]string{"i32"})
	if i32a != i32b {
		t.Fatalf("i32 should resolve to the same builtin ID via InternPath, got %d vs %d", i32a, i32b)
	}
}

func TestUnitReserved(t *testing.T) {
	p := NewPool()
	if id := p.InternPath([]string{"unit"}); id != ErrorID {
		t.Fatalf("\"unit\" must not be spellable as a type name, got ID %d", id)
	}
}

func TestErrorIsIndexZero(t *testing.T) {
	p := NewPool()
	if p.Get(ErrorID).Kind != KError {
		t.Fatalf("ErrorID must always be KError")
	}
}

func TestRenderPrecedence(t *testing.T) {
	p := NewPool()
	i32 := p.BuiltinID(BI32)

	opt := p.MakeOptional(i32)
	if got := p.Render(opt); got != "i32?" {
		t.Fatalf("Render(i32?) = %q", got)
	}

	esc := p.MakeEscape(i32)
	escOpt := p.MakeOptional(esc)
	if got := p.Render(escOpt); got != "(&&i32)?" {
		t.Fatalf("Render((&&i32)?) = %q", got)
	}

	dblEsc := p.MakeEscape(opt)
	if got := p.Render(dblEsc); got != "&&(i32?)" {
		t.Fatalf("Render(&&(i32?)) = %q", got)
	}
}

func TestRenderSliceBorrowSugar(t *testing.T) {
	p := NewPool()
	i32 := p.BuiltinID(BI32)
	unsized := p.MakeArray(i32, -1)
	shared := p.MakeBorrow(unsized, false)
	mut := p.MakeBorrow(unsized, true)

	if got := p.Render(shared); got != "&[i32]" {
		t.Fatalf("Render(&[i32]) = %q", got)
	}
	if got := p.Render(mut); got != "&mut [i32]" {
		t.Fatalf("Render(&mut [i32]) = %q", got)
	}
}

func TestRenderSizedArray(t *testing.T) {
	p := NewPool()
	i32 := p.BuiltinID(BI32)
	sized := p.MakeArray(i32, 4)
	if got := p.Render(sized); got != "i32[4]" {
		t.Fatalf("Render(i32[4]) = %q", got)
	}
}

func TestRenderFunction(t *testing.T) {
	p := NewPool()
	i32 := p.BuiltinID(BI32)
	boolT := p.BuiltinID(BBool)
	fn := p.MakeFn(boolT, []ID{i32, i32})
	if got := p.Render(fn); got != "(i32, i32) -> bool" {
		t.Fatalf("Render(fn) = %q", got)
	}
}

func TestMakeBorrowDistinguishesMutability(t *testing.T) {
	p := NewPool()
	i32 := p.BuiltinID(BI32)
	shared := p.MakeBorrow(i32, false)
	mut := p.MakeBorrow(i32, true)
	if shared == mut {
		t.Fatalf("&T and &mut T must intern to different IDs")
	}
}

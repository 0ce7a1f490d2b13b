package errors

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/parusbuild/parusc/internal/ast"
)

func TestWrapAndAsReport(t *testing.T) {
	r := New(UndefinedName, "resolve", nil, "undefined name %q", "x")
	err := Wrap(r)

	var wrapped error = stderrors.Join(err)
	got, ok := AsReport(wrapped)
	if !ok {
		t.Fatalf("AsReport failed to unwrap a ReportError")
	}
	if got.Code != UndefinedName {
		t.Fatalf("got code %s, want %s", got.Code, UndefinedName)
	}
}

func TestBagStrictPromotesWarnings(t *testing.T) {
	b := &Bag{}
	b.Add(NewWarning(Shadowing, "resolve", nil, "shadowed binding"))
	if !b.OK(false) {
		t.Fatalf("non-strict bag with only warnings should be OK")
	}
	if b.OK(true) {
		t.Fatalf("strict bag with warnings should not be OK")
	}
}

func TestBagErrorsFailsRegardlessOfStrict(t *testing.T) {
	b := &Bag{}
	b.Add(New(TypeMismatch, "typecheck", nil, "mismatch"))
	if b.OK(false) || b.OK(true) {
		t.Fatalf("bag with an error must never be OK")
	}
}

func TestToJSONDeterministicKeyOrder(t *testing.T) {
	r := New(TypeMismatch, "typecheck", &ast.Span{
		Start: ast.Pos{Line: 1, Column: 2, File: "a.pr"},
		End:   ast.Pos{Line: 1, Column: 5, File: "a.pr"},
	}, "mismatch")
	r.WithData("zzz", 1).WithData("aaa", 2)

	s1, err := r.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	s2, err := r.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("ToJSON is not deterministic across calls")
	}
	if !strings.Contains(s1, `"aaa":2`) || !strings.Contains(s1, `"zzz":1`) {
		t.Fatalf("expected sorted data keys in %s", s1)
	}
	if strings.Index(s1, `"aaa"`) > strings.Index(s1, `"zzz"`) {
		t.Fatalf("expected aaa before zzz in %s", s1)
	}
}

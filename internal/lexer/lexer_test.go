package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `let x = 5 + 10;
pure fn add(a: i32, b: i32) -> i32 {
  a + b
}

if x > 10 {
  "big"
} else {
  "small"
}

let r = &x;
let m = &mut x;
let e = &&x;

// line comment
true && false || true
`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "5"},
		{PLUS, "+"},
		{INT, "10"},
		{SEMICOLON, ";"},

		{PURE, "pure"},
		{FN, "fn"},
		{IDENT, "add"},
		{LPAREN, "("},
		{IDENT, "a"},
		{COLON, ":"},
		{IDENT, "i32"},
		{COMMA, ","},
		{IDENT, "b"},
		{COLON, ":"},
		{IDENT, "i32"},
		{RPAREN, ")"},
		{ARROW, "->"},
		{IDENT, "i32"},
		{LBRACE, "{"},
		{IDENT, "a"},
		{PLUS, "+"},
		{IDENT, "b"},
		{RBRACE, "}"},

		{IF, "if"},
		{IDENT, "x"},
		{GT, ">"},
		{INT, "10"},
		{LBRACE, "{"},
		{STRING, "big"},
		{RBRACE, "}"},
		{ELSE, "else"},
		{LBRACE, "{"},
		{STRING, "small"},
		{RBRACE, "}"},

		{LET, "let"},
		{IDENT, "r"},
		{ASSIGN, "="},
		{AMP, "&"},
		{IDENT, "x"},
		{SEMICOLON, ";"},

		{LET, "let"},
		{IDENT, "m"},
		{ASSIGN, "="},
		{AMP, "&"},
		{MUT, "mut"},
		{IDENT, "x"},
		{SEMICOLON, ";"},

		{LET, "let"},
		{IDENT, "e"},
		{ASSIGN, "="},
		{AMPAMP, "&&"},
		{IDENT, "x"},
		{SEMICOLON, ";"},

		{TRUE, "true"},
		{AMPAMP, "&&"},
		{FALSE, "false"},
		{PIPEPIPE, "||"},
		{TRUE, "true"},

		{EOF, ""},
	}

	l := New(input, "test.pr")

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestFloatLiterals(t *testing.T) {
	input := `3.14 2.0 1e10 1.5e-3`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{FLOAT, "3.14"},
		{FLOAT, "2.0"},
		{FLOAT, "1e10"},
		{FLOAT, "1.5e-3"},
		{EOF, ""},
	}

	l := New(input, "test.pr")

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestIntLiteralBases(t *testing.T) {
	input := `0xFF 0b1010 42 1_000_000`

	tests := []string{"0xFF", "0b1010", "42", "1_000_000"}

	l := New(input, "test.pr")
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != INT {
			t.Fatalf("tests[%d]: expected INT, got %q", i, tok.Type)
		}
		if tok.Literal != want {
			t.Fatalf("tests[%d]: expected %q, got %q", i, want, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	input := `"hello\nworld" "tab\there" "quote\"inside\"" "hex\x41" "uni\u{1F600}"`

	l := New(input, "test.pr")

	cases := []string{
		"hello\nworld",
		"tab\there",
		"quote\"inside\"",
		"hexA",
		"uni\U0001F600",
	}
	for i, want := range cases {
		tok := l.NextToken()
		if tok.Type != STRING {
			t.Fatalf("case %d: expected STRING, got %q", i, tok.Type)
		}
		if tok.Literal != want {
			t.Fatalf("case %d: expected %q, got %q", i, want, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `+ - * / % == != < > <= >= && || ! -> | ++ . ? @ ..`

	tests := []TokenType{
		PLUS, MINUS, STAR, SLASH, PERCENT,
		EQ, NEQ, LT, GT, LE, GE,
		AMPAMP, PIPEPIPE, BANG,
		ARROW,
		PIPE, PLUSPLUS,
		DOT, QUESTION, AT, DOTDOT,
		EOF,
	}

	l := New(input, "test.pr")

	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q",
				i, expected, tok.Type)
		}
	}
}

func TestKeywords(t *testing.T) {
	keywords := []string{
		"fn", "let", "set", "mut", "static", "extern", "export",
		"acts", "for", "operator", "pure", "comptime", "loop", "in",
		"if", "else", "break", "continue", "return", "as", "type",
		"true", "false", "null",
	}

	for _, kw := range keywords {
		l := New(kw, "test.pr")
		tok := l.NextToken()

		expectedType := LookupIdent(kw)
		if tok.Type != expectedType {
			t.Errorf("keyword %q: expected type %v, got %v", kw, expectedType, tok.Type)
		}

		if tok.Type == IDENT {
			t.Errorf("keyword %q was parsed as IDENT", kw)
		}
	}
}

func TestLineAndColumn(t *testing.T) {
	input := `let x = 5
fn add(a, b) {
  a + b
}`

	l := New(input, "test.pr")

	tok := l.NextToken() // let
	if tok.Line != 1 || tok.Column != 1 {
		t.Errorf("let: expected 1:1, got %d:%d", tok.Line, tok.Column)
	}

	tok = l.NextToken() // x
	if tok.Line != 1 || tok.Column != 5 {
		t.Errorf("x: expected 1:5, got %d:%d", tok.Line, tok.Column)
	}

	for tok.Type != FN {
		tok = l.NextToken()
	}

	if tok.Line != 2 || tok.Column != 1 {
		t.Errorf("fn: expected 2:1, got %d:%d", tok.Line, tok.Column)
	}
}

func TestComments(t *testing.T) {
	input := `// leading comment
let x = 5; // inline comment
/* block
   comment */
fn f() { x }`

	expected := []TokenType{
		LET, IDENT, ASSIGN, INT, SEMICOLON,
		FN, IDENT, LPAREN, RPAREN, LBRACE, IDENT, RBRACE,
		EOF,
	}

	l := New(input, "test.pr")
	for _, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp {
			t.Fatalf("expected %v, got %v", exp, tok.Type)
		}
	}
}

func TestNestedBlockComment(t *testing.T) {
	input := `/* outer /* inner */ still outer */ let`

	l := New(input, "test.pr")
	tok := l.NextToken()
	if tok.Type != LET {
		t.Fatalf("expected LET after nested block comment, got %q (%q)", tok.Type, tok.Literal)
	}
}

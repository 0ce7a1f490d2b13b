// Package parser implements a Pratt parser that lowers a Parus token
// stream directly into the AST arena (spec §3), reporting diagnostics as
// Report values rather than panicking.
package parser

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/lexer"
)

// Precedence levels, mirroring lexer.Token.Precedence()'s numeric scale.
const (
	LOWEST     = 0
	TERNARY    = 1
	LOGICALOR  = 2
	LOGICALAND = 3
	EQUALS     = 4
	RELATIONAL = 5
	RANGE      = 6
	SUM        = 7
	PRODUCT    = 8
	CAST       = 9
	PREFIX     = 10 // unary operand precedence; higher than any infix below CALL
	DOTACCESS  = 11
	CALLIDX    = 12
	POSTFIX    = 13
)

type (
	prefixParseFn func() ast.ExprID
	infixParseFn  func(ast.ExprID) ast.ExprID
)

// Parser holds the full mutable state of one parse: token cursor, the AST
// arena being built, and the accumulated diagnostics bag.
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token

	Arena *ast.Arena
	Bag   *errors.Bag

	// aborted stops top-level declaration parsing once synchronize has
	// run more than 1000 times in one parse, so a badly malformed file can't
	// spin the parser into an unbounded error cascade.
	aborted      bool
	syncFailures int

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// New creates a Parser over l, ready to call ParseFile.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:     l,
		Arena: ast.New(),
		Bag:   &errors.Bag{},
	}

	p.prefixParseFns = map[lexer.TokenType]prefixParseFn{}
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.CHAR, p.parseCharLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.NULL, p.parseNullLiteral)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.MINUS, p.parseUnaryExpr)
	p.registerPrefix(lexer.BANG, p.parseUnaryExpr)
	p.registerPrefix(lexer.AMP, p.parseBorrowExpr)
	p.registerPrefix(lexer.AMPAMP, p.parseEscapeExpr)
	p.registerPrefix(lexer.IF, p.parseIfExpr)
	p.registerPrefix(lexer.LOOP, p.parseLoopExpr)
	p.registerPrefix(lexer.LBRACE, p.parseBlockExpr)
	p.registerPrefix(lexer.BREAK, p.parseBreakExpr)
	p.registerPrefix(lexer.CONTINUE, p.parseContinueExpr)
	p.registerPrefix(lexer.RETURN, p.parseReturnExpr)

	p.infixParseFns = map[lexer.TokenType]infixParseFn{}
	p.registerInfix(lexer.PLUS, p.parseBinaryExpr)
	p.registerInfix(lexer.MINUS, p.parseBinaryExpr)
	p.registerInfix(lexer.STAR, p.parseBinaryExpr)
	p.registerInfix(lexer.SLASH, p.parseBinaryExpr)
	p.registerInfix(lexer.PERCENT, p.parseBinaryExpr)
	p.registerInfix(lexer.EQ, p.parseBinaryExpr)
	p.registerInfix(lexer.NEQ, p.parseBinaryExpr)
	p.registerInfix(lexer.LT, p.parseBinaryExpr)
	p.registerInfix(lexer.GT, p.parseBinaryExpr)
	p.registerInfix(lexer.LE, p.parseBinaryExpr)
	p.registerInfix(lexer.GE, p.parseBinaryExpr)
	p.registerInfix(lexer.AMPAMP, p.parseBinaryExpr) // infix position = logical and
	p.registerInfix(lexer.PIPEPIPE, p.parseBinaryExpr)
	p.registerInfix(lexer.DOTDOT, p.parseRangeExpr)
	p.registerInfix(lexer.DOT, p.parseFieldExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpr)
	p.registerInfix(lexer.AS, p.parseCastExpr)
	p.registerInfix(lexer.QUESTION, p.parseTernaryExpr)
	p.registerInfix(lexer.ASSIGN, p.parseAssignExpr)
	p.registerInfix(lexer.PLUSPLUS, p.parsePostfixIncExpr)

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t lexer.TokenType, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t lexer.TokenType, fn infixParseFn)   { p.infixParseFns[t] = fn }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) curPos() ast.Pos {
	return ast.Pos{Line: p.curToken.Line, Column: p.curToken.Column, File: p.curToken.File}
}

func (p *Parser) peekPos() ast.Pos {
	return ast.Pos{Line: p.peekToken.Line, Column: p.peekToken.Column, File: p.peekToken.File}
}

func (p *Parser) spanFrom(start ast.Pos) ast.Span {
	return ast.Span{Start: start, End: p.curPos()}
}

func (p *Parser) peekPrecedence() int { return p.peekToken.Precedence() }
func (p *Parser) curPrecedence() int  { return p.curToken.Precedence() }

func (p *Parser) peekError(t lexer.TokenType) {
	p.Bag.Add(errors.New(errors.ExpectedToken, "parse", spanPtr(p.curPos()),
		"expected %s, got %s (%q)", t, p.peekToken.Type, p.peekToken.Literal))
}

func (p *Parser) noPrefixParseFnError() {
	p.Bag.Add(errors.New(errors.UnexpectedToken, "parse", spanPtr(p.curPos()),
		"unexpected token %s (%q)", p.curToken.Type, p.curToken.Literal))
}

func spanPtr(pos ast.Pos) *ast.Span {
	return &ast.Span{Start: pos, End: pos}
}

// synchronize recovers from a parse error by skipping tokens until a
// likely statement boundary (`;`, `}`, `)`, `,`) or EOF, so one bad
// declaration doesn't cascade into spurious errors for the rest of the
// file. After more than 1000 recoveries in one parse (the count is never
// reset), the parser gives up for good (aborted).
func (p *Parser) synchronize() {
	p.syncFailures++
	if p.syncFailures > 1000 {
		p.aborted = true
		return
	}
	for !p.curTokenIs(lexer.EOF) {
		switch p.curToken.Type {
		case lexer.SEMICOLON, lexer.RBRACE, lexer.RPAREN, lexer.COMMA:
			p.nextToken()
			return
		}
		p.nextToken()
	}
}

// ParseFile parses a whole source file into a sequence of top-level
// statement IDs (function, variable, type, and acts-for declarations).
func (p *Parser) ParseFile() []ast.StmtID {
	var decls []ast.StmtID
	for !p.curTokenIs(lexer.EOF) && !p.aborted {
		before := p.curToken
		decl := p.parseTopLevelDecl()
		if decl != ast.InvalidStmt {
			decls = append(decls, decl)
		}
		// Declaration parse functions leave curToken on the last token they
		// consumed (the closing '}' of a body, or a trailing ';'), matching
		// the parser's usual curToken-on-last-consumed convention; advance
		// past it so the next iteration starts at the following decl.
		if p.curTokenIs(lexer.RBRACE) || p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
		}
		if p.curToken == before {
			// No progress was made at all (e.g. a reported-but-unconsumed
			// token); force it so a single bad token can't loop forever.
			p.nextToken()
		}
	}
	return decls
}

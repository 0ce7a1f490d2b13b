package parser

import (
	"strconv"
	"strings"

	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/lexer"
)

// parseExpression is the Pratt loop: parse one prefix term, then keep
// folding in infix/postfix operators whose precedence is still above the
// caller's floor.
func (p *Parser) parseExpression(precedence int) ast.ExprID {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		p.noPrefixParseFnError()
		return ast.InvalidExpr
	}
	left := prefix()

	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		infix, ok := p.infixParseFns[p.peekToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.ExprID {
	e := ast.Expr{Kind: ast.EIdent, Span: p.spanFrom(p.curPos()), Text: p.curToken.Literal, Place: ast.PlaceIdent}
	return p.Arena.AddExpr(e)
}

func (p *Parser) parseIntLiteral() ast.ExprID {
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EIntLit, Span: p.spanFrom(p.curPos()), Text: p.curToken.Literal})
}

func (p *Parser) parseFloatLiteral() ast.ExprID {
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EFloatLit, Span: p.spanFrom(p.curPos()), Text: p.curToken.Literal})
}

func (p *Parser) parseStringLiteral() ast.ExprID {
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EStringLit, Span: p.spanFrom(p.curPos()), Text: p.curToken.Literal})
}

func (p *Parser) parseCharLiteral() ast.ExprID {
	return p.Arena.AddExpr(ast.Expr{Kind: ast.ECharLit, Span: p.spanFrom(p.curPos()), Text: p.curToken.Literal})
}

func (p *Parser) parseBoolLiteral() ast.ExprID {
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EBoolLit, Span: p.spanFrom(p.curPos()), Text: p.curToken.Literal})
}

func (p *Parser) parseNullLiteral() ast.ExprID {
	return p.Arena.AddExpr(ast.Expr{Kind: ast.ENullLit, Span: p.spanFrom(p.curPos())})
}

func (p *Parser) parseGroupedExpr() ast.ExprID {
	p.nextToken()
	e := p.parseExpression(LOWEST)
	p.expectPeek(lexer.RPAREN)
	return e
}

func (p *Parser) parseArrayLiteral() ast.ExprID {
	start := p.curPos()
	var elems []ast.ExprID
	if p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
	} else {
		p.nextToken()
		elems = append(elems, p.parseExpression(LOWEST))
		for p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			elems = append(elems, p.parseExpression(LOWEST))
		}
		p.expectPeek(lexer.RBRACKET)
	}
	begin, count := p.Arena.PushExprIDs(elems)
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EArrayLit, Span: p.spanFrom(start), ElemBegin: begin, ElemCount: count})
}

func (p *Parser) parseUnaryExpr() ast.ExprID {
	start := p.curPos()
	op := p.curToken.Literal
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EUnary, Span: p.spanFrom(start), Op: op, A: operand})
}

// parseBorrowExpr and parseEscapeExpr both guard against chaining two
// prefix borrow/escape operators back to back with no grouping (`& &x`,
// `&& &x`), which is ambiguous surface syntax rather than a meaningful
// double borrow: the checker has no notion of a borrow of a borrow written
// this way, so it's caught here instead of silently parsed and rejected
// three passes later.
func (p *Parser) parseBorrowExpr() ast.ExprID {
	start := p.curPos()
	isMut := false
	if p.peekTokenIs(lexer.MUT) {
		isMut = true
		p.nextToken()
	}
	if p.peekTokenIs(lexer.AMP) || p.peekTokenIs(lexer.AMPAMP) {
		p.Bag.Add(errors.New(errors.AmbiguousAmpPrefixChain, "parse", spanPtr(p.peekPos()),
			"chained borrow/escape prefixes are ambiguous; parenthesize the inner expression"))
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	place := classifyPlace(p.Arena, operand)
	if place == ast.PlaceNone {
		p.Bag.Add(errors.New(errors.BorrowOperandMustBePlace, "parse", spanPtr(p.spanFrom(start).Start),
			"borrow operand must be a place expression"))
	}
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EBorrow, Span: p.spanFrom(start), A: operand, UnaryIsMut: isMut, Place: place})
}

func (p *Parser) parseEscapeExpr() ast.ExprID {
	start := p.curPos()
	if p.peekTokenIs(lexer.AMP) || p.peekTokenIs(lexer.AMPAMP) {
		p.Bag.Add(errors.New(errors.AmbiguousAmpPrefixChain, "parse", spanPtr(p.peekPos()),
			"chained borrow/escape prefixes are ambiguous; parenthesize the inner expression"))
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	place := classifyPlace(p.Arena, operand)
	if place == ast.PlaceNone {
		p.Bag.Add(errors.New(errors.EscapeOperandMustBePlace, "parse", spanPtr(p.spanFrom(start).Start),
			"escape operand must be a place expression"))
	}
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EEscape, Span: p.spanFrom(start), A: operand, Place: place})
}

func (p *Parser) parseIfExpr() ast.ExprID {
	start := p.curPos()
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.LBRACE) {
		return p.Arena.AddExpr(ast.Expr{Kind: ast.EIfExpr, Span: p.spanFrom(start), A: cond})
	}
	thenID := p.parseBlockExpr()
	e := ast.Expr{Kind: ast.EIfExpr, Span: p.spanFrom(start), A: cond, ThenID: uint32(thenID), ThenIsStmt: false, ElseID: uint32(ast.InvalidExpr)}
	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken()
		if p.peekTokenIs(lexer.IF) {
			p.nextToken()
			elseID := p.parseIfExpr()
			e.ElseID = uint32(elseID)
			e.ElseIsStmt = false
		} else if p.expectPeek(lexer.LBRACE) {
			elseID := p.parseBlockExpr()
			e.ElseID = uint32(elseID)
			e.ElseIsStmt = false
		}
	}
	e.Span = p.spanFrom(start)
	return p.Arena.AddExpr(e)
}

// parseBlockInner parses a `{ ... }` body already positioned at the
// opening LBRACE, collecting statements into StmtIDs. When allowTail is
// true, a final expression with no trailing `;` immediately before `}`
// becomes the block's tail value instead of an SExprStmt.
func (p *Parser) parseBlockInner(allowTail bool) (body ast.StmtID, tail ast.ExprID) {
	start := p.curPos()
	tail = ast.InvalidExpr
	var stmts []ast.StmtID

	p.nextToken() // move past '{'
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		before := p.curToken
		switch p.curToken.Type {
		case lexer.STATIC, lexer.LET, lexer.SET:
			s := p.parseVarDeclStmt(ast.LinkageNone, "")
			stmts = append(stmts, s)
			p.nextToken() // past the decl's last token (';' if present)
		default:
			exprStart := p.curPos()
			e := p.parseExpression(LOWEST)
			if allowTail && p.peekTokenIs(lexer.RBRACE) {
				tail = e
				p.nextToken() // land on '}'
			} else {
				s := p.Arena.AddStmt(ast.Stmt{Kind: ast.SExprStmt, Span: p.spanFrom(exprStart), Init: e})
				stmts = append(stmts, s)
				if p.peekTokenIs(lexer.SEMICOLON) {
					p.nextToken()
				}
				p.nextToken()
			}
		}
		if p.curToken == before {
			p.nextToken()
		}
	}
	begin, count := p.Arena.PushStmtIDs(stmts)
	body = p.Arena.AddStmt(ast.Stmt{Kind: ast.SBlock, Span: p.spanFrom(start), StmtBegin: begin, StmtCount: count})
	return body, tail
}

// parseBlockExpr parses a block that yields a value (if/else arms, bare
// block expressions). curToken must be LBRACE on entry.
func (p *Parser) parseBlockExpr() ast.ExprID {
	start := p.curPos()
	body, tail := p.parseBlockInner(true)
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EBlockExpr, Span: p.spanFrom(start), BodyStmt: body, TailExpr: tail})
}

// parseBlockStmtOnly parses a block used purely for its side effects (loop
// bodies, function bodies): no tail-expression extraction, just the
// SBlock statement itself. curToken must be LBRACE on entry.
func (p *Parser) parseBlockStmtOnly() ast.StmtID {
	body, _ := p.parseBlockInner(false)
	return body
}

// parseLoopExpr parses `loop (v in iter) { body }`. Missing parentheses
// don't abort the parse: a tolerant recovery path still finds the loop
// variable and iterator so the rest of the file's diagnostics stay
// meaningful, at the cost of a dedicated diagnostic for the malformed
// header.
func (p *Parser) parseLoopExpr() ast.ExprID {
	start := p.curPos()
	hasParen := p.peekTokenIs(lexer.LPAREN)
	if hasParen {
		p.nextToken()
	} else {
		p.Bag.Add(errors.New(errors.LoopHeaderExpectedParen, "parse", spanPtr(p.curPos()), "expected '(' after 'loop'"))
	}
	p.nextToken()
	varName := ""
	if p.curTokenIs(lexer.IDENT) {
		varName = p.curToken.Literal
	} else {
		p.Bag.Add(errors.New(errors.LoopHeaderVarExpectedIdent, "parse", spanPtr(p.curPos()), "expected loop variable name"))
	}
	if !p.expectPeek(lexer.IN) {
		// already reported; keep going so the iterator expression still parses
	}
	p.nextToken()
	iter := p.parseExpression(LOWEST)
	if hasParen {
		p.expectPeek(lexer.RPAREN)
	}
	if !p.expectPeek(lexer.LBRACE) {
		return p.Arena.AddExpr(ast.Expr{Kind: ast.ELoopExpr, Span: p.spanFrom(start), LoopVarName: varName, A: iter})
	}
	body := p.parseBlockStmtOnly()
	return p.Arena.AddExpr(ast.Expr{Kind: ast.ELoopExpr, Span: p.spanFrom(start), LoopVarName: varName, A: iter, BodyStmt: body})
}

func (p *Parser) parseBreakExpr() ast.ExprID {
	start := p.curPos()
	val := ast.InvalidExpr
	if !p.peekTokenIs(lexer.SEMICOLON) && !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		val = p.parseExpression(LOWEST)
	}
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EBreak, Span: p.spanFrom(start), A: val})
}

func (p *Parser) parseContinueExpr() ast.ExprID {
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EContinue, Span: p.spanFrom(p.curPos())})
}

func (p *Parser) parseReturnExpr() ast.ExprID {
	start := p.curPos()
	val := ast.InvalidExpr
	if !p.peekTokenIs(lexer.SEMICOLON) && !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		val = p.parseExpression(LOWEST)
	}
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EReturn, Span: p.spanFrom(start), A: val})
}

func (p *Parser) parseBinaryExpr(left ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(left).Span.Start
	op := p.curToken.Literal
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EBinary, Span: p.spanFrom(start), Op: op, A: left, B: right})
}

func (p *Parser) parseRangeExpr(left ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(left).Span.Start
	p.nextToken()
	right := p.parseExpression(RANGE)
	return p.Arena.AddExpr(ast.Expr{Kind: ast.ERange, Span: p.spanFrom(start), A: left, B: right})
}

func (p *Parser) parseFieldExpr(left ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(left).Span.Start
	if !p.expectPeek(lexer.IDENT) {
		return p.Arena.AddExpr(ast.Expr{Kind: ast.EField, Span: p.spanFrom(start), A: left})
	}
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EField, Span: p.spanFrom(start), A: left, Text: p.curToken.Literal, Place: ast.PlaceField})
}

// parseOneArg parses a single call argument, reading an optional `name:`
// label when the token ahead of the value looks like one.
func (p *Parser) parseOneArg() {
	start := p.curPos()
	label := ""
	if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.COLON) {
		label = p.curToken.Literal
		p.nextToken()
		p.nextToken()
	}
	val := p.parseExpression(LOWEST)
	p.Arena.AddArg(ast.Arg{Value: val, Label: label, Span: p.spanFrom(start)})
}

func (p *Parser) parseCallExpr(callee ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(callee).Span.Start
	argBegin := uint32(len(p.Arena.Args))
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		p.nextToken()
		p.parseOneArg()
		for p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			p.parseOneArg()
		}
		p.expectPeek(lexer.RPAREN)
	}
	argCount := uint32(len(p.Arena.Args)) - argBegin
	return p.Arena.AddExpr(ast.Expr{Kind: ast.ECall, Span: p.spanFrom(start), A: callee, ArgBegin: argBegin, ArgCount: argCount})
}

func (p *Parser) parseIndexExpr(left ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(left).Span.Start
	p.nextToken()
	idx := p.parseExpression(LOWEST)
	p.expectPeek(lexer.RBRACKET)
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EIndex, Span: p.spanFrom(start), A: left, B: idx, Place: ast.PlaceIndex})
}

// parseCastExpr disambiguates the three cast-suffix spellings (`as`,
// `as?`, `as!`) by peeking past the `as` keyword for QUESTION/BANG before
// parsing the target type.
func (p *Parser) parseCastExpr(left ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(left).Span.Start
	kind := ast.CastExact
	if p.peekTokenIs(lexer.QUESTION) {
		kind = ast.CastOptional
		p.nextToken()
	} else if p.peekTokenIs(lexer.BANG) {
		kind = ast.CastForce
		p.nextToken()
	}
	p.nextToken()
	ty := p.parseTypeArg()
	return p.Arena.AddExpr(ast.Expr{Kind: ast.ECast, Span: p.spanFrom(start), A: left, CastTo: ty, CastKind: kind})
}

// parseTernaryExpr parses `cond ? then : else`. Both arms parse one
// precedence level above the ternary's own so a same-level chained
// ternary on either side isn't silently absorbed; a post-hoc peek then
// reports the chain explicitly rather than letting it parse as
// right-nested.
func (p *Parser) parseTernaryExpr(cond ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(cond).Span.Start
	p.nextToken()
	then := p.parseExpression(TERNARY + 1)
	if !p.expectPeek(lexer.COLON) {
		return p.Arena.AddExpr(ast.Expr{Kind: ast.ETernary, Span: p.spanFrom(start), A: cond, B: then})
	}
	p.nextToken()
	elseE := p.parseExpression(TERNARY + 1)
	if p.peekTokenIs(lexer.QUESTION) {
		p.Bag.Add(errors.New(errors.NestedTernaryNotAllowed, "parse", spanPtr(p.peekPos()),
			"nested ternary expressions must be parenthesized"))
	}
	return p.Arena.AddExpr(ast.Expr{Kind: ast.ETernary, Span: p.spanFrom(start), A: cond, B: then, C: elseE})
}

func (p *Parser) parseAssignExpr(left ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(left).Span.Start
	place := classifyPlace(p.Arena, left)
	if place == ast.PlaceNone {
		p.Bag.Add(errors.New(errors.AssignLhsMustBePlace, "parse", spanPtr(start), "assignment target must be a place expression"))
	}
	p.nextToken()
	rhs := p.parseExpression(LOWEST)
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EAssign, Span: p.spanFrom(start), A: left, B: rhs, Place: place})
}

func (p *Parser) parsePostfixIncExpr(left ast.ExprID) ast.ExprID {
	start := p.Arena.Expr(left).Span.Start
	place := classifyPlace(p.Arena, left)
	if place == ast.PlaceNone {
		p.Bag.Add(errors.New(errors.PostfixOperandMustBePlace, "parse", spanPtr(start), "'++' operand must be a place expression"))
	}
	return p.Arena.AddExpr(ast.Expr{Kind: ast.EPostfixInc, Span: p.spanFrom(start), A: left, Place: place})
}

// classifyPlace computes an expression's PlaceKind so later borrow/assign/
// postfix-increment legality checks don't need to re-walk AST shape.
func classifyPlace(a *ast.Arena, id ast.ExprID) ast.PlaceKind {
	if id == ast.InvalidExpr {
		return ast.PlaceNone
	}
	e := a.Expr(id)
	switch e.Kind {
	case ast.EIdent:
		return ast.PlaceIdent
	case ast.EIndex:
		return ast.PlaceIndex
	case ast.EField:
		return ast.PlaceField
	default:
		return ast.PlaceNone
	}
}

// parseUintLiteral parses the array-size integer literal of the type
// grammar (underscores stripped; decimal, 0x, 0o and 0b prefixes accepted).
func parseUintLiteral(lit string) (int, bool) {
	clean := strings.ReplaceAll(lit, "_", "")
	v, err := strconv.ParseInt(clean, 0, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

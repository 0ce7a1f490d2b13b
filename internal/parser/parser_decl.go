package parser

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/lexer"
)

// parseTopLevelDecl dispatches on the current token to one of the
// top-level declaration forms: extern/export linkage wrappers, variable
// declarations, function declarations, acts-for operator overloads, and
// type declarations.
func (p *Parser) parseTopLevelDecl() ast.StmtID {
	switch p.curToken.Type {
	case lexer.EXTERN:
		return p.parseLinkagePrefixedDecl(ast.LinkageExternC)
	case lexer.EXPORT:
		return p.parseLinkagePrefixedDecl(ast.LinkageExportC)
	case lexer.STATIC, lexer.LET, lexer.SET:
		return p.parseVarDeclStmt(ast.LinkageNone, "")
	case lexer.PURE, lexer.COMPTIME, lexer.FN:
		return p.parseFnDecl(ast.LinkageNone, "")
	case lexer.ACTS:
		return p.parseActsDecl()
	case lexer.TYPE:
		return p.parseTypeDeclStmt()
	case lexer.EOF:
		return ast.InvalidStmt
	default:
		p.Bag.Add(errors.New(errors.UnexpectedToken, "parse", spanPtr(p.curPos()),
			"unexpected token at top level: %s (%q)", p.curToken.Type, p.curToken.Literal))
		p.synchronize()
		return ast.InvalidStmt
	}
}

// parseLinkagePrefixedDecl handles `extern ["C"] ...` / `export ["C"] ...`
// wrapping either a function or a static variable declaration.
func (p *Parser) parseLinkagePrefixedDecl(linkage ast.Linkage) ast.StmtID {
	p.nextToken() // consume 'extern'/'export'
	abi := ""
	if p.curTokenIs(lexer.STRING) {
		abi = p.curToken.Literal
		p.nextToken()
	}
	switch p.curToken.Type {
	case lexer.FN, lexer.PURE, lexer.COMPTIME:
		s := p.parseFnDecl(linkage, abi)
		return s
	case lexer.STATIC, lexer.LET, lexer.SET:
		return p.parseVarDeclStmt(linkage, abi)
	default:
		p.Bag.Add(errors.New(errors.UnexpectedToken, "parse", spanPtr(p.curPos()),
			"expected a function or variable declaration after linkage prefix"))
		p.synchronize()
		return ast.InvalidStmt
	}
}

// parseVarDeclStmt parses `[static] (let|set) [mut] name [: Type] [= init]`.
// linkage/abi are non-zero only when reached through an extern/export
// prefix; extern/export globals must be static (spec C3 ABI rules), which
// is enforced here rather than deferred to the checker since it's purely
// syntactic.
func (p *Parser) parseVarDeclStmt(linkage ast.Linkage, abi string) ast.StmtID {
	start := p.curPos()
	isStatic := false
	if p.curTokenIs(lexer.STATIC) {
		isStatic = true
		p.nextToken()
	}
	isSet := p.curTokenIs(lexer.SET)

	isMut := false
	if p.peekTokenIs(lexer.MUT) {
		p.nextToken()
		isMut = true
	}

	name := ""
	if p.expectPeek(lexer.IDENT) {
		name = p.curToken.Literal
	}

	typeAnno := ast.InvalidTypeArg
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		typeAnno = p.parseTypeArg()
	}

	init := ast.InvalidExpr
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		init = p.parseExpression(LOWEST)
	}

	if linkage != ast.LinkageNone && !isStatic {
		p.Bag.Add(errors.New(errors.AbiCGlobalMustBeStatic, "parse", spanPtr(start),
			"extern/export globals must be declared static"))
	}

	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken() // land on ';'; ParseFile/parseBlockInner advance past it
	}

	return p.Arena.AddStmt(ast.Stmt{
		Kind: ast.SVarDecl, Span: p.spanFrom(start), Name: name,
		IsSet: isSet, IsMut: isMut, IsStatic: isStatic,
		TypeAnno: typeAnno, Init: init, Linkage: linkage, Abi: abi,
	})
}

// parseFnDecl parses `[pure] [comptime] fn name(params) [-> Ret] { body }`,
// or a body-less `;` form when linkage marks it as an extern declaration.
func (p *Parser) parseFnDecl(linkage ast.Linkage, abi string) ast.StmtID {
	start := p.curPos()
	isPure := false
	isComptime := false
	for {
		switch p.curToken.Type {
		case lexer.PURE:
			isPure = true
			p.nextToken()
			continue
		case lexer.COMPTIME:
			isComptime = true
			p.nextToken()
			continue
		}
		break
	}

	if !p.curTokenIs(lexer.FN) {
		p.Bag.Add(errors.New(errors.FnNameExpected, "parse", spanPtr(p.curPos()), "expected 'fn'"))
	} else {
		p.nextToken()
	}

	name := ""
	if p.curTokenIs(lexer.IDENT) {
		name = p.curToken.Literal
		p.nextToken()
	} else {
		p.Bag.Add(errors.New(errors.FnNameExpected, "parse", spanPtr(p.curPos()), "expected function name"))
	}

	if !p.curTokenIs(lexer.LPAREN) {
		p.peekError(lexer.LPAREN)
	}
	pb, pc, nb, nc := p.parseParamList()

	if linkage != ast.LinkageNone && nc > 0 {
		p.Bag.Add(errors.New(errors.AbiCNamedGroupNotAllowed, "parse", spanPtr(start),
			"extern/export functions cannot have a named parameter group"))
	}

	retType := ast.InvalidTypeArg
	if p.peekTokenIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		retType = p.parseTypeArg()
	}

	body := ast.InvalidStmt
	if linkage != ast.LinkageNone && p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken() // land on ';'; ParseFile advances past it
	} else if p.peekTokenIs(lexer.LBRACE) {
		p.nextToken()
		body = p.parseBlockStmtOnly()
	} else {
		p.peekError(lexer.LBRACE)
	}

	return p.Arena.AddStmt(ast.Stmt{
		Kind: ast.SFnDecl, Span: p.spanFrom(start), Name: name,
		ParamBegin: pb, ParamCount: pc, NamedParamBegin: nb, NamedParamCount: nc,
		ReturnType: retType, Body: body, IsPure: isPure, IsComptime: isComptime,
		Linkage: linkage, Abi: abi, Qualifiers: ast.FnQualifiers{Linkage: linkage, Abi: abi},
	})
}

// parseParamList parses the `(...)` parameter list of a fn/acts-for
// declaration. Positional parameters come first; at most one trailing
// named group `{ name: Type = default, ... }` may follow, and default
// values are only legal inside that group. curToken must be LPAREN on
// entry; on return curToken is the closing RPAREN.
func (p *Parser) parseParamList() (posBegin, posCount, namedBegin, namedCount uint32) {
	posBegin = uint32(len(p.Arena.Params))
	namedGroupSeen := false
	namedBegin = posBegin

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return posBegin, 0, posBegin, 0
	}
	p.nextToken()
	for {
		if p.curTokenIs(lexer.LBRACE) {
			if namedGroupSeen {
				p.Bag.Add(errors.New(errors.FnOnlyOneNamedGroupAllowed, "parse", spanPtr(p.curPos()),
					"only one named parameter group is allowed"))
			}
			namedGroupSeen = true
			namedBegin = uint32(len(p.Arena.Params))
			p.nextToken()
			for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
				p.parseOneParam(true)
				if p.peekTokenIs(lexer.COMMA) {
					p.nextToken()
					p.nextToken()
					continue
				}
				break
			}
			p.expectPeek(lexer.RBRACE)
			namedCount = uint32(len(p.Arena.Params)) - namedBegin
		} else {
			p.parseOneParam(false)
		}
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	p.expectPeek(lexer.RPAREN)
	if !namedGroupSeen {
		namedBegin = uint32(len(p.Arena.Params))
	}
	posCount = namedBegin - posBegin
	return posBegin, posCount, namedBegin, namedCount
}

func (p *Parser) parseOneParam(inNamedGroup bool) {
	start := p.curPos()
	name := ""
	if p.curTokenIs(lexer.IDENT) {
		name = p.curToken.Literal
	} else {
		p.Bag.Add(errors.New(errors.UnexpectedToken, "parse", spanPtr(p.curPos()), "expected parameter name"))
	}

	typeArg := ast.InvalidTypeArg
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		typeArg = p.parseTypeArg()
	}

	def := ast.InvalidExpr
	if p.peekTokenIs(lexer.ASSIGN) {
		if !inNamedGroup {
			p.Bag.Add(errors.New(errors.FnParamDefaultNotAllowedOutsideNamedGroup, "parse", spanPtr(p.curPos()),
				"default values are only allowed inside the named parameter group"))
		}
		p.nextToken()
		p.nextToken()
		def = p.parseExpression(LOWEST)
	}

	p.Arena.AddParam(ast.Param{Name: name, Type: typeArg, Default: def, InNamedGrp: inNamedGroup, Span: p.spanFrom(start)})
}

// parseActsDecl parses one operator-overload declaration:
// `acts operator "+" for TypeName (self: T, ...) -> Ret { body }`. The
// first positional parameter must be named "self" (spec C3 operator
// overload rules).
func (p *Parser) parseActsDecl() ast.StmtID {
	start := p.curPos()
	p.nextToken() // consume 'acts'

	if !p.curTokenIs(lexer.OPERATOR) {
		p.Bag.Add(errors.New(errors.OperatorKeyExpected, "parse", spanPtr(p.curPos()), "expected 'operator' after 'acts'"))
	} else {
		p.nextToken()
	}

	opKey := ""
	if p.curTokenIs(lexer.STRING) {
		opKey = p.curToken.Literal
	} else {
		p.Bag.Add(errors.New(errors.OperatorKeyExpected, "parse", spanPtr(p.curPos()), "expected operator key string"))
	}

	if !p.expectPeek(lexer.FOR) {
		// already reported; keep parsing so later declarations still recover
	}
	p.nextToken()
	forType := p.parseTypeArg()

	if !p.expectPeek(lexer.LPAREN) {
		p.synchronize()
		return ast.InvalidStmt
	}
	pb, pc, nb, nc := p.parseParamList()

	if pc == 0 {
		p.Bag.Add(errors.New(errors.OperatorSelfFirstParamRequired, "parse", spanPtr(start),
			"operator overloads require 'self' as the first parameter"))
	} else if first := p.Arena.Params[pb]; first.Name != "self" {
		p.Bag.Add(errors.New(errors.OperatorSelfFirstParamRequired, "parse", spanPtr(first.Span.Start),
			"operator overloads require 'self' as the first parameter"))
	}

	retType := ast.InvalidTypeArg
	if p.peekTokenIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		retType = p.parseTypeArg()
	}

	body := ast.InvalidStmt
	if p.expectPeek(lexer.LBRACE) {
		body = p.parseBlockStmtOnly()
	}

	return p.Arena.AddStmt(ast.Stmt{
		Kind: ast.SActsDecl, Span: p.spanFrom(start),
		ActsForType: forType, OperatorKey: opKey,
		ParamBegin: pb, ParamCount: pc, NamedParamBegin: nb, NamedParamCount: nc,
		ReturnType: retType, Body: body,
	})
}

// parseTypeDeclStmt parses a struct-like type declaration:
// `type Name { [mut] field: Type, ... }`.
func (p *Parser) parseTypeDeclStmt() ast.StmtID {
	start := p.curPos()
	p.nextToken() // consume 'type'

	name := ""
	if p.curTokenIs(lexer.IDENT) {
		name = p.curToken.Literal
	} else {
		p.Bag.Add(errors.New(errors.UnexpectedToken, "parse", spanPtr(p.curPos()), "expected type name"))
	}

	if !p.expectPeek(lexer.LBRACE) {
		p.synchronize()
		return ast.InvalidStmt
	}

	fieldBegin := uint32(len(p.Arena.FieldMembers))
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		fieldStart := p.curPos()
		isMut := false
		if p.curTokenIs(lexer.MUT) {
			isMut = true
			p.nextToken()
		}
		fieldName := ""
		if p.curTokenIs(lexer.IDENT) {
			fieldName = p.curToken.Literal
		} else {
			p.Bag.Add(errors.New(errors.UnexpectedToken, "parse", spanPtr(p.curPos()), "expected field name"))
		}
		fieldType := ast.InvalidTypeArg
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			fieldType = p.parseTypeArg()
		}
		p.Arena.AddFieldMember(ast.FieldMember{Name: fieldName, Type: fieldType, Value: ast.InvalidExpr, IsMut: isMut, Span: p.spanFrom(fieldStart)})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		p.nextToken()
		break
	}
	fieldCount := uint32(len(p.Arena.FieldMembers)) - fieldBegin
	if !p.curTokenIs(lexer.RBRACE) {
		p.peekError(lexer.RBRACE)
	}

	return p.Arena.AddStmt(ast.Stmt{Kind: ast.STypeDecl, Span: p.spanFrom(start), Name: name, FieldBegin: fieldBegin, FieldCount: fieldCount})
}

package parser

import (
	"github.com/parusbuild/parusc/internal/ast"
	"github.com/parusbuild/parusc/internal/errors"
	"github.com/parusbuild/parusc/internal/lexer"
)

// parseTypeArg parses one syntactic type annotation, then folds in any
// trailing `?` optional suffixes. curToken must be positioned at the
// type's first token on entry.
func (p *Parser) parseTypeArg() ast.TypeArgID {
	base := p.parseTypeArgPrimary()
	for p.peekTokenIs(lexer.QUESTION) {
		start := p.Arena.TypeArgs[base].Span.Start
		p.nextToken()
		base = p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TAOptional, Elem: base, Size: -1, Span: p.spanFrom(start)})
	}
	return base
}

func (p *Parser) parseTypeArgPrimary() ast.TypeArgID {
	start := p.curPos()
	switch p.curToken.Type {
	case lexer.AMP:
		p.nextToken()
		isMut := false
		if p.curTokenIs(lexer.MUT) {
			isMut = true
			p.nextToken()
		}
		if p.curTokenIs(lexer.AMP) || p.curTokenIs(lexer.AMPAMP) {
			p.Bag.Add(errors.New(errors.AmbiguousAmpPrefixChain, "parse", spanPtr(p.curPos()),
				"chained & prefixes in a type are ambiguous; parenthesize the inner type"))
		}
		elem := p.parseTypeArg()
		return p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TABorrow, Elem: elem, IsMut: isMut, Span: p.spanFrom(start)})

	case lexer.AMPAMP:
		p.nextToken()
		if p.curTokenIs(lexer.AMP) || p.curTokenIs(lexer.AMPAMP) {
			p.Bag.Add(errors.New(errors.AmbiguousAmpPrefixChain, "parse", spanPtr(p.curPos()),
				"chained & prefixes in a type are ambiguous; parenthesize the inner type"))
		}
		elem := p.parseTypeArg()
		return p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TAEscape, Elem: elem, Span: p.spanFrom(start)})

	case lexer.LBRACKET:
		p.nextToken()
		elem := p.parseTypeArg()
		size := -1
		if p.peekTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			p.nextToken()
			if p.curTokenIs(lexer.INT) {
				if v, ok := parseUintLiteral(p.curToken.Literal); ok {
					size = v
				} else {
					p.Bag.Add(errors.New(errors.ArraySizeInvalidLiteral, "parse", spanPtr(p.curPos()), "invalid array size literal"))
				}
			} else {
				p.Bag.Add(errors.New(errors.ArraySizeExpectedIntLit, "parse", spanPtr(p.curPos()), "expected integer literal for array size"))
			}
		}
		p.expectPeek(lexer.RBRACKET)
		return p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TAArray, Elem: elem, Size: size, Span: p.spanFrom(start)})

	case lexer.LPAREN:
		p.nextToken()
		var params []ast.TypeArgID
		if !p.curTokenIs(lexer.RPAREN) {
			params = append(params, p.parseTypeArg())
			for p.peekTokenIs(lexer.COMMA) {
				p.nextToken()
				p.nextToken()
				params = append(params, p.parseTypeArg())
			}
		}
		p.expectPeek(lexer.RPAREN)
		pb, pc := p.Arena.PushTypeArgIDs(params)
		if !p.expectPeek(lexer.ARROW) {
			return p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TAFn, ParamBegin: pb, ParamCount: pc, Span: p.spanFrom(start)})
		}
		p.nextToken()
		ret := p.parseTypeArg()
		return p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TAFn, ParamBegin: pb, ParamCount: pc, Ret: ret, Span: p.spanFrom(start)})

	case lexer.IDENT:
		path := []string{p.curToken.Literal}
		for p.peekTokenIs(lexer.DOT) {
			p.nextToken()
			if p.expectPeek(lexer.IDENT) {
				path = append(path, p.curToken.Literal)
			}
		}
		return p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TANamed, Path: path, Span: p.spanFrom(start)})

	default:
		p.Bag.Add(errors.New(errors.UnexpectedToken, "parse", spanPtr(p.curPos()), "expected a type"))
		return p.Arena.AddTypeArg(ast.TypeArg{Kind: ast.TANamed, Path: []string{"<error>"}, Span: p.spanFrom(start)})
	}
}

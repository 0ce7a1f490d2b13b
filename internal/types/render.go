package types

import "strings"

// Render produces a human-readable string for id, with parenthesization
// that disambiguates prefix binding (&, &&) from suffix binding (?, []),
// and the slice-borrow sugar &[T]/&mut [T].
//
// Precedence: suffix binds tighter than prefix, so &&int? renders as
// &&(int?). Render never needs to insert its own ambiguous-chain check;
// that's a parser-time rejection (see parser_type.go), not a printing concern.
func (p *Pool) Render(id ID) string {
	return p.render(id, false)
}

// render renders id; insidePrefix indicates a prefix operator (&, &&)
// directly wraps this type, so a further prefix-incompatible suffix form
// (another array/optional) must be parenthesized per the precedence rule.
func (p *Pool) render(id ID, insidePrefix bool) string {
	t := p.Get(id)
	switch t.Kind {
	case KError:
		return "<error>"
	case KBuiltin:
		return t.Builtin.String()
	case KOptional:
		inner := p.render(t.Elem, false)
		if p.needsParenAsSuffixOperand(t.Elem) {
			inner = "(" + inner + ")"
		}
		if insidePrefix {
			return "(" + inner + "?)"
		}
		return inner + "?"
	case KArray:
		inner := p.render(t.Elem, false)
		if p.needsParenAsSuffixOperand(t.Elem) {
			inner = "(" + inner + ")"
		}
		suffix := "[]"
		if t.Size >= 0 {
			suffix = "[" + itoa(t.Size) + "]"
		}
		if insidePrefix {
			return "(" + inner + suffix + ")"
		}
		return inner + suffix
	case KBorrow:
		// Slice-borrow sugar: &[T] / &mut [T] when the pointee is an
		// unsized array.
		if elemT := p.Get(t.Elem); elemT.Kind == KArray && elemT.Size < 0 {
			inner := p.render(elemT.Elem, false)
			if t.IsMut {
				return "&mut [" + inner + "]"
			}
			return "&[" + inner + "]"
		}
		inner := p.render(t.Elem, true)
		if p.needsParenAsPrefixOperand(t.Elem) {
			inner = "(" + inner + ")"
		}
		if t.IsMut {
			return "&mut " + inner
		}
		return "&" + inner
	case KEscape:
		inner := p.render(t.Elem, true)
		if p.needsParenAsPrefixOperand(t.Elem) {
			inner = "(" + inner + ")"
		}
		return "&&" + inner
	case KFunction:
		parts := make([]string, len(t.Params))
		for i, prm := range t.Params {
			parts[i] = p.render(prm, false)
		}
		return "(" + strings.Join(parts, ", ") + ") -> " + p.render(t.Ret, false)
	case KNamedUser:
		return strings.Join(t.Path, ".")
	}
	return "<?>"
}

// needsParenAsSuffixOperand reports whether the operand of a suffix
// operator (?, []) must be parenthesized because it is itself a
// prefix-bound type (&T, &&T), which binds looser than the suffix.
func (p *Pool) needsParenAsSuffixOperand(id ID) bool {
	k := p.Get(id).Kind
	return k == KBorrow || k == KEscape
}

// needsParenAsPrefixOperand reports whether the operand of a prefix
// operator (&, &&) must be parenthesized because it is itself another
// prefix-bound type, which would otherwise read as an ambiguous chain.
func (p *Pool) needsParenAsPrefixOperand(id ID) bool {
	k := p.Get(id).Kind
	return k == KBorrow || k == KEscape
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

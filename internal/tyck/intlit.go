package tyck

import (
	"math/big"

	"github.com/parusbuild/parusc/internal/types"
)

// intRange returns the inclusive [min, max] two's-complement/unsigned
// range for a builtin integer type, grounded on original_source's
// per-builtin min/max table (signed two's-complement for i8..i128,
// unsigned 0..2^n-1 for u8..u128, 64-bit word size for isize/usize).
func intRange(b types.Builtin) (min, max *big.Int, ok bool) {
	bits := 0
	signed := false
	switch b {
	case types.BI8:
		bits, signed = 8, true
	case types.BI16:
		bits, signed = 16, true
	case types.BI32:
		bits, signed = 32, true
	case types.BI64:
		bits, signed = 64, true
	case types.BI128:
		bits, signed = 128, true
	case types.BISize:
		bits, signed = 64, true
	case types.BU8:
		bits, signed = 8, false
	case types.BU16:
		bits, signed = 16, false
	case types.BU32:
		bits, signed = 32, false
	case types.BU64:
		bits, signed = 64, false
	case types.BU128:
		bits, signed = 128, false
	case types.BUSize:
		bits, signed = 64, false
	default:
		return nil, nil, false
	}

	one := big.NewInt(1)
	span := new(big.Int).Lsh(one, uint(bits))
	if signed {
		half := new(big.Int).Rsh(span, 1)
		max = new(big.Int).Sub(half, one)
		min = new(big.Int).Neg(half)
	} else {
		max = new(big.Int).Sub(span, one)
		min = big.NewInt(0)
	}
	return min, max, true
}

// FitsInt reports whether the decimal/hex/binary literal text val fits
// builtin integer type b, using arbitrary-precision evaluation (spec §4.4
// "Deferred integer inference").
func FitsInt(val string, b types.Builtin) bool {
	min, max, ok := intRange(b)
	if !ok {
		return false
	}
	n, ok := ParseBigInt(val)
	if !ok {
		return false
	}
	return n.Cmp(min) >= 0 && n.Cmp(max) <= 0
}

// ParseBigInt parses an integer literal's lexeme (decimal, 0x hex, 0b
// binary, with optional '_' digit separators) into an arbitrary-precision
// integer.
func ParseBigInt(lit string) (*big.Int, bool) {
	clean := make([]byte, 0, len(lit))
	for i := 0; i < len(lit); i++ {
		if lit[i] != '_' {
			clean = append(clean, lit[i])
		}
	}
	n := new(big.Int)
	_, ok := n.SetString(string(clean), 0)
	return n, ok
}

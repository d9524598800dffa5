package pttc

import (
	"fmt"
	"math/bits"

	"github.com/japanoise/numparse"
)

// scanUint parses the longest prefix of s that is an unsigned C integer
// literal: 0x for hex, a leading 0 for octal, decimal otherwise. ok is
// false if no digit was consumed; rest is the unparsed remainder. A
// leading '+' is accepted.
func scanUint(s string) (v uint64, rest string, ok, overflow bool) {
	i := 0
	if len(s) > 0 && s[0] == '+' {
		i = 1
	}
	base := uint64(10)
	switch {
	case len(s) > i+2 && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') && digitValue(s[i+2]) < 16:
		base = 16
		i += 2
	case len(s) > i && s[i] == '0':
		base = 8
	}

	start := i
	for ; i < len(s); i++ {
		d := uint64(digitValue(s[i]))
		if d >= base {
			break
		}
		hi, lo := bits.Mul64(v, base)
		lo, carry := bits.Add64(lo, d, 0)
		if hi != 0 || carry != 0 {
			overflow = true
		}
		v = lo
	}
	if i == start {
		return 0, s, false, false
	}
	return v, s[i:], true, overflow
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 36
}

// parseUint parses tok as a whole. C literals are tried first, then the
// assembler spellings numparse understands.
func parseUint(tok string) (uint64, error) {
	v, rest, ok, overflow := scanUint(tok)
	if ok && rest == "" {
		if overflow {
			return 0, fmt.Errorf("%w: %s", ErrIntegerTooBig, tok)
		}
		return v, nil
	}
	if n, err := numparse.UNumParse(tok); err == nil {
		return uint64(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrIntegerParse, tok)
}

package pttc

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/japanoise/pttc/src/pt"
)

// parseEmpty accepts only a blank payload.
func parseEmpty(payload string) error {
	if strings.TrimSpace(payload) != "" {
		return fmt.Errorf("%w: %q", ErrTrailingTokens, payload)
	}
	return nil
}

// parseTNT reads a taken/not-taken bit string such as "t.t.n". The first
// character ends up in the most significant bit.
func parseTNT(payload string) (tnt uint64, size int, err error) {
	for _, c := range payload {
		if unicode.IsSpace(c) || c == '.' {
			continue
		}
		size++
		tnt <<= 1
		switch c {
		case 'n':
		case 't':
			tnt |= 1
		default:
			return 0, 0, fmt.Errorf("%w: %q", ErrUnknownChar, c)
		}
	}
	return tnt, size, nil
}

func isIPSeparator(r rune) bool { return r == ':' || unicode.IsSpace(r) }

// parseIP reads "<ipc> <address>" where address is a number or a %label
// resolved against the assembly symbol table.
func parseIP(payload string, asm SymbolTable) (ip uint64, ipc pt.IPCompression, err error) {
	toks := strings.FieldsFunc(payload, isIPSeparator)
	if len(toks) == 0 {
		return 0, 0, ErrMissingArgument
	}

	c, err := parseUint(toks[0])
	if err != nil {
		return 0, 0, err
	}
	if c > 0xff {
		return 0, 0, fmt.Errorf("%w: ip compression %s", ErrIntegerTooBig, toks[0])
	}

	if len(toks) < 2 {
		return 0, 0, ErrMissingIP
	}

	if name, ok := strings.CutPrefix(toks[1], "%"); ok {
		var found bool
		if asm != nil {
			ip, found = asm.Lookup(name)
		}
		if !found {
			return 0, 0, fmt.Errorf("%w: %s", ErrUnknownLabel, name)
		}
	} else {
		ip, err = parseUint(toks[1])
		if err != nil {
			return 0, 0, err
		}
	}

	if len(toks) > 2 {
		return 0, 0, fmt.Errorf("%w: %s", ErrTrailingTokens, strings.Join(toks[2:], " "))
	}

	return ip, pt.IPCompression(c), nil
}

func firstToken(payload string) (string, bool) {
	toks := strings.FieldsFunc(payload, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(toks) == 0 {
		return "", false
	}
	return toks[0], true
}

// parseUint64 reads the first space or comma separated integer.
func parseUint64(payload string) (uint64, error) {
	tok, ok := firstToken(payload)
	if !ok {
		return 0, ErrMissingArgument
	}
	return parseUint(tok)
}

// parseUint8 is parseUint64 limited to a byte.
func parseUint8(payload string) (uint8, error) {
	tok, ok := firstToken(payload)
	if !ok {
		return 0, ErrMissingArgument
	}
	v, err := parseUint(tok)
	if err != nil {
		return 0, err
	}
	if v > 0xff {
		return 0, fmt.Errorf("%w: %s", ErrIntegerTooBig, tok)
	}
	return uint8(v), nil
}

func parseExecMode(payload string) (pt.ExecMode, error) {
	switch payload {
	case "16bit":
		return pt.ExecMode16, nil
	case "64bit":
		return pt.ExecMode64, nil
	case "32bit":
		return pt.ExecMode32, nil
	}
	return 0, fmt.Errorf(`%w: argument must be one of "16bit", "64bit" or "32bit"`, ErrSyntax)
}

func parseTSX(payload string) (uint8, error) {
	switch payload {
	case "begin":
		return pt.TSXBegin, nil
	case "abort":
		return pt.TSXAbort, nil
	case "commit":
		return pt.TSXCommit, nil
	}
	return 0, fmt.Errorf(`%w: argument must be one of "begin", "abort" or "commit"`, ErrSyntax)
}

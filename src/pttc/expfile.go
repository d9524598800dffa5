package pttc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/japanoise/pttc/src/ptt"
)

const (
	expSuffix    = ".exp"
	maxLabelName = 255
)

type padding uint8

const (
	padNone padding = iota
	padZero
	padQMark
)

// expFilename returns <fileroot>[-<extra>].exp.
func expFilename(fileroot, extra string) string {
	if extra == "" {
		return fileroot + expSuffix
	}
	return fileroot + "-" + extra + expSuffix
}

// expText extracts the expected-output text of a source line: everything
// after the first ';' up to a '#' comment, without trailing blanks.
func expText(line string) (string, bool) {
	i := strings.IndexByte(line, ';')
	if i < 0 {
		return "", false
	}
	text := line[i+1:]
	if j := strings.IndexByte(text, '#'); j >= 0 {
		text = text[:j]
	}
	end := len(text)
	for end > 0 && isSpaceByte(text[end-1]) {
		end--
	}
	return text[:end], true
}

func isLabelChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isPunctByte(c byte) bool {
	return c > ' ' && c < 0x7f && (c == '_' || !isLabelChar(c))
}

// expandLine replaces every %label reference in text.
//
//	%[0|?]<name>[.<n>]
//
// A 0 zero-pads to 16 digits, a ? additionally renders the bytes removed
// by a .n mask as "??". Masks only apply to assembly labels; pt directive
// labels are printed as bare hex and any .n after them is kept as text.
func expandLine(text string, r *Resolver) (string, error) {
	var sb strings.Builder
	for {
		i := strings.IndexByte(text, '%')
		if i < 0 {
			sb.WriteString(text)
			return sb.String(), nil
		}
		sb.WriteString(text[:i])

		rest, err := expandLabel(&sb, text[i+1:], r)
		if err != nil {
			return "", err
		}
		text = rest
	}
}

// expandLabel renders the reference at the start of s, which follows a
// '%', and returns the remaining text.
func expandLabel(sb *strings.Builder, s string, r *Resolver) (string, error) {
	if s == "" || isSpaceByte(s[0]) {
		return "", ErrMissingLabel
	}

	pad := padNone
	switch s[0] {
	case '0':
		pad = padZero
		s = s[1:]
	case '?':
		pad = padQMark
		s = s[1:]
	}

	n := 0
	for n < len(s) && isLabelChar(s[n]) {
		n++
	}
	if n > maxLabelName {
		return "", fmt.Errorf("%w: %s...", ErrLabelNameTooLong, s[:16])
	}
	if n == 0 {
		return "", ErrMissingLabel
	}
	name := s[:n]
	s = s[n:]

	addr, origin := r.Resolve(name)
	switch origin {
	case NotFound:
		return "", fmt.Errorf("%w: %s", ErrUnknownLabel, name)
	case Local:
		if pad != padNone {
			fmt.Fprintf(sb, "%016x", addr)
		} else {
			fmt.Fprintf(sb, "%x", addr)
		}
		return s, nil
	}

	qmarks := 0
	if strings.HasPrefix(s, ".") {
		m, rest, ok, overflow := scanUint(s[1:])
		if !ok || (rest != "" && !isSpaceByte(rest[0]) && !isPunctByte(rest[0])) {
			return "", fmt.Errorf("%w: mask of %s", ErrIntegerParse, name)
		}
		if overflow || m > 8 {
			return "", fmt.Errorf("%w: mask of %s exceeds 8 bytes", ErrIntegerTooBig, name)
		}
		if m < 8 {
			addr &= (uint64(1) << (m * 8)) - 1
		}
		qmarks = 8 - int(m)
		s = rest
	}

	switch pad {
	case padQMark:
		sb.WriteString("0x")
		for i := 0; i < qmarks; i++ {
			sb.WriteString("??")
		}
		for i := qmarks; i < 8; i++ {
			fmt.Fprintf(sb, "%02x", byte(addr>>((7-i)*8)))
		}
	case padZero:
		fmt.Fprintf(sb, "0x%016x", addr)
	default:
		fmt.Fprintf(sb, "0x%x", addr)
	}

	return s, nil
}

// expFile is an .exp output being written.
type expFile struct {
	name   string
	f      *os.File
	w      *bufio.Writer
	stdout io.Writer
}

func createExp(fileroot, extra string, stdout io.Writer) (*expFile, error) {
	name := expFilename(fileroot, extra)
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOpen, err)
	}
	return &expFile{name: name, f: f, w: bufio.NewWriter(f), stdout: stdout}, nil
}

func (e *expFile) writeLine(line string) error {
	if _, err := e.w.WriteString(line); err != nil {
		return fmt.Errorf("%w: %v", ErrFileWrite, err)
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: %v", ErrFileWrite, err)
	}
	return nil
}

// finish flushes and closes the file and echoes its name.
func (e *expFile) finish() error {
	err := e.w.Flush()
	if cerr := e.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(e.name)
		return fmt.Errorf("%s could not be created: %w: %v", e.name, ErrFileWrite, err)
	}
	fmt.Fprintln(e.stdout, e.name)
	return nil
}

// fail discards the file.
func (e *expFile) fail(err error) error {
	e.f.Close()
	os.Remove(e.name)
	return fmt.Errorf("%s could not be created: %w", e.name, err)
}

// genExpFiles writes the expected output that follows the sentinel. Each
// further sentinel starts a new file named after its payload.
func (s *session) genExpFiles(extra string) error {
	exp, err := createExp(s.fileroot, extra, s.stdout)
	if err != nil {
		return s.src.Errorf(err, "%s", expFilename(s.fileroot, extra))
	}

	for {
		line, err := s.src.NextLine()
		if errors.Is(err, io.EOF) {
			return exp.finish()
		}
		if err != nil {
			return exp.fail(err)
		}

		d, err := s.src.Directive()
		if err != nil && !errors.Is(err, ptt.ErrNoDirective) {
			return exp.fail(s.src.Errorf(err, "invalid syntax"))
		}
		if err == nil && isSentinel(d) {
			if err := exp.finish(); err != nil {
				return err
			}
			exp, err = createExp(s.fileroot, d.Payload, s.stdout)
			if err != nil {
				return s.src.Errorf(err, "%s", expFilename(s.fileroot, d.Payload))
			}
			continue
		}

		text, ok := expText(line)
		if !ok {
			continue
		}
		out, err := expandLine(text, s.resolver)
		if err != nil {
			return exp.fail(s.src.Errorf(err, ""))
		}
		if err := exp.writeLine(out); err != nil {
			return exp.fail(err)
		}
	}
}

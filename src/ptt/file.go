// Package ptt reads pt test scripts: assembly source interleaved with
// "; @pt name(payload)" directive comments.
package ptt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoDirective       = errors.New("no pt directive")
	ErrMissingOpenParen  = errors.New("missing opening parenthesis")
	ErrMissingCloseParen = errors.New("missing closing parenthesis")
)

const marker = "@pt "

// Directive is a single parsed pt directive.
type Directive struct {
	Name    string
	Payload string
}

// Pos is a position in a script.
type Pos struct {
	Filename string
	Line     int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// PosError is an error tied to a script position.
type PosError struct {
	Pos Pos
	Msg string
	Err error
}

func (e *PosError) Error() string {
	switch {
	case e.Msg == "":
		return fmt.Sprintf("%s: error: %v", e.Pos, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: error: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: error: %s: %v", e.Pos, e.Msg, e.Err)
}

func (e *PosError) Unwrap() error { return e.Err }

// File is a script held in memory with a cursor on the current line.
type File struct {
	name  string
	lines []string
	// index of the current line, -1 before the first NextLine
	cur int
}

// Open reads the script at filename.
func Open(filename string) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Read(filename, file)
}

// Read reads a script from r; name is used in positions.
func Read(name string, r io.Reader) (*File, error) {
	f := &File{name: name, cur: -1}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		f.lines = append(f.lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return f, nil
}

// Fileroot returns filename with its extension removed.
func Fileroot(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// Name returns the script's filename.
func (f *File) Name() string { return f.name }

// Pos returns the position of the current line.
func (f *File) Pos() Pos {
	return Pos{Filename: f.name, Line: f.cur + 1}
}

// Errorf wraps err with the current position and a message.
func (f *File) Errorf(err error, format string, args ...interface{}) error {
	return &PosError{Pos: f.Pos(), Msg: fmt.Sprintf(format, args...), Err: err}
}

// NextLine advances to the next physical line and returns it. It returns
// io.EOF once every line has been consumed.
func (f *File) NextLine() (string, error) {
	if f.cur+1 >= len(f.lines) {
		f.cur = len(f.lines)
		return "", io.EOF
	}
	f.cur++
	return f.lines[f.cur], nil
}

// Directive parses the directive on the current line.
func (f *File) Directive() (*Directive, error) {
	if f.cur < 0 || f.cur >= len(f.lines) {
		return nil, ErrNoDirective
	}
	return ParseDirective(f.lines[f.cur])
}

// NextDirective advances to the next line carrying a directive and
// parses it. Malformed directives are returned as positioned errors.
// ErrNoDirective is returned when the script is exhausted.
func (f *File) NextDirective() (*Directive, error) {
	for {
		if _, err := f.NextLine(); err != nil {
			return nil, ErrNoDirective
		}
		d, err := f.Directive()
		if errors.Is(err, ErrNoDirective) {
			continue
		}
		if err != nil {
			return nil, &PosError{Pos: f.Pos(), Msg: "invalid syntax", Err: err}
		}
		return d, nil
	}
}

// ParseDirective extracts a directive from a single source line of the
// form "... ; @pt name(payload)".
func ParseDirective(line string) (*Directive, error) {
	semi := strings.IndexByte(line, ';')
	if semi < 0 {
		return nil, ErrNoDirective
	}
	comment := line[semi+1:]

	at := strings.Index(comment, marker)
	if at < 0 {
		return nil, ErrNoDirective
	}
	rest := comment[at+len(marker):]

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil, ErrMissingOpenParen
	}
	name := rest[:open]
	rest = rest[open+1:]

	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return nil, ErrMissingCloseParen
	}

	return &Directive{
		Name:    strings.TrimSpace(name),
		Payload: strings.TrimSpace(rest[:end]),
	}, nil
}

// Package yasm provides the assembly symbol table for a pt test script by
// assembling it with yasm and reading back label addresses from the
// nasm-style listing.
package yasm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/japanoise/numparse"
)

// Table maps assembly labels to absolute addresses.
type Table map[string]uint64

// Lookup returns the address of name.
func (t Table) Lookup(name string) (uint64, bool) {
	addr, ok := t[name]
	return addr, ok
}

type listingState struct {
	table   Table
	org     uint64
	next    uint64
	parent  string
	pending []string
	lineNo  int
}

// ParseListing reads a nasm-style listing and collects the labels it
// defines. Each listing line has the form
//
//	<lineno> [<offset> <bytes>] <source>
//
// where offset is relative to the origin set by the last org statement.
func ParseListing(r io.Reader) (Table, error) {
	st := &listingState{table: make(Table)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		st.lineNo++
		if err := st.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// labels at the very end of the source point past the last byte.
	for _, name := range st.pending {
		if err := st.define(name, st.org+st.next); err != nil {
			return nil, err
		}
	}

	return st.table, nil
}

func (st *listingState) parseLine(line string) error {
	rest := strings.TrimLeft(line, " \t")
	i := strings.IndexFunc(rest, isBlank)
	if i < 0 {
		return nil
	}
	if _, err := strconv.Atoi(rest[:i]); err != nil {
		// headers and macro expansion markers
		return nil
	}
	rest = strings.TrimLeft(rest[i:], " \t")

	offset, size, hasAddr, source := splitData(rest)
	if hasAddr {
		st.next = offset + size
		for _, name := range st.pending {
			if err := st.define(name, st.org+offset); err != nil {
				return err
			}
		}
		st.pending = st.pending[:0]
	}

	if c := strings.IndexByte(source, ';'); c >= 0 {
		source = source[:c]
	}
	fields := strings.Fields(strings.Trim(strings.TrimSpace(source), "[]"))
	if len(fields) == 0 {
		return nil
	}

	if strings.EqualFold(fields[0], "org") && len(fields) > 1 {
		org, err := parseNumber(fields[1])
		if err != nil {
			return fmt.Errorf("listing line %d: bad org %q: %w", st.lineNo, fields[1], err)
		}
		st.org = org
		st.next = 0
		return nil
	}

	if !strings.HasSuffix(fields[0], ":") {
		return nil
	}
	name := strings.TrimSuffix(fields[0], ":")
	if strings.HasPrefix(name, ".") {
		name = st.parent + name
	} else {
		st.parent = name
	}

	if hasAddr {
		return st.define(name, st.org+offset)
	}
	st.pending = append(st.pending, name)
	return nil
}

func (st *listingState) define(name string, addr uint64) error {
	if _, ok := st.table[name]; ok {
		return fmt.Errorf("listing line %d: label %s defined twice", st.lineNo, name)
	}
	st.table[name] = addr
	return nil
}

// splitData separates the offset and code bytes columns from the source
// text. size is the number of code bytes on the line.
func splitData(s string) (offset, size uint64, ok bool, source string) {
	tok, rest := nextField(s)
	if len(tok) != 8 || !isHex(tok) {
		return 0, 0, false, s
	}
	offset, err := strconv.ParseUint(tok, 16, 64)
	if err != nil {
		return 0, 0, false, s
	}

	data, after := nextField(rest)
	switch {
	case data == "<res":
		n, after := nextField(after)
		size, _ = strconv.ParseUint(strings.TrimSuffix(n, ">"), 16, 64)
		return offset, size, true, after
	case isCode(data):
		var digits uint64
		for _, c := range data {
			if isHexDigit(c) {
				digits++
			}
		}
		return offset, digits / 2, true, after
	}
	return offset, 0, true, rest
}

func nextField(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexFunc(s, isBlank)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func isBlank(r rune) bool { return r == ' ' || r == '\t' }

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isHex(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !isHexDigit(r) }) < 0
}

// isCode reports whether s looks like a listing code column: hex digits
// with relocation brackets.
func isCode(s string) bool {
	if s == "" || strings.HasSuffix(s, ":") {
		return false
	}
	for _, c := range s {
		switch {
		case isHexDigit(c), c == '(', c == ')', c == '[', c == ']', c == '-':
		default:
			return false
		}
	}
	return true
}

func parseNumber(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v, nil
	}
	v, err := numparse.UNumParse(s)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

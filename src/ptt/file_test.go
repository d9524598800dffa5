package ptt

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line    string
		want    *Directive
		wantErr error
	}{
		{"; @pt psb()", &Directive{Name: "psb"}, nil},
		{"nop ; @pt p1: tip(3: %l0)", &Directive{Name: "p1: tip", Payload: "3: %l0"}, nil},
		{";   @pt   .exp( alt )  ", &Directive{Name: ".exp", Payload: "alt"}, nil},
		{"; @pt tnt(t.n) # trailing", &Directive{Name: "tnt", Payload: "t.n"}, nil},
		{"nop", nil, ErrNoDirective},
		{"; just a comment", nil, ErrNoDirective},
		{"@pt psb() ; no marker after semicolon", nil, ErrNoDirective},
		{"; @pt psb", nil, ErrMissingOpenParen},
		{"; @pt psb(", nil, ErrMissingCloseParen},
	}

	for _, tt := range tests {
		got, err := ParseDirective(tt.line)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.line)
			continue
		}
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestFileIteration(t *testing.T) {
	src := strings.Join([]string{
		"org 0x1000",
		"; @pt psb()",
		"l0: nop",
		"; @pt p1: fup(3: %l0)",
		"; @pt .exp()",
		";%0p1 fup",
	}, "\n")

	f, err := Read("test.ptt", strings.NewReader(src))
	require.NoError(t, err)

	d, err := f.NextDirective()
	require.NoError(t, err)
	assert.Equal(t, "psb", d.Name)
	assert.Equal(t, Pos{Filename: "test.ptt", Line: 2}, f.Pos())

	d, err = f.NextDirective()
	require.NoError(t, err)
	assert.Equal(t, "p1: fup", d.Name)
	assert.Equal(t, "3: %l0", d.Payload)

	d, err = f.NextDirective()
	require.NoError(t, err)
	assert.Equal(t, ".exp", d.Name)

	line, err := f.NextLine()
	require.NoError(t, err)
	assert.Equal(t, ";%0p1 fup", line)

	_, err = f.NextLine()
	assert.ErrorIs(t, err, io.EOF)

	_, err = f.NextDirective()
	assert.ErrorIs(t, err, ErrNoDirective)
}

func TestNextDirectiveMalformed(t *testing.T) {
	f, err := Read("bad.ptt", strings.NewReader("nop\n; @pt psb(\n"))
	require.NoError(t, err)

	_, err = f.NextDirective()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCloseParen)

	var perr *PosError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Pos.Line)
	assert.Equal(t, "bad.ptt:2: error: invalid syntax: missing closing parenthesis", err.Error())
}

func TestOpenAndFileroot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.ptt")
	require.NoError(t, os.WriteFile(path, []byte("; @pt pad()\n"), 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Name())
	assert.Equal(t, filepath.Join(dir, "case"), Fileroot(path))

	_, err = Open(filepath.Join(dir, "missing.ptt"))
	assert.Error(t, err)
}

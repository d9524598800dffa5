package yasm

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `     1                                  org 0x100000
     2                                  bits 64
     3
     4                                  ; @pt p1: psb()
     5 00000000 90                      l0: nop
     6                                  l1:
     7                                  ; @pt fup(3: %l1)
     8 00000001 EB00                    jmp l2
     9                                  .loop:
    10 00000003 E8(00000000)            call l0
    11                                  l2: ; end of code
    12 00000008 <res 00000010>          buf: resb 16
    13                                  tail:
`

func TestParseListing(t *testing.T) {
	table, err := ParseListing(strings.NewReader(listing))
	require.NoError(t, err)

	want := Table{
		"l0":      0x100000,
		"l1":      0x100001,
		"l1.loop": 0x100003,
		"l2":      0x100008,
		"buf":     0x100008,
		"tail":    0x100018,
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("ParseListing mismatch (-want +got):\n%s", diff)
	}

	addr, ok := table.Lookup("l1")
	assert.True(t, ok)
	assert.Equal(t, uint64(0x100001), addr)

	_, ok = table.Lookup("psb")
	assert.False(t, ok)
}

func TestParseListingDuplicate(t *testing.T) {
	src := "     1 00000000 90      a: nop\n     2 00000001 90      a: nop\n"
	_, err := ParseListing(strings.NewReader(src))
	assert.ErrorContains(t, err, "label a defined twice")
}

func TestParseListingOrg(t *testing.T) {
	src := "     1                  [org 0x2000]\n     2 00000004 90      x: nop\n     3                  org 0x10\n     4 00000000 90      y: nop\n"
	table, err := ParseListing(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, Table{"x": 0x2004, "y": 0x10}, table)
}

func TestAssemble(t *testing.T) {
	if _, err := exec.LookPath(DefaultPath); err != nil {
		t.Skip("yasm not installed")
	}
	dir := t.TempDir()
	input := filepath.Join(dir, "case.ptt")
	writeFile(t, input, "org 0x1000\nbits 64\nl0: nop\nl1: nop\n")

	table, err := Assemble(context.Background(), Options{Input: input})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), table["l0"])
	assert.Equal(t, uint64(0x1001), table["l1"])
	assert.NoFileExists(t, filepath.Join(dir, "case.lst"))
}

// fakeYasm writes a shell script that stands in for yasm: it creates the
// -o and -l outputs, the latter with a single label.
func fakeYasm(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(dir, "fake-yasm")
	writeFile(t, path, "#!/bin/sh\n: > \"$5\"\nprintf '     1 00000000 90      start: nop\\n' > \"$9\"\n")
	require.NoError(t, os.Chmod(path, 0o755))
	return path
}

func TestAssembleDefaultFileroot(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "case.s")
	writeFile(t, input, "start: nop\n")

	table, err := Assemble(context.Background(), Options{
		Path:  fakeYasm(t, dir),
		Input: input,
		Keep:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, Table{"start": 0}, table)
	assert.FileExists(t, filepath.Join(dir, "case.lst"))
	assert.FileExists(t, filepath.Join(dir, "case.bin"))
}

func TestAssembleMissingBinary(t *testing.T) {
	_, err := Assemble(context.Background(), Options{
		Path:  filepath.Join(t.TempDir(), "no-such-yasm"),
		Input: "x.ptt",
	})
	assert.Error(t, err)
}

package yasm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/japanoise/pttc/src/ptt"
)

// DefaultPath is the assembler binary looked up in $PATH.
const DefaultPath = "yasm"

// Options controls how a script is assembled.
type Options struct {
	// Path of the yasm binary; DefaultPath if empty.
	Path string
	// Input is the script to assemble.
	Input string
	// Fileroot names the .bin and .lst outputs.
	Fileroot string
	// Keep leaves the .bin and .lst files in place.
	Keep bool
}

// Assemble runs yasm on opts.Input and returns the labels from its
// listing.
func Assemble(ctx context.Context, opts Options) (Table, error) {
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	root := opts.Fileroot
	if root == "" {
		root = ptt.Fileroot(opts.Input)
	}
	bin := root + ".bin"
	lst := root + ".lst"

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, opts.Input, "-f", "bin", "-o", bin, "-L", "nasm", "-l", lst)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if !opts.Keep {
		defer os.Remove(bin)
		defer os.Remove(lst)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w\n%s", path, opts.Input, err, strings.TrimSpace(out.String()))
	}

	file, err := os.Open(lst)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	table, err := ParseListing(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", lst, err)
	}
	return table, nil
}

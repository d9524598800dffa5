// Package pttc compiles pt test scripts into a .pt packet stream and the
// .exp files holding the expected decoder output.
package pttc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/japanoise/pttc/src/pt"
	"github.com/japanoise/pttc/src/ptt"
)

const ptSuffix = ".pt"

// EncodeFunc encodes a packet into buf and returns the number of bytes
// written.
type EncodeFunc func(buf []byte, pkt *pt.Packet) (int, error)

// Source is a script positioned on its current line.
type Source interface {
	NextDirective() (*ptt.Directive, error)
	NextLine() (string, error)
	Directive() (*ptt.Directive, error)
	Errorf(err error, format string, args ...interface{}) error
}

// Config controls a compile. The zero value is usable.
type Config struct {
	// PT holds the staging buffer packets are encoded into.
	PT *pt.Config
	// Encode defaults to pt.Encode.
	Encode EncodeFunc
	// Symbols are the assembly labels of the script.
	Symbols SymbolTable
	// Stdout receives the name of every .exp file written.
	Stdout io.Writer
	// DumpLabels, if set, receives the pt label table after the compile.
	DumpLabels io.Writer
}

type session struct {
	src      Source
	fileroot string

	labels   *Labels
	resolver *Resolver
	// bytes written to the .pt stream so far
	offset uint64

	buf    []byte
	encode EncodeFunc
	pt     *bufio.Writer
	stdout io.Writer
}

func newSession(src Source, fileroot string, cfg *Config) *session {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &session{
		src:      src,
		fileroot: fileroot,
		encode:   cfg.Encode,
		stdout:   cfg.Stdout,
	}
	if cfg.PT != nil && len(cfg.PT.Buffer) > 0 {
		s.buf = cfg.PT.Buffer
	} else {
		s.buf = pt.NewConfig().Buffer
	}
	if s.encode == nil {
		s.encode = pt.Encode
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	s.labels = NewLabels(cfg.Symbols)
	s.resolver = &Resolver{Asm: s.labels.asm, Labels: s.labels}
	return s
}

// Compile compiles the script at filename into <fileroot>.pt and its
// .exp files.
func Compile(filename string, cfg *Config) error {
	src, err := ptt.Open(filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileOpen, err)
	}
	return CompileSource(src, ptt.Fileroot(filename), cfg)
}

// CompileSource compiles an already opened script. Output files are
// named after fileroot.
func CompileSource(src Source, fileroot string, cfg *Config) error {
	s := newSession(src, fileroot, cfg)

	name := fileroot + ptSuffix
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("%w: open %s failed: %v", ErrFileOpen, name, err)
	}
	s.pt = bufio.NewWriter(f)

	err = s.run()

	if ferr := s.pt.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("%w: write %s failed: %v", ErrFileWrite, name, ferr)
	}
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: write %s failed: %v", ErrFileWrite, name, cerr)
	}

	if cfg != nil && cfg.DumpLabels != nil {
		pp.Fprintln(cfg.DumpLabels, s.labels.Entries())
	}

	return err
}

// run encodes directives until the script or the directives run out. A
// sentinel hands over to .exp generation.
func (s *session) run() error {
	for {
		d, err := s.src.NextDirective()
		if errors.Is(err, ptt.ErrNoDirective) {
			return nil
		}
		if err != nil {
			return err
		}

		n, err := s.process(d)
		if errors.Is(err, errStopProcess) {
			return s.genExpFiles(d.Payload)
		}
		if err != nil {
			return err
		}

		if _, err := s.pt.Write(s.buf[:n]); err != nil {
			return fmt.Errorf("%w: write %s%s failed: %v", ErrFileWrite, s.fileroot, ptSuffix, err)
		}
	}
}

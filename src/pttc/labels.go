package pttc

import (
	"fmt"
	"sort"
)

// SymbolTable resolves labels defined by the assembly part of a script.
type SymbolTable interface {
	Lookup(name string) (uint64, bool)
}

type noSymbols struct{}

func (noSymbols) Lookup(string) (uint64, bool) { return 0, false }

// Label is a pt directive label bound to an offset in the .pt stream.
type Label struct {
	Name string
	Addr uint64
}

// Labels is the table of pt directive labels. Names are unique within
// the table and must not shadow an assembly label.
type Labels struct {
	asm    SymbolTable
	labels map[string]uint64
}

// NewLabels returns an empty table that rejects names known to asm.
func NewLabels(asm SymbolTable) *Labels {
	if asm == nil {
		asm = noSymbols{}
	}
	return &Labels{asm: asm, labels: make(map[string]uint64)}
}

// Check reports whether name may still be inserted.
func (l *Labels) Check(name string) error {
	if _, ok := l.asm.Lookup(name); ok {
		return fmt.Errorf("%w: %s is an assembly label", ErrDuplicateLabel, name)
	}
	if _, ok := l.labels[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLabel, name)
	}
	return nil
}

// Insert binds name to addr.
func (l *Labels) Insert(name string, addr uint64) error {
	if err := l.Check(name); err != nil {
		return err
	}
	l.labels[name] = addr
	return nil
}

// bind binds name unless it is already bound. It skips the uniqueness
// check; the first binding wins.
func (l *Labels) bind(name string, addr uint64) {
	if _, ok := l.labels[name]; !ok {
		l.labels[name] = addr
	}
}

// Lookup returns the address bound to name.
func (l *Labels) Lookup(name string) (uint64, error) {
	addr, ok := l.labels[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLabel, name)
	}
	return addr, nil
}

// Len returns the number of labels.
func (l *Labels) Len() int { return len(l.labels) }

// Entries returns all labels ordered by address, then name.
func (l *Labels) Entries() []Label {
	out := make([]Label, 0, len(l.labels))
	for name, addr := range l.labels {
		out = append(out, Label{Name: name, Addr: addr})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Addr != out[j].Addr {
			return out[i].Addr < out[j].Addr
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Origin tells which table resolved a label.
type Origin uint8

const (
	NotFound Origin = iota
	External
	Local
)

func (o Origin) String() string {
	switch o {
	case External:
		return "external"
	case Local:
		return "local"
	}
	return "not found"
}

// Resolver looks names up in the assembly symbol table first and falls
// back to the pt directive labels.
type Resolver struct {
	Asm    SymbolTable
	Labels *Labels
}

// Resolve returns the address of name and where it was found.
func (r *Resolver) Resolve(name string) (uint64, Origin) {
	if r.Asm != nil {
		if addr, ok := r.Asm.Lookup(name); ok {
			return addr, External
		}
	}
	if r.Labels != nil {
		if addr, ok := r.Labels.labels[name]; ok {
			return addr, Local
		}
	}
	return 0, NotFound
}

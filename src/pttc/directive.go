package pttc

import (
	"fmt"
	"strings"

	"github.com/japanoise/pttc/src/pt"
	"github.com/japanoise/pttc/src/ptt"
)

const (
	// sentinel ends the packet directives and starts .exp generation.
	sentinel = ".exp"
	// eosLabel is bound to the end of the .pt stream by the sentinel.
	eosLabel = "eos"
)

// directiveFunc parses a payload into the packet to encode.
type directiveFunc func(s *session, payload string) (*pt.Packet, error)

var directives = map[string]directiveFunc{
	"psb":       emptyPacket(pt.TypePSB),
	"psbend":    emptyPacket(pt.TypePSBEnd),
	"pad":       emptyPacket(pt.TypePad),
	"ovf":       emptyPacket(pt.TypeOVF),
	"tnt":       tntPacket(pt.TypeTNT8),
	"tnt64":     tntPacket(pt.TypeTNT64),
	"tip":       ipPacket(pt.TypeTIP),
	"tip.pge":   ipPacket(pt.TypeTIPPGE),
	"tip.pgd":   ipPacket(pt.TypeTIPPGD),
	"fup":       ipPacket(pt.TypeFUP),
	"mode.exec": modeExecPacket,
	"mode.tsx":  modeTSXPacket,
	"pip":       pipPacket,
	"tsc":       tscPacket,
	"cbr":       cbrPacket,
}

func emptyPacket(typ pt.Type) directiveFunc {
	return func(_ *session, payload string) (*pt.Packet, error) {
		if err := parseEmpty(payload); err != nil {
			return nil, err
		}
		return &pt.Packet{Type: typ}, nil
	}
}

func tntPacket(typ pt.Type) directiveFunc {
	return func(_ *session, payload string) (*pt.Packet, error) {
		tnt, size, err := parseTNT(payload)
		if err != nil {
			return nil, err
		}
		return &pt.Packet{Type: typ, TNT: tnt, TNTSize: size}, nil
	}
}

func ipPacket(typ pt.Type) directiveFunc {
	return func(s *session, payload string) (*pt.Packet, error) {
		ip, ipc, err := parseIP(payload, s.resolver.Asm)
		if err != nil {
			return nil, err
		}
		return &pt.Packet{Type: typ, IP: ip, IPC: ipc}, nil
	}
}

func modeExecPacket(_ *session, payload string) (*pt.Packet, error) {
	em, err := parseExecMode(payload)
	if err != nil {
		return nil, err
	}
	return &pt.Packet{Type: pt.TypeModeExec, Exec: em}, nil
}

func modeTSXPacket(_ *session, payload string) (*pt.Packet, error) {
	tm, err := parseTSX(payload)
	if err != nil {
		return nil, err
	}
	return &pt.Packet{Type: pt.TypeModeTSX, TSX: tm}, nil
}

func pipPacket(_ *session, payload string) (*pt.Packet, error) {
	cr3, err := parseUint64(payload)
	if err != nil {
		return nil, err
	}
	return &pt.Packet{Type: pt.TypePIP, CR3: cr3}, nil
}

func tscPacket(_ *session, payload string) (*pt.Packet, error) {
	tsc, err := parseUint64(payload)
	if err != nil {
		return nil, err
	}
	return &pt.Packet{Type: pt.TypeTSC, TSC: tsc}, nil
}

func cbrPacket(_ *session, payload string) (*pt.Packet, error) {
	cbr, err := parseUint8(payload)
	if err != nil {
		return nil, err
	}
	return &pt.Packet{Type: pt.TypeCBR, CBR: cbr}, nil
}

// splitLabel splits "label: directive" into its parts.
func splitLabel(name string) (directive, label string, ok bool) {
	i := strings.IndexByte(name, ':')
	if i < 0 {
		return name, "", false
	}
	return strings.TrimSpace(name[i+1:]), strings.TrimSpace(name[:i]), true
}

func isSentinel(d *ptt.Directive) bool {
	name, _, _ := splitLabel(d.Name)
	return name == sentinel
}

// process encodes a single directive into the session's staging buffer
// and returns the number of bytes to emit. It returns errStopProcess for
// the sentinel.
func (s *session) process(d *ptt.Directive) (int, error) {
	name, label, hasLabel := splitLabel(d.Name)
	if hasLabel {
		if label == "" {
			return 0, s.src.Errorf(ErrMissingLabel, "label lookup")
		}
		if err := s.labels.Check(label); err != nil {
			return 0, s.src.Errorf(err, "label lookup")
		}
	}

	if name == "" {
		return 0, s.src.Errorf(ErrMissingDirective, "invalid syntax")
	}

	if name == sentinel {
		s.labels.bind(eosLabel, s.offset)
		if hasLabel && label != eosLabel {
			if err := s.labels.Insert(label, s.offset); err != nil {
				return 0, s.src.Errorf(err, "append label")
			}
		}
		return 0, errStopProcess
	}

	parse, ok := directives[name]
	if !ok {
		return 0, s.src.Errorf(fmt.Errorf("%w: %s", ErrUnknownDirective, name), "invalid syntax")
	}

	pkt, err := parse(s, d.Payload)
	if err != nil {
		return 0, s.src.Errorf(err, "%s: parsing failed", name)
	}

	n, err := s.encode(s.buf, pkt)
	if err != nil {
		return 0, s.src.Errorf(&EncoderError{Directive: name, Err: err}, "")
	}

	if hasLabel {
		if err := s.labels.Insert(label, s.offset); err != nil {
			return 0, s.src.Errorf(err, "append label")
		}
	}
	s.offset += uint64(n)

	return n, nil
}

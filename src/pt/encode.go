package pt

import (
	"encoding/binary"
	"fmt"
)

// MaxPacketSize is the size of the largest packet Encode produces (PSB).
const MaxPacketSize = 16

const (
	opcPad    = 0x00
	opcExt    = 0x02
	opcTIPPGD = 0x01
	opcTIP    = 0x0d
	opcTIPPGE = 0x11
	opcTSC    = 0x19
	opcFUP    = 0x1d
	opcMode   = 0x99

	extPSB    = 0x82
	extPSBEnd = 0x23
	extOVF    = 0xf3
	extTNT64  = 0xa3
	extPIP    = 0x43
	extCBR    = 0x03

	modeExec = 0
	modeTSX  = 1

	psbRepeat = 8

	tnt8MaxSize  = 6
	tnt64MaxSize = 47

	pipShr = 5
	pipShl = 1
)

// Error is an encoder status.
type Error uint8

const (
	ErrNoSpace Error = iota + 1
	ErrBadPacket
	ErrBadOpcode
)

func (e Error) Error() string {
	switch e {
	case ErrNoSpace:
		return "no space"
	case ErrBadPacket:
		return "bad packet"
	case ErrBadOpcode:
		return "bad opcode"
	}
	return fmt.Sprintf("unknown error %d", uint8(e))
}

// Config carries the staging buffer packets are encoded into.
type Config struct {
	Buffer []byte
}

// NewConfig returns a Config with a buffer large enough for any packet.
func NewConfig() *Config {
	return &Config{Buffer: make([]byte, MaxPacketSize)}
}

// Encode writes pkt into buf and returns the number of bytes written.
// It keeps no state between calls.
func Encode(buf []byte, pkt *Packet) (int, error) {
	if pkt == nil {
		return 0, ErrBadPacket
	}

	switch pkt.Type {
	case TypePad:
		return put(buf, opcPad)
	case TypePSB:
		if len(buf) < 2*psbRepeat {
			return 0, ErrNoSpace
		}
		for i := 0; i < psbRepeat; i++ {
			buf[2*i] = opcExt
			buf[2*i+1] = extPSB
		}
		return 2 * psbRepeat, nil
	case TypePSBEnd:
		return put(buf, opcExt, extPSBEnd)
	case TypeOVF:
		return put(buf, opcExt, extOVF)
	case TypeTNT8:
		if pkt.TNTSize < 0 || pkt.TNTSize > tnt8MaxSize {
			return 0, ErrBadPacket
		}
		stop := uint64(1) << pkt.TNTSize
		bits := (stop | (pkt.TNT & (stop - 1))) << 1
		return put(buf, byte(bits))
	case TypeTNT64:
		if pkt.TNTSize < 0 || pkt.TNTSize > tnt64MaxSize {
			return 0, ErrBadPacket
		}
		stop := uint64(1) << pkt.TNTSize
		return putPayload(buf, stop|(pkt.TNT&(stop-1)), 6, opcExt, extTNT64)
	case TypeTIP:
		return encodeIP(buf, opcTIP, pkt)
	case TypeTIPPGE:
		return encodeIP(buf, opcTIPPGE, pkt)
	case TypeTIPPGD:
		return encodeIP(buf, opcTIPPGD, pkt)
	case TypeFUP:
		return encodeIP(buf, opcFUP, pkt)
	case TypeModeExec:
		var bits byte
		switch pkt.Exec {
		case ExecMode16:
		case ExecMode64:
			bits = 1 << 0
		case ExecMode32:
			bits = 1 << 1
		default:
			return 0, ErrBadPacket
		}
		return put(buf, opcMode, modeExec<<5|bits)
	case TypeModeTSX:
		if pkt.TSX&^(TSXBegin|TSXAbort) != 0 {
			return 0, ErrBadPacket
		}
		return put(buf, opcMode, modeTSX<<5|pkt.TSX)
	case TypePIP:
		return putPayload(buf, (pkt.CR3>>pipShr)<<pipShl, 6, opcExt, extPIP)
	case TypeTSC:
		return putPayload(buf, pkt.TSC, 7, opcTSC)
	case TypeCBR:
		return put(buf, opcExt, extCBR, pkt.CBR, 0)
	}

	return 0, ErrBadOpcode
}

func encodeIP(buf []byte, opc byte, pkt *Packet) (int, error) {
	size, ok := pkt.IPC.Size()
	if !ok {
		return 0, ErrBadPacket
	}
	return putPayload(buf, pkt.IP, size, opc|byte(pkt.IPC)<<5)
}

func put(buf []byte, b ...byte) (int, error) {
	if len(buf) < len(b) {
		return 0, ErrNoSpace
	}
	return copy(buf, b), nil
}

// putPayload writes the header bytes followed by the low size bytes of
// payload in little-endian order.
func putPayload(buf []byte, payload uint64, size int, header ...byte) (int, error) {
	n := len(header) + size
	if len(buf) < n {
		return 0, ErrNoSpace
	}
	copy(buf, header)

	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], payload)
	copy(buf[len(header):n], tmp[:size])

	return n, nil
}

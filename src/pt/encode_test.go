package pt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, pkt *Packet) []byte {
	t.Helper()
	buf := NewConfig().Buffer
	n, err := Encode(buf, pkt)
	require.NoError(t, err)
	return buf[:n]
}

func TestEncodeLayouts(t *testing.T) {
	tests := []struct {
		name string
		pkt  Packet
		want []byte
	}{
		{"pad", Packet{Type: TypePad}, []byte{0x00}},
		{"psbend", Packet{Type: TypePSBEnd}, []byte{0x02, 0x23}},
		{"ovf", Packet{Type: TypeOVF}, []byte{0x02, 0xf3}},
		{"tnt8 empty", Packet{Type: TypeTNT8}, []byte{0x02}},
		{"tnt8 tnt", Packet{Type: TypeTNT8, TNT: 0x6, TNTSize: 3}, []byte{0x1c}},
		{"tnt64", Packet{Type: TypeTNT64, TNT: 0x1, TNTSize: 1},
			[]byte{0x02, 0xa3, 0x03, 0, 0, 0, 0, 0}},
		{"tip suppressed", Packet{Type: TypeTIP, IP: 0x1234}, []byte{0x0d}},
		{"tip update16", Packet{Type: TypeTIP, IP: 0x1234, IPC: IPUpdate16},
			[]byte{0x2d, 0x34, 0x12}},
		{"fup update32", Packet{Type: TypeFUP, IP: 0xdeadbeef, IPC: IPUpdate32},
			[]byte{0x5d, 0xef, 0xbe, 0xad, 0xde}},
		{"tip.pge sext48", Packet{Type: TypeTIPPGE, IP: 0xffff800000001000, IPC: IPSext48},
			[]byte{0x71, 0x00, 0x10, 0x00, 0x00, 0x00, 0x80}},
		{"tip.pgd full", Packet{Type: TypeTIPPGD, IP: 0x0102030405060708, IPC: IPFull},
			[]byte{0xc1, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}},
		{"mode.exec 16", Packet{Type: TypeModeExec, Exec: ExecMode16}, []byte{0x99, 0x00}},
		{"mode.exec 64", Packet{Type: TypeModeExec, Exec: ExecMode64}, []byte{0x99, 0x01}},
		{"mode.exec 32", Packet{Type: TypeModeExec, Exec: ExecMode32}, []byte{0x99, 0x02}},
		{"mode.tsx begin", Packet{Type: TypeModeTSX, TSX: TSXBegin}, []byte{0x99, 0x21}},
		{"mode.tsx abort", Packet{Type: TypeModeTSX, TSX: TSXAbort}, []byte{0x99, 0x22}},
		{"mode.tsx commit", Packet{Type: TypeModeTSX, TSX: TSXCommit}, []byte{0x99, 0x20}},
		{"pip", Packet{Type: TypePIP, CR3: 0xcafe0}, []byte{0x02, 0x43, 0xfe, 0xca, 0, 0, 0, 0}},
		{"tsc", Packet{Type: TypeTSC, TSC: 0x0102030405060708},
			[]byte{0x19, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02}},
		{"cbr", Packet{Type: TypeCBR, CBR: 0x24}, []byte{0x02, 0x03, 0x24, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encode(t, &tt.pkt)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Encode(%v) mismatch (-want +got):\n%s", tt.pkt.Type, diff)
			}
		})
	}
}

func TestEncodePSB(t *testing.T) {
	got := encode(t, &Packet{Type: TypePSB})
	require.Len(t, got, MaxPacketSize)
	for i := 0; i < len(got); i += 2 {
		assert.Equal(t, []byte{0x02, 0x82}, got[i:i+2])
	}
}

func TestEncodeErrors(t *testing.T) {
	buf := make([]byte, MaxPacketSize)

	_, err := Encode(buf, &Packet{Type: TypeTNT8, TNTSize: 7})
	assert.ErrorIs(t, err, ErrBadPacket)

	_, err = Encode(buf, &Packet{Type: TypeTNT64, TNTSize: 48})
	assert.ErrorIs(t, err, ErrBadPacket)

	_, err = Encode(buf, &Packet{Type: TypeTIP, IPC: 5})
	assert.ErrorIs(t, err, ErrBadPacket)

	_, err = Encode(buf, &Packet{Type: TypeModeTSX, TSX: 4})
	assert.ErrorIs(t, err, ErrBadPacket)

	_, err = Encode(buf, &Packet{Type: Type(200)})
	assert.ErrorIs(t, err, ErrBadOpcode)

	_, err = Encode(buf[:4], &Packet{Type: TypePSB})
	assert.ErrorIs(t, err, ErrNoSpace)

	_, err = Encode(nil, &Packet{Type: TypePad})
	assert.ErrorIs(t, err, ErrNoSpace)

	assert.Equal(t, "bad packet", ErrBadPacket.Error())
}

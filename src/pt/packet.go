package pt

// Type identifies the kind of a trace packet.
type Type uint8

const (
	TypePad Type = iota
	TypePSB
	TypePSBEnd
	TypeOVF
	TypeTNT8
	TypeTNT64
	TypeTIP
	TypeTIPPGE
	TypeTIPPGD
	TypeFUP
	TypeModeExec
	TypeModeTSX
	TypePIP
	TypeTSC
	TypeCBR
)

var typeNames = [...]string{
	TypePad:      "pad",
	TypePSB:      "psb",
	TypePSBEnd:   "psbend",
	TypeOVF:      "ovf",
	TypeTNT8:     "tnt.8",
	TypeTNT64:    "tnt.64",
	TypeTIP:      "tip",
	TypeTIPPGE:   "tip.pge",
	TypeTIPPGD:   "tip.pgd",
	TypeFUP:      "fup",
	TypeModeExec: "mode.exec",
	TypeModeTSX:  "mode.tsx",
	TypePIP:      "pip",
	TypeTSC:      "tsc",
	TypeCBR:      "cbr",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// IPCompression selects how many bytes of an IP payload are emitted.
type IPCompression uint8

const (
	IPSuppressed IPCompression = 0
	IPUpdate16   IPCompression = 1
	IPUpdate32   IPCompression = 2
	IPSext48     IPCompression = 3
	IPUpdate48   IPCompression = 4
	IPFull       IPCompression = 6
)

// Size returns the number of IP payload bytes for ipc, or false if ipc
// is not a valid compression.
func (ipc IPCompression) Size() (int, bool) {
	switch ipc {
	case IPSuppressed:
		return 0, true
	case IPUpdate16:
		return 2, true
	case IPUpdate32:
		return 4, true
	case IPSext48, IPUpdate48:
		return 6, true
	case IPFull:
		return 8, true
	}
	return 0, false
}

// ExecMode is the payload of a MODE.Exec packet.
type ExecMode uint8

const (
	ExecMode16 ExecMode = iota
	ExecMode64
	ExecMode32
)

// TSX state bits carried by a MODE.TSX packet.
const (
	TSXCommit uint8 = 0
	TSXBegin  uint8 = 1 << 0
	TSXAbort  uint8 = 1 << 1
)

// Packet holds the semantic parameters for a single packet. Only the
// fields relevant to Type are read by Encode.
type Packet struct {
	Type Type

	IP  uint64
	IPC IPCompression

	TNT     uint64
	TNTSize int

	Exec ExecMode
	TSX  uint8

	CR3 uint64
	TSC uint64
	CBR uint8
}

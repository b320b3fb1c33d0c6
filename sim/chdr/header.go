package chdr

import "fmt"

// PacketType is the 6-bit type tag in the packet header. It selects how the
// payload words are interpreted.
type PacketType uint8

const (
	PktTypeData       PacketType = 0 // raw data, no timestamp
	PktTypeDataWithTS PacketType = 1 // raw data with a 64-bit timestamp
	PktTypeCtrl       PacketType = 4 // control transaction
	PktTypeMgmt       PacketType = 5 // management transaction
	PktTypeStrS       PacketType = 6 // stream status
	PktTypeStrC       PacketType = 7 // stream command
)

func (t PacketType) Valid() bool {
	switch t {
	case PktTypeData, PktTypeDataWithTS, PktTypeCtrl, PktTypeMgmt, PktTypeStrS, PktTypeStrC:
		return true
	default:
		return false
	}
}

// HasTimestamp reports whether packets of this type carry a timestamp word.
func (t PacketType) HasTimestamp() bool {
	return t == PktTypeDataWithTS
}

func (t PacketType) String() string {
	switch t {
	case PktTypeData:
		return "DATA"
	case PktTypeDataWithTS:
		return "DATA_TS"
	case PktTypeCtrl:
		return "CTRL"
	case PktTypeMgmt:
		return "MGMT"
	case PktTypeStrS:
		return "STRS"
	case PktTypeStrC:
		return "STRC"
	default:
		return fmt.Sprintf("[UNKNOWN=%d]", uint8(t))
	}
}

// Header word bit layout, low bit to high bit:
//
//	dst_epid  [15:0]
//	length    [31:16]
//	seq_num   [47:32]
//	num_mdata [52:48]
//	pkt_type  [58:53]
//	eov       [59]
//	eob       [60]
//	vc        [63:61]
const (
	hdrDstEPIDLo  = 0
	hdrLengthLo   = 16
	hdrSeqNumLo   = 32
	hdrNumMDataLo = 48
	hdrPktTypeLo  = 53
	hdrEOVLo      = 59
	hdrEOBLo      = 60
	hdrVCLo       = 61

	hdrNumMDataBits = 5
	hdrPktTypeBits  = 6
	hdrVCBits       = 3

	// MaxNumMData is the largest metadata bus-word count the 5-bit
	// num_mdata field can describe.
	MaxNumMData = (1 << hdrNumMDataBits) - 1
)

// Header is the unpacked form of the 64-bit CHDR header word.
type Header struct {
	VC       uint8 // virtual channel, carried opaquely
	EOB      bool  // end of burst
	EOV      bool  // end of vector
	PktType  PacketType
	NumMData uint8  // metadata length in bus words
	SeqNum   uint16 // modulo-2^16 sequence number
	Length   uint16 // total packet length in bytes
	DstEPID  uint16 // destination endpoint
}

func (h Header) Pack() Word {
	var w Word
	w = mergeField(w, hdrDstEPIDLo, 16, Word(h.DstEPID))
	w = mergeField(w, hdrLengthLo, 16, Word(h.Length))
	w = mergeField(w, hdrSeqNumLo, 16, Word(h.SeqNum))
	w = mergeField(w, hdrNumMDataLo, hdrNumMDataBits, Word(h.NumMData))
	w = mergeField(w, hdrPktTypeLo, hdrPktTypeBits, Word(h.PktType))
	w = mergeField(w, hdrEOVLo, 1, boolBit(h.EOV))
	w = mergeField(w, hdrEOBLo, 1, boolBit(h.EOB))
	w = mergeField(w, hdrVCLo, hdrVCBits, Word(h.VC))
	return w
}

func UnpackHeader(w Word) Header {
	return Header{
		VC:       uint8(field(w, hdrVCLo, hdrVCBits)),
		EOB:      field(w, hdrEOBLo, 1) != 0,
		EOV:      field(w, hdrEOVLo, 1) != 0,
		PktType:  PacketType(field(w, hdrPktTypeLo, hdrPktTypeBits)),
		NumMData: uint8(field(w, hdrNumMDataLo, hdrNumMDataBits)),
		SeqNum:   uint16(field(w, hdrSeqNumLo, 16)),
		Length:   uint16(field(w, hdrLengthLo, 16)),
		DstEPID:  uint16(field(w, hdrDstEPIDLo, 16)),
	}
}

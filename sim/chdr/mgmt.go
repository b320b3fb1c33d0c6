package chdr

import "fmt"

// Width codes used in the management header's chdr_width field.
const (
	WidthCode64  uint8 = 0
	WidthCode128 uint8 = 1
	WidthCode256 uint8 = 2
	WidthCode512 uint8 = 3
)

// WidthToCode translates a bus width into its 3-bit management header code.
func WidthToCode(w Width) (uint8, error) {
	switch w {
	case 64:
		return WidthCode64, nil
	case 128:
		return WidthCode128, nil
	case 256:
		return WidthCode256, nil
	case 512:
		return WidthCode512, nil
	default:
		return 0, fmt.Errorf("%w: no width code for %v bus", ErrConfiguration, w)
	}
}

// MgmtHeader is the first payload word of a MANAGEMENT packet.
//
//	dst_epid   [15:0]
//	num_hops   [25:16]
//	chdr_width [47:45]
//	proto_ver  [63:48]
type MgmtHeader struct {
	DstEPID   uint16
	NumHops   uint16 // 10 bits
	WidthCode uint8  // 3 bits
	ProtoVer  uint16
}

func (h MgmtHeader) pack() Word {
	w := mergeField(0, 0, 16, Word(h.DstEPID))
	w = mergeField(w, 16, 10, Word(h.NumHops))
	w = mergeField(w, 45, 3, Word(h.WidthCode))
	w = mergeField(w, 48, 16, Word(h.ProtoVer))
	return w
}

func unpackMgmtHeader(w Word) MgmtHeader {
	return MgmtHeader{
		DstEPID:   uint16(field(w, 0, 16)),
		NumHops:   uint16(field(w, 16, 10)),
		WidthCode: uint8(field(w, 45, 3)),
		ProtoVer:  uint16(field(w, 48, 16)),
	}
}

// MgmtOp is one step of a routed management transaction.
//
//	ops_pending [7:0]
//	op_code     [15:8]
//	op_payload  [63:16]
type MgmtOp struct {
	OpsPending uint8
	OpCode     uint8
	OpPayload  uint64 // 48 bits
}

func (op MgmtOp) pack() Word {
	w := mergeField(0, 0, 8, Word(op.OpsPending))
	w = mergeField(w, 8, 8, Word(op.OpCode))
	w = mergeField(w, 16, 48, Word(op.OpPayload))
	return w
}

func unpackMgmtOp(w Word) MgmtOp {
	return MgmtOp{
		OpsPending: uint8(field(w, 0, 8)),
		OpCode:     uint8(field(w, 8, 8)),
		OpPayload:  uint64(field(w, 16, 48)),
	}
}

// MgmtPayload is the structured payload of a MANAGEMENT packet: the
// management header word followed by the hop operations in order.
type MgmtPayload struct {
	Header MgmtHeader
	Ops    []MgmtOp
}

// WriteMgmt fills the packet with a management payload. The type tag is
// forced to MGMT.
func (p *Packet) WriteMgmt(hdr Header, mgmt MgmtPayload) error {
	hdr.PktType = PktTypeMgmt
	p.Header = hdr
	p.Timestamp = 0
	p.Metadata = nil
	p.Data = make([]Word, 0, 1+len(mgmt.Ops))
	p.Data = append(p.Data, mgmt.Header.pack())
	for _, op := range mgmt.Ops {
		p.Data = append(p.Data, op.pack())
	}
	return p.UpdateLengths()
}

// ReadMgmt unpacks the management payload. The op count comes from the
// header's declared payload size, so a header promising more ops than the
// packet holds is rejected.
func (p *Packet) ReadMgmt() (MgmtPayload, error) {
	if p.Header.PktType != PktTypeMgmt {
		return MgmtPayload{}, fmt.Errorf("%w: expected %v, packet is %v",
			ErrTypeMismatch, PktTypeMgmt, p.Header.PktType)
	}
	numOps := p.DataBytes()/WordBytes - 1
	if numOps < 0 || numOps+1 > len(p.Data) {
		return MgmtPayload{}, fmt.Errorf("%w: header implies %d management ops but packet has %d payload words",
			ErrInsufficientPayload, numOps, len(p.Data))
	}
	mgmt := MgmtPayload{
		Header: unpackMgmtHeader(p.Data[0]),
	}
	for _, w := range p.Data[1 : 1+numOps] {
		mgmt.Ops = append(mgmt.Ops, unpackMgmtOp(w))
	}
	return mgmt, nil
}

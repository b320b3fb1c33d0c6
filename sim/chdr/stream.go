package chdr

import "fmt"

// StreamStatus is the fixed 256-bit status record carried by STRS packets,
// reporting a receiver's buffer state back to the sender.
type StreamStatus struct {
	SrcEPID        uint16
	Status         uint8  // 4 bits
	CapacityBytes  uint64 // 40 bits
	CapacityPkts   uint32 // 24 bits
	XferCountPkts  uint64 // 40 bits
	XferCountBytes uint64
	BuffInfo       uint16
	ExtendedInfo   uint64 // 48 bits
}

// StreamStatusWords is the record's wire size in 64-bit words.
const StreamStatusWords = 4

func (s StreamStatus) pack() []Word {
	w0 := mergeField(0, 0, 16, Word(s.SrcEPID))
	w0 = mergeField(w0, 16, 4, Word(s.Status))
	w0 = mergeField(w0, 24, 40, Word(s.CapacityBytes))
	w1 := mergeField(0, 0, 24, Word(s.CapacityPkts))
	w1 = mergeField(w1, 24, 40, Word(s.XferCountPkts))
	w2 := Word(s.XferCountBytes)
	w3 := mergeField(0, 0, 16, Word(s.BuffInfo))
	w3 = mergeField(w3, 16, 48, Word(s.ExtendedInfo))
	return []Word{w0, w1, w2, w3}
}

func unpackStreamStatus(ws []Word) StreamStatus {
	return StreamStatus{
		SrcEPID:        uint16(field(ws[0], 0, 16)),
		Status:         uint8(field(ws[0], 16, 4)),
		CapacityBytes:  uint64(field(ws[0], 24, 40)),
		CapacityPkts:   uint32(field(ws[1], 0, 24)),
		XferCountPkts:  uint64(field(ws[1], 24, 40)),
		XferCountBytes: uint64(ws[2]),
		BuffInfo:       uint16(field(ws[3], 0, 16)),
		ExtendedInfo:   uint64(field(ws[3], 16, 48)),
	}
}

// StreamCmd is the fixed 128-bit command record carried by STRC packets,
// used to initialize or adjust a flow-controlled stream.
type StreamCmd struct {
	SrcEPID  uint16
	OpCode   uint8  // 4 bits
	OpData   uint8  // 4 bits
	NumPkts  uint64 // 40 bits
	NumBytes uint64
}

// StreamCmdWords is the record's wire size in 64-bit words.
const StreamCmdWords = 2

func (c StreamCmd) pack() []Word {
	w0 := mergeField(0, 0, 16, Word(c.SrcEPID))
	w0 = mergeField(w0, 16, 4, Word(c.OpCode))
	w0 = mergeField(w0, 20, 4, Word(c.OpData))
	w0 = mergeField(w0, 24, 40, Word(c.NumPkts))
	return []Word{w0, Word(c.NumBytes)}
}

func unpackStreamCmd(ws []Word) StreamCmd {
	return StreamCmd{
		SrcEPID:  uint16(field(ws[0], 0, 16)),
		OpCode:   uint8(field(ws[0], 16, 4)),
		OpData:   uint8(field(ws[0], 20, 4)),
		NumPkts:  uint64(field(ws[0], 24, 40)),
		NumBytes: uint64(ws[1]),
	}
}

// WriteStreamStatus fills the packet with a stream status payload. The type
// tag is forced to STRS so the packet can't be written inconsistently.
func (p *Packet) WriteStreamStatus(hdr Header, status StreamStatus) error {
	hdr.PktType = PktTypeStrS
	p.Header = hdr
	p.Timestamp = 0
	p.Metadata = nil
	p.Data = status.pack()
	return p.UpdateLengths()
}

func (p *Packet) ReadStreamStatus() (StreamStatus, error) {
	if p.Header.PktType != PktTypeStrS {
		return StreamStatus{}, fmt.Errorf("%w: expected %v, packet is %v",
			ErrTypeMismatch, PktTypeStrS, p.Header.PktType)
	}
	if len(p.Data) < StreamStatusWords {
		return StreamStatus{}, fmt.Errorf("%w: stream status needs %d words, packet has %d",
			ErrInsufficientPayload, StreamStatusWords, len(p.Data))
	}
	return unpackStreamStatus(p.Data), nil
}

// WriteStreamCmd fills the packet with a stream command payload.
func (p *Packet) WriteStreamCmd(hdr Header, cmd StreamCmd) error {
	hdr.PktType = PktTypeStrC
	p.Header = hdr
	p.Timestamp = 0
	p.Metadata = nil
	p.Data = cmd.pack()
	return p.UpdateLengths()
}

func (p *Packet) ReadStreamCmd() (StreamCmd, error) {
	if p.Header.PktType != PktTypeStrC {
		return StreamCmd{}, fmt.Errorf("%w: expected %v, packet is %v",
			ErrTypeMismatch, PktTypeStrC, p.Header.PktType)
	}
	if len(p.Data) < StreamCmdWords {
		return StreamCmd{}, fmt.Errorf("%w: stream command needs %d words, packet has %d",
			ErrInsufficientPayload, StreamCmdWords, len(p.Data))
	}
	return unpackStreamCmd(p.Data), nil
}

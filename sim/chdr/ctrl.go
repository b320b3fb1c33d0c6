package chdr

import "fmt"

// CtrlHeader is the 64-bit control header word carried as the first payload
// word of a CTRL packet. It stays in packed form because the wire carries it
// verbatim; accessors expose the fields.
//
//	dst_port [9:0]
//	src_port [19:10]
//	num_data [23:20]
//	seq_num  [29:24]
//	has_time [30]
//	is_ack   [31]
//	src_epid [47:32]
type CtrlHeader Word

const MaxCtrlNumData = (1 << 4) - 1

func (c CtrlHeader) DstPort() uint16 { return uint16(field(Word(c), 0, 10)) }
func (c CtrlHeader) SrcPort() uint16 { return uint16(field(Word(c), 10, 10)) }
func (c CtrlHeader) NumData() int    { return int(field(Word(c), 20, 4)) }
func (c CtrlHeader) SeqNum() uint8   { return uint8(field(Word(c), 24, 6)) }
func (c CtrlHeader) HasTime() bool   { return field(Word(c), 30, 1) != 0 }
func (c CtrlHeader) IsAck() bool     { return field(Word(c), 31, 1) != 0 }
func (c CtrlHeader) SrcEPID() uint16 { return uint16(field(Word(c), 32, 16)) }

func (c CtrlHeader) WithDstPort(v uint16) CtrlHeader {
	return CtrlHeader(mergeField(Word(c), 0, 10, Word(v)))
}
func (c CtrlHeader) WithSrcPort(v uint16) CtrlHeader {
	return CtrlHeader(mergeField(Word(c), 10, 10, Word(v)))
}
func (c CtrlHeader) WithNumData(v int) CtrlHeader {
	return CtrlHeader(mergeField(Word(c), 20, 4, Word(v)))
}
func (c CtrlHeader) WithSeqNum(v uint8) CtrlHeader {
	return CtrlHeader(mergeField(Word(c), 24, 6, Word(v)))
}
func (c CtrlHeader) WithHasTime(v bool) CtrlHeader {
	return CtrlHeader(mergeField(Word(c), 30, 1, boolBit(v)))
}
func (c CtrlHeader) WithIsAck(v bool) CtrlHeader {
	return CtrlHeader(mergeField(Word(c), 31, 1, boolBit(v)))
}
func (c CtrlHeader) WithSrcEPID(v uint16) CtrlHeader {
	return CtrlHeader(mergeField(Word(c), 32, 16, Word(v)))
}

// ctrlWordCount is the number of 64-bit words needed for the op word plus
// numData 32-bit data words, packed two 32-bit values per word.
func ctrlWordCount(numData int) int {
	return (1 + numData + 1) / 2
}

// WriteCtrl fills the packet with a control payload: the control header
// word, a timestamp word when has_time is set, then the 32-bit operation
// word and data words packed pairwise. The first data word shares a 64-bit
// word with the operation word (op low, data0 high); the remainder pack
// low-then-high.
func (p *Packet) WriteCtrl(hdr Header, ctrlHdr CtrlHeader, opWord uint32, data []uint32, timestamp Word) error {
	if ctrlHdr.NumData() != len(data) {
		return fmt.Errorf("%w: control header declares %d data words but %d were supplied",
			ErrValidation, ctrlHdr.NumData(), len(data))
	}
	hdr.PktType = PktTypeCtrl
	p.Header = hdr
	p.Timestamp = 0
	p.Metadata = nil
	p.Data = []Word{Word(ctrlHdr)}
	if ctrlHdr.HasTime() {
		p.Data = append(p.Data, timestamp)
	}
	halves := make([]uint32, 0, 1+len(data))
	halves = append(halves, opWord)
	halves = append(halves, data...)
	for i := 0; i < len(halves); i += 2 {
		w := Word(halves[i])
		if i+1 < len(halves) {
			w |= Word(halves[i+1]) << 32
		}
		p.Data = append(p.Data, w)
	}
	return p.UpdateLengths()
}

// ReadCtrl unpacks the control payload written by WriteCtrl. The returned
// timestamp is zero when the control header carries no time.
func (p *Packet) ReadCtrl() (ctrlHdr CtrlHeader, opWord uint32, data []uint32, timestamp Word, err error) {
	if p.Header.PktType != PktTypeCtrl {
		err = fmt.Errorf("%w: expected %v, packet is %v", ErrTypeMismatch, PktTypeCtrl, p.Header.PktType)
		return
	}
	if len(p.Data) < 1 {
		err = fmt.Errorf("%w: control packet has no header word", ErrInsufficientPayload)
		return
	}
	ctrlHdr = CtrlHeader(p.Data[0])
	rest := p.Data[1:]
	if ctrlHdr.HasTime() {
		if len(rest) < 1 {
			err = fmt.Errorf("%w: control header has has_time set but no timestamp word", ErrInsufficientPayload)
			return
		}
		timestamp = rest[0]
		rest = rest[1:]
	}
	numData := ctrlHdr.NumData()
	if len(rest) < ctrlWordCount(numData) {
		err = fmt.Errorf("%w: control payload needs %d op/data words, packet has %d",
			ErrInsufficientPayload, ctrlWordCount(numData), len(rest))
		return
	}
	opWord = uint32(field(rest[0], 0, 32))
	halves := make([]uint32, 0, numData)
	for i := 0; i < numData; i++ {
		// half index i+1 skips the op word
		w := rest[(i+1)/2]
		if (i+1)%2 == 0 {
			halves = append(halves, uint32(field(w, 0, 32)))
		} else {
			halves = append(halves, uint32(field(w, 32, 32)))
		}
	}
	data = halves
	return
}

package chdr

import "fmt"

// Packet is one CHDR packet: header, optional timestamp, metadata words and
// payload words, together with the bus width it is sized against. A Packet
// is a value: Clone produces a fully independent copy, and the Write*/Read*
// accessors interpret the payload per the header's type tag.
type Packet struct {
	Width     Width
	Header    Header
	Timestamp Word
	Metadata  []Word
	Data      []Word
}

// NewPacket allocates an empty packet for the given bus width.
func NewPacket(width Width) (*Packet, error) {
	if err := CheckWidth(width); err != nil {
		return nil, err
	}
	return &Packet{Width: width}, nil
}

func (p *Packet) Clone() *Packet {
	c := &Packet{
		Width:     p.Width,
		Header:    p.Header,
		Timestamp: p.Timestamp,
	}
	if p.Metadata != nil {
		c.Metadata = append([]Word{}, p.Metadata...)
	}
	if p.Data != nil {
		c.Data = append([]Word{}, p.Data...)
	}
	return c
}

// Equal compares header, metadata and data elementwise. The timestamp only
// participates when the packet type actually carries one.
func (p *Packet) Equal(o *Packet) bool {
	if p.Width != o.Width || p.Header != o.Header {
		return false
	}
	if p.Header.PktType.HasTimestamp() && p.Timestamp != o.Timestamp {
		return false
	}
	if len(p.Metadata) != len(o.Metadata) || len(p.Data) != len(o.Data) {
		return false
	}
	for i, w := range p.Metadata {
		if o.Metadata[i] != w {
			return false
		}
	}
	for i, w := range p.Data {
		if o.Data[i] != w {
			return false
		}
	}
	return true
}

// HeaderBytes is the wire size of the header portion. The header occupies
// one full bus word, except on an exactly 64-bit bus carrying a timestamped
// data packet, where the timestamp cannot share the header's bus word and
// takes a second word of its own.
func (p *Packet) HeaderBytes() int {
	if p.Width == Width(WordBits) && p.Header.PktType.HasTimestamp() {
		return 2 * WordBytes
	}
	return p.Width.Bytes()
}

// MDataBytes is the wire size of the metadata portion.
func (p *Packet) MDataBytes() int {
	return int(p.Header.NumMData) * p.Width.Bytes()
}

// DataBytes is the payload byte length implied by the header.
func (p *Packet) DataBytes() int {
	return int(p.Header.Length) - p.HeaderBytes() - p.MDataBytes()
}

// DataWords is the number of payload words implied by the header, i.e. the
// payload byte length rounded up to whole words.
func (p *Packet) DataWords() int {
	return (p.DataBytes() + WordBytes - 1) / WordBytes
}

// UpdateLengths recomputes num_mdata and length from the current metadata
// and payload, leaving all other header fields alone. Fails if the result
// doesn't fit the header's field widths.
func (p *Packet) UpdateLengths() error {
	return p.updateLengths(len(p.Data) * WordBytes)
}

func (p *Packet) updateLengths(dataByteLength int) error {
	spw := p.Width.WordsPerBusWord()
	numMData := (len(p.Metadata) + spw - 1) / spw
	if numMData > MaxNumMData {
		return fmt.Errorf("%w: %d metadata words need %d bus words, max is %d",
			ErrValidation, len(p.Metadata), numMData, MaxNumMData)
	}
	p.Header.NumMData = uint8(numMData)
	length := p.HeaderBytes() + p.MDataBytes() + dataByteLength
	if length > 0xFFFF {
		return fmt.Errorf("%w: packet length %d exceeds 16-bit length field", ErrValidation, length)
	}
	p.Header.Length = uint16(length)
	return nil
}

// setMetadata stores metadata zero-padded to a whole number of bus words;
// the wire format has no finer metadata granularity than that.
func (p *Packet) setMetadata(metadata []Word) {
	spw := p.Width.WordsPerBusWord()
	padded := (len(metadata) + spw - 1) / spw * spw
	p.Metadata = make([]Word, padded)
	copy(p.Metadata, metadata)
}

// WriteRaw populates the packet with a raw payload, computing num_mdata and
// length from the stored sequences. The header's type tag is taken as given,
// so this is the write accessor for both data packet flavors.
func (p *Packet) WriteRaw(hdr Header, data []Word, metadata []Word, timestamp Word) error {
	p.Header = hdr
	p.Timestamp = timestamp
	p.setMetadata(metadata)
	p.Data = append([]Word{}, data...)
	return p.UpdateLengths()
}

// WriteRawBytes is WriteRaw with an explicit payload byte length, for
// payloads that do not end on a word boundary. The byte length must cover
// exactly the given data words.
func (p *Packet) WriteRawBytes(hdr Header, data []Word, metadata []Word, timestamp Word, dataByteLength int) error {
	if (dataByteLength+WordBytes-1)/WordBytes != len(data) {
		return fmt.Errorf("%w: explicit byte length %d does not cover %d data words",
			ErrValidation, dataByteLength, len(data))
	}
	p.Header = hdr
	p.Timestamp = timestamp
	p.setMetadata(metadata)
	p.Data = append([]Word{}, data...)
	return p.updateLengths(dataByteLength)
}

// ReadRaw returns the packet fields along with the payload byte length
// implied by the header.
func (p *Packet) ReadRaw() (hdr Header, data []Word, metadata []Word, timestamp Word, dataByteLength int) {
	return p.Header, append([]Word{}, p.Data...), append([]Word{}, p.Metadata...), p.Timestamp, p.DataBytes()
}

func (p *Packet) String() string {
	return fmt.Sprintf("chdr packet {type=%v seq=%d dst=%#04x len=%d mdata=%d data=%d}",
		p.Header.PktType, p.Header.SeqNum, p.Header.DstEPID, p.Header.Length, len(p.Metadata), len(p.Data))
}

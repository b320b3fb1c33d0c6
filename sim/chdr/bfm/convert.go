// Package bfm is the CHDR bus functional model: it converts between whole
// packets and the transport's bus-word stream, and transacts packets over a
// word wire as an independent producer and consumer.
package bfm

import (
	"fmt"

	"github.com/mainland/chdrsim/sim/chdr"
	"github.com/mainland/chdrsim/sim/chdr/axis"
)

// headerBusWords is the number of bus words the header portion occupies: one
// bus word, plus a dedicated timestamp word on an exactly 64-bit bus where
// the timestamp cannot share the header's word. On wider buses a timestamp
// rides in the 64 bits after the header.
func headerBusWords(width chdr.Width, t chdr.PacketType) int {
	if width.WordsPerBusWord() == 1 && t.HasTimestamp() {
		return 2
	}
	return 1
}

func divCeil(n, d int) int {
	return (n + d - 1) / d
}

// packWords appends CHDR words grouped into bus words, zero-padding the last
// group when the count doesn't divide evenly.
func packWords(out []axis.BusWord, words []chdr.Word, spw int) []axis.BusWord {
	for i := 0; i < len(words); i += spw {
		bw := make(axis.BusWord, spw)
		copy(bw, words[i:])
		out = append(out, bw)
	}
	return out
}

// PacketToWords serializes a packet into the bus words that carry it on the
// wire, in transmission order. The header's num_mdata and length fields must
// agree with the stored sequences; a disagreement means the packet was
// assembled outside the write accessors and is rejected rather than silently
// re-derived.
func PacketToWords(p *chdr.Packet) ([]axis.BusWord, error) {
	if err := chdr.CheckWidth(p.Width); err != nil {
		return nil, err
	}
	spw := p.Width.WordsPerBusWord()

	mdataBusWords := divCeil(len(p.Metadata), spw)
	if mdataBusWords != int(p.Header.NumMData) {
		return nil, fmt.Errorf("%w: %d metadata words occupy %d bus words but header declares %d",
			chdr.ErrValidation, len(p.Metadata), mdataBusWords, p.Header.NumMData)
	}
	computed := headerBusWords(p.Width, p.Header.PktType) + mdataBusWords + divCeil(len(p.Data), spw)
	implied := divCeil(int(p.Header.Length), p.Width.Bytes())
	if computed != implied {
		return nil, fmt.Errorf("%w: packet contents span %d bus words but header length %d implies %d",
			chdr.ErrValidation, computed, p.Header.Length, implied)
	}

	out := make([]axis.BusWord, 0, computed)
	first := make(axis.BusWord, spw)
	first[0] = p.Header.Pack()
	if p.Header.PktType.HasTimestamp() && spw > 1 {
		first[1] = p.Timestamp
	}
	out = append(out, first)
	if p.Header.PktType.HasTimestamp() && spw == 1 {
		out = append(out, axis.BusWord{p.Timestamp})
	}
	out = packWords(out, p.Metadata, spw)
	out = packWords(out, p.Data, spw)
	return out, nil
}

// States of the wire reconstruction walk.
type rxState int

const (
	stateHeader rxState = iota
	stateTimestamp
	stateMetadata
	statePayload
)

func (s rxState) String() string {
	switch s {
	case stateHeader:
		return "HEADER"
	case stateTimestamp:
		return "TIMESTAMP"
	case stateMetadata:
		return "METADATA"
	case statePayload:
		return "PAYLOAD"
	default:
		return fmt.Sprintf("[UNKNOWN=%d]", int(s))
	}
}

// WordsToPacket reconstructs one packet from the exact sequence of bus words
// that carried it. It is the inverse of PacketToWords: a four-state walk
// that must terminate in the payload state, anything else being a framing
// error. It is a pure function, independent of any transport.
func WordsToPacket(width chdr.Width, words []axis.BusWord) (*chdr.Packet, error) {
	if err := chdr.CheckWidth(width); err != nil {
		return nil, err
	}
	spw := width.WordsPerBusWord()

	p := &chdr.Packet{Width: width}
	state := stateHeader
	mdataRemaining := 0

	// transition taken once the header (and timestamp, if split off) is done
	afterHeader := func() rxState {
		if mdataRemaining > 0 {
			return stateMetadata
		}
		return statePayload
	}

	for _, bw := range words {
		if len(bw) != spw {
			return nil, fmt.Errorf("%w: bus word carries %d sub-words, expected %d for a %v bus",
				chdr.ErrFraming, len(bw), spw, width)
		}
		switch state {
		case stateHeader:
			p.Header = chdr.UnpackHeader(bw[0])
			mdataRemaining = int(p.Header.NumMData)
			if p.Header.PktType.HasTimestamp() {
				if spw > 1 {
					p.Timestamp = bw[1]
					state = afterHeader()
				} else {
					state = stateTimestamp
				}
			} else {
				state = afterHeader()
			}
		case stateTimestamp:
			p.Timestamp = bw[0]
			state = afterHeader()
		case stateMetadata:
			p.Metadata = append(p.Metadata, bw...)
			mdataRemaining--
			if mdataRemaining == 0 {
				state = statePayload
			}
		case statePayload:
			p.Data = append(p.Data, bw...)
		}
	}
	if state != statePayload {
		return nil, fmt.Errorf("%w: word stream ended in %v state", chdr.ErrFraming, state)
	}
	implied := divCeil(int(p.Header.Length), width.Bytes())
	if len(words) != implied {
		return nil, fmt.Errorf("%w: received %d bus words but header length %d implies %d",
			chdr.ErrFraming, len(words), p.Header.Length, implied)
	}
	// strip the final bus word's zero padding down to the payload length the
	// header declares
	dataWords := p.DataWords()
	if dataWords < 0 || dataWords > len(p.Data) || len(p.Data)-dataWords >= spw {
		return nil, fmt.Errorf("%w: header implies %d payload words but %d arrived",
			chdr.ErrFraming, dataWords, len(p.Data))
	}
	p.Data = p.Data[:dataWords]
	return p, nil
}

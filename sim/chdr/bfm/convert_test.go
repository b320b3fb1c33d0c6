package bfm_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/mainland/chdrsim/sim/chdr"
	"github.com/mainland/chdrsim/sim/chdr/axis"
	"github.com/mainland/chdrsim/sim/chdr/bfm"
	"github.com/mainland/chdrsim/sim/chdr/scenario"
)

func TestRoundTripAllWidths(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for _, width := range []chdr.Width{64, 128, 256, 512} {
		for trial := 0; trial < 500; trial++ {
			p := scenario.GeneratePacket(r, width, 48, 6)
			words, err := bfm.PacketToWords(p)
			if err != nil {
				t.Fatalf("width %v: cannot serialize %v: %v", width, p, err)
			}
			back, err := bfm.WordsToPacket(width, words)
			if err != nil {
				t.Fatalf("width %v: cannot deserialize %v: %v", width, p, err)
			}
			if !back.Equal(p) {
				t.Errorf("width %v: round trip mismatch:\n put %v\n got %v", width, p, back)
			}
		}
	}
}

// The end-to-end shape from the protocol documentation: a timestamped data
// packet on a 64-bit bus splits header and timestamp into separate words.
func TestNarrowBusTimestampedData(t *testing.T) {
	p, err := chdr.NewPacket(64)
	if err != nil {
		t.Fatal(err)
	}
	hdr := chdr.Header{
		PktType: chdr.PktTypeDataWithTS,
		SeqNum:  5,
		DstEPID: 0x1002,
	}
	if err := p.WriteRaw(hdr, []chdr.Word{10, 20, 30}, nil, 42); err != nil {
		t.Fatal(err)
	}
	// 2 header words plus 3 data words, 8 bytes each
	if p.Header.Length != 40 {
		t.Errorf("expected length 40, got %d", p.Header.Length)
	}
	words, err := bfm.PacketToWords(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 5 {
		t.Fatalf("expected 5 bus words, got %d", len(words))
	}
	if words[0][0] != p.Header.Pack() {
		t.Errorf("word 0 should be the header: %#x", words[0])
	}
	if words[1][0] != 42 {
		t.Errorf("word 1 should be the dedicated timestamp word: %#x", words[1])
	}
	for i, want := range []chdr.Word{10, 20, 30} {
		if words[2+i][0] != want {
			t.Errorf("payload word %d: %#x instead of %#x", i, words[2+i][0], want)
		}
	}
	back, err := bfm.WordsToPacket(64, words)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(p) {
		t.Errorf("round trip mismatch:\n put %v\n got %v", p, back)
	}
	if back.Timestamp != 42 {
		t.Errorf("timestamp lost in transit: %d", back.Timestamp)
	}
}

// On buses of 128 bits and up, the timestamp shares the header's bus word.
func TestWideBusTimestampSharesHeaderWord(t *testing.T) {
	p, _ := chdr.NewPacket(128)
	hdr := chdr.Header{PktType: chdr.PktTypeDataWithTS}
	if err := p.WriteRaw(hdr, []chdr.Word{7, 8}, nil, 99); err != nil {
		t.Fatal(err)
	}
	words, err := bfm.PacketToWords(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 2 {
		t.Fatalf("expected 2 bus words, got %d", len(words))
	}
	if words[0][1] != 99 {
		t.Errorf("timestamp should ride beside the header: %#x", words[0])
	}
	if words[1][0] != 7 || words[1][1] != 8 {
		t.Errorf("payload word wrong: %#x", words[1])
	}
}

func TestSerializeValidation(t *testing.T) {
	p, _ := chdr.NewPacket(64)
	if err := p.WriteRaw(chdr.Header{PktType: chdr.PktTypeData}, []chdr.Word{1, 2}, []chdr.Word{3}, 0); err != nil {
		t.Fatal(err)
	}
	tampered := p.Clone()
	tampered.Header.NumMData = 2
	if _, err := bfm.PacketToWords(tampered); !errors.Is(err, chdr.ErrValidation) {
		t.Errorf("num_mdata mismatch should be a validation error, got %v", err)
	}
	tampered = p.Clone()
	tampered.Header.Length += 8
	if _, err := bfm.PacketToWords(tampered); !errors.Is(err, chdr.ErrValidation) {
		t.Errorf("length mismatch should be a validation error, got %v", err)
	}
}

func TestFramingErrors(t *testing.T) {
	// no words at all: the walk never leaves the header state
	if _, err := bfm.WordsToPacket(64, nil); !errors.Is(err, chdr.ErrFraming) {
		t.Errorf("empty stream should be a framing error, got %v", err)
	}

	p, _ := chdr.NewPacket(64)
	if err := p.WriteRaw(chdr.Header{PktType: chdr.PktTypeDataWithTS}, []chdr.Word{1}, []chdr.Word{2}, 3); err != nil {
		t.Fatal(err)
	}
	words, err := bfm.PacketToWords(p)
	if err != nil {
		t.Fatal(err)
	}
	// cut off after the header: ends in the timestamp state
	if _, err := bfm.WordsToPacket(64, words[:1]); !errors.Is(err, chdr.ErrFraming) {
		t.Errorf("truncation before timestamp should be a framing error, got %v", err)
	}
	// cut off after the timestamp: ends in the metadata state
	if _, err := bfm.WordsToPacket(64, words[:2]); !errors.Is(err, chdr.ErrFraming) {
		t.Errorf("truncation before metadata should be a framing error, got %v", err)
	}
	// cut off before the payload finishes
	if _, err := bfm.WordsToPacket(64, words[:len(words)-1]); !errors.Is(err, chdr.ErrFraming) {
		t.Errorf("truncated payload should be a framing error, got %v", err)
	}
	// sub-word count not matching the bus width
	bad := []axis.BusWord{{1, 2}}
	if _, err := bfm.WordsToPacket(64, bad); !errors.Is(err, chdr.ErrFraming) {
		t.Errorf("wrong bus word width should be a framing error, got %v", err)
	}
}

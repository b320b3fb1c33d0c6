package chdr

import (
	"errors"
	"math/rand"
	"testing"
)

func randPayload(r *rand.Rand, count int) []Word {
	words := make([]Word, count)
	for i := range words {
		words[i] = Word(r.Uint64())
	}
	return words
}

func TestNewPacketWidthCheck(t *testing.T) {
	for _, width := range []Width{64, 128, 256, 512} {
		if _, err := NewPacket(width); err != nil {
			t.Errorf("width %v should be accepted: %v", width, err)
		}
	}
	for _, width := range []Width{0, -64, 32, 96, 65} {
		_, err := NewPacket(width)
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("width %d should be a configuration error, got %v", int(width), err)
		}
	}
}

func TestLengthInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(33))
	for _, width := range []Width{64, 128, 256, 512} {
		for trial := 0; trial < 200; trial++ {
			p, err := NewPacket(width)
			if err != nil {
				t.Fatal(err)
			}
			hdr := randHeader(r)
			hdr.PktType = PktTypeData
			if trial%2 == 0 {
				hdr.PktType = PktTypeDataWithTS
			}
			data := randPayload(r, 1+r.Intn(64))
			metadata := randPayload(r, r.Intn(8))
			if err := p.WriteRaw(hdr, data, metadata, Word(r.Uint64())); err != nil {
				t.Fatal(err)
			}
			if int(p.Header.Length) != p.HeaderBytes()+p.MDataBytes()+len(p.Data)*WordBytes {
				t.Errorf("length invariant violated on %v bus: length=%d header=%d mdata=%d data=%d",
					width, p.Header.Length, p.HeaderBytes(), p.MDataBytes(), len(p.Data)*WordBytes)
			}
		}
	}
}

func TestNarrowBusHeaderSplit(t *testing.T) {
	p, _ := NewPacket(64)
	p.Header.PktType = PktTypeDataWithTS
	if p.HeaderBytes() != 16 {
		t.Errorf("64-bit bus with timestamp should need 16 header bytes, got %d", p.HeaderBytes())
	}
	p.Header.PktType = PktTypeData
	if p.HeaderBytes() != 8 {
		t.Errorf("64-bit bus without timestamp should need 8 header bytes, got %d", p.HeaderBytes())
	}
	wide, _ := NewPacket(128)
	wide.Header.PktType = PktTypeDataWithTS
	if wide.HeaderBytes() != 16 {
		t.Errorf("128-bit bus should pack header and timestamp into one 16-byte word, got %d", wide.HeaderBytes())
	}
	wider, _ := NewPacket(256)
	wider.Header.PktType = PktTypeDataWithTS
	if wider.HeaderBytes() != 32 {
		t.Errorf("256-bit bus header should be one 32-byte word, got %d", wider.HeaderBytes())
	}
}

func TestWriteRawBytesValidation(t *testing.T) {
	p, _ := NewPacket(64)
	data := []Word{1, 2, 3}
	// 17..24 bytes round up to 3 words; anything else must be rejected
	if err := p.WriteRawBytes(Header{PktType: PktTypeData}, data, nil, 0, 17); err != nil {
		t.Errorf("byte length 17 covers 3 words: %v", err)
	}
	if int(p.Header.Length) != 8+17 {
		t.Errorf("explicit byte length should flow into the header: %d", p.Header.Length)
	}
	if p.DataBytes() != 17 {
		t.Errorf("DataBytes should report the explicit length: %d", p.DataBytes())
	}
	if p.DataWords() != 3 {
		t.Errorf("DataWords should round up: %d", p.DataWords())
	}
	for _, bad := range []int{0, 8, 16, 25, 32} {
		err := p.WriteRawBytes(Header{PktType: PktTypeData}, data, nil, 0, bad)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("byte length %d should be rejected, got %v", bad, err)
		}
	}
}

func TestMetadataPadding(t *testing.T) {
	p, _ := NewPacket(256)
	err := p.WriteRaw(Header{PktType: PktTypeData}, []Word{1}, []Word{10, 20, 30, 40, 50}, 0)
	if err != nil {
		t.Fatal(err)
	}
	// 5 metadata words on a 4-word bus occupy 2 bus words
	if p.Header.NumMData != 2 {
		t.Errorf("expected num_mdata 2, got %d", p.Header.NumMData)
	}
	if len(p.Metadata) != 8 {
		t.Errorf("metadata should be padded to whole bus words, got %d words", len(p.Metadata))
	}
	if p.Metadata[4] != 50 || p.Metadata[5] != 0 {
		t.Errorf("metadata padding should be zeros: %v", p.Metadata)
	}
}

func TestTooMuchMetadata(t *testing.T) {
	p, _ := NewPacket(64)
	err := p.WriteRaw(Header{PktType: PktTypeData}, []Word{1}, make([]Word, MaxNumMData+1), 0)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("metadata beyond the num_mdata field should be rejected, got %v", err)
	}
}

func TestCloneIndependence(t *testing.T) {
	p, _ := NewPacket(64)
	if err := p.WriteRaw(Header{PktType: PktTypeData}, []Word{1, 2}, []Word{3}, 0); err != nil {
		t.Fatal(err)
	}
	c := p.Clone()
	c.Data[0] = 99
	c.Metadata[0] = 99
	c.Header.SeqNum = 7
	if p.Data[0] != 1 || p.Metadata[0] != 3 || p.Header.SeqNum != 0 {
		t.Error("clone should be fully independent of the original")
	}
}

func TestEqualityIgnoresTimestampWithoutTS(t *testing.T) {
	a, _ := NewPacket(64)
	if err := a.WriteRaw(Header{PktType: PktTypeData}, []Word{1}, nil, 100); err != nil {
		t.Fatal(err)
	}
	b := a.Clone()
	b.Timestamp = 200
	if !a.Equal(b) {
		t.Error("timestamp must not participate in equality for untimestamped packets")
	}
	a2, _ := NewPacket(64)
	if err := a2.WriteRaw(Header{PktType: PktTypeDataWithTS}, []Word{1}, nil, 100); err != nil {
		t.Fatal(err)
	}
	b2 := a2.Clone()
	b2.Timestamp = 200
	if a2.Equal(b2) {
		t.Error("timestamp must participate in equality for timestamped packets")
	}
}

func TestReadRawReportsByteLength(t *testing.T) {
	p, _ := NewPacket(64)
	if err := p.WriteRaw(Header{PktType: PktTypeData}, []Word{1, 2, 3}, nil, 0); err != nil {
		t.Fatal(err)
	}
	hdr, data, metadata, _, byteLength := p.ReadRaw()
	if hdr.PktType != PktTypeData || len(data) != 3 || len(metadata) != 0 {
		t.Errorf("unexpected read: %+v %v %v", hdr, data, metadata)
	}
	if byteLength != 24 {
		t.Errorf("expected 24 payload bytes, got %d", byteLength)
	}
}

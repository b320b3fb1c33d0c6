package chdr

import "fmt"

// Word is the protocol's native 64-bit unit. Headers, timestamps, metadata
// and payload are all sequences of Words; the transport below packs them
// into wider bus words.
type Word uint64

const (
	WordBits  = 64
	WordBytes = 8
)

// Width is a bus width in bits. Valid widths are positive multiples of 64.
type Width int

func (w Width) Valid() bool {
	return w >= WordBits && w%WordBits == 0
}

// Bytes is the size of one bus word in bytes.
func (w Width) Bytes() int {
	return int(w) / 8
}

// WordsPerBusWord is how many 64-bit Words one bus word carries.
func (w Width) WordsPerBusWord() int {
	return int(w) / WordBits
}

func (w Width) String() string {
	return fmt.Sprintf("%d-bit", int(w))
}

// CheckWidth classifies an invalid width as a configuration error.
func CheckWidth(w Width) error {
	if !w.Valid() {
		return fmt.Errorf("%w: bus width %d is not a positive multiple of %d bits", ErrConfiguration, int(w), WordBits)
	}
	return nil
}

// field extracts bits [lo+width-1:lo] of a word.
func field(w Word, lo, width uint) Word {
	return (w >> lo) & ((1 << width) - 1)
}

// mergeField returns w with bits [lo+width-1:lo] replaced by v; v must fit.
func mergeField(w Word, lo, width uint, v Word) Word {
	if v != field(v, 0, width) {
		panic(fmt.Sprintf("field value %#x exceeds %d bits", uint64(v), width))
	}
	mask := Word((1<<width)-1) << lo
	return (w &^ mask) | (v << lo)
}

func boolBit(b bool) Word {
	if b {
		return 1
	}
	return 0
}

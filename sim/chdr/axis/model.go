// Package axis models the flow-controlled word stream a CHDR endpoint talks
// to: ready/valid handshaking over fixed-width bus words, with bounded
// queues and configurable stall behavior for back-pressure testing.
package axis

import (
	"github.com/mainland/chdrsim/sim/chdr"
	"github.com/mainland/chdrsim/sim/model"
)

// BusWord is one transport-level transfer: chdr.Width/64 packed CHDR words.
type BusWord []chdr.Word

func (b BusWord) Clone() BusWord {
	return append(BusWord{}, b...)
}

// WordSource is the receiving side of one stream direction. ReceiveWord may
// only be called while HasWord reports true; PeekWord reads the next word
// without consuming it.
type WordSource interface {
	model.EventSource
	HasWord() bool
	PeekWord() BusWord
	ReceiveWord() BusWord
}

// WordSink is the transmitting side of one stream direction. SendWord may
// only be called while CanAccept reports true.
type WordSink interface {
	model.EventSource
	CanAccept() bool
	SendWord(w BusWord)
}

// WordWire is a duplex attachment point: words received from Source, words
// transmitted into Sink.
type WordWire struct {
	Source WordSource
	Sink   WordSink
}

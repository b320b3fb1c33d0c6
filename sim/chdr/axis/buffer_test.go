package axis

import (
	"testing"
	"time"

	"github.com/mainland/chdrsim/sim/chdr"
	"github.com/mainland/chdrsim/sim/component"
)

func TestWordBufferFifoAndCapacity(t *testing.T) {
	ctrl := component.MakeSimControllerSeeded(10)
	source, sink := WordBuffer(ctrl, 3)

	if source.HasWord() {
		t.Error("new buffer should be empty")
	}
	for i := 0; i < 3; i++ {
		if !sink.CanAccept() {
			t.Fatalf("buffer should accept word %d", i)
		}
		sink.SendWord(BusWord{chdr.Word(i)})
	}
	if sink.CanAccept() {
		t.Error("buffer at capacity should refuse words")
	}

	if source.PeekWord()[0] != 0 {
		t.Error("peek should see the oldest word")
	}
	if source.PeekWord()[0] != 0 {
		t.Error("peek must not consume")
	}
	for i := 0; i < 3; i++ {
		if !source.HasWord() {
			t.Fatalf("word %d should be available", i)
		}
		if got := source.ReceiveWord()[0]; got != chdr.Word(i) {
			t.Errorf("word %d: got %d", i, got)
		}
	}
	if source.HasWord() {
		t.Error("buffer should be drained")
	}
}

func TestWordBufferEvents(t *testing.T) {
	ctrl := component.MakeSimControllerSeeded(11)
	source, sink := WordBuffer(ctrl, 1)

	readable := 0
	source.Subscribe(func() { readable++ })
	writable := 0
	sink.Subscribe(func() { writable++ })

	sink.SendWord(BusWord{1})
	ctrl.Advance(ctrl.Now().Add(time.Microsecond))
	if readable == 0 {
		t.Error("send should notify the source side")
	}
	source.ReceiveWord()
	ctrl.Advance(ctrl.Now().Add(time.Microsecond))
	if writable == 0 {
		t.Error("receive should notify the sink side")
	}
}

func TestPatchMovesWords(t *testing.T) {
	ctrl := component.MakeSimControllerSeeded(12)
	aSource, aSink := WordBuffer(ctrl, 4)
	bSource, bSink := WordBuffer(ctrl, 4)
	Patch(ctrl, aSource, bSink)

	for i := 0; i < 4; i++ {
		aSink.SendWord(BusWord{chdr.Word(i + 100)})
	}
	ctrl.Advance(ctrl.Now().Add(time.Millisecond))
	for i := 0; i < 4; i++ {
		if !bSource.HasWord() {
			t.Fatalf("word %d never crossed the patch", i)
		}
		if got := bSource.ReceiveWord()[0]; got != chdr.Word(i+100) {
			t.Errorf("word %d: got %d", i, got)
		}
	}
}

package axis

import (
	"github.com/mainland/chdrsim/sim/component"
	"github.com/mainland/chdrsim/sim/model"
)

type wordBuffer struct {
	ctx model.SimContext

	queue    []BusWord
	capacity int

	writable *component.EventDispatcher
	readable *component.EventDispatcher
}

type wordBufferSource wordBuffer
type wordBufferSink wordBuffer

func (s *wordBufferSource) Subscribe(callback func()) (cancel func()) {
	return s.readable.Subscribe(callback)
}

func (s *wordBufferSource) HasWord() bool {
	return len(s.queue) > 0
}

func (s *wordBufferSource) PeekWord() BusWord {
	if len(s.queue) == 0 {
		panic("PeekWord called with no word available")
	}
	return s.queue[0]
}

func (s *wordBufferSource) ReceiveWord() BusWord {
	if len(s.queue) == 0 {
		panic("ReceiveWord called with no word available")
	}
	w := s.queue[0]
	s.queue = s.queue[1:]
	s.writable.DispatchLater()
	return w
}

func (s *wordBufferSink) Subscribe(callback func()) (cancel func()) {
	return s.writable.Subscribe(callback)
}

func (s *wordBufferSink) CanAccept() bool {
	return len(s.queue) < s.capacity
}

func (s *wordBufferSink) SendWord(w BusWord) {
	if len(s.queue) >= s.capacity {
		panic("SendWord called while buffer is full")
	}
	s.queue = append(s.queue, w)
	s.readable.DispatchLater()
}

// WordBuffer is a bounded FIFO of bus words, returned as its two halves: a
// sink to feed and a source to drain. This is the queue a transport
// direction is made of.
func WordBuffer(ctx model.SimContext, capacity int) (WordSource, WordSink) {
	if capacity < 1 {
		panic("word buffer capacity must be at least 1")
	}
	wb := &wordBuffer{
		ctx:      ctx,
		capacity: capacity,
		writable: component.MakeEventDispatcher(ctx, "sim.chdr.axis.WordBuffer/Writable"),
		readable: component.MakeEventDispatcher(ctx, "sim.chdr.axis.WordBuffer/Readable"),
	}
	return (*wordBufferSource)(wb), (*wordBufferSink)(wb)
}

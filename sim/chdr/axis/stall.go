package axis

import (
	"fmt"
	"time"

	"github.com/mainland/chdrsim/sim/chdr"
	"github.com/mainland/chdrsim/sim/component"
	"github.com/mainland/chdrsim/sim/model"
)

// A stall gate sits in front of a sink or source and withholds the handshake
// with a configured probability, modeled per transfer attempt: after each
// transfer the gate rolls the dice, and a losing roll closes the gate for
// one period before rolling again. Probability 0 never closes the gate;
// probability 100 closes it permanently after the first transfer.

const maxStallProb = 100

type stallGate struct {
	*component.EventDispatcher
	ctx    model.SimContext
	period time.Duration

	prob        int
	open        bool
	cancelTimer func()
}

func makeStallGate(ctx model.SimContext, name string, period time.Duration) *stallGate {
	return &stallGate{
		EventDispatcher: component.MakeEventDispatcher(ctx, name),
		ctx:             ctx,
		period:          period,
		open:            true,
	}
}

func (g *stallGate) SetStallProb(prob int) error {
	if prob < 0 || prob > maxStallProb {
		return fmt.Errorf("%w: stall probability %d outside [0, %d]", chdr.ErrConfiguration, prob, maxStallProb)
	}
	g.prob = prob
	if g.prob == 0 && !g.open {
		g.reopen()
	}
	return nil
}

func (g *stallGate) StallProb() int {
	return g.prob
}

func (g *stallGate) reopen() {
	if g.cancelTimer != nil {
		g.cancelTimer()
		g.cancelTimer = nil
	}
	g.open = true
	g.DispatchLater()
}

func (g *stallGate) retry() {
	g.cancelTimer = nil
	if g.ctx.Rand().Intn(maxStallProb) < g.prob {
		g.cancelTimer = g.ctx.SetTimer(g.ctx.Now().Add(g.period), "sim.chdr.axis.StallGate/Retry", g.retry)
		return
	}
	g.open = true
	g.DispatchLater()
}

// roll decides whether the next transfer attempt stalls; called after every
// completed transfer.
func (g *stallGate) roll() {
	if g.ctx.Rand().Intn(maxStallProb) < g.prob {
		g.open = false
		g.cancelTimer = g.ctx.SetTimer(g.ctx.Now().Add(g.period), "sim.chdr.axis.StallGate/Retry", g.retry)
	}
}

// StallSink wraps a sink with a stall gate.
type StallSink struct {
	*stallGate
	sink WordSink
}

func MakeStallSink(ctx model.SimContext, sink WordSink, period time.Duration) *StallSink {
	s := &StallSink{
		stallGate: makeStallGate(ctx, "sim.chdr.axis.StallSink", period),
		sink:      sink,
	}
	sink.Subscribe(s.underlyingReady)
	return s
}

func (s *StallSink) underlyingReady() {
	if s.open {
		s.DispatchLater()
	}
}

func (s *StallSink) CanAccept() bool {
	return s.open && s.sink.CanAccept()
}

func (s *StallSink) SendWord(w BusWord) {
	if !s.open {
		panic("SendWord called while stalled")
	}
	s.sink.SendWord(w)
	s.roll()
}

// StallSource wraps a source with a stall gate.
type StallSource struct {
	*stallGate
	source WordSource
}

func MakeStallSource(ctx model.SimContext, source WordSource, period time.Duration) *StallSource {
	s := &StallSource{
		stallGate: makeStallGate(ctx, "sim.chdr.axis.StallSource", period),
		source:    source,
	}
	source.Subscribe(s.underlyingReady)
	return s
}

func (s *StallSource) underlyingReady() {
	if s.open {
		s.DispatchLater()
	}
}

func (s *StallSource) HasWord() bool {
	return s.open && s.source.HasWord()
}

func (s *StallSource) PeekWord() BusWord {
	if !s.open {
		panic("PeekWord called while stalled")
	}
	return s.source.PeekWord()
}

func (s *StallSource) ReceiveWord() BusWord {
	if !s.open {
		panic("ReceiveWord called while stalled")
	}
	w := s.source.ReceiveWord()
	s.roll()
	return w
}

package component

import (
	"github.com/mainland/chdrsim/sim/model"
)

type marker struct{}

// TwixtIO is the handle a Twixt body uses to cooperate with the simulation:
// each Yield returns control to the scheduler until the next wakeup.
type TwixtIO struct {
	ctx    model.SimContext
	waitCh chan marker
	doneCh chan marker
	runOk  bool
	halted bool
}

func (ti *TwixtIO) Context() model.SimContext {
	return ti.ctx
}

func (ti *TwixtIO) enter() {
	if !ti.halted {
		ti.runOk = true
		ti.waitCh <- marker{}
		<-ti.doneCh
		if !ti.runOk {
			panic("should have been running")
		}
		ti.runOk = false
	}
}

func (ti *TwixtIO) Yield() {
	if !ti.runOk {
		panic("should be running")
	}
	ti.doneCh <- marker{}
	<-ti.waitCh
	if !ti.runOk {
		panic("should be running")
	}
}

func subscribeAll(events []model.EventSource, cb func()) (cancel func()) {
	var cancels []func()
	for _, e := range events {
		cancels = append(cancels, e.Subscribe(cb))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// YieldWait suspends until one of the given event sources fires. Spurious
// wakeups are possible; callers recheck their condition in a loop.
func (ti *TwixtIO) YieldWait(events ...model.EventSource) {
	cancel := subscribeAll(events, ti.enter)
	defer cancel()

	ti.Yield()
}

func (ti *TwixtIO) YieldUntil(time model.VirtualTime) {
	cancel := ti.ctx.SetTimer(time, "sim.component.Twixt/Until", ti.enter)
	defer cancel()

	ti.Yield()
}

type TwixtFunc func(*TwixtIO)

// BuildTwixt runs a function as an imperative side thread of the simulation,
// returning control to the scheduler on each Yield(). The body runs whenever
// one of the listed event sources fires or a Yield deadline passes.
func BuildTwixt(ctx model.SimContext, events []model.EventSource, main TwixtFunc) {
	ti := &TwixtIO{
		ctx:    ctx,
		waitCh: make(chan marker),
		doneCh: make(chan marker),
	}
	go func() {
		<-ti.waitCh
		defer func() {
			ti.halted = true
			ti.doneCh <- marker{}
		}()
		main(ti)
	}()
	ctx.Later("sim.component.Twixt/Enter", ti.enter)
	_ = subscribeAll(events, ti.enter)
}

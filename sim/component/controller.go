package component

import (
	"container/heap"
	"math/rand"
	"time"

	"github.com/mainland/chdrsim/sim/model"
)

type simTimer struct {
	expireAt model.VirtualTime
	name     string
	callback func()
	index    int
}

type timerQueue []*simTimer

func (tq timerQueue) Len() int {
	return len(tq)
}

func (tq timerQueue) Less(i, j int) bool {
	return tq[i].expireAt.Before(tq[j].expireAt)
}

func (tq timerQueue) Swap(i, j int) {
	tq[i], tq[j] = tq[j], tq[i]
	tq[i].index = i
	tq[j].index = j
}

func (tq *timerQueue) Push(x interface{}) {
	timer := x.(*simTimer)
	timer.index = len(*tq)
	*tq = append(*tq, timer)
}

func (tq *timerQueue) Pop() interface{} {
	tqa := *tq
	timer := tqa[len(tqa)-1]
	timer.index = -1
	*tq = tqa[0 : len(tqa)-1]
	return timer
}

// SimController is the discrete event scheduler at the center of every
// simulation: a timer heap plus the current virtual time. Everything runs on
// the goroutine that calls Advance.
type SimController struct {
	currentTime model.VirtualTime
	rand        *rand.Rand

	timers timerQueue
}

var _ model.SimContext = &SimController{}

func (sc *SimController) Now() model.VirtualTime {
	return sc.currentTime
}

func (sc *SimController) SetTimer(expireAt model.VirtualTime, name string, callback func()) (cancel func()) {
	if !expireAt.TimeExists() {
		panic("attempt to set timer at nonexistent time")
	}
	timer := &simTimer{
		expireAt: expireAt,
		name:     name,
		callback: callback,
		index:    -1,
	}
	heap.Push(&sc.timers, timer)
	if timer.index == -1 {
		panic("should have a real index now")
	}
	return func() {
		if timer.index != -1 {
			heap.Remove(&sc.timers, timer.index)
			if timer.index != -1 {
				panic("should have been removed!")
			}
		}
	}
}

func (sc *SimController) Later(name string, callback func()) (cancel func()) {
	// executes during the next round of timer processing
	return sc.SetTimer(sc.Now(), name, callback)
}

func (sc *SimController) Rand() *rand.Rand {
	return sc.rand
}

func (sc *SimController) peekNextTimerExpiry() model.VirtualTime {
	if len(sc.timers) > 0 {
		return sc.timers[0].expireAt
	}
	return model.TimeNever
}

func (sc *SimController) popNextTimer() *simTimer {
	if len(sc.timers) == 0 {
		panic("cannot pop from empty timer list")
	}
	timer := heap.Pop(&sc.timers).(*simTimer)
	if timer.index != -1 {
		panic("invalid timer index")
	}
	return timer
}

func (sc *SimController) runCurrentTimers() {
	for len(sc.timers) > 0 && sc.peekNextTimerExpiry().AtOrBefore(sc.Now()) {
		nextTimer := sc.popNextTimer()
		if nextTimer.expireAt.After(sc.Now()) {
			panic("invalid expiration time for timer")
		}
		nextTimer.callback()
	}
}

// Advance runs the simulation up to and including advanceTo, executing every
// timer in expiration order, and returns the expiry of the next pending
// timer (TimeNever if none remain).
func (sc *SimController) Advance(advanceTo model.VirtualTime) (nextTimer model.VirtualTime) {
	sc.runCurrentTimers()
	for sc.Now().Before(advanceTo) {
		// step to the next timer or the target time, whichever is sooner
		timeStepTo := sc.peekNextTimerExpiry()
		if timeStepTo.TimeExists() && timeStepTo.AtOrBefore(advanceTo) {
			sc.currentTime = timeStepTo
		} else {
			sc.currentTime = advanceTo
		}

		sc.runCurrentTimers()
	}

	return sc.peekNextTimerExpiry()
}

func MakeSimControllerRandomized() *SimController {
	return MakeSimControllerSeeded(time.Now().UnixNano())
}

func MakeSimControllerSeeded(seed int64) *SimController {
	return &SimController{
		currentTime: model.TimeZero,
		rand:        rand.New(rand.NewSource(seed)),
	}
}

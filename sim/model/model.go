package model

import "math/rand"

// SimContext is the handle every simulated component holds on the discrete
// event scheduler that drives it. All callbacks run on a single logical
// thread of simulated time; no locking is required anywhere downstream.
type SimContext interface {
	// Now reports the current simulated time.
	Now() VirtualTime
	// SetTimer schedules a callback at an absolute simulated time. The name
	// is used for diagnostics only. The returned function cancels the timer
	// if it has not fired yet.
	SetTimer(expireAt VirtualTime, name string, callback func()) (cancel func())
	// Later schedules a callback to run at the current simulated time, after
	// the currently executing callback returns.
	Later(name string, callback func()) (cancel func())
	// Rand provides the simulation's seeded random source, so that runs are
	// reproducible from a single seed.
	Rand() *rand.Rand
}

// EventSource lets a component announce that its state may have changed, so
// that anyone blocked on it can recheck whatever condition they care about.
// Subscribers must tolerate spurious notifications.
type EventSource interface {
	Subscribe(callback func()) (cancel func())
}

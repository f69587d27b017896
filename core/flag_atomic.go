//go:build !busguard_irqflag || !tinygo

package core

import "sync/atomic"

// busyFlag is the gate access state, backed by a native compare-and-swap.
// Regular Go builds always use this variant, with or without the
// busguard_irqflag tag: there is no interrupt mask to lean on there.
type busyFlag struct {
	v atomic.Uint32
}

// tryAcquire moves the flag from free to busy; false means it was already busy
func (f *busyFlag) tryAcquire() bool {
	return f.v.CompareAndSwap(flagFree, flagBusy)
}

func (f *busyFlag) release() {
	f.v.Store(flagFree)
}

func (f *busyFlag) busy() bool {
	return f.v.Load() == flagBusy
}

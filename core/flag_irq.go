//go:build busguard_irqflag && tinygo

package core

// busyFlag is the gate access state for cores without a native
// compare-and-swap (Cortex-M0 class). Test-and-set happens with interrupts
// disabled, which makes it atomic on a single core. TinyGo targets only.
type busyFlag struct {
	v uint32
}

// tryAcquire moves the flag from free to busy; false means it was already busy
func (f *busyFlag) tryAcquire() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if f.v == flagBusy {
		return false
	}
	f.v = flagBusy
	return true
}

func (f *busyFlag) release() {
	state := disableInterrupts()
	f.v = flagFree
	restoreInterrupts(state)
}

func (f *busyFlag) busy() bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return f.v == flagBusy
}

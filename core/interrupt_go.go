//go:build !tinygo

package core

// State stands in for runtime/interrupt.State on regular Go builds
type State uintptr

// disableInterrupts is a no-op on regular Go: host builds and tests have no
// interrupt controller, so critical sections only mark intent.
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is a no-op on regular Go
func restoreInterrupts(state State) {
	_ = state
}

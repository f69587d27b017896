package core

import "errors"

// ErrBusConflict is the cause of every contention abort
var ErrBusConflict = errors.New("bus conflict")

// ConflictError describes a detected attempt to use a gate that is already
// held. It is passed to the fatal handler and never returned to callers.
type ConflictError struct {
	Gate string // Name of the contended gate
}

func (e *ConflictError) Error() string {
	return "bus conflict on " + e.Gate +
		": concurrent access detected, drivers sharing a bus must be grouped in one resource"
}

func (e *ConflictError) Unwrap() error {
	return ErrBusConflict
}

// FatalHandler is called when a contract violation is detected.
// It must not resume normal execution: if it returns, the gate panics anyway.
type FatalHandler func(err error)

var fatalHandler FatalHandler = panicHandler

// SetFatalHandler is called by target-specific code to replace the default
// handler (panic) with e.g. a log-and-halt loop. Passing nil restores the default.
func SetFatalHandler(h FatalHandler) {
	if h == nil {
		h = panicHandler
	}
	fatalHandler = h
}

func panicHandler(err error) {
	panic(err)
}

// busConflict reports a contention abort. It never returns.
func busConflict(gate string) {
	err := &ConflictError{Gate: gate}

	// Always emitted, even with debug output disabled: the program is about to stop
	debugFatal("[BUS] " + err.Error())
	DumpTraceRing()

	fatalHandler(err)
	panic(err)
}

package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceKind identifies a gate event in the trace ring
type TraceKind uint8

// Trace event kinds
const (
	TraceEnter    TraceKind = 1 // Gate claimed
	TraceExit     TraceKind = 2 // Operation completed, gate released
	TraceBusError TraceKind = 3 // Operation returned a bus error, gate released
	TraceConflict TraceKind = 4 // Entry attempted while busy
)

// TraceEvent captures one gate event for post-mortem analysis
type TraceEvent struct {
	Seq  uint32 // Monotonic event number, 0 marks an empty slot
	Kind TraceKind
	Gate string
}

const (
	TraceRingSize = 32 // Keep last 32 gate events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Trace capture ring buffer, disabled by default
	traceMu       sync.Mutex
	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
	traceSeq      uint32
	traceEnabled  bool
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(s string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// debugFatal writes regardless of debugEnabled; used right before an abort
func debugFatal(msg string) {
	if debugPrintln != nil {
		debugPrintln(msg)
	}
}

// SetTraceEnabled turns gate event capture on or off
func SetTraceEnabled(enabled bool) {
	state := disableInterrupts()
	traceMu.Lock()
	traceEnabled = enabled
	traceMu.Unlock()
	restoreInterrupts(state)
}

// traceBus records a gate event in the ring buffer if tracing is enabled
func traceBus(gate string, kind TraceKind) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	traceMu.Lock()
	defer traceMu.Unlock()

	if !traceEnabled {
		return
	}
	traceSeq++
	traceRing[traceRingHead] = TraceEvent{
		Seq:  traceSeq,
		Kind: kind,
		Gate: gate,
	}
	traceRingHead = (traceRingHead + 1) % TraceRingSize
}

// TraceEvents returns the captured events, oldest first
func TraceEvents() []TraceEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	traceMu.Lock()
	defer traceMu.Unlock()

	events := make([]TraceEvent, 0, TraceRingSize)
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(traceRingHead+i)%TraceRingSize]
		if evt.Seq == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTraceRing outputs the trace ring (called on a bus conflict)
func DumpTraceRing() {
	events := TraceEvents()
	if len(events) == 0 || debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Gate Trace Dump ===")
	for _, evt := range events {
		debugPrintln("[TRACE] #" + utoa(evt.Seq) + " " + evt.Kind.String() + " gate=" + evt.Gate)
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTraceRing clears the trace buffer
func ClearTraceRing() {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	traceMu.Lock()
	defer traceMu.Unlock()

	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
	traceSeq = 0
}

func (k TraceKind) String() string {
	switch k {
	case TraceEnter:
		return "ENTER"
	case TraceExit:
		return "EXIT"
	case TraceBusError:
		return "BUS_ERROR"
	case TraceConflict:
		return "CONFLICT!"
	default:
		return "UNKNOWN"
	}
}

// Shared bus gate
// Owns one bus instance and detects overlapping use of it by the drivers
// that share it through proxies.
package core

// Access-state flag values
const (
	flagFree uint32 = 0
	flagBusy uint32 = 1
)

// DefaultGateName is the label used in diagnostics for gates created with New.
const DefaultGateName = "bus"

// Gate is the exclusive-access guard around a single bus instance.
//
// The gate does not serialize callers. Drivers sharing a bus must already be
// serialized by the resource they are grouped in (see Resource); the gate only
// detects when that discipline is broken and aborts through the fatal handler.
type Gate[B any] struct {
	name  string
	bus   B
	flag  busyFlag
	stats GateStats
}

// GateStats holds transaction counters for a gate.
// The counters are written only by the context holding the gate.
type GateStats struct {
	Transactions uint32 // Completed WithBus calls
	BusErrors    uint32 // Calls whose operation returned an error
}

// New creates a gate that takes ownership of bus.
// The gate should be created once and kept for the lifetime of the program;
// bus must not be used directly afterwards.
func New[B any](bus B) *Gate[B] {
	return NewNamed(DefaultGateName, bus)
}

// NewNamed is like New but labels the gate for diagnostics (e.g. "i2c0").
func NewNamed[B any](name string, bus B) *Gate[B] {
	if name == "" {
		name = DefaultGateName
	}
	return &Gate[B]{
		name: name,
		bus:  bus,
	}
}

// Name returns the diagnostic label of the gate
func (g *Gate[B]) Name() string {
	return g.name
}

// Acquire returns a new proxy for one device driver.
// It never touches the bus or the access flag.
func (g *Gate[B]) Acquire() Proxy[B] {
	return Proxy[B]{gate: g}
}

// Busy reports whether a bus operation is currently in progress
func (g *Gate[B]) Busy() bool {
	return g.flag.busy()
}

// Stats returns a snapshot of the gate counters.
// The counters are not synchronized: the snapshot is only consistent when
// taken from the context that serializes the gate (inside its Resource, or
// from the single goroutine driving it).
func (g *Gate[B]) Stats() GateStats {
	return g.stats
}

// WithBus runs op with exclusive access to the bus and returns its error
// unchanged. Entering while another operation holds the gate is a contract
// violation: the fatal handler runs and op is never called.
//
// The access flag is released on every exit path, so a bus error returned
// by op leaves the gate usable.
func (g *Gate[B]) WithBus(op func(bus B) error) error {
	g.enter()
	defer g.flag.release()

	err := op(g.bus)
	g.record(err)
	return err
}

// WithBusValue is WithBus for operations that produce a value.
func WithBusValue[B, R any](g *Gate[B], op func(bus B) (R, error)) (R, error) {
	g.enter()
	defer g.flag.release()

	v, err := op(g.bus)
	g.record(err)
	return v, err
}

// enter claims the flag or aborts; it does not return on contention
func (g *Gate[B]) enter() {
	if g.flag.tryAcquire() {
		traceBus(g.name, TraceEnter)
		return
	}
	traceBus(g.name, TraceConflict)
	busConflict(g.name)
}

// record updates the counters while the flag is still held
func (g *Gate[B]) record(err error) {
	g.stats.Transactions++
	if err != nil {
		g.stats.BusErrors++
		traceBus(g.name, TraceBusError)
		return
	}
	traceBus(g.name, TraceExit)
}

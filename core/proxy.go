package core

import "tinygo.org/x/drivers"

// Proxy is a per-driver handle to a shared bus. It only references its gate,
// so copies are cheap and all of them route through the same access flag.
type Proxy[B any] struct {
	gate *Gate[B]
}

// Gate returns the gate this proxy forwards to
func (p Proxy[B]) Gate() *Gate[B] {
	return p.gate
}

// WithBus forwards op to the gate
func (p Proxy[B]) WithBus(op func(bus B) error) error {
	return p.gate.WithBus(op)
}

// I2CProxy forwards the drivers.I2C capability of B through its gate.
// It can be passed to any TinyGo driver that takes a drivers.I2C.
type I2CProxy[B drivers.I2C] struct {
	Proxy[B]
}

// I2C wraps p as a drivers.I2C
func I2C[B drivers.I2C](p Proxy[B]) I2CProxy[B] {
	return I2CProxy[B]{p}
}

// Tx implements drivers.I2C
func (p I2CProxy[B]) Tx(addr uint16, w, r []byte) error {
	return p.gate.WithBus(func(bus B) error {
		return bus.Tx(addr, w, r)
	})
}

// SPIProxy forwards the byte-oriented drivers.SPI capability of B.
type SPIProxy[B drivers.SPI] struct {
	Proxy[B]
}

// SPI wraps p as a drivers.SPI
func SPI[B drivers.SPI](p Proxy[B]) SPIProxy[B] {
	return SPIProxy[B]{p}
}

// Tx implements drivers.SPI
func (p SPIProxy[B]) Tx(w, r []byte) error {
	return p.gate.WithBus(func(bus B) error {
		return bus.Tx(w, r)
	})
}

// Transfer implements drivers.SPI
func (p SPIProxy[B]) Transfer(b byte) (byte, error) {
	return WithBusValue(p.gate, func(bus B) (byte, error) {
		return bus.Transfer(b)
	})
}

// WordSPI is the word-oriented SPI capability (16-bit frames), implemented
// by buses that can clock 16 bits per frame.
type WordSPI interface {
	Tx16(w, r []uint16) error
	Transfer16(w uint16) (uint16, error)
}

// WordSPIProxy forwards the WordSPI capability of B.
type WordSPIProxy[B WordSPI] struct {
	Proxy[B]
}

// WordSPIOf wraps p as a WordSPI
func WordSPIOf[B WordSPI](p Proxy[B]) WordSPIProxy[B] {
	return WordSPIProxy[B]{p}
}

// Tx16 implements WordSPI
func (p WordSPIProxy[B]) Tx16(w, r []uint16) error {
	return p.gate.WithBus(func(bus B) error {
		return bus.Tx16(w, r)
	})
}

// Transfer16 implements WordSPI
func (p WordSPIProxy[B]) Transfer16(w uint16) (uint16, error) {
	return WithBusValue(p.gate, func(bus B) (uint16, error) {
		return bus.Transfer16(w)
	})
}

// UARTProxy forwards the drivers.UART capability of B, e.g. a multidrop
// serial line shared by several addressed devices.
type UARTProxy[B drivers.UART] struct {
	Proxy[B]
}

// UART wraps p as a drivers.UART
func UART[B drivers.UART](p Proxy[B]) UARTProxy[B] {
	return UARTProxy[B]{p}
}

// Read implements io.Reader
func (p UARTProxy[B]) Read(buf []byte) (int, error) {
	return WithBusValue(p.gate, func(bus B) (int, error) {
		return bus.Read(buf)
	})
}

// Write implements io.Writer
func (p UARTProxy[B]) Write(buf []byte) (int, error) {
	return WithBusValue(p.gate, func(bus B) (int, error) {
		return bus.Write(buf)
	})
}

// Buffered implements drivers.UART
func (p UARTProxy[B]) Buffered() int {
	n, _ := WithBusValue(p.gate, func(bus B) (int, error) {
		return bus.Buffered(), nil
	})
	return n
}

// Compile-time interface checks
var (
	_ drivers.I2C  = I2CProxy[drivers.I2C]{}
	_ drivers.SPI  = SPIProxy[drivers.SPI]{}
	_ drivers.UART = UARTProxy[drivers.UART]{}
	_ WordSPI      = WordSPIProxy[WordSPI]{}
)

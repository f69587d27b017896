package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
//
// Port satisfies drivers.UART, so an open port can be handed to a
// core.Gate and shared by several node drivers.
type Port interface {
	io.ReadWriteCloser

	// Buffered returns the number of bytes ready to be read, polling the
	// device for up to the configured read timeout when nothing is pending
	Buffered() int

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the multidrop line
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns a default configuration for an RS-485 adapter
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

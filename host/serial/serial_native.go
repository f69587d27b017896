//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
	"tinygo.org/x/drivers"
)

var _ drivers.UART = (*NativePort)(nil)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port io.ReadWriteCloser
	cfg  *Config

	// rx holds bytes read by Buffered and not yet consumed by Read
	rx      []byte
	scratch []byte
	err     error
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return newNativePort(port, cfg), nil
}

func newNativePort(port io.ReadWriteCloser, cfg *Config) *NativePort {
	return &NativePort{
		port:    port,
		cfg:     cfg,
		scratch: make([]byte, 256),
	}
}

// Read returns buffered bytes first, then a read error held back by Buffered,
// then reads from the serial port. An empty b never touches the port, so
// Read(nil) only collects a pending error.
func (p *NativePort) Read(b []byte) (int, error) {
	if len(p.rx) > 0 {
		n := copy(b, p.rx)
		p.rx = p.rx[n:]
		return n, nil
	}
	if p.err != nil {
		err := p.err
		p.err = nil
		return 0, err
	}
	if len(b) == 0 {
		return 0, nil
	}
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Buffered polls the port once if nothing is pending.
// A read error is held back and returned by the next Read (an empty Read
// will do); polling resumes once it has been collected.
func (p *NativePort) Buffered() int {
	if len(p.rx) > 0 || p.err != nil {
		return len(p.rx)
	}

	n, err := p.port.Read(p.scratch)
	p.rx = append(p.rx, p.scratch[:n]...)
	if err != nil && !errors.Is(err, io.EOF) {
		p.err = err
	}
	return len(p.rx)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush drops unread input
func (p *NativePort) Flush() error {
	// tarm/serial doesn't expose flush; pending input is discarded here
	p.rx = p.rx[:0]
	return nil
}

package protocol

import (
	"bytes"
	"errors"
	"testing"

	"busguard/core"
)

// simLine simulates a multidrop serial line with responding devices attached
type simLine struct {
	t       *testing.T
	devices map[uint8]func(payload []byte) (addr uint8, reply []byte)
	noise   []byte
	pending []byte
	rx      []byte
	err     error
	readErr error // returned once by the next Read
}

func newSimLine(t *testing.T) *simLine {
	return &simLine{
		t:       t,
		devices: make(map[uint8]func([]byte) (uint8, []byte)),
	}
}

func (l *simLine) Write(b []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.pending = append(l.pending, b...)
	for len(l.pending) > 0 {
		f, n, err := DecodeFrame(l.pending)
		if errors.Is(err, ErrShortFrame) {
			break
		}
		l.pending = l.pending[n:]
		if err != nil {
			l.t.Fatalf("device saw corrupt frame: %v", err)
		}
		respond, ok := l.devices[f.Addr]
		if !ok || f.Addr == BroadcastAddress {
			continue
		}
		addr, reply := respond(f.Payload)
		l.rx = append(l.rx, l.noise...)
		l.rx, _ = EncodeFrame(l.rx, addr, reply)
	}
	return len(b), nil
}

func (l *simLine) Read(b []byte) (int, error) {
	if l.readErr != nil {
		err := l.readErr
		l.readErr = nil
		return 0, err
	}
	n := copy(b, l.rx)
	l.rx = l.rx[n:]
	return n, nil
}

func (l *simLine) Buffered() int {
	return len(l.rx)
}

func echoDevice(addr uint8, prefix string) func([]byte) (uint8, []byte) {
	return func(p []byte) (uint8, []byte) {
		return addr, append([]byte(prefix), p...)
	}
}

func TestNodesShareLine(t *testing.T) {
	line := newSimLine(t)
	line.devices[0x01] = echoDevice(0x01, "thermo:")
	line.devices[0x02] = echoDevice(0x02, "valve:")

	gate := core.NewNamed("rs485", line)
	thermo := NewNode(core.UART(gate.Acquire()), 0x01)
	valve := NewNode(core.UART(gate.Acquire()), 0x02)

	reply, err := thermo.Request([]byte("read"))
	if err != nil {
		t.Fatalf("thermo request failed: %v", err)
	}
	if string(reply) != "thermo:read" {
		t.Errorf("Expected thermo:read, got %q", reply)
	}

	reply, err = valve.Request([]byte("open"))
	if err != nil {
		t.Fatalf("valve request failed: %v", err)
	}
	if string(reply) != "valve:open" {
		t.Errorf("Expected valve:open, got %q", reply)
	}

	if gate.Busy() {
		t.Error("gate busy after requests")
	}
	if stats := gate.Stats(); stats.Transactions == 0 || stats.BusErrors != 0 {
		t.Errorf("Unexpected gate stats %+v", stats)
	}
}

func TestNodeSkipsLineNoise(t *testing.T) {
	line := newSimLine(t)
	line.devices[0x07] = echoDevice(0x07, "")
	line.noise = []byte{0x00, 0x02, FrameValueSync, FrameValueSync}

	node := NewNode(core.UART(core.New(line).Acquire()), 0x07)
	reply, err := node.Request([]byte{0xDE, 0xAD})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if !bytes.Equal(reply, []byte{0xDE, 0xAD}) {
		t.Errorf("Expected DE AD, got %X", reply)
	}
}

func TestNodeNoReply(t *testing.T) {
	line := newSimLine(t)
	node := NewNode(core.UART(core.New(line).Acquire()), 0x09)
	node.PollBudget = 3

	if _, err := node.Request([]byte("ping")); err != ErrNoReply {
		t.Errorf("Expected ErrNoReply, got %v", err)
	}
}

func TestNodeWrongAddress(t *testing.T) {
	line := newSimLine(t)
	line.devices[0x03] = echoDevice(0x04, "")

	node := NewNode(core.UART(core.New(line).Acquire()), 0x03)
	if _, err := node.Request([]byte("ping")); err != ErrWrongAddress {
		t.Errorf("Expected ErrWrongAddress, got %v", err)
	}
}

func TestNodeBroadcastSend(t *testing.T) {
	line := newSimLine(t)
	called := false
	line.devices[BroadcastAddress] = func(p []byte) (uint8, []byte) {
		called = true
		return BroadcastAddress, nil
	}

	node := NewNode(core.UART(core.New(line).Acquire()), BroadcastAddress)
	if err := node.Send([]byte("reset")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if called || line.Buffered() != 0 {
		t.Error("Broadcast frame must not be answered")
	}
}

func TestNodeLineError(t *testing.T) {
	line := newSimLine(t)
	line.err = errors.New("serial: device disconnected")

	gate := core.New(line)
	node := NewNode(core.UART(gate.Acquire()), 0x01)

	if _, err := node.Request([]byte("ping")); err != line.err {
		t.Errorf("Expected line error, got %v", err)
	}
	if gate.Busy() {
		t.Error("gate busy after line error")
	}

	line.err = nil
	line.devices[0x01] = echoDevice(0x01, "")
	if _, err := node.Request([]byte("ping")); err != nil {
		t.Errorf("Request after recovered line failed: %v", err)
	}
}

func TestNodeReadErrorWhileWaiting(t *testing.T) {
	line := newSimLine(t)
	line.readErr = errors.New("serial: framing error")
	line.devices[0x02] = echoDevice(0x02, "")

	gate := core.New(line)
	node := NewNode(core.UART(gate.Acquire()), 0x02)

	// The device's reply is still buffered, but the error comes first
	if _, err := node.Request([]byte("a")); err == nil || err.Error() != "serial: framing error" {
		t.Fatalf("Expected read error, got %v", err)
	}
	if gate.Busy() {
		t.Error("gate busy after read error")
	}
	if stats := gate.Stats(); stats.BusErrors != 1 {
		t.Errorf("Expected 1 bus error, got %+v", stats)
	}

	line.rx = nil
	reply, err := node.Request([]byte("b"))
	if err != nil || string(reply) != "b" {
		t.Errorf("Request after read error: reply %q, err %v", reply, err)
	}
}

func TestNodePayloadTooLarge(t *testing.T) {
	line := newSimLine(t)
	node := NewNode(core.UART(core.New(line).Acquire()), 0x01)

	if err := node.Send(make([]byte, FramePayloadMax+1)); err != ErrFrameTooLarge {
		t.Errorf("Expected ErrFrameTooLarge, got %v", err)
	}
}

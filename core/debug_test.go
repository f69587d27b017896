package core

import (
	"errors"
	"strings"
	"testing"
)

func enableTrace(t *testing.T) {
	t.Helper()
	ClearTraceRing()
	SetTraceEnabled(true)
	t.Cleanup(func() {
		SetTraceEnabled(false)
		ClearTraceRing()
	})
}

func TestTraceRecordsGateEvents(t *testing.T) {
	enableTrace(t)

	bus := &recordingBus{}
	gate := NewNamed("i2c0", bus)
	p := I2C(gate.Acquire())

	p.Tx(0x10, []byte{0}, nil)
	bus.err = errors.New("nack")
	p.Tx(0x10, []byte{0}, nil)

	events := TraceEvents()
	want := []TraceKind{TraceEnter, TraceExit, TraceEnter, TraceBusError}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i, evt := range events {
		if evt.Kind != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], evt.Kind)
		}
		if evt.Gate != "i2c0" {
			t.Errorf("event %d: expected gate i2c0, got %s", i, evt.Gate)
		}
		if evt.Seq != uint32(i+1) {
			t.Errorf("event %d: expected seq %d, got %d", i, i+1, evt.Seq)
		}
	}
}

func TestTraceRingWraps(t *testing.T) {
	enableTrace(t)

	gate := New(&recordingBus{})
	for i := 0; i < TraceRingSize; i++ {
		gate.WithBus(func(*recordingBus) error { return nil })
	}

	events := TraceEvents()
	if len(events) != TraceRingSize {
		t.Fatalf("expected a full ring of %d events, got %d", TraceRingSize, len(events))
	}
	// Oldest kept event is the enter of call TraceRingSize/2 + 1
	if events[0].Seq != TraceRingSize+1 {
		t.Errorf("expected oldest seq %d, got %d", TraceRingSize+1, events[0].Seq)
	}
	if last := events[len(events)-1]; last.Seq != 2*TraceRingSize || last.Kind != TraceExit {
		t.Errorf("unexpected newest event %+v", last)
	}
}

func TestConflictDumpsTrace(t *testing.T) {
	enableTrace(t)

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	t.Cleanup(func() { SetDebugWriter(nil) })

	gate := NewNamed("spi0", &recordingBus{})
	expectConflict(t, func() {
		gate.WithBus(func(*recordingBus) error {
			return gate.WithBus(func(*recordingBus) error { return nil })
		})
	})

	dump := strings.Join(lines, "\n")
	if !strings.Contains(dump, "[TRACE] #1 ENTER gate=spi0") {
		t.Errorf("dump missing outer enter:\n%s", dump)
	}
	if !strings.Contains(dump, "[TRACE] #2 CONFLICT! gate=spi0") {
		t.Errorf("dump missing conflict:\n%s", dump)
	}
}

func TestDebugPrintlnHonorsEnable(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	t.Cleanup(func() {
		SetDebugWriter(nil)
		SetDebugEnabled(false)
	})

	DebugPrintln("hidden")
	SetDebugEnabled(true)
	if !IsDebugEnabled() {
		t.Fatal("debug should be enabled")
	}
	DebugPrintln("shown")

	if len(lines) != 1 || lines[0] != "shown" {
		t.Errorf("expected only the enabled message, got %v", lines)
	}
}

func TestUtoa(t *testing.T) {
	testCases := []struct {
		in   uint32
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{4294967295, "4294967295"},
	}
	for _, tc := range testCases {
		if got := utoa(tc.in); got != tc.want {
			t.Errorf("utoa(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

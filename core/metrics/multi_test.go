package metrics

import (
	"fmt"
	"testing"
)

type countingSink struct {
	ticks, bookings, sizes, states int
	err                            error
}

func (c *countingSink) RecordTick(TickEvent) error                 { c.ticks++; return c.err }
func (c *countingSink) RecordBooking(BookingEvent) error           { c.bookings++; return c.err }
func (c *countingSink) RecordFleetSize(int) error                  { c.sizes++; return c.err }
func (c *countingSink) RecordVehicleState(VehicleStateEvent) error { c.states++; return c.err }

func TestMultiSinkForwardsToAll(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordTick(TickEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RecordBooking(BookingEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RecordFleetSize(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ticks != 1 || b.ticks != 1 || a.bookings != 1 || b.bookings != 1 || a.sizes != 1 || b.sizes != 1 {
		t.Fatalf("events not forwarded: %+v %+v", a, b)
	}
}

func TestMultiSinkReturnsFirstError(t *testing.T) {
	a := &countingSink{err: fmt.Errorf("sink down")}
	b := &countingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordTick(TickEvent{}); err == nil {
		t.Fatal("expected error")
	}
	if b.ticks != 0 {
		t.Fatalf("expected short-circuit, second sink got %d", b.ticks)
	}
}

func TestMultiSinkSkipsSizeUnawareSinks(t *testing.T) {
	m := NewMultiSink(NopSink{})
	if err := m.RecordFleetSize(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMultiSinkForwardsVehicleState(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, NopSink{}, b)
	if err := m.RecordVehicleState(VehicleStateEvent{VehicleID: "bus-001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.states != 1 || b.states != 1 {
		t.Fatalf("observations not forwarded: %d %d", a.states, b.states)
	}
	a.err = fmt.Errorf("sink down")
	if err := m.RecordVehicleState(VehicleStateEvent{}); err == nil {
		t.Fatal("expected error")
	}
	if b.states != 1 {
		t.Fatalf("expected short-circuit, second sink got %d", b.states)
	}
}

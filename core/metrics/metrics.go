package metrics

import "time"

// TickEvent summarizes one applied tick.
type TickEvent struct {
	Locality string
	Tick     uint64
	Vehicles int
	Duration time.Duration
	Time     time.Time
}

// BookingEvent records the outcome of a booking transaction.
type BookingEvent struct {
	UserID      string
	VehicleID   string
	Seats       int
	TotalAmount float64
	Confirmed   bool
	Time        time.Time
}

// Sink records fleet engine events for observability purposes.
type Sink interface {
	RecordTick(ev TickEvent) error
	RecordBooking(ev BookingEvent) error
}

// FleetSizeRecorder is implemented by sinks that track the fleet size.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// VehicleStateEvent is a per-vehicle observation taken at publish time.
type VehicleStateEvent struct {
	Locality string
	Tick     uint64
	Time     time.Time

	VehicleID      string
	Lat            float64
	Lng            float64
	ETAMinutes     int
	SeatsAvailable int
}

// VehicleStateRecorder is implemented by sinks that persist per-vehicle
// time series.
type VehicleStateRecorder interface {
	RecordVehicleState(ev VehicleStateEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickEvent) error       { return nil }
func (NopSink) RecordBooking(BookingEvent) error { return nil }

package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordTick(ev TickEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTick(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordBooking forwards the event to all sinks.
func (m *MultiSink) RecordBooking(ev BookingEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordBooking(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetSize forwards the size to sinks that support it.
func (m *MultiSink) RecordFleetSize(size int) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordVehicleState forwards the observation to sinks that support it.
func (m *MultiSink) RecordVehicleState(ev VehicleStateEvent) error {
	for _, s := range m.Sinks {
		if vr, ok := s.(VehicleStateRecorder); ok {
			if err := vr.RecordVehicleState(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/routex/fleetlive/core/metrics"
)

// PromSink records fleet and booking events in Prometheus metrics.
type PromSink struct {
	ticks        *prometheus.CounterVec
	tickDuration prometheus.Histogram
	fleet        prometheus.Gauge
	bookings     *prometheus.CounterVec
	amounts      prometheus.Histogram
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The metrics server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_ticks_total",
		Help: "Total number of applied fleet ticks",
	}, []string{"locality"})
	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleet_tick_duration_seconds",
		Help:    "Time spent applying one tick and fanning out the snapshot",
		Buckets: prometheus.DefBuckets,
	})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_vehicles",
		Help: "Number of vehicles in the current fleet",
	})
	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Total number of booking transactions by outcome",
	}, []string{"confirmed"})
	amounts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_amount",
		Help:    "Total amount of confirmed bookings in whole currency units",
		Buckets: []float64{25, 50, 100, 200, 400, 800},
	})

	if err := reg.Register(ticks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			ticks = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(tickDuration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tickDuration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fleet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fleet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(bookings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			bookings = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(amounts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			amounts = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	return &PromSink{
		ticks:        ticks,
		tickDuration: tickDuration,
		fleet:        fleet,
		bookings:     bookings,
		amounts:      amounts,
	}, nil
}

// RecordTick counts the tick and observes its duration.
func (s *PromSink) RecordTick(ev coremetrics.TickEvent) error {
	s.ticks.WithLabelValues(ev.Locality).Inc()
	s.tickDuration.Observe(ev.Duration.Seconds())
	return nil
}

// RecordBooking counts the transaction outcome and, when confirmed,
// observes the amount.
func (s *PromSink) RecordBooking(ev coremetrics.BookingEvent) error {
	s.bookings.WithLabelValues(strconv.FormatBool(ev.Confirmed)).Inc()
	if ev.Confirmed {
		s.amounts.Observe(ev.TotalAmount)
	}
	return nil
}

// RecordFleetSize sets the fleet gauge.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}

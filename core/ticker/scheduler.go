package ticker

import (
	"errors"
	"sync"
	"time"

	"github.com/routex/fleetlive/core/logger"
	"github.com/routex/fleetlive/core/metrics"
	"github.com/routex/fleetlive/core/model"
)

// ErrAlreadyRunning is returned by Start when the scheduler is already
// ticking. Callers switching localities must Stop first so two fleets are
// never ticked concurrently.
var ErrAlreadyRunning = errors.New("ticker: scheduler already running")

// Fleet is the mutable vehicle table the scheduler drives.
type Fleet interface {
	ApplyTick(step func(model.Vehicle) model.Vehicle) model.FleetSnapshot
}

// Publisher receives the snapshot produced by each tick.
type Publisher interface {
	Publish(model.FleetSnapshot)
}

// Scheduler advances a fleet on a fixed period and publishes the
// resulting snapshots. It is a two-state machine, idle or running.
type Scheduler struct {
	fleet Fleet
	bus   Publisher
	sink  metrics.Sink
	log   logger.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// New creates an idle scheduler. sink and log may be nil.
func New(fleet Fleet, bus Publisher, sink metrics.Sink, log logger.Logger) *Scheduler {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Scheduler{fleet: fleet, bus: bus, sink: sink, log: log}
}

// Start begins ticking every period, applying step to each vehicle and
// publishing the snapshot. It fails with ErrAlreadyRunning if the
// scheduler is running.
func (s *Scheduler) Start(period time.Duration, step func(model.Vehicle) model.Vehicle) error {
	if period <= 0 {
		return errors.New("ticker: period must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return ErrAlreadyRunning
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(period, step, s.stop, s.done)
	return nil
}

// Stop halts the tick loop and blocks until an in-flight tick, if any,
// has completed. No tick side effects occur after Stop returns. Stopping
// an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the scheduler is ticking.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *Scheduler) loop(period time.Duration, step func(model.Vehicle) model.Vehicle, stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			// drain a pending stop before ticking so a fleet switched
			// out by Stop is never advanced again
			select {
			case <-stop:
				return
			default:
			}
			s.tickOnce(step)
		}
	}
}

func (s *Scheduler) tickOnce(step func(model.Vehicle) model.Vehicle) {
	start := time.Now()
	snap := s.fleet.ApplyTick(step)
	s.bus.Publish(snap)
	ev := metrics.TickEvent{
		Locality: snap.Locality,
		Tick:     snap.Tick,
		Vehicles: len(snap.Vehicles),
		Duration: time.Since(start),
		Time:     start,
	}
	if err := s.sink.RecordTick(ev); err != nil && s.log != nil {
		s.log.Warnf("record tick: %v", err)
	}
	if fr, ok := s.sink.(metrics.FleetSizeRecorder); ok {
		if err := fr.RecordFleetSize(ev.Vehicles); err != nil && s.log != nil {
			s.log.Warnf("record fleet size: %v", err)
		}
	}
	if s.log != nil {
		s.log.Debugw("tick applied", map[string]any{
			"locality": snap.Locality,
			"tick":     snap.Tick,
			"vehicles": ev.Vehicles,
		})
	}
}

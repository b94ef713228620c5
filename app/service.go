package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/routex/fleetlive/config"
	"github.com/routex/fleetlive/core/booking"
	"github.com/routex/fleetlive/core/fleet"
	coremetrics "github.com/routex/fleetlive/core/metrics"
	"github.com/routex/fleetlive/core/model"
	"github.com/routex/fleetlive/core/perturb"
	"github.com/routex/fleetlive/core/selection"
	"github.com/routex/fleetlive/core/ticker"
	"github.com/routex/fleetlive/infra/bookings"
	"github.com/routex/fleetlive/infra/geocode"
	"github.com/routex/fleetlive/infra/identity"
	"github.com/routex/fleetlive/infra/logger"
	"github.com/routex/fleetlive/infra/metrics"
	"github.com/routex/fleetlive/infra/mqtt"
	"github.com/routex/fleetlive/infra/notify"
	"github.com/routex/fleetlive/infra/payment"
	"github.com/routex/fleetlive/internal/eventbus"
)

// Service wires the fleet store, scheduler, snapshot bus, selection
// coordinator and booking service from a configuration.
type Service struct {
	Store     *fleet.Store
	Scheduler *ticker.Scheduler
	Bus       *eventbus.Bus[model.FleetSnapshot]
	Selection *selection.Coordinator
	Booking   *booking.Service

	cfg  *config.Config
	log  logger.Logger
	sink coremetrics.Sink

	publisher positionPublisher
	influx    *metrics.InfluxSink
	closers   []func() error
}

// positionPublisher is what the service needs from the MQTT publisher.
type positionPublisher interface {
	Publish(model.FleetSnapshot)
	Close()
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var resolver fleet.DestinationResolver
	if cfg.Geocode.Enabled {
		resolver = geocode.New(cfg.Geocode.Client(), logger.New("geocode"))
	}
	store := fleet.NewStore(cfg.Fleet.Store(), resolver, logger.New("fleet"))

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	svc := &Service{cfg: cfg, log: logg}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL,
			cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			svc.influx = is
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = coremetrics.NewMultiSink(sinks...)
	}
	svc.sink = sink

	bus := eventbus.New[model.FleetSnapshot](logger.New("eventbus"))
	svc.Bus = bus
	svc.Store = store
	svc.Scheduler = ticker.New(store, bus, sink, logger.New("ticker"))
	svc.Selection = selection.New()

	if vr, ok := sink.(coremetrics.VehicleStateRecorder); ok {
		bus.Subscribe(vehicleStateHandler(vr, logg))
	}

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPositionPublisher(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
		bus.Subscribe(pub.Publish)
	}

	gateway := payment.NewSimulatedGateway(cfg.Payment, logger.New("payment"))
	bstore, err := svc.bookingStore()
	if err != nil {
		svc.closeOnBuildError()
		return nil, err
	}
	notifier := notify.NewLogNotifier(logger.New("notify"))
	bsvc, err := booking.NewService(identity.Static{UserID: cfg.Identity.UserID},
		gateway, bstore, notifier, sink, logger.New("booking"))
	if err != nil {
		svc.closeOnBuildError()
		return nil, fmt.Errorf("booking service: %w", err)
	}
	svc.Booking = bsvc
	return svc, nil
}

// closeOnBuildError releases connections already opened by New when a
// later wiring step fails.
func (s *Service) closeOnBuildError() {
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.influx != nil {
		s.influx.Close()
	}
	for _, c := range s.closers {
		_ = c()
	}
}

// vehicleStateHandler turns each published snapshot into one
// per-vehicle observation on the recorder.
func vehicleStateHandler(vr coremetrics.VehicleStateRecorder, log logger.Logger) func(model.FleetSnapshot) {
	return func(snap model.FleetSnapshot) {
		now := time.Now()
		for _, v := range snap.Vehicles {
			ev := coremetrics.VehicleStateEvent{
				Locality:       snap.Locality,
				Tick:           snap.Tick,
				Time:           now,
				VehicleID:      v.ID,
				Lat:            v.Position.Lat,
				Lng:            v.Position.Lng,
				ETAMinutes:     v.ETAMinutes,
				SeatsAvailable: v.SeatsAvailable,
			}
			if err := vr.RecordVehicleState(ev); err != nil {
				if log != nil {
					log.Warnf("record vehicle state: %v", err)
				}
				return
			}
		}
	}
}

func (s *Service) bookingStore() (booking.Bookings, error) {
	switch s.cfg.Bookings.Backend {
	case "sqlite":
		store, err := bookings.NewSQLiteStore(s.cfg.Bookings.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		return store, nil
	default:
		return bookings.NewMemoryStore(), nil
	}
}

// StartLocality regenerates the fleet for the locality and begins
// ticking it. Any running schedule is stopped first so only one fleet
// advances at a time.
func (s *Service) StartLocality(ctx context.Context, locality string) error {
	s.Scheduler.Stop()
	if _, err := s.Store.Generate(ctx, locality, s.cfg.Fleet.Size); err != nil {
		return fmt.Errorf("generate fleet: %w", err)
	}
	engine := s.newEngine()
	period := time.Duration(s.cfg.Tick.PeriodMS) * time.Millisecond
	return s.Scheduler.Start(period, engine.Perturb)
}

func (s *Service) newEngine() *perturb.Engine {
	pcfg := s.cfg.Perturb
	pcfg.Bounds = s.Store.Bounds()
	seed := s.cfg.Fleet.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return perturb.New(pcfg, rand.NewPCG(seed, seed))
}

// Run starts the fleet for the configured locality and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if err := s.StartLocality(ctx, s.cfg.Fleet.Locality); err != nil {
		return err
	}
	<-ctx.Done()
	s.Scheduler.Stop()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Scheduler.Stop()
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.influx != nil {
		s.influx.Close()
	}
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

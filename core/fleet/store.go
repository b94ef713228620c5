package fleet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/routex/fleetlive/core/logger"
	"github.com/routex/fleetlive/core/model"
)

// ErrInvalidLocality is returned when generation is requested with an
// empty locality and no fallback locality is configured. The previous
// snapshot, if any, stays valid.
var ErrInvalidLocality = errors.New("fleet: empty locality and no fallback configured")

// DestinationResolver supplies nearby place names to flavor generated
// routes. It only feeds display data; any failure falls back to a static
// pool without failing generation.
type DestinationResolver interface {
	ResolveNearby(ctx context.Context, locality string) ([]string, error)
}

// Config tunes fleet generation.
type Config struct {
	// FallbackLocality is used when Generate is called with "".
	FallbackLocality string `json:"fallback_locality"`
	// SpreadDeg scatters vehicles around the locality centroid and sizes
	// the clamp bounds.
	SpreadDeg float64 `json:"spread_deg"`
	// Seed fixes the generation random source; 0 seeds from entropy.
	Seed uint64 `json:"seed"`
}

// SetDefaults applies generation defaults.
func (c *Config) SetDefaults() {
	if c.SpreadDeg == 0 {
		c.SpreadDeg = 0.15
	}
}

// Store holds the authoritative in-memory vehicle table for one locality.
// It is mutated only by tick application and by fleet regeneration; every
// snapshot handed out is a copy.
type Store struct {
	mu       sync.RWMutex
	cfg      Config
	locality string
	bounds   model.Bounds
	vehicles []model.Vehicle
	tick     uint64
	rng      *rand.Rand
	resolver DestinationResolver
	log      logger.Logger
}

// NewStore creates an empty store. resolver may be nil.
func NewStore(cfg Config, resolver DestinationResolver, log logger.Logger) *Store {
	cfg.SetDefaults()
	var src rand.Source
	if cfg.Seed != 0 {
		src = rand.NewPCG(cfg.Seed, cfg.Seed)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Store{cfg: cfg, rng: rand.New(src), resolver: resolver, log: log}
}

// Generate replaces the fleet with count fresh vehicles for the locality.
// Ids of the previous fleet become invalid, but an outstanding selection
// referencing one is not auto-cleared: a booking transaction freezes the
// vehicle it was drafted from, so it still completes against the captured
// terms.
func (s *Store) Generate(ctx context.Context, locality string, count int) (model.FleetSnapshot, error) {
	if locality == "" {
		locality = s.cfg.FallbackLocality
	}
	if locality == "" {
		return model.FleetSnapshot{}, ErrInvalidLocality
	}
	if count < 0 {
		return model.FleetSnapshot{}, fmt.Errorf("fleet: negative count %d", count)
	}

	dests := s.destinations(ctx, locality)
	center := Centroid(locality)
	spread := s.cfg.SpreadDeg
	bounds := model.Bounds{
		MinLat: center.Lat - spread, MaxLat: center.Lat + spread,
		MinLng: center.Lng - spread, MaxLng: center.Lng + spread,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	vehicles := make([]model.Vehicle, count)
	for i := range vehicles {
		vehicles[i] = model.Vehicle{
			ID:         fmt.Sprintf("bus-%03d", i+1),
			DriverName: driverNames[s.rng.IntN(len(driverNames))],
			Route: model.Route{
				Origin:      locality,
				Destination: dests[s.rng.IntN(len(dests))],
			},
			ETAMinutes:     5 + s.rng.IntN(21),
			FareAmount:     float64(20 + s.rng.IntN(41)),
			SeatsAvailable: s.rng.IntN(17),
			DistanceKm:     3 + 27*s.rng.Float64(),
			Position: model.Position{
				Lat: center.Lat + (s.rng.Float64()*2-1)*spread,
				Lng: center.Lng + (s.rng.Float64()*2-1)*spread,
			},
		}
	}
	s.locality = locality
	s.bounds = bounds
	s.vehicles = vehicles
	s.tick = 0
	if s.log != nil {
		s.log.Infof("generated fleet of %d for %s", count, locality)
	}
	return s.snapshotLocked(), nil
}

func (s *Store) destinations(ctx context.Context, locality string) []string {
	if s.resolver == nil {
		return fallbackDestinations
	}
	places, err := s.resolver.ResolveNearby(ctx, locality)
	if err != nil || len(places) == 0 {
		if err != nil && s.log != nil {
			s.log.Warnf("resolve nearby %s: %v, using fallback pool", locality, err)
		}
		return fallbackDestinations
	}
	return places
}

// Snapshot returns a copy of the current fleet.
func (s *Store) Snapshot() model.FleetSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// ApplyTick replaces every vehicle with step(vehicle) and returns the new
// snapshot.
func (s *Store) ApplyTick(step func(model.Vehicle) model.Vehicle) model.FleetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.vehicles {
		s.vehicles[i] = step(v)
	}
	s.tick++
	return s.snapshotLocked()
}

// Locality returns the locality the current fleet was generated for.
func (s *Store) Locality() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locality
}

// Bounds returns the clamp rectangle of the current fleet.
func (s *Store) Bounds() model.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Size returns the current vehicle count.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles)
}

func (s *Store) snapshotLocked() model.FleetSnapshot {
	out := model.FleetSnapshot{Locality: s.locality, Tick: s.tick,
		Vehicles: make([]model.Vehicle, len(s.vehicles))}
	copy(out.Vehicles, s.vehicles)
	return out
}

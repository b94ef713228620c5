package perturb

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/routex/fleetlive/core/model"
)

// Config bounds the per-tick random walk applied to each vehicle. Deltas
// are half-widths: a field moves by a uniform sample in [-delta, +delta]
// each tick before clamping.
type Config struct {
	// PositionDelta is the max position drift per tick in degrees.
	PositionDelta float64 `json:"position_delta"`
	// ETADelta bounds the signed ETA walk in minutes before rounding.
	ETADelta float64 `json:"eta_delta"`
	// SeatsDelta bounds the signed seat walk before rounding.
	SeatsDelta float64 `json:"seats_delta"`
	// Bounds is the rectangle positions are clamped into.
	Bounds model.Bounds `json:"bounds"`
}

// SetDefaults applies the reference drift magnitudes.
func (c *Config) SetDefaults() {
	if c.PositionDelta == 0 {
		c.PositionDelta = 0.005
	}
	if c.ETADelta == 0 {
		c.ETADelta = 1.5
	}
	if c.SeatsDelta == 0 {
		c.SeatsDelta = 1
	}
}

// Engine computes the next state of a vehicle from its current state and
// a bounded random delta. It performs no I/O and keeps no state beyond
// the injected random source, so a fixed seed yields a fixed walk.
type Engine struct {
	cfg   Config
	pos   distuv.Uniform
	eta   distuv.Uniform
	seats distuv.Uniform
}

// New creates an Engine drawing deltas from src. Passing a seeded source
// makes every walk reproducible.
func New(cfg Config, src rand.Source) *Engine {
	cfg.SetDefaults()
	return &Engine{
		cfg:   cfg,
		pos:   distuv.Uniform{Min: -cfg.PositionDelta, Max: cfg.PositionDelta, Src: src},
		eta:   distuv.Uniform{Min: -cfg.ETADelta, Max: cfg.ETADelta, Src: src},
		seats: distuv.Uniform{Min: -cfg.SeatsDelta, Max: cfg.SeatsDelta, Src: src},
	}
}

// Perturb returns the vehicle advanced by one tick. Position is jittered
// then clamped into the configured bounds, ETA walks but never drops
// below one minute, seats walk but never go negative. All other fields
// pass through unchanged.
func (e *Engine) Perturb(v model.Vehicle) model.Vehicle {
	v.Position = e.cfg.Bounds.Clamp(model.Position{
		Lat: v.Position.Lat + e.pos.Rand(),
		Lng: v.Position.Lng + e.pos.Rand(),
	})
	v.ETAMinutes = max(1, v.ETAMinutes+int(math.Round(e.eta.Rand())))
	v.SeatsAvailable = max(0, v.SeatsAvailable+int(math.Round(e.seats.Rand())))
	return v
}

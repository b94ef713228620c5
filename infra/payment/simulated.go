package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/routex/fleetlive/core/booking"
	"github.com/routex/fleetlive/core/logger"
)

// Config tunes the simulated gateway.
type Config struct {
	// DelayMS is the simulated processing time per charge.
	DelayMS int `json:"delay_ms"`
	// DeclineRate is the probability in [0,1] that a charge is declined.
	DeclineRate float64 `json:"decline_rate"`
	// Seed fixes the decline sequence; 0 seeds from entropy.
	Seed uint64 `json:"seed"`
}

// SimulatedGateway stands in for a real payment provider: it waits a
// configurable processing delay, then succeeds or declines. References
// use the provider-style "pay_" prefix.
type SimulatedGateway struct {
	delay   time.Duration
	decline float64
	log     logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedGateway creates a gateway. log may be nil.
func NewSimulatedGateway(cfg Config, log logger.Logger) *SimulatedGateway {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &SimulatedGateway{
		delay:   time.Duration(cfg.DelayMS) * time.Millisecond,
		decline: cfg.DeclineRate,
		log:     log,
		rng:     rand.New(rand.NewPCG(seed, seed)),
	}
}

// Charge simulates one payment. It honors ctx cancellation during the
// processing delay and never retries.
func (g *SimulatedGateway) Charge(ctx context.Context, amount float64) (booking.Receipt, error) {
	if amount <= 0 {
		return booking.Receipt{}, fmt.Errorf("payment: non-positive amount %v", amount)
	}
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return booking.Receipt{}, ctx.Err()
		case <-time.After(g.delay):
		}
	}
	g.mu.Lock()
	declined := g.rng.Float64() < g.decline
	g.mu.Unlock()
	if declined {
		if g.log != nil {
			g.log.Warnf("charge of %v declined", amount)
		}
		return booking.Receipt{OK: false}, nil
	}
	ref := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if g.log != nil {
		g.log.Infof("charged %v, ref %s", amount, ref)
	}
	return booking.Receipt{OK: true, Reference: ref}, nil
}

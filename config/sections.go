package config

import (
	"fmt"

	"github.com/routex/fleetlive/core/fleet"
	"github.com/routex/fleetlive/infra/geocode"
)

// FleetConfig describes the initial fleet.
type FleetConfig struct {
	// Locality the fleet is generated for; empty falls back to
	// FallbackLocality.
	Locality string `json:"locality"`
	// Size is the number of vehicles to generate.
	Size int `json:"size"`
	// FallbackLocality is used when Locality is empty.
	FallbackLocality string `json:"fallback_locality"`
	// SpreadDeg scatters vehicles around the centroid.
	SpreadDeg float64 `json:"spread_deg"`
	// Seed fixes generation randomness; 0 seeds from entropy.
	Seed uint64 `json:"seed"`
}

// SetDefaults applies fleet defaults.
func (c *FleetConfig) SetDefaults() {
	if c.Size == 0 {
		c.Size = 12
	}
	if c.FallbackLocality == "" {
		c.FallbackLocality = "Kanpur"
	}
}

// Validate checks mandatory fields.
func (c FleetConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("fleet size must be positive, got %d", c.Size)
	}
	return nil
}

// Store converts the section into the fleet store config.
func (c FleetConfig) Store() fleet.Config {
	return fleet.Config{
		FallbackLocality: c.FallbackLocality,
		SpreadDeg:        c.SpreadDeg,
		Seed:             c.Seed,
	}
}

// TickConfig drives the scheduler.
type TickConfig struct {
	// PeriodMS is the tick period in milliseconds.
	PeriodMS int `json:"period_ms"`
}

// SetDefaults applies the reference 5s period.
func (c *TickConfig) SetDefaults() {
	if c.PeriodMS == 0 {
		c.PeriodMS = 5000
	}
}

// Validate checks the period.
func (c TickConfig) Validate() error {
	if c.PeriodMS <= 0 {
		return fmt.Errorf("tick period must be positive, got %dms", c.PeriodMS)
	}
	return nil
}

// GeocodeConfig enables the optional destination resolver.
type GeocodeConfig struct {
	Enabled      bool   `json:"enabled"`
	BaseURL      string `json:"base_url"`
	TimeoutMS    int    `json:"timeout_ms"`
	CountryCodes string `json:"country_codes"`
	Limit        int    `json:"limit"`
}

// Client converts the section into the geocode client config.
func (c GeocodeConfig) Client() geocode.Config {
	return geocode.Config{
		BaseURL:      c.BaseURL,
		TimeoutMS:    c.TimeoutMS,
		CountryCodes: c.CountryCodes,
		Limit:        c.Limit,
	}
}

// BookingsConfig selects the persistence backend.
type BookingsConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the database location for the sqlite backend.
	Path string `json:"path"`
}

// SetDefaults applies backend defaults.
func (c *BookingsConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "bookings.db"
	}
}

// Validate checks the backend name.
func (c BookingsConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown bookings backend %s", c.Backend)
	}
	return nil
}

// IdentityConfig names the active user for bookings. Left empty,
// bookings land in the guest bucket.
type IdentityConfig struct {
	UserID string `json:"user_id"`
}

// MetricsConfig configures the observability sinks.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies metrics defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

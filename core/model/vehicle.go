package model

import "fmt"

// Position is a geographic coordinate in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the rectangle a fleet's positions are confined to. Clamping
// keeps a margin inside the locality box so markers never sit on the edge.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Clamp returns p constrained into the bounds.
func (b Bounds) Clamp(p Position) Position {
	if p.Lat < b.MinLat {
		p.Lat = b.MinLat
	}
	if p.Lat > b.MaxLat {
		p.Lat = b.MaxLat
	}
	if p.Lng < b.MinLng {
		p.Lng = b.MinLng
	}
	if p.Lng > b.MaxLng {
		p.Lng = b.MaxLng
	}
	return p
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p Position) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Route describes the origin/destination pair a vehicle serves. It is
// fixed for the vehicle's lifetime; only regenerating the fleet for a new
// locality produces different routes.
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Vehicle represents one tracked transit unit within a fleet.
type Vehicle struct {
	ID         string `json:"id"`
	DriverName string `json:"driver_name"`
	Route      Route  `json:"route"`
	// ETAMinutes drifts every tick with a bounded random walk, never below 1.
	ETAMinutes int `json:"eta_minutes"`
	// FareAmount is a whole-unit fare, fixed at generation time.
	FareAmount float64 `json:"fare_amount"`
	// SeatsAvailable drifts every tick, floored at 0. It is deliberately
	// never reconciled against a bus capacity and confirmed bookings do
	// not decrement it; the upstream product behaves the same way.
	SeatsAvailable int      `json:"seats_available"`
	DistanceKm     float64  `json:"distance_km"`
	Position       Position `json:"position"`
}

// Validate checks the per-vehicle invariants that must hold after
// generation and after every tick.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is empty")
	}
	if v.ETAMinutes < 1 {
		return fmt.Errorf("vehicle %s: eta %d below 1", v.ID, v.ETAMinutes)
	}
	if v.SeatsAvailable < 0 {
		return fmt.Errorf("vehicle %s: negative seats %d", v.ID, v.SeatsAvailable)
	}
	if v.FareAmount < 0 {
		return fmt.Errorf("vehicle %s: negative fare %v", v.ID, v.FareAmount)
	}
	if v.DistanceKm < 0 {
		return fmt.Errorf("vehicle %s: negative distance %v", v.ID, v.DistanceKm)
	}
	return nil
}

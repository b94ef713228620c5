package model

import "time"

// BookingRecord is the immutable outcome of a confirmed booking. Vehicle
// freezes the fare, ETA and seat count as observed when the rider built
// the draft, so later ticks drifting the live vehicle never change what
// was booked.
type BookingRecord struct {
	ID          string    `json:"id"`
	Vehicle     Vehicle   `json:"vehicle"`
	Seats       int       `json:"seats"`
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
	PaymentRef  string    `json:"payment_ref"`
}

package model

import "time"

// Show represents the slice of show metadata the reservation core
// needs.  Shows themselves are owned by the catalog service; the core
// only reads the seat capacity to validate requested seat numbers.
// Seats are not stored entities – a seat is the pair (show, number)
// with number in 1..SeatCount.
//
// Fields:
//  ID        – primary key identifier.
//  SeatCount – number of seats in the show's hall.
//  StartsAt  – when the show begins.
//  CreatedAt – creation timestamp.
type Show struct {
	ID        uint64    // shows.id
	SeatCount int       // shows.seat_count
	StartsAt  time.Time // shows.starts_at
	CreatedAt time.Time // shows.created_at
}

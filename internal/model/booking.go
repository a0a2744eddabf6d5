package model

import "time"

// Booking records a confirmed, paid claim on one seat of one show.  A
// booking is terminal: rows are never mutated or deleted in normal
// operation, and the unique key on (show_id, seat_number) guarantees
// that a seat is booked at most once, ever.
//
// Fields:
//  ID             – primary key identifier.
//  ShowID         – show in which the seat is booked.
//  SeatNumber     – seat number within the show's hall.
//  UserID         – user who paid for the seat.
//  PaymentID      – opaque payment reference supplied by the gateway.
//  PaymentGateway – gateway that processed the payment.
//  CreatedAt      – creation timestamp.
type Booking struct {
	ID             uint64    // bookings.id
	ShowID         uint64    // bookings.show_id
	SeatNumber     int       // bookings.seat_number
	UserID         uint64    // bookings.user_id
	PaymentID      string    // bookings.payment_id
	PaymentGateway string    // bookings.payment_gateway
	CreatedAt      time.Time // bookings.created_at
}

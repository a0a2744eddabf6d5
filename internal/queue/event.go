// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingFinalizedEvent is published when a batch of seats is
// successfully booked.  It carries enough information for downstream
// consumers to log, notify, or feed analytics without querying the
// primary database.
type BookingFinalizedEvent struct {
	ShowID         uint64 `json:"show_id"`
	UserID         uint64 `json:"user_id"`
	SeatNumbers    []int  `json:"seat_numbers"`
	PaymentID      string `json:"payment_id"`
	PaymentGateway string `json:"payment_gateway"`
	FinalizedAt    string `json:"finalized_at"`
}

// Package reservation implements the seat reservation core: the lock
// manager governing temporary seat claims and the finalizer converting
// paid claims into permanent bookings.  Availability decisions are
// delegated to a Store, whose uniqueness guarantees are the final
// arbiter under concurrent callers.
package reservation

import (
	"errors"
	"fmt"
)

// ErrShowNotFound is returned when the referenced show does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrShowNotFound = errors.New("show not found")

// ErrPaymentUnverified is returned when the payment collaborator
// rejects or cannot confirm the supplied payment reference.
var ErrPaymentUnverified = errors.New("payment could not be verified")

// SeatTakenError is returned by Store implementations when an insert
// loses a race on the (show, seat) uniqueness constraint.  The seat
// that fired the constraint is reported so callers can surface it.
type SeatTakenError struct {
	SeatNumber int
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %d is already taken", e.SeatNumber)
}

// ValidationError reports malformed input rejected before any storage
// round trip.  Handlers should translate this into an HTTP 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError reports that one or more requested seats are
// unavailable.  Exactly one of the seat fields is populated depending
// on the cause: BookedSeats when seats already carry a booking,
// LockedSeats when another user holds live locks, ConflictingSeat when
// a finalize batch lost the insert race on a single seat.  Handlers
// should translate this into an HTTP 409 naming the seats so clients
// can deselect just those and keep the rest.
type ConflictError struct {
	Reason          string
	BookedSeats     []int
	LockedSeats     []int
	ConflictingSeat int
}

func (e *ConflictError) Error() string { return e.Reason }

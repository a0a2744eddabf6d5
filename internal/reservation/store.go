package reservation

import (
	"context"
	"time"

	"github.com/cinetix/seat-reservation/internal/model"
)

// Store is the persistent source of truth for seat availability.  A
// seat is available, locked or booked – never two of these at once –
// and only the store decides which.  Implementations must enforce a
// uniqueness constraint on (show, seat) for both locks and bookings so
// that concurrent claims resolve with exactly one winner; a lost race
// surfaces as *SeatTakenError, never as partial state.
//
// Methods that read locks take the caller's notion of now and must
// treat locks with expires_at <= now as absent (passive expiry).
type Store interface {
	// Capacity returns the number of seats for the show, or
	// ErrShowNotFound.  Capacity is externally managed metadata;
	// the core never writes it.
	Capacity(ctx context.Context, showID uint64) (int, error)

	// BookedSeats returns all booked seat numbers for the show.
	BookedSeats(ctx context.Context, showID uint64) ([]int, error)

	// BookedSeatsAmong returns the subset of seats that already carry
	// a booking for the show.
	BookedSeatsAmong(ctx context.Context, showID uint64, seats []int) ([]int, error)

	// LiveLocks returns all non-expired locks for the show.
	LiveLocks(ctx context.Context, showID uint64, now time.Time) ([]model.SeatLock, error)

	// LiveLocksAmong returns the non-expired locks held on any of the
	// given seats.
	LiveLocksAmong(ctx context.Context, showID uint64, seats []int, now time.Time) ([]model.SeatLock, error)

	// ReplaceLocks atomically replaces all of the user's locks for the
	// show with a fresh set covering exactly seats, each expiring at
	// expiresAt.  Expired rows on the requested seats are purged first
	// so they never block the insert.  A live lock held by another
	// user causes *SeatTakenError and leaves the user's prior locks
	// untouched.
	ReplaceLocks(ctx context.Context, showID, userID uint64, seats []int, now, expiresAt time.Time) error

	// DeleteLocks removes the user's locks for the show, restricted to
	// the given seats when non-empty, and returns the seat numbers
	// actually removed.  Removing nothing is not an error.
	DeleteLocks(ctx context.Context, showID, userID uint64, seats []int) ([]int, error)

	// CreateBookings inserts one booking per seat as a single atomic
	// batch.  If any insert fires the uniqueness constraint the whole
	// batch is rolled back and *SeatTakenError names the seat.
	CreateBookings(ctx context.Context, showID, userID uint64, seats []int, paymentID, gateway string) error

	// SeatsByPayment returns the seat numbers the user has already
	// booked for the show under the given payment reference.  Used to
	// recognise retried finalize calls.
	SeatsByPayment(ctx context.Context, showID, userID uint64, paymentID string) ([]int, error)

	// DeleteExpiredLocks removes lock rows that expired before the
	// given instant and reports how many were reclaimed.  Storage
	// hygiene only; correctness never depends on it.
	DeleteExpiredLocks(ctx context.Context, before time.Time) (int64, error)
}

// Notifier broadcasts seat state transitions to every client currently
// watching a show.  Delivery is best effort; clients reconcile against
// the status query on connect.
type Notifier interface {
	SeatsLocked(showID uint64, seats []int, userID uint64)
	SeatsUnlocked(showID uint64, seats []int, userID uint64)
	SeatsBooked(showID uint64, seats []int, userID uint64)
}

// PaymentVerifier confirms a payment reference with the external
// payment collaborator before a booking is finalized.
type PaymentVerifier interface {
	Verify(ctx context.Context, paymentID string) error
}

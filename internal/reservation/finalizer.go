package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/cinetix/seat-reservation/internal/queue"
)

// maxPaymentIDLen bounds the opaque payment reference accepted from
// clients.
const maxPaymentIDLen = 200

// EventPublisher forwards finalized bookings to the message broker for
// downstream consumers (audit log, analytics).  Publishing is best
// effort and never fails a finalize call.
type EventPublisher interface {
	PublishBookingFinalized(ctx context.Context, ev queue.BookingFinalizedEvent) error
}

// Finalizer converts a user's seat selection into permanent bookings
// once payment is confirmed.  The pre-check catches conflicts early,
// but the store's uniqueness constraint is what actually prevents
// double booking: a batch that loses the insert race is rolled back in
// full and reported as a conflict naming the seat.
type Finalizer struct {
	store     Store
	notifier  Notifier
	verifier  PaymentVerifier // optional; nil skips verification
	publisher EventPublisher  // optional; nil skips broker publish
	gateway   string
	maxSeats  int
	now       func() time.Time
}

// NewFinalizer constructs a Finalizer.  verifier and publisher may be
// nil; gateway labels the payment gateway recorded on each booking.
func NewFinalizer(store Store, notifier Notifier, verifier PaymentVerifier, publisher EventPublisher, gateway string, maxSeats int) *Finalizer {
	if store == nil || notifier == nil {
		panic("nil dependency passed to NewFinalizer")
	}
	if gateway == "" {
		gateway = "CASHFREE"
	}
	if maxSeats <= 0 {
		maxSeats = DefaultMaxSeatsPerRequest
	}
	return &Finalizer{
		store:     store,
		notifier:  notifier,
		verifier:  verifier,
		publisher: publisher,
		gateway:   gateway,
		maxSeats:  maxSeats,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FinalizeResult is the successful outcome of Finalize.
type FinalizeResult struct {
	SeatNumbers []int // the seats booked, sorted ascending
	// AlreadyBooked is set when the same payment reference had already
	// booked these seats for this user – a retried request, not a new
	// booking.  No rows were written and no events were emitted.
	AlreadyBooked bool
}

// Finalize books the requested seats for the user under the given
// payment reference.  The whole batch succeeds or none of it does.  A
// retried call with the same paymentID whose seats are all already
// booked by this user is recognised and answered as success.  Seats
// booked by anyone else cause a *ConflictError; a mid-batch race lost
// on the uniqueness constraint rolls the batch back and names the seat.
func (f *Finalizer) Finalize(ctx context.Context, showID, userID uint64, seats []int, paymentID string) (*FinalizeResult, error) {
	if paymentID == "" || len(paymentID) > maxPaymentIDLen {
		return nil, &ValidationError{Reason: "invalid payment id"}
	}
	capacity, err := f.store.Capacity(ctx, showID)
	if err != nil {
		return nil, err
	}
	requested, err := normalizeSeats(seats, capacity, f.maxSeats)
	if err != nil {
		return nil, err
	}

	if f.verifier != nil {
		if err := f.verifier.Verify(ctx, paymentID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentUnverified, err)
		}
	}

	// A client retry re-submits the same payment reference for seats
	// that are already its own confirmed booking.  Treat that as
	// success instead of a conflict.
	prior, err := f.store.SeatsByPayment(ctx, showID, userID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("check payment %q for show %d: %w", paymentID, showID, err)
	}
	if coversAll(prior, requested) {
		return &FinalizeResult{SeatNumbers: requested, AlreadyBooked: true}, nil
	}

	booked, err := f.store.BookedSeatsAmong(ctx, showID, requested)
	if err != nil {
		return nil, fmt.Errorf("check booked seats for show %d: %w", showID, err)
	}
	if len(booked) > 0 {
		sort.Ints(booked)
		return nil, &ConflictError{Reason: "some seats are already booked", BookedSeats: booked}
	}

	if err := f.store.CreateBookings(ctx, showID, userID, requested, paymentID, f.gateway); err != nil {
		var taken *SeatTakenError
		if errors.As(err, &taken) {
			// Lost the race between pre-check and insert; the store
			// rolled the whole batch back.
			return nil, &ConflictError{
				Reason:          "seat booking conflict, please try again",
				ConflictingSeat: taken.SeatNumber,
			}
		}
		return nil, fmt.Errorf("create bookings for user %d show %d: %w", userID, showID, err)
	}

	// The seats are booked; the user's remaining locks for the show
	// are stale.  Cleanup is best effort – passive expiry reclaims
	// anything this misses.
	if _, err := f.store.DeleteLocks(ctx, showID, userID, nil); err != nil {
		log.Printf("reservation: lock cleanup after finalize failed: show=%d user=%d err=%v", showID, userID, err)
	}

	f.notifier.SeatsBooked(showID, requested, userID)
	f.publish(ctx, showID, userID, requested, paymentID)
	return &FinalizeResult{SeatNumbers: requested}, nil
}

func (f *Finalizer) publish(ctx context.Context, showID, userID uint64, seats []int, paymentID string) {
	if f.publisher == nil {
		return
	}
	ev := queue.BookingFinalizedEvent{
		ShowID:         showID,
		UserID:         userID,
		SeatNumbers:    seats,
		PaymentID:      paymentID,
		PaymentGateway: f.gateway,
		FinalizedAt:    f.now().Format(time.RFC3339),
	}
	if err := f.publisher.PublishBookingFinalized(ctx, ev); err != nil {
		log.Printf("reservation: publish booking.finalized failed: show=%d user=%d err=%v", showID, userID, err)
	}
}

// coversAll reports whether every wanted seat is present in have.
func coversAll(have, want []int) bool {
	if len(have) == 0 {
		return false
	}
	set := make(map[int]struct{}, len(have))
	for _, n := range have {
		set[n] = struct{}{}
	}
	for _, n := range want {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cinetix/seat-reservation/internal/model"
)

// Store bundles the show, lock and booking repositories behind the
// reservation.Store contract.  The two seat-claiming operations run
// inside transactions so that a lost race on the unique key rolls the
// whole mutation back and the prior state survives intact.
type Store struct {
	db       *sql.DB
	shows    *ShowRepo
	locks    *SeatLockRepo
	bookings *BookingRepo
}

// NewStore returns a Store bound to the provided database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		shows:    NewShowRepo(db),
		locks:    NewSeatLockRepo(db),
		bookings: NewBookingRepo(db),
	}
}

// Bookings exposes the underlying booking repository for listing
// endpoints that bypass the reservation core.
func (s *Store) Bookings() *BookingRepo { return s.bookings }

// Capacity implements reservation.Store.
func (s *Store) Capacity(ctx context.Context, showID uint64) (int, error) {
	return s.shows.Capacity(ctx, showID)
}

// BookedSeats implements reservation.Store.
func (s *Store) BookedSeats(ctx context.Context, showID uint64) ([]int, error) {
	return s.bookings.SeatsByShow(ctx, showID)
}

// BookedSeatsAmong implements reservation.Store.
func (s *Store) BookedSeatsAmong(ctx context.Context, showID uint64, seats []int) ([]int, error) {
	return s.bookings.SeatsAmong(ctx, showID, seats)
}

// LiveLocks implements reservation.Store.
func (s *Store) LiveLocks(ctx context.Context, showID uint64, now time.Time) ([]model.SeatLock, error) {
	return s.locks.LiveByShow(ctx, showID, now)
}

// LiveLocksAmong implements reservation.Store.
func (s *Store) LiveLocksAmong(ctx context.Context, showID uint64, seats []int, now time.Time) ([]model.SeatLock, error) {
	return s.locks.LiveAmong(ctx, showID, seats, now)
}

// ReplaceLocks implements reservation.Store.  Within one transaction:
// expired rows on the requested seats are purged so they cannot block
// the insert, the user's previous lock set for the show is dropped,
// and the fresh set is inserted.  The unique key on (show_id,
// seat_number) rejects any seat concurrently locked by someone else;
// the transaction then rolls back, leaving the user's prior locks in
// place.
func (s *Store) ReplaceLocks(ctx context.Context, showID, userID uint64, seats []int, now, expiresAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.locks.DeleteExpiredAmongTx(ctx, tx, showID, seats, now); err != nil {
		return err
	}
	if err := s.locks.DeleteByUserAndShowTx(ctx, tx, showID, userID); err != nil {
		return err
	}
	if err := s.locks.InsertBatchTx(ctx, tx, showID, userID, seats, expiresAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteLocks implements reservation.Store.
func (s *Store) DeleteLocks(ctx context.Context, showID, userID uint64, seats []int) ([]int, error) {
	return s.locks.DeleteByUserAndShow(ctx, showID, userID, seats)
}

// CreateBookings implements reservation.Store.  The per-seat inserts
// run inside one transaction; if any insert fires the unique key the
// transaction rolls back, so a batch either books every seat or none.
func (s *Store) CreateBookings(ctx context.Context, showID, userID uint64, seats []int, paymentID, gateway string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.bookings.InsertBatchTx(ctx, tx, showID, userID, seats, paymentID, gateway); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SeatsByPayment implements reservation.Store.
func (s *Store) SeatsByPayment(ctx context.Context, showID, userID uint64, paymentID string) ([]int, error) {
	return s.bookings.SeatsByPayment(ctx, showID, userID, paymentID)
}

// DeleteExpiredLocks implements reservation.Store.
func (s *Store) DeleteExpiredLocks(ctx context.Context, before time.Time) (int64, error) {
	return s.locks.DeleteExpiredBefore(ctx, before)
}

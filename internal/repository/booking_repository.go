package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cinetix/seat-reservation/internal/model"
	"github.com/cinetix/seat-reservation/internal/reservation"
)

// BookingRepo provides data access to the bookings table.  Bookings
// are append-only: rows are never updated or deleted in normal
// operation, and the unique key on (show_id, seat_number) guarantees a
// seat is booked at most once, ever.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// SeatsByShow returns all booked seat numbers for a show.
func (r *BookingRepo) SeatsByShow(ctx context.Context, showID uint64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT seat_number FROM bookings WHERE show_id = ?`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeatNumbers(rows)
}

// SeatsAmong returns the subset of the given seats that already carry
// a booking for the show.
func (r *BookingRepo) SeatsAmong(ctx context.Context, showID uint64, seats []int) ([]int, error) {
	if len(seats) == 0 {
		return nil, nil
	}
	q := `SELECT seat_number FROM bookings WHERE show_id = ? AND seat_number IN (` + placeholders(len(seats)) + `)`
	args := make([]interface{}, 0, len(seats)+1)
	args = append(args, showID)
	for _, n := range seats {
		args = append(args, n)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeatNumbers(rows)
}

// SeatsByPayment returns the seat numbers the user booked for the show
// under the given payment reference.  Used to recognise retried
// finalize calls as idempotent successes.
func (r *BookingRepo) SeatsByPayment(ctx context.Context, showID, userID uint64, paymentID string) ([]int, error) {
	const q = `SELECT seat_number FROM bookings WHERE show_id = ? AND user_id = ? AND payment_id = ?`
	rows, err := r.db.QueryContext(ctx, q, showID, userID, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeatNumbers(rows)
}

// InsertBatchTx inserts one booking per seat within the provided
// transaction.  A duplicate-key violation means a concurrent winner
// claimed the seat between pre-check and write; it is reported as
// *reservation.SeatTakenError naming the seat, and the caller must
// roll the transaction back so no partial batch survives.
func (r *BookingRepo) InsertBatchTx(ctx context.Context, tx *sql.Tx, showID, userID uint64, seats []int, paymentID, gateway string) error {
	const q = `INSERT INTO bookings (show_id, seat_number, user_id, payment_id, payment_gateway) VALUES (?, ?, ?, ?, ?)`
	for _, n := range seats {
		if _, err := tx.ExecContext(ctx, q, showID, n, userID, paymentID, gateway); err != nil {
			if isDuplicateKey(err) {
				return &reservation.SeatTakenError{SeatNumber: n}
			}
			return fmt.Errorf("insert booking for seat %d: %w", n, err)
		}
	}
	return nil
}

// ListByUser returns the user's bookings across all shows, newest
// first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, show_id, seat_number, user_id, payment_id, payment_gateway, created_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

// ListByShow returns all bookings for a show ordered by seat number.
func (r *BookingRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Booking, error) {
	const q = `SELECT id, show_id, seat_number, user_id, payment_id, payment_gateway, created_at
	           FROM bookings WHERE show_id = ? ORDER BY seat_number`
	return r.list(ctx, q, showID)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.ShowID, &b.SeatNumber, &b.UserID, &b.PaymentID, &b.PaymentGateway, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanSeatNumbers(rows *sql.Rows) ([]int, error) {
	var seats []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}

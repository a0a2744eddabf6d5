// This file defines the read-only show lookup.  Shows are owned by an
// external catalog service; the reservation core only consumes the
// seat capacity to validate requested seat numbers, so no write
// methods exist here.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetix/seat-reservation/internal/model"
	"github.com/cinetix/seat-reservation/internal/reservation"
)

// ShowRepo provides read access to the shows table.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo returns a new ShowRepo bound to the provided database.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// GetByID fetches a show by its primary key.  Returns
// reservation.ErrShowNotFound when no row matches.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT id, seat_count, starts_at, created_at FROM shows WHERE id = ?`
	var s model.Show
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.SeatCount, &s.StartsAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Capacity returns the number of seats in the show's hall, or
// reservation.ErrShowNotFound.
func (r *ShowRepo) Capacity(ctx context.Context, id uint64) (int, error) {
	const q = `SELECT seat_count FROM shows WHERE id = ?`
	var capacity int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, reservation.ErrShowNotFound
	}
	if err != nil {
		return 0, err
	}
	return capacity, nil
}

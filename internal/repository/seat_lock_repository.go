package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cinetix/seat-reservation/internal/model"
	"github.com/cinetix/seat-reservation/internal/reservation"
)

// SeatLockRepo provides data access to the seat_locks table.  All
// methods compare expiration against a caller-supplied instant so that
// expired locks are treated as absent regardless of whether the reaper
// has removed the row yet.  Timestamps are stored and compared in UTC.
type SeatLockRepo struct {
	db *sql.DB
}

// NewSeatLockRepo returns a new SeatLockRepo bound to the provided database.
func NewSeatLockRepo(db *sql.DB) *SeatLockRepo { return &SeatLockRepo{db: db} }

// LiveByShow retrieves all non-expired locks for a show.
func (r *SeatLockRepo) LiveByShow(ctx context.Context, showID uint64, now time.Time) ([]model.SeatLock, error) {
	const q = `SELECT id, show_id, seat_number, user_id, expires_at, created_at
	           FROM seat_locks
	           WHERE show_id = ? AND expires_at > ?`
	return r.scanLocks(ctx, q, showID, now.UTC())
}

// LiveAmong retrieves the non-expired locks held on any of the given
// seats of a show.  An empty seat list yields an empty result.
func (r *SeatLockRepo) LiveAmong(ctx context.Context, showID uint64, seats []int, now time.Time) ([]model.SeatLock, error) {
	if len(seats) == 0 {
		return nil, nil
	}
	q := `SELECT id, show_id, seat_number, user_id, expires_at, created_at
	      FROM seat_locks
	      WHERE show_id = ? AND expires_at > ? AND seat_number IN (` + placeholders(len(seats)) + `)`
	args := make([]interface{}, 0, len(seats)+2)
	args = append(args, showID, now.UTC())
	for _, n := range seats {
		args = append(args, n)
	}
	return r.scanLocks(ctx, q, args...)
}

func (r *SeatLockRepo) scanLocks(ctx context.Context, q string, args ...interface{}) ([]model.SeatLock, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locks []model.SeatLock
	for rows.Next() {
		var l model.SeatLock
		if err := rows.Scan(&l.ID, &l.ShowID, &l.SeatNumber, &l.UserID, &l.ExpiresAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		locks = append(locks, l)
	}
	return locks, rows.Err()
}

// DeleteExpiredAmongTx purges lock rows on the given seats whose
// expiration has passed.  Run inside the replace transaction so that a
// stale row never blocks a fresh insert on the unique key.
func (r *SeatLockRepo) DeleteExpiredAmongTx(ctx context.Context, tx *sql.Tx, showID uint64, seats []int, now time.Time) error {
	if len(seats) == 0 {
		return nil
	}
	q := `DELETE FROM seat_locks WHERE show_id = ? AND expires_at <= ? AND seat_number IN (` + placeholders(len(seats)) + `)`
	args := make([]interface{}, 0, len(seats)+2)
	args = append(args, showID, now.UTC())
	for _, n := range seats {
		args = append(args, n)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// DeleteByUserAndShowTx removes the user's locks for the show within
// the provided transaction.  The caller must commit or roll back.
func (r *SeatLockRepo) DeleteByUserAndShowTx(ctx context.Context, tx *sql.Tx, showID, userID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM seat_locks WHERE show_id = ? AND user_id = ?`, showID, userID)
	return err
}

// InsertBatchTx inserts one lock row per seat within the provided
// transaction.  A duplicate-key violation means another user's live
// lock occupies one of the seats; it is reported as
// *reservation.SeatTakenError naming that seat, and the caller is
// expected to roll the transaction back.  Rows are inserted one at a
// time so the conflicting seat can be identified.
func (r *SeatLockRepo) InsertBatchTx(ctx context.Context, tx *sql.Tx, showID, userID uint64, seats []int, expiresAt time.Time) error {
	const q = `INSERT INTO seat_locks (show_id, seat_number, user_id, expires_at) VALUES (?, ?, ?, ?)`
	at := expiresAt.UTC().Format("2006-01-02 15:04:05")
	for _, n := range seats {
		if _, err := tx.ExecContext(ctx, q, showID, n, userID, at); err != nil {
			if isDuplicateKey(err) {
				return &reservation.SeatTakenError{SeatNumber: n}
			}
			return fmt.Errorf("insert lock for seat %d: %w", n, err)
		}
	}
	return nil
}

// DeleteByUserAndShow removes the user's locks for the show, restricted
// to the given seats when non-empty, and returns the seat numbers
// actually removed.  Deleting nothing is not an error.
func (r *SeatLockRepo) DeleteByUserAndShow(ctx context.Context, showID, userID uint64, seats []int) ([]int, error) {
	sel := `SELECT seat_number FROM seat_locks WHERE show_id = ? AND user_id = ?`
	del := `DELETE FROM seat_locks WHERE show_id = ? AND user_id = ?`
	args := []interface{}{showID, userID}
	if len(seats) > 0 {
		clause := ` AND seat_number IN (` + placeholders(len(seats)) + `)`
		sel += clause
		del += clause
		for _, n := range seats {
			args = append(args, n)
		}
	}
	rows, err := r.db.QueryContext(ctx, sel, args...)
	if err != nil {
		return nil, err
	}
	var removed []int
	for rows.Next() {
		var n int
		if scanErr := rows.Scan(&n); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		removed = append(removed, n)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if _, err = r.db.ExecContext(ctx, del, args...); err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteExpiredBefore reclaims lock rows that expired before the given
// instant across all shows.  Used by the background reaper.
func (r *SeatLockRepo) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_locks WHERE expires_at <= ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// placeholders builds a "?, ?, ?" list for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

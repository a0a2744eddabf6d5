package model

import "time"

// SeatLock represents a temporary, user-scoped claim on one seat of one
// show during checkout.  A live lock prevents other users from locking
// or booking the same seat.  Locks expire automatically at their
// expires_at timestamp; reads must treat expired locks as absent even
// before the reaper has removed the row.
//
// Fields:
//  ID         – primary key identifier.
//  ShowID     – show to which the seat belongs.
//  SeatNumber – seat number within the show's hall (1..capacity).
//  UserID     – user holding the lock.
//  ExpiresAt  – when the lock expires.
//  CreatedAt  – when the lock was created.
type SeatLock struct {
	ID         uint64    // seat_locks.id
	ShowID     uint64    // seat_locks.show_id
	SeatNumber int       // seat_locks.seat_number
	UserID     uint64    // seat_locks.user_id
	ExpiresAt  time.Time // seat_locks.expires_at
	CreatedAt  time.Time // seat_locks.created_at
}

// Live reports whether the lock is still in force at the given instant.
// Comparisons are performed in UTC; the database stores UTC timestamps.
func (l SeatLock) Live(now time.Time) bool {
	return l.ExpiresAt.After(now)
}

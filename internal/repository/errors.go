// Package repository implements the MySQL-backed reservation store.
// Seat availability is decided here and nowhere else: the unique keys
// on (show_id, seat_number) in the seat_locks and bookings tables are
// the final arbiter when concurrent callers claim the same seat.
// Contract errors (conflicts, missing shows) are the sentinel and
// typed errors declared in the reservation package.
package repository

import "strings"

// isDuplicateKey reports whether the error is a MySQL duplicate entry
// violation (error 1062), i.e. an insert that lost a race on a unique
// key.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "1062")
}

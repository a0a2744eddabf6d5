package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"
)

// DefaultLockDuration is how long a granted lock lasts before passive
// expiry frees the seat again.
const DefaultLockDuration = 10 * time.Minute

// DefaultMaxSeatsPerRequest bounds the number of seats a single
// acquire, release or finalize call may name.
const DefaultMaxSeatsPerRequest = 10

// LockManager governs acquisition, renewal, release and expiry of seat
// locks.  All availability decisions go through the Store; the manager
// never trusts client-side lock state.  A Notifier is injected so
// state transitions reach every client watching the show.
type LockManager struct {
	store        Store
	notifier     Notifier
	lockDuration time.Duration
	maxSeats     int
	now          func() time.Time
}

// NewLockManager constructs a LockManager.  Zero values for
// lockDuration and maxSeats select the defaults.
func NewLockManager(store Store, notifier Notifier, lockDuration time.Duration, maxSeats int) *LockManager {
	if store == nil || notifier == nil {
		panic("nil dependency passed to NewLockManager")
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	if maxSeats <= 0 {
		maxSeats = DefaultMaxSeatsPerRequest
	}
	return &LockManager{
		store:        store,
		notifier:     notifier,
		lockDuration: lockDuration,
		maxSeats:     maxSeats,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// LockGrant is the successful result of Acquire.
type LockGrant struct {
	SeatNumbers []int     // the seats now locked, sorted ascending
	ExpiresAt   time.Time // when the grant lapses
}

// LockedSeat is one entry of a status query's locked set.
type LockedSeat struct {
	SeatNumber     int  `json:"seatNumber"`
	LockedByCaller bool `json:"isLockedByCurrentUser"`
}

// SeatStatus is the point-in-time availability view of a show.
type SeatStatus struct {
	BookedSeats []int        `json:"bookedSeats"`
	LockedSeats []LockedSeat `json:"lockedSeats"`
}

// Acquire locks the requested seats for the user.  The user's new
// selection always supersedes their prior selection for the show: on
// success the user holds exactly the requested set, each lock expiring
// after the configured lock duration.  Seats already booked, or live-
// locked by a different user, cause a *ConflictError naming them.  Two
// callers racing for the same seat resolve through the store's
// uniqueness constraint, not through the pre-checks: the loser also
// receives a *ConflictError.
func (m *LockManager) Acquire(ctx context.Context, showID, userID uint64, seats []int) (*LockGrant, error) {
	capacity, err := m.store.Capacity(ctx, showID)
	if err != nil {
		return nil, err
	}
	requested, err := normalizeSeats(seats, capacity, m.maxSeats)
	if err != nil {
		return nil, err
	}
	now := m.now()

	booked, err := m.store.BookedSeatsAmong(ctx, showID, requested)
	if err != nil {
		return nil, fmt.Errorf("check booked seats for show %d: %w", showID, err)
	}
	if len(booked) > 0 {
		sort.Ints(booked)
		return nil, &ConflictError{Reason: "some seats are already booked", BookedSeats: booked}
	}

	locks, err := m.store.LiveLocksAmong(ctx, showID, requested, now)
	if err != nil {
		return nil, fmt.Errorf("check seat locks for show %d: %w", showID, err)
	}
	var foreign []int
	for _, l := range locks {
		if l.Live(now) && l.UserID != userID {
			foreign = append(foreign, l.SeatNumber)
		}
	}
	if len(foreign) > 0 {
		sort.Ints(foreign)
		return nil, &ConflictError{Reason: "some seats are locked by other users", LockedSeats: foreign}
	}

	expiresAt := now.Add(m.lockDuration)
	if err := m.store.ReplaceLocks(ctx, showID, userID, requested, now, expiresAt); err != nil {
		var taken *SeatTakenError
		if errors.As(err, &taken) {
			// Lost the insert race to a concurrent locker.
			return nil, &ConflictError{
				Reason:      "some seats are locked by other users",
				LockedSeats: []int{taken.SeatNumber},
			}
		}
		return nil, fmt.Errorf("replace locks for user %d show %d: %w", userID, showID, err)
	}

	m.notifier.SeatsLocked(showID, requested, userID)
	return &LockGrant{SeatNumbers: requested, ExpiresAt: expiresAt}, nil
}

// Release removes the user's locks for the show, restricted to seats
// when non-empty, and returns how many were removed.  Release never
// fails from the caller's perspective: it is invoked from cleanup
// paths (navigation away, timers, failed payments) where an error must
// not block the user, so storage failures are logged and reported as a
// zero count.
func (m *LockManager) Release(ctx context.Context, showID, userID uint64, seats []int) int {
	removed, err := m.store.DeleteLocks(ctx, showID, userID, dedupeSeats(seats))
	if err != nil {
		log.Printf("reservation: release locks failed: show=%d user=%d seats=%v err=%v", showID, userID, seats, err)
		return 0
	}
	if len(removed) > 0 {
		sort.Ints(removed)
		m.notifier.SeatsUnlocked(showID, removed, userID)
	}
	return len(removed)
}

// Status returns the booked seat numbers and the live locked seats for
// the show, each locked seat tagged with whether the requesting user
// holds it.  Pass userID 0 for unauthenticated callers.  Expired locks
// never appear: this query is the practical enforcement point for
// passive expiry.
func (m *LockManager) Status(ctx context.Context, showID, userID uint64) (*SeatStatus, error) {
	if _, err := m.store.Capacity(ctx, showID); err != nil {
		return nil, err
	}
	booked, err := m.store.BookedSeats(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("load booked seats for show %d: %w", showID, err)
	}
	now := m.now()
	locks, err := m.store.LiveLocks(ctx, showID, now)
	if err != nil {
		return nil, fmt.Errorf("load seat locks for show %d: %w", showID, err)
	}
	sort.Ints(booked)
	locked := make([]LockedSeat, 0, len(locks))
	for _, l := range locks {
		if !l.Live(now) {
			continue
		}
		locked = append(locked, LockedSeat{
			SeatNumber:     l.SeatNumber,
			LockedByCaller: userID != 0 && l.UserID == userID,
		})
	}
	sort.Slice(locked, func(i, j int) bool { return locked[i].SeatNumber < locked[j].SeatNumber })
	return &SeatStatus{BookedSeats: booked, LockedSeats: locked}, nil
}

// normalizeSeats deduplicates and sorts the requested seat numbers and
// validates them against the batch ceiling and the show's capacity.
func normalizeSeats(seats []int, capacity, maxSeats int) ([]int, error) {
	unique := dedupeSeats(seats)
	if len(unique) == 0 {
		return nil, &ValidationError{Reason: "at least one seat must be selected"}
	}
	if len(unique) > maxSeats {
		return nil, &ValidationError{Reason: fmt.Sprintf("cannot request more than %d seats at once", maxSeats)}
	}
	for _, n := range unique {
		if n < 1 || n > capacity {
			return nil, &ValidationError{Reason: fmt.Sprintf("seat %d is out of range 1..%d", n, capacity)}
		}
	}
	sort.Ints(unique)
	return unique, nil
}

// dedupeSeats drops duplicates and non-positive seat numbers while
// preserving first-seen order.
func dedupeSeats(seats []int) []int {
	if len(seats) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(seats))
	out := make([]int, 0, len(seats))
	for _, n := range seats {
		if n <= 0 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Package reservationtest provides in-memory fakes for exercising the
// lock manager and finalizer without MySQL.  MemStore enforces the
// same per-seat uniqueness the database schema does, atomically under
// one mutex, so race-oriented tests exercise real conflict behavior.
package reservationtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cinetix/seat-reservation/internal/model"
	"github.com/cinetix/seat-reservation/internal/queue"
	"github.com/cinetix/seat-reservation/internal/reservation"
)

type lockRow struct {
	userID    uint64
	expiresAt time.Time
	createdAt time.Time
}

type bookingRow struct {
	userID    uint64
	paymentID string
	gateway   string
}

// MemStore is an in-memory reservation.Store.
type MemStore struct {
	mu         sync.Mutex
	capacities map[uint64]int
	locks      map[uint64]map[int]lockRow
	bookings   map[uint64]map[int]bookingRow

	// Optional fault injection: when set, the matching mutation
	// returns the error without touching state.
	ReplaceErr error
	CreateErr  error
	DeleteErr  error
}

// NewMemStore builds a MemStore with the given show capacities.
func NewMemStore(capacities map[uint64]int) *MemStore {
	s := &MemStore{
		capacities: make(map[uint64]int),
		locks:      make(map[uint64]map[int]lockRow),
		bookings:   make(map[uint64]map[int]bookingRow),
	}
	for id, c := range capacities {
		s.capacities[id] = c
	}
	return s
}

func (s *MemStore) Capacity(_ context.Context, showID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.capacities[showID]
	if !ok {
		return 0, reservation.ErrShowNotFound
	}
	return c, nil
}

func (s *MemStore) BookedSeats(_ context.Context, showID uint64) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.bookings[showID]))
	for n := range s.bookings[showID] {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func (s *MemStore) BookedSeatsAmong(_ context.Context, showID uint64, seats []int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, n := range seats {
		if _, ok := s.bookings[showID][n]; ok {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (s *MemStore) LiveLocks(_ context.Context, showID uint64, now time.Time) ([]model.SeatLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocksLocked(showID, nil, now), nil
}

func (s *MemStore) LiveLocksAmong(_ context.Context, showID uint64, seats []int, now time.Time) ([]model.SeatLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocksLocked(showID, seats, now), nil
}

func (s *MemStore) liveLocksLocked(showID uint64, seats []int, now time.Time) []model.SeatLock {
	want := map[int]bool{}
	for _, n := range seats {
		want[n] = true
	}
	var out []model.SeatLock
	for n, row := range s.locks[showID] {
		if len(want) > 0 && !want[n] {
			continue
		}
		if !row.expiresAt.After(now) {
			continue
		}
		out = append(out, model.SeatLock{
			ShowID:     showID,
			SeatNumber: n,
			UserID:     row.userID,
			ExpiresAt:  row.expiresAt,
			CreatedAt:  row.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out
}

func (s *MemStore) ReplaceLocks(_ context.Context, showID, userID uint64, seats []int, now, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	// Uniqueness check first; a conflict must leave prior state intact,
	// mirroring the transaction rollback in the SQL store.
	for _, n := range seats {
		row, ok := s.locks[showID][n]
		if ok && row.userID != userID && row.expiresAt.After(now) {
			return &reservation.SeatTakenError{SeatNumber: n}
		}
	}
	for n, row := range s.locks[showID] {
		if row.userID == userID {
			delete(s.locks[showID], n)
		}
	}
	if s.locks[showID] == nil {
		s.locks[showID] = make(map[int]lockRow)
	}
	for _, n := range seats {
		s.locks[showID][n] = lockRow{userID: userID, expiresAt: expiresAt, createdAt: now}
	}
	return nil
}

func (s *MemStore) DeleteLocks(_ context.Context, showID, userID uint64, seats []int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return nil, s.DeleteErr
	}
	want := map[int]bool{}
	for _, n := range seats {
		want[n] = true
	}
	var removed []int
	for n, row := range s.locks[showID] {
		if row.userID != userID {
			continue
		}
		if len(want) > 0 && !want[n] {
			continue
		}
		delete(s.locks[showID], n)
		removed = append(removed, n)
	}
	sort.Ints(removed)
	return removed, nil
}

func (s *MemStore) CreateBookings(_ context.Context, showID, userID uint64, seats []int, paymentID, gateway string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, n := range seats {
		if _, ok := s.bookings[showID][n]; ok {
			// No partial effect: the SQL store rolls the batch back.
			return &reservation.SeatTakenError{SeatNumber: n}
		}
	}
	if s.bookings[showID] == nil {
		s.bookings[showID] = make(map[int]bookingRow)
	}
	for _, n := range seats {
		s.bookings[showID][n] = bookingRow{userID: userID, paymentID: paymentID, gateway: gateway}
	}
	return nil
}

func (s *MemStore) SeatsByPayment(_ context.Context, showID, userID uint64, paymentID string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for n, row := range s.bookings[showID] {
		if row.userID == userID && row.paymentID == paymentID {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (s *MemStore) DeleteExpiredLocks(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rows := range s.locks {
		for seat, row := range rows {
			if !row.expiresAt.After(before) {
				delete(rows, seat)
				n++
			}
		}
	}
	return n, nil
}

// LockHolder reports who holds the lock on a seat, expired or not.
// Zero means nobody.
func (s *MemStore) LockHolder(showID uint64, seat int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[showID][seat].userID
}

// LockCount reports the number of lock rows stored for a show,
// including expired ones, so tests can observe reaper behavior.
func (s *MemStore) LockCount(showID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks[showID])
}

// SetBooking seeds a booking row directly.
func (s *MemStore) SetBooking(showID uint64, seat int, userID uint64, paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookings[showID] == nil {
		s.bookings[showID] = make(map[int]bookingRow)
	}
	s.bookings[showID][seat] = bookingRow{userID: userID, paymentID: paymentID}
}

// SetLock seeds a lock row directly.
func (s *MemStore) SetLock(showID uint64, seat int, userID uint64, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[showID] == nil {
		s.locks[showID] = make(map[int]lockRow)
	}
	s.locks[showID][seat] = lockRow{userID: userID, expiresAt: expiresAt}
}

// Notification is one broadcast recorded by RecordingNotifier.
type Notification struct {
	Kind   string // "locked", "unlocked", "booked"
	ShowID uint64
	Seats  []int
	UserID uint64
}

// RecordingNotifier captures broadcasts for assertions.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (r *RecordingNotifier) SeatsLocked(showID uint64, seats []int, userID uint64) {
	r.record("locked", showID, seats, userID)
}

func (r *RecordingNotifier) SeatsUnlocked(showID uint64, seats []int, userID uint64) {
	r.record("unlocked", showID, seats, userID)
}

func (r *RecordingNotifier) SeatsBooked(showID uint64, seats []int, userID uint64) {
	r.record("booked", showID, seats, userID)
}

func (r *RecordingNotifier) record(kind string, showID uint64, seats []int, userID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Notification{Kind: kind, ShowID: showID, Seats: append([]int(nil), seats...), UserID: userID})
}

// Events returns a copy of everything recorded so far.
func (r *RecordingNotifier) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.events...)
}

// Last returns the most recent notification, or a zero value when
// nothing was broadcast.
func (r *RecordingNotifier) Last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Notification{}
	}
	return r.events[len(r.events)-1]
}

// VerifierFunc adapts a function to reservation.PaymentVerifier.
type VerifierFunc func(ctx context.Context, paymentID string) error

func (f VerifierFunc) Verify(ctx context.Context, paymentID string) error { return f(ctx, paymentID) }

// RecordingPublisher captures finalized-booking events.
type RecordingPublisher struct {
	mu     sync.Mutex
	Err    error
	events []queue.BookingFinalizedEvent
}

func (p *RecordingPublisher) PublishBookingFinalized(_ context.Context, ev queue.BookingFinalizedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, ev)
	return nil
}

// Published returns a copy of the captured events.
func (p *RecordingPublisher) Published() []queue.BookingFinalizedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BookingFinalizedEvent(nil), p.events...)
}

package reservation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/seat-reservation/internal/reservation"
	"github.com/cinetix/seat-reservation/internal/reservation/reservationtest"
)

const (
	showID   = uint64(7)
	capacity = 100
	userA    = uint64(1)
	userB    = uint64(2)
)

func newLockManager(t *testing.T) (*reservation.LockManager, *reservationtest.MemStore, *reservationtest.RecordingNotifier) {
	t.Helper()
	store := reservationtest.NewMemStore(map[uint64]int{showID: capacity})
	notifier := &reservationtest.RecordingNotifier{}
	return reservation.NewLockManager(store, notifier, 10*time.Minute, 10), store, notifier
}

func TestAcquireGrantsRequestedSeats(t *testing.T) {
	m, store, notifier := newLockManager(t)

	before := time.Now().UTC()
	grant, err := m.Acquire(context.Background(), showID, userA, []int{3, 1, 3, 2})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, grant.SeatNumbers)
	assert.WithinDuration(t, before.Add(10*time.Minute), grant.ExpiresAt, 2*time.Second)

	for _, n := range []int{1, 2, 3} {
		assert.Equal(t, userA, store.LockHolder(showID, n))
	}
	ev := notifier.Last()
	assert.Equal(t, "locked", ev.Kind)
	assert.Equal(t, showID, ev.ShowID)
	assert.Equal(t, []int{1, 2, 3}, ev.Seats)
	assert.Equal(t, userA, ev.UserID)
}

func TestAcquireValidation(t *testing.T) {
	m, _, notifier := newLockManager(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		seats []int
	}{
		{"no seats", nil},
		{"only invalid seats", []int{0, -4}},
		{"too many seats", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{"seat beyond capacity", []int{capacity + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Acquire(ctx, showID, userA, tt.seats)
			var ve *reservation.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.Empty(t, notifier.Events(), "rejected requests must not broadcast")
}

func TestAcquireUnknownShow(t *testing.T) {
	m, _, _ := newLockManager(t)
	_, err := m.Acquire(context.Background(), 999, userA, []int{1})
	assert.ErrorIs(t, err, reservation.ErrShowNotFound)
}

func TestAcquireRejectsBookedSeats(t *testing.T) {
	m, store, notifier := newLockManager(t)
	store.SetBooking(showID, 2, userB, "pay-1")

	_, err := m.Acquire(context.Background(), showID, userA, []int{1, 2})
	var ce *reservation.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []int{2}, ce.BookedSeats)
	assert.Empty(t, notifier.Events())
	assert.Zero(t, store.LockHolder(showID, 1), "no partial lock on conflict")
}

func TestAcquireRejectsForeignLiveLocks(t *testing.T) {
	m, store, _ := newLockManager(t)
	store.SetLock(showID, 2, userB, time.Now().Add(time.Minute))

	_, err := m.Acquire(context.Background(), showID, userA, []int{1, 2})
	var ce *reservation.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []int{2}, ce.LockedSeats)
}

func TestAcquireIgnoresExpiredForeignLocks(t *testing.T) {
	m, store, _ := newLockManager(t)
	store.SetLock(showID, 2, userB, time.Now().Add(-time.Minute))

	grant, err := m.Acquire(context.Background(), showID, userA, []int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, grant.SeatNumbers)
	assert.Equal(t, userA, store.LockHolder(showID, 2))
}

func TestAcquireReplacesOwnSelection(t *testing.T) {
	m, store, _ := newLockManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx, showID, userA, []int{1, 2})
	require.NoError(t, err)

	grant, err := m.Acquire(ctx, showID, userA, []int{2, 3})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, grant.SeatNumbers)
	assert.Zero(t, store.LockHolder(showID, 1), "old selection must be released, not unioned")
	assert.Equal(t, userA, store.LockHolder(showID, 2))
	assert.Equal(t, userA, store.LockHolder(showID, 3))
}

func TestAcquireRaceSingleWinner(t *testing.T) {
	m, _, _ := newLockManager(t)
	ctx := context.Background()

	const contenders = 16
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Acquire(ctx, showID, uint64(100+i), []int{42})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var ce *reservation.ConflictError
		assert.ErrorAs(t, err, &ce, "losers must see a conflict, not a crash")
	}
	assert.Equal(t, 1, winners, "exactly one contender may hold the seat")
}

func TestReleaseIsIdempotent(t *testing.T) {
	m, _, notifier := newLockManager(t)

	n := m.Release(context.Background(), showID, userA, []int{5})
	assert.Zero(t, n)
	assert.Empty(t, notifier.Events(), "releasing nothing must not broadcast")
}

func TestReleaseSubsetAndAll(t *testing.T) {
	m, store, notifier := newLockManager(t)
	ctx := context.Background()
	_, err := m.Acquire(ctx, showID, userA, []int{1, 2, 3})
	require.NoError(t, err)

	n := m.Release(ctx, showID, userA, []int{2})
	assert.Equal(t, 1, n)
	assert.Equal(t, userA, store.LockHolder(showID, 1))
	assert.Zero(t, store.LockHolder(showID, 2))
	ev := notifier.Last()
	assert.Equal(t, "unlocked", ev.Kind)
	assert.Equal(t, []int{2}, ev.Seats)

	n = m.Release(ctx, showID, userA, nil)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1, 3}, notifier.Last().Seats)
}

func TestReleaseDoesNotTouchOtherUsersLocks(t *testing.T) {
	m, store, _ := newLockManager(t)
	store.SetLock(showID, 4, userB, time.Now().Add(time.Minute))

	n := m.Release(context.Background(), showID, userA, []int{4})
	assert.Zero(t, n)
	assert.Equal(t, userB, store.LockHolder(showID, 4))
}

func TestReleaseSwallowsStorageErrors(t *testing.T) {
	m, store, notifier := newLockManager(t)
	store.DeleteErr = assert.AnError

	n := m.Release(context.Background(), showID, userA, []int{1})
	assert.Zero(t, n)
	assert.Empty(t, notifier.Events())
}

func TestStatusFiltersExpiredAndTagsCaller(t *testing.T) {
	m, store, _ := newLockManager(t)
	store.SetBooking(showID, 5, userB, "pay-9")
	store.SetLock(showID, 1, userA, time.Now().Add(time.Minute))
	store.SetLock(showID, 2, userA, time.Now().Add(-time.Second)) // expired
	store.SetLock(showID, 3, userB, time.Now().Add(time.Minute))

	status, err := m.Status(context.Background(), showID, userA)
	require.NoError(t, err)

	assert.Equal(t, []int{5}, status.BookedSeats)
	require.Len(t, status.LockedSeats, 2, "expired locks must read as absent")
	assert.Equal(t, reservation.LockedSeat{SeatNumber: 1, LockedByCaller: true}, status.LockedSeats[0])
	assert.Equal(t, reservation.LockedSeat{SeatNumber: 3, LockedByCaller: false}, status.LockedSeats[1])
}

func TestStatusForGuest(t *testing.T) {
	m, store, _ := newLockManager(t)
	store.SetLock(showID, 1, userA, time.Now().Add(time.Minute))

	status, err := m.Status(context.Background(), showID, 0)
	require.NoError(t, err)
	require.Len(t, status.LockedSeats, 1)
	assert.False(t, status.LockedSeats[0].LockedByCaller, "guests never own locks")
}

func TestStatusUnknownShow(t *testing.T) {
	m, _, _ := newLockManager(t)
	_, err := m.Status(context.Background(), 999, userA)
	assert.ErrorIs(t, err, reservation.ErrShowNotFound)
}

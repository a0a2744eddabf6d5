package seatview_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cinetix/seat-reservation/internal/notifier"
	"github.com/cinetix/seat-reservation/internal/reservation"
	"github.com/cinetix/seat-reservation/internal/seatview"
)

const callerID = uint64(1)

func TestApplySnapshot(t *testing.T) {
	v := seatview.New(7)
	v.ApplySnapshot(reservation.SeatStatus{
		BookedSeats: []int{5},
		LockedSeats: []reservation.LockedSeat{
			{SeatNumber: 1, LockedByCaller: true},
			{SeatNumber: 3, LockedByCaller: false},
		},
	})

	assert.Equal(t, seatview.Booked, v.SeatState(5))
	assert.Equal(t, seatview.Locked, v.SeatState(1))
	assert.Equal(t, seatview.Locked, v.SeatState(3))
	assert.Equal(t, seatview.Available, v.SeatState(2))
	assert.True(t, v.HeldByCaller(1))
	assert.False(t, v.HeldByCaller(3))
	assert.Equal(t, []int{1, 3, 5}, v.Unavailable())
}

func TestApplySnapshotReplacesPriorState(t *testing.T) {
	v := seatview.New(7)
	v.ApplySnapshot(reservation.SeatStatus{
		LockedSeats: []reservation.LockedSeat{{SeatNumber: 1, LockedByCaller: true}},
	})
	v.ApplySnapshot(reservation.SeatStatus{BookedSeats: []int{2}})

	assert.Equal(t, seatview.Available, v.SeatState(1), "snapshot is authoritative, not additive")
	assert.False(t, v.HeldByCaller(1))
	assert.Equal(t, seatview.Booked, v.SeatState(2))
}

func TestApplyEventLockUnlockBook(t *testing.T) {
	v := seatview.New(7)

	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsLocked, ShowID: 7, SeatNumbers: []int{1, 2}, UserID: callerID}, callerID)
	assert.Equal(t, seatview.Locked, v.SeatState(1))
	assert.True(t, v.HeldByCaller(1))

	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsUnlocked, ShowID: 7, SeatNumbers: []int{1}, UserID: callerID}, callerID)
	assert.Equal(t, seatview.Available, v.SeatState(1))
	assert.False(t, v.HeldByCaller(1))

	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsBooked, ShowID: 7, SeatNumbers: []int{2}, UserID: callerID}, callerID)
	assert.Equal(t, seatview.Booked, v.SeatState(2))
	assert.False(t, v.HeldByCaller(2), "a booked seat is no longer a held lock")
}

func TestApplyEventForeignLockDropsOwnership(t *testing.T) {
	v := seatview.New(7)
	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsLocked, ShowID: 7, SeatNumbers: []int{4}, UserID: 9}, callerID)

	assert.Equal(t, seatview.Locked, v.SeatState(4))
	assert.False(t, v.HeldByCaller(4))
}

func TestBookedWinsOverLaterEvents(t *testing.T) {
	v := seatview.New(7)
	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsBooked, ShowID: 7, SeatNumbers: []int{3}}, callerID)

	// A replayed or late lock/unlock must not regress a booked seat.
	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsLocked, ShowID: 7, SeatNumbers: []int{3}, UserID: 9}, callerID)
	assert.Equal(t, seatview.Booked, v.SeatState(3))
	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsUnlocked, ShowID: 7, SeatNumbers: []int{3}, UserID: 9}, callerID)
	assert.Equal(t, seatview.Booked, v.SeatState(3))
}

func TestApplyEventIgnoresOtherShows(t *testing.T) {
	v := seatview.New(7)
	v.ApplyEvent(notifier.Event{Type: notifier.EventSeatsLocked, ShowID: 8, SeatNumbers: []int{1}}, callerID)
	assert.Equal(t, seatview.Available, v.SeatState(1))
}

func TestReleaseDeadline(t *testing.T) {
	expires := time.Date(2026, 9, 1, 12, 10, 0, 0, time.UTC)

	assert.Equal(t, expires.Add(-30*time.Second), seatview.ReleaseDeadline(expires, 0))
	assert.Equal(t, expires.Add(-time.Minute), seatview.ReleaseDeadline(expires, time.Minute))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "available", seatview.Available.String())
	assert.Equal(t, "locked", seatview.Locked.String())
	assert.Equal(t, "booked", seatview.Booked.String())
}

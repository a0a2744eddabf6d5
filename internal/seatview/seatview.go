// Package seatview maintains a client-local mirror of one show's seat
// state, fed by a status snapshot plus the notifier's event stream.
// It is a convenience for consumers of the real-time channel (the web
// client, load generators, integration tests); the server never trusts
// it — availability is always decided by the reservation store.
package seatview

import (
	"sort"
	"time"

	"github.com/cinetix/seat-reservation/internal/notifier"
	"github.com/cinetix/seat-reservation/internal/reservation"
)

// DefaultReleaseMargin is how long before lock expiry a well-behaved
// client proactively releases its seats, so other users do not discover
// a stale lock only when it lapses server-side.
const DefaultReleaseMargin = 30 * time.Second

// State is what the view believes about a single seat.
type State int

const (
	Available State = iota
	Locked
	Booked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Booked:
		return "booked"
	default:
		return "available"
	}
}

// View mirrors the seat state of one show.  It is not safe for
// concurrent use; callers feeding it from multiple goroutines must
// serialize access themselves.
type View struct {
	showID uint64
	seats  map[int]State
	mine   map[int]bool // seats the viewing user holds a lock on
}

// New creates an empty view for a show.
func New(showID uint64) *View {
	return &View{
		showID: showID,
		seats:  make(map[int]State),
		mine:   make(map[int]bool),
	}
}

// ShowID returns the show this view tracks.
func (v *View) ShowID() uint64 { return v.showID }

// ApplySnapshot replaces the view's state with an authoritative status
// query result.  Call it on connect and after any gap in the event
// stream.
func (v *View) ApplySnapshot(s reservation.SeatStatus) {
	v.seats = make(map[int]State)
	v.mine = make(map[int]bool)
	for _, n := range s.BookedSeats {
		v.seats[n] = Booked
	}
	for _, l := range s.LockedSeats {
		if v.seats[l.SeatNumber] == Booked {
			continue
		}
		v.seats[l.SeatNumber] = Locked
		if l.LockedByCaller {
			v.mine[l.SeatNumber] = true
		}
	}
}

// ApplyEvent folds a notifier event into the view.  Events for other
// shows and events that contradict a booked seat are ignored: booked is
// terminal, so a late or replayed lock/unlock for a booked seat never
// regresses it.  callerID identifies the viewing user so lock events
// keep the "mine" tagging accurate.
func (v *View) ApplyEvent(ev notifier.Event, callerID uint64) {
	if ev.ShowID != v.showID {
		return
	}
	switch ev.Type {
	case notifier.EventSeatsLocked:
		for _, n := range ev.SeatNumbers {
			if v.seats[n] == Booked {
				continue
			}
			v.seats[n] = Locked
			if ev.UserID == callerID {
				v.mine[n] = true
			} else {
				delete(v.mine, n)
			}
		}
	case notifier.EventSeatsUnlocked:
		for _, n := range ev.SeatNumbers {
			if v.seats[n] == Booked {
				continue
			}
			delete(v.seats, n)
			delete(v.mine, n)
		}
	case notifier.EventSeatsBooked:
		for _, n := range ev.SeatNumbers {
			v.seats[n] = Booked
			delete(v.mine, n)
		}
	}
}

// SeatState reports the view's belief about one seat.
func (v *View) SeatState(seat int) State { return v.seats[seat] }

// HeldByCaller reports whether the viewing user holds the lock on a
// seat, as far as the view knows.
func (v *View) HeldByCaller(seat int) bool { return v.mine[seat] }

// Unavailable lists every seat currently locked or booked, sorted.
func (v *View) Unavailable() []int {
	out := make([]int, 0, len(v.seats))
	for n := range v.seats {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// ReleaseDeadline returns the instant at which the client should
// proactively release its locks: the grant's expiry minus margin.  A
// margin of zero or less selects DefaultReleaseMargin.
func ReleaseDeadline(expiresAt time.Time, margin time.Duration) time.Time {
	if margin <= 0 {
		margin = DefaultReleaseMargin
	}
	return expiresAt.Add(-margin)
}

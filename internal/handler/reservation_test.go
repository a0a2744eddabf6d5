package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/seat-reservation/internal/handler"
	"github.com/cinetix/seat-reservation/internal/repository"
	"github.com/cinetix/seat-reservation/internal/reservation"
	"github.com/cinetix/seat-reservation/internal/reservation/reservationtest"
)

const (
	showID = "7"
	userA  = uint64(1)
	userB  = uint64(2)
)

type fixture struct {
	e       *echo.Echo
	h       *handler.ReservationHandler
	store   *reservationtest.MemStore
	notifier *reservationtest.RecordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := reservationtest.NewMemStore(map[uint64]int{7: 100})
	notifier := &reservationtest.RecordingNotifier{}
	locks := reservation.NewLockManager(store, notifier, 10*time.Minute, 10)
	fin := reservation.NewFinalizer(store, notifier, nil, nil, "CASHFREE", 10)
	// The listing endpoints need a real database; the handler is still
	// constructable with an empty repo since these tests never hit them.
	return &fixture{
		e:       echo.New(),
		h:       handler.NewReservationHandler(locks, fin, &repository.BookingRepo{}),
		store:   store,
		notifier: notifier,
	}
}

// request builds an Echo context for a show-scoped endpoint.  userID 0
// leaves the request unauthenticated.
func (f *fixture) request(method, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(showID)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seatNumbers(t *testing.T, v interface{}) []int {
	t.Helper()
	arr, ok := v.([]interface{})
	require.True(t, ok, "expected a JSON array, got %T", v)
	out := make([]int, 0, len(arr))
	for _, x := range arr {
		out = append(out, int(x.(float64)))
	}
	return out
}

func TestLockSeatsSuccess(t *testing.T) {
	f := newFixture(t)
	c, rec := f.request(http.MethodPost, `{"seatNumbers":[2,1]}`, userA)

	require.NoError(t, f.h.LockSeats(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, []int{1, 2}, seatNumbers(t, body["lockedSeats"]))
	expires, err := time.Parse(time.RFC3339, body["expiresAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expires, 5*time.Second)
}

func TestLockSeatsRequiresAuth(t *testing.T) {
	f := newFixture(t)
	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1]}`, 0)

	require.NoError(t, f.h.LockSeats(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLockSeatsInvalidShowID(t *testing.T) {
	f := newFixture(t)
	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1]}`, userA)
	c.SetParamValues("not-a-number")

	require.NoError(t, f.h.LockSeats(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLockSeatsValidationFailure(t *testing.T) {
	f := newFixture(t)
	c, rec := f.request(http.MethodPost, `{"seatNumbers":[]}`, userA)

	require.NoError(t, f.h.LockSeats(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["error"])
}

func TestLockSeatsUnknownShow(t *testing.T) {
	f := newFixture(t)
	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1]}`, userA)
	c.SetParamValues("999")

	require.NoError(t, f.h.LockSeats(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLockSeatsConflictNamesSeats(t *testing.T) {
	f := newFixture(t)
	f.store.SetBooking(7, 2, userB, "pay-b")

	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1,2]}`, userA)
	require.NoError(t, f.h.LockSeats(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []int{2}, seatNumbers(t, body["bookedSeats"]))
	assert.NotContains(t, body, "lockedSeats")
}

func TestUnlockSeatsIdempotent(t *testing.T) {
	f := newFixture(t)
	c, rec := f.request(http.MethodDelete, "", userA)

	require.NoError(t, f.h.UnlockSeats(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["unlockedCount"])
}

func TestSeatStatusForGuest(t *testing.T) {
	f := newFixture(t)
	f.store.SetBooking(7, 5, userB, "pay-b")
	f.store.SetLock(7, 1, userA, time.Now().Add(time.Minute))

	c, rec := f.request(http.MethodGet, "", 0)
	require.NoError(t, f.h.SeatStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []int{5}, seatNumbers(t, body["bookedSeats"]))
	locked := body["lockedSeats"].([]interface{})
	require.Len(t, locked, 1)
	entry := locked[0].(map[string]interface{})
	assert.Equal(t, float64(1), entry["seatNumber"])
	assert.Equal(t, false, entry["isLockedByCurrentUser"])
}

func TestFinalizeBookingPaymentRequired(t *testing.T) {
	f := newFixture(t)
	verifier := reservationtest.VerifierFunc(func(_ context.Context, paymentID string) error {
		return errors.New("not captured")
	})
	fin := reservation.NewFinalizer(f.store, f.notifier, verifier, nil, "CASHFREE", 10)
	h := handler.NewReservationHandler(f.h.Locks, fin, &repository.BookingRepo{})

	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1],"paymentId":"pay-1"}`, userA)
	require.NoError(t, h.FinalizeBooking(c))
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestFinalizeBookingSuccessAndReplay(t *testing.T) {
	f := newFixture(t)

	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1,2],"paymentId":"pay-1"}`, userA)
	require.NoError(t, f.h.FinalizeBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "booking confirmed", decode(t, rec)["message"])

	// Same payment reference again: answered as success, not conflict.
	c, rec = f.request(http.MethodPost, `{"seatNumbers":[1,2],"paymentId":"pay-1"}`, userA)
	require.NoError(t, f.h.FinalizeBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "booking already confirmed", decode(t, rec)["message"])
}

func TestFinalizeBookingConflict(t *testing.T) {
	f := newFixture(t)
	f.store.SetBooking(7, 1, userB, "pay-b")

	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1],"paymentId":"pay-a"}`, userA)
	require.NoError(t, f.h.FinalizeBooking(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []int{1}, seatNumbers(t, decode(t, rec)["bookedSeats"]))
}

func TestFinalizeBookingMissingPaymentID(t *testing.T) {
	f := newFixture(t)
	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1]}`, userA)

	require.NoError(t, f.h.FinalizeBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestTwoUserFlow walks the full interaction: user A locks seats,
// user B sees them as taken and is rejected on overlap, A pays and
// finalizes, B observes the booking and locks a remaining seat.
func TestTwoUserFlow(t *testing.T) {
	f := newFixture(t)

	// A locks seats 1 and 2.
	c, rec := f.request(http.MethodPost, `{"seatNumbers":[1,2]}`, userA)
	require.NoError(t, f.h.LockSeats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// B's status view shows both locked, neither owned.
	c, rec = f.request(http.MethodGet, "", userB)
	require.NoError(t, f.h.SeatStatus(c))
	locked := decode(t, rec)["lockedSeats"].([]interface{})
	require.Len(t, locked, 2)
	for _, e := range locked {
		assert.Equal(t, false, e.(map[string]interface{})["isLockedByCurrentUser"])
	}

	// B tries to lock 2 and 3: rejected, seat 2 named.
	c, rec = f.request(http.MethodPost, `{"seatNumbers":[2,3]}`, userB)
	require.NoError(t, f.h.LockSeats(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []int{2}, seatNumbers(t, decode(t, rec)["lockedSeats"]))

	// A finalizes after paying.
	c, rec = f.request(http.MethodPost, `{"seatNumbers":[1,2],"paymentId":"pay-a"}`, userA)
	require.NoError(t, f.h.FinalizeBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// B now sees 1 and 2 booked and no remaining locks.
	c, rec = f.request(http.MethodGet, "", userB)
	require.NoError(t, f.h.SeatStatus(c))
	body := decode(t, rec)
	assert.Equal(t, []int{1, 2}, seatNumbers(t, body["bookedSeats"]))
	assert.Empty(t, body["lockedSeats"])

	// Seat 3 is free for B.
	c, rec = f.request(http.MethodPost, `{"seatNumbers":[3]}`, userB)
	require.NoError(t, f.h.LockSeats(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

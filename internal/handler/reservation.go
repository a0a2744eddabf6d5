package handler

import (
    "errors"   // errors.Is / errors.As comparisons
    "net/http" // HTTP status codes
    "time"     // response timestamp formatting

    "github.com/labstack/echo/v4"

    "github.com/cinetix/seat-reservation/internal/repository"
    "github.com/cinetix/seat-reservation/internal/reservation"
)

// ReservationHandler exposes the seat locking and booking endpoints.
// Conflict responses always name the seats that caused the rejection so
// the client can update its view without a second status query.
type ReservationHandler struct {
    Locks     *reservation.LockManager
    Finalizer *reservation.Finalizer
    Bookings  *repository.BookingRepo
}

// NewReservationHandler constructs a ReservationHandler.  All
// dependencies must be non-nil.
func NewReservationHandler(locks *reservation.LockManager, fin *reservation.Finalizer, bookings *repository.BookingRepo) *ReservationHandler {
    if locks == nil || fin == nil || bookings == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    return &ReservationHandler{Locks: locks, Finalizer: fin, Bookings: bookings}
}

// LockSeats handles POST /v1/shows/:id/locks.  The body carries the
// seat numbers the user wants to claim; the grant replaces any locks
// the user already held for this show.  Returns 200 with the new
// expiry, 409 naming the conflicting seats, 404 for an unknown show.
func (h *ReservationHandler) LockSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showID, err := showIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var body struct {
        SeatNumbers []int `json:"seatNumbers"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    grant, err := h.Locks.Acquire(c.Request().Context(), showID, userID, body.SeatNumbers)
    if err != nil {
        return writeReservationError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "lockedSeats": grant.SeatNumbers,
        "expiresAt":   grant.ExpiresAt.UTC().Format(time.RFC3339),
    })
}

// UnlockSeats handles DELETE /v1/shows/:id/locks.  An empty or absent
// seatNumbers list releases every lock the user holds for the show.
// The endpoint never fails for a missing lock: it is called from
// cleanup paths where an error would only trap the user.
func (h *ReservationHandler) UnlockSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showID, err := showIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var body struct {
        SeatNumbers []int `json:"seatNumbers"`
    }
    // Body is optional on unlock; a bind failure just means "all seats".
    _ = c.Bind(&body)

    n := h.Locks.Release(c.Request().Context(), showID, userID, body.SeatNumbers)
    return c.JSON(http.StatusOK, echo.Map{"unlockedCount": n})
}

// SeatStatus handles GET /v1/shows/:id/seats.  Works for guests as
// well; when the caller is authenticated their own locks are tagged.
func (h *ReservationHandler) SeatStatus(c echo.Context) error {
    showID, err := showIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    status, err := h.Locks.Status(c.Request().Context(), showID, optionalUserID(c))
    if err != nil {
        return writeReservationError(c, err)
    }
    return c.JSON(http.StatusOK, status)
}

// FinalizeBooking handles POST /v1/shows/:id/bookings.  Converts the
// caller's seats into permanent bookings once payment is proven.  A
// replayed paymentId for the same seats is answered 200, not 409.
func (h *ReservationHandler) FinalizeBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    showID, err := showIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var body struct {
        SeatNumbers []int  `json:"seatNumbers"`
        PaymentID   string `json:"paymentId"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    res, err := h.Finalizer.Finalize(c.Request().Context(), showID, userID, body.SeatNumbers, body.PaymentID)
    if err != nil {
        return writeReservationError(c, err)
    }
    if res.AlreadyBooked {
        return c.JSON(http.StatusOK, echo.Map{
            "message":     "booking already confirmed",
            "seatNumbers": res.SeatNumbers,
        })
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":     "booking confirmed",
        "seatNumbers": res.SeatNumbers,
    })
}

// MyBookings handles GET /v1/my-bookings, returning the caller's
// bookings across all shows, newest first.
func (h *ReservationHandler) MyBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Bookings.ListByUser(c.Request().Context(), userID)
    if err != nil {
        c.Logger().Errorf("list bookings for user %d: %v", userID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// ShowBookings handles GET /v1/shows/:id/bookings, listing the booked
// seats of a show in seat order.
func (h *ReservationHandler) ShowBookings(c echo.Context) error {
    showID, err := showIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    bookings, err := h.Bookings.ListByShow(c.Request().Context(), showID)
    if err != nil {
        c.Logger().Errorf("list bookings for show %d: %v", showID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// writeReservationError maps reservation package errors onto HTTP
// responses.  Conflicts carry whichever seat lists the error names so
// the payload shape follows the failure mode.
func writeReservationError(c echo.Context, err error) error {
    var ve *reservation.ValidationError
    if errors.As(err, &ve) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Reason})
    }
    var ce *reservation.ConflictError
    if errors.As(err, &ce) {
        resp := echo.Map{"error": ce.Reason}
        if len(ce.BookedSeats) > 0 {
            resp["bookedSeats"] = ce.BookedSeats
        }
        if len(ce.LockedSeats) > 0 {
            resp["lockedSeats"] = ce.LockedSeats
        }
        if ce.ConflictingSeat > 0 {
            resp["conflictingSeat"] = ce.ConflictingSeat
        }
        return c.JSON(http.StatusConflict, resp)
    }
    if errors.Is(err, reservation.ErrShowNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
    }
    if errors.Is(err, reservation.ErrPaymentUnverified) {
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not verified"})
    }
    c.Logger().Errorf("reservation operation failed: %v", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/cinetix/seat-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/cinetix/seat-reservation/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the liveness and readiness probes.  These
// endpoints are used by load balancers and monitoring systems to verify
// that the service is up and can reach its store.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterReservation registers the seat locking and booking endpoints.
//
// Mutating operations (lock, unlock, finalize) require a valid access
// token.  Seat status is public — guests browse availability before
// signing in — but runs the optional JWT middleware so an authenticated
// caller gets their own locks tagged.  The WebSocket feed is public for
// the same reason: it only pushes state the status endpoint already
// serves.
func RegisterReservation(e *echo.Echo, r *handler.ReservationHandler, ws *handler.WSHandler, jwtSecret string) {
	public := e.Group("/v1")
	public.Use(middleware.OptionalJWTAuth(jwtSecret))
	public.GET("/shows/:id/seats", r.SeatStatus)
	public.GET("/shows/:id/bookings", r.ShowBookings)
	public.GET("/ws", ws.Serve)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/shows/:id/locks", r.LockSeats)
	auth.DELETE("/shows/:id/locks", r.UnlockSeats)
	auth.POST("/shows/:id/bookings", r.FinalizeBooking)
	auth.GET("/my-bookings", r.MyBookings)
}

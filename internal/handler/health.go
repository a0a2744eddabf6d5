package handler // declare the package name; contains HTTP handlers

import (
    "database/sql" // sql.DB for the readiness ping
    "net/http"     // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness probe that pings the database.  Unlike
// Health it answers 503 while the store is unreachable, so traffic is
// only routed once seat state can actually be served.
func Ready(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if err := db.PingContext(c.Request().Context()); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "error": "database unreachable"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
    }
}

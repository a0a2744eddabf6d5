package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables
    "time"

    "github.com/cinetix/seat-reservation/internal/reservation"
    "github.com/cinetix/seat-reservation/internal/worker"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// time-based reservation knobs.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    JWTSecret string // secret used to verify JWTs issued by the auth service

    LockDuration       time.Duration // lifetime of a seat lock from grant/renewal
    MaxSeatsPerRequest int           // upper bound on seats in one lock/finalize call
    ReaperInterval     time.Duration // expired-lock sweep interval; 0 disables the sweep

    WSWriteTimeout    time.Duration // WebSocket per-message write deadline
    WSPongTimeout     time.Duration // WebSocket read deadline, extended on pong
    WSMaxMessageBytes int64         // WebSocket control message size limit

    PaymentGatewayURL string // base URL of the payment gateway; empty skips remote verification
    PaymentAPIKey     string // bearer token for the payment gateway
    PaymentGateway    string // gateway label stamped on bookings
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The reservation
// knobs all have defaults and are only overridden when set.
func Load() Config {
    return Config{
        Env:       must("APP_ENV"),      // environment (dev/test/prod)
        Port:      must("APP_PORT"),     // port to bind the HTTP server
        DBUser:    must("DB_USER"),      // database user
        DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:    must("DB_HOST"),      // database host
        DBPort:    must("DB_PORT"),      // database port
        DBName:    must("DB_NAME"),      // database name
        JWTSecret: must("JWT_SECRET"),   // secret used for verifying JWTs

        LockDuration:       envDur("LOCK_DURATION", reservation.DefaultLockDuration),
        MaxSeatsPerRequest: envInt("MAX_SEATS_PER_REQUEST", reservation.DefaultMaxSeatsPerRequest),
        ReaperInterval:     envDur("REAPER_INTERVAL", worker.DefaultReaperInterval),

        WSWriteTimeout:    envDur("WS_WRITE_TIMEOUT", 10*time.Second),
        WSPongTimeout:     envDur("WS_PONG_TIMEOUT", 60*time.Second),
        WSMaxMessageBytes: int64(envInt("WS_MAX_MESSAGE_BYTES", 512)),

        PaymentGatewayURL: os.Getenv("PAYMENT_GATEWAY_URL"), // empty disables remote verification
        PaymentAPIKey:     os.Getenv("PAYMENT_API_KEY"),
        PaymentGateway:    envStr("PAYMENT_GATEWAY", "CASHFREE"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

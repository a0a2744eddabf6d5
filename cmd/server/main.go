package main // Entry point package

import (
	"context" // lifecycle control for background workers
	"log"     // Logging library

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/cinetix/seat-reservation/internal/config"
	"github.com/cinetix/seat-reservation/internal/database"
	"github.com/cinetix/seat-reservation/internal/handler"
	"github.com/cinetix/seat-reservation/internal/middleware"
	"github.com/cinetix/seat-reservation/internal/notifier"
	"github.com/cinetix/seat-reservation/internal/payment"
	"github.com/cinetix/seat-reservation/internal/queue"
	"github.com/cinetix/seat-reservation/internal/repository"
	"github.com/cinetix/seat-reservation/internal/reservation"
	"github.com/cinetix/seat-reservation/internal/router"
	queuepublisher "github.com/cinetix/seat-reservation/internal/service"
	"github.com/cinetix/seat-reservation/internal/worker"
)

func main() {
	// .env is a development convenience; in production the variables
	// come from the environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Real-time fan-out of seat state transitions.
	hub := notifier.NewHub(notifier.Config{
		WriteTimeout:    cfg.WSWriteTimeout,
		PongTimeout:     cfg.WSPongTimeout,
		MaxMessageBytes: cfg.WSMaxMessageBytes,
	})
	go hub.Run()
	defer hub.Close()

	store := repository.NewStore(db)

	// Payment verification is skipped entirely when no gateway is
	// configured; the finalizer then trusts the submitted paymentId.
	var verifier reservation.PaymentVerifier
	if cfg.PaymentGatewayURL != "" {
		verifier = payment.NewClient(payment.Config{
			BaseURL: cfg.PaymentGatewayURL,
			APIKey:  cfg.PaymentAPIKey,
		})
	}

	locks := reservation.NewLockManager(store, hub, cfg.LockDuration, cfg.MaxSeatsPerRequest)
	finalizer := reservation.NewFinalizer(store, hub, verifier, queuepublisher.New(), cfg.PaymentGateway, cfg.MaxSeatsPerRequest)

	// Expired-lock sweep is storage hygiene only; reads already filter
	// expired locks, so running without it is safe.
	if cfg.ReaperInterval > 0 {
		go worker.NewReaper(store, cfg.ReaperInterval).Run(ctx)
	}

	// Booking audit consumer; runs its own reconnect loop.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	res := handler.NewReservationHandler(locks, finalizer, store.Bookings())
	ws := handler.NewWSHandler(hub)
	router.RegisterRoutes(e, db)
	router.RegisterReservation(e, res, ws, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

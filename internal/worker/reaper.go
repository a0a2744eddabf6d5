// Package worker hosts background maintenance loops.
package worker

import (
	"context"
	"log"
	"time"
)

// DefaultReaperInterval is how often expired seat locks are swept when
// no interval is configured.
const DefaultReaperInterval = 5 * time.Minute

// LockSweeper deletes seat locks whose expiry has passed.
type LockSweeper interface {
	DeleteExpiredLocks(ctx context.Context, before time.Time) (int64, error)
}

// Reaper periodically reclaims storage held by expired seat locks.
// Reads already filter expired rows, so the sweep is hygiene, not a
// correctness mechanism; a missed or failed sweep never makes a seat
// look taken.
type Reaper struct {
	store    LockSweeper
	interval time.Duration
}

// NewReaper builds a reaper sweeping at the given interval.  An
// interval of zero or less selects DefaultReaperInterval; whether to
// run a reaper at all is the caller's decision.
func NewReaper(store LockSweeper, interval time.Duration) *Reaper {
	if store == nil {
		panic("worker: nil store")
	}
	if interval <= 0 {
		interval = DefaultReaperInterval
	}
	return &Reaper{store: store, interval: interval}
}

// Run sweeps until the context is cancelled.  Call it in its own
// goroutine.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("reaper: sweeping expired seat locks every %s", r.interval)
	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			log.Println("reaper: stopping")
			return
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	n, err := r.store.DeleteExpiredLocks(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("reaper: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("reaper: reclaimed %d expired seat locks", n)
	}
}

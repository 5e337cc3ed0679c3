/*
scheduler.go - Saved calculation retention

PURPOSE:
  Periodically deletes saved calculations older than a retention window,
  so a long-running server does not keep salary details indefinitely.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Works through history.Store only, so it runs against any backend

CONFIGURATION:
  - MaxAge: Records older than this are deleted (0 disables the scheduler)
  - CheckInterval: How often to check (default: 1 hour)

USAGE:
  scheduler := NewRetentionScheduler(store, 30*24*time.Hour, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - config/config.go: PAYE_HISTORY_RETENTION
  - history/history.go: Store interface
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/paye-engine/history"
)

// RetentionScheduler prunes old saved calculations.
type RetentionScheduler struct {
	Store         history.Store
	MaxAge        time.Duration
	CheckInterval time.Duration
	Logger        *slog.Logger
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetentionScheduler creates a new scheduler.
func NewRetentionScheduler(store history.Store, maxAge time.Duration, logger *slog.Logger) *RetentionScheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RetentionScheduler{
		Store:         store,
		MaxAge:        maxAge,
		CheckInterval: time.Hour,
		Logger:        logger,
		Now:           time.Now,
	}
}

// Start begins the scheduler. It is a no-op when MaxAge is not positive.
func (rs *RetentionScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.MaxAge <= 0 {
		rs.Logger.Info("retention disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info("retention scheduler started", "max_age", rs.MaxAge, "interval", rs.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight prune to finish.
func (rs *RetentionScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("retention scheduler stopped")
	}
}

func (rs *RetentionScheduler) run() {
	defer rs.wg.Done()

	rs.prune()

	for {
		select {
		case <-rs.ticker.C:
			rs.prune()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RetentionScheduler) prune() {
	n, err := rs.RunNow(context.Background())
	if err != nil {
		rs.Logger.Error("retention prune failed", "error", err, "deleted", n)
		return
	}
	if n > 0 {
		rs.Logger.Info("retention prune completed", "deleted", n)
	}
}

// RunNow deletes every record created before Now()-MaxAge and reports how
// many were removed.
func (rs *RetentionScheduler) RunNow(ctx context.Context) (int, error) {
	if rs.MaxAge <= 0 {
		return 0, nil
	}
	cutoff := rs.Now().Add(-rs.MaxAge)

	records, err := rs.Store.List(ctx, history.Filter{})
	if err != nil {
		return 0, err
	}

	deleted := 0
	// Newest first: skip until the first expired record.
	for _, rec := range records {
		if !rec.CreatedAt.Before(cutoff) {
			continue
		}
		if err := rs.Store.Delete(ctx, rec.ID); err != nil && !errors.Is(err, history.ErrNotFound) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

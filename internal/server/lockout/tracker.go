// Package lockout records failed authentication attempts and derives lockout
// state from a sliding window over the attempt log.
package lockout

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/logging"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/repomanager"
)

// Default policy.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
	DefaultRetention   = 24 * time.Hour
)

// Status is the lockout state of one (server, ip) pair.
type Status struct {
	Locked           bool
	MinutesRemaining int
}

// Tracker reads and writes the failed-attempt log.
type Tracker struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewTracker(db *sql.DB, m repomanager.RepositoryManager) *Tracker {
	return &Tracker{db: db, repomanager: m, now: time.Now}
}

// WithClock replaces the wall clock.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Now returns the tracker's notion of the current time.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// RecordFailure appends one failed attempt stamped with the current time.
func (t *Tracker) RecordFailure(ctx context.Context, serverID int64, ip string) error {
	repo := t.repomanager.FailedAttempts(t.db)
	if err := repo.Create(ctx, serverID, ip, t.now()); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// RecentFailureCount counts failures for the pair within window of now.
func (t *Tracker) RecentFailureCount(ctx context.Context, serverID int64, ip string, window time.Duration) (int, error) {
	n, _, err := t.recent(ctx, serverID, ip, window)
	return n, err
}

func (t *Tracker) recent(ctx context.Context, serverID int64, ip string, window time.Duration) (int, time.Time, error) {
	repo := t.repomanager.FailedAttempts(t.db)
	n, oldest, err := repo.Recent(ctx, serverID, ip, t.now().Add(-window))
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("count failures: %w", err)
	}
	return n, oldest, nil
}

// Clear deletes every failure recorded for the pair.
func (t *Tracker) Clear(ctx context.Context, serverID int64, ip string) error {
	repo := t.repomanager.FailedAttempts(t.db)
	if _, err := repo.DeleteByPair(ctx, serverID, ip); err != nil {
		return fmt.Errorf("clear failures: %w", err)
	}
	return nil
}

// IsLocked reports whether the pair has at least maxAttempts failures within
// window. The lock lifts when the oldest of those failures leaves the window.
func (t *Tracker) IsLocked(ctx context.Context, serverID int64, ip string, maxAttempts int, window time.Duration) (Status, error) {
	n, oldest, err := t.recent(ctx, serverID, ip, window)
	if err != nil {
		return Status{}, err
	}
	if n < maxAttempts {
		return Status{}, nil
	}
	return Status{Locked: true, MinutesRemaining: MinutesRemaining(oldest, window, t.now())}, nil
}

// MinutesRemaining is ceil((oldest + window - now) / 1m), floored at zero.
func MinutesRemaining(oldest time.Time, window time.Duration, now time.Time) int {
	left := oldest.Add(window).Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Minute - 1) / time.Minute)
}

// Sweep deletes failures older than maxAge regardless of the lockout window.
func (t *Tracker) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	repo := t.repomanager.FailedAttempts(t.db)
	n, err := repo.DeleteOlderThan(ctx, t.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("sweep failures: %w", err)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (t *Tracker) RunSweeper(ctx context.Context, interval, maxAge time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := t.Sweep(ctx, maxAge)
			if err != nil {
				logger.Error(ctx, "failed attempt sweep", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "swept failed attempts", "deleted", n)
			}
		}
	}
}

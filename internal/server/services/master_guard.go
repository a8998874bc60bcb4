package services

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/server/lockout"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const masterGuardSize = 4096

// masterGuard applies the lockout policy to master password attempts per
// client ip. State is per process; failed_attempts rows need a real server.
type masterGuard struct {
	mu          sync.Mutex
	failures    *expirable.LRU[string, []time.Time]
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func newMasterGuard(maxAttempts int, window time.Duration, now func() time.Time) *masterGuard {
	return &masterGuard{
		failures:    expirable.NewLRU[string, []time.Time](masterGuardSize, nil, window),
		maxAttempts: maxAttempts,
		window:      window,
		now:         now,
	}
}

// recent drops entries at or beyond the window edge. Caller holds mu.
func (g *masterGuard) recent(ip string, now time.Time) []time.Time {
	all, _ := g.failures.Get(ip)
	kept := all[:0:0]
	for _, at := range all {
		if now.Sub(at) < g.window {
			kept = append(kept, at)
		}
	}
	return kept
}

func (g *masterGuard) locked(attempts []time.Time, now time.Time) error {
	if len(attempts) < g.maxAttempts {
		return nil
	}
	return &common.LockedError{MinutesRemaining: lockout.MinutesRemaining(attempts[0], g.window, now)}
}

func (g *masterGuard) check(ip string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	return g.locked(g.recent(ip, now), now)
}

func (g *masterGuard) fail(ip string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	attempts := append(g.recent(ip, now), now)
	g.failures.Add(ip, attempts)
	if err := g.locked(attempts, now); err != nil {
		return err
	}
	return &common.CredentialsError{AttemptsRemaining: g.maxAttempts - len(attempts)}
}

func (g *masterGuard) clear(ip string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures.Remove(ip)
}

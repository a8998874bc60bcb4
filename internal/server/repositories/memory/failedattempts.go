package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/server/models"
)

type FailedAttemptsRepository struct {
	store *store
}

func (r *FailedAttemptsRepository) Create(_ context.Context, serverID int64, ip string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextAttemptID++
	r.store.attempts = append(r.store.attempts, models.FailedAttempt{
		ID:          r.store.nextAttemptID,
		ServerID:    serverID,
		IPAddress:   ip,
		AttemptedAt: at,
	})
	return nil
}

func (r *FailedAttemptsRepository) Recent(_ context.Context, serverID int64, ip string, since time.Time) (int, time.Time, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var (
		count  int
		oldest time.Time
	)
	for _, a := range r.store.attempts {
		if a.ServerID != serverID || a.IPAddress != ip || !a.AttemptedAt.After(since) {
			continue
		}
		count++
		if oldest.IsZero() || a.AttemptedAt.Before(oldest) {
			oldest = a.AttemptedAt
		}
	}
	return count, oldest, nil
}

func (r *FailedAttemptsRepository) DeleteByPair(_ context.Context, serverID int64, ip string) (int64, error) {
	return r.deleteWhere(func(a models.FailedAttempt) bool {
		return a.ServerID == serverID && a.IPAddress == ip
	}), nil
}

func (r *FailedAttemptsRepository) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	return r.deleteWhere(func(a models.FailedAttempt) bool {
		return a.AttemptedAt.Before(before)
	}), nil
}

func (r *FailedAttemptsRepository) deleteWhere(match func(models.FailedAttempt) bool) int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	kept := r.store.attempts[:0]
	for _, a := range r.store.attempts {
		if match(a) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.store.attempts = kept
	return n
}

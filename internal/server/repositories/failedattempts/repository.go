package failedattempts

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, serverID int64, ip string, at time.Time) error
	// Recent returns the number of attempts for the pair newer than since and
	// the timestamp of the oldest of them (zero when count is 0).
	Recent(ctx context.Context, serverID int64, ip string, since time.Time) (int, time.Time, error)
	DeleteByPair(ctx context.Context, serverID int64, ip string) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

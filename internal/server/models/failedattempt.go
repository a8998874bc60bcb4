package models

import "time"

// FailedAttempt records one wrong-password event.
type FailedAttempt struct {
	ID          int64
	ServerID    int64
	IPAddress   string
	AttemptedAt time.Time
}

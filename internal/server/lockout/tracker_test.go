package lockout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/dbx"
	"github.com/dmitrijs2005/ldbvault/internal/logging"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/failedattempts"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/memory"
	"github.com/dmitrijs2005/ldbvault/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTracker(t *testing.T) (*Tracker, *clock, int64) {
	t.Helper()
	m := memory.NewInMemoryRepositoryManager()
	s, err := m.Servers(nil).Create(context.Background(), &models.Server{Name: "eu-1", Host: "https://eu-1"})
	require.NoError(t, err)

	c := &clock{now: t0}
	return NewTracker(nil, m).WithClock(c.Now), c, s.ID
}

func TestIsLocked_Monotonicity(t *testing.T) {
	ctx := context.Background()
	tr, c, id := newTracker(t)

	for i := 0; i < DefaultMaxAttempts-1; i++ {
		require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.5"))
		c.now = c.now.Add(time.Minute)
	}

	st, err := tr.IsLocked(ctx, id, "10.0.0.5", DefaultMaxAttempts, DefaultWindow)
	require.NoError(t, err)
	assert.False(t, st.Locked, "one fewer than max never locks")

	require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.5"))

	st, err = tr.IsLocked(ctx, id, "10.0.0.5", DefaultMaxAttempts, DefaultWindow)
	require.NoError(t, err)
	assert.True(t, st.Locked)
	// oldest at t0, now t0+4m: 11 minutes left
	assert.Equal(t, 11, st.MinutesRemaining)
}

func TestIsLocked_PerPair(t *testing.T) {
	ctx := context.Background()
	tr, _, id := newTracker(t)

	for i := 0; i < DefaultMaxAttempts; i++ {
		require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.5"))
	}

	st, err := tr.IsLocked(ctx, id, "10.0.0.6", DefaultMaxAttempts, DefaultWindow)
	require.NoError(t, err)
	assert.False(t, st.Locked)
}

func TestIsLocked_ClearsWhenOldestLeavesWindow(t *testing.T) {
	ctx := context.Background()
	tr, c, id := newTracker(t)

	for i := 0; i < DefaultMaxAttempts; i++ {
		require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.5"))
		c.now = c.now.Add(10 * time.Second)
	}

	c.now = t0.Add(DefaultWindow - time.Second)
	st, err := tr.IsLocked(ctx, id, "10.0.0.5", DefaultMaxAttempts, DefaultWindow)
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.Equal(t, 1, st.MinutesRemaining)

	c.now = t0.Add(DefaultWindow)
	st, err = tr.IsLocked(ctx, id, "10.0.0.5", DefaultMaxAttempts, DefaultWindow)
	require.NoError(t, err)
	assert.False(t, st.Locked)

	n, err := tr.RecentFailureCount(ctx, id, "10.0.0.5", DefaultWindow)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	tr, _, id := newTracker(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.5"))
	}
	require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.6"))
	require.NoError(t, tr.Clear(ctx, id, "10.0.0.5"))

	n, err := tr.RecentFailureCount(ctx, id, "10.0.0.5", DefaultWindow)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = tr.RecentFailureCount(ctx, id, "10.0.0.6", DefaultWindow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMinutesRemaining(t *testing.T) {
	tests := []struct {
		name   string
		oldest time.Time
		now    time.Time
		want   int
	}{
		{"full window", t0, t0, 15},
		{"partial minute rounds up", t0, t0.Add(30 * time.Second), 15},
		{"exact minute", t0, t0.Add(5 * time.Minute), 10},
		{"expired", t0, t0.Add(20 * time.Minute), 0},
		{"boundary", t0, t0.Add(15 * time.Minute), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinutesRemaining(tt.oldest, DefaultWindow, tt.now))
		})
	}
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	tr, c, id := newTracker(t)

	require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.5"))
	c.now = t0.Add(23 * time.Hour)
	require.NoError(t, tr.RecordFailure(ctx, id, "10.0.0.5"))

	c.now = t0.Add(25 * time.Hour)
	n, err := tr.Sweep(ctx, DefaultRetention)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

type errAttempts struct{ failedattempts.Repository }

var errBoom = errors.New("boom")

func (errAttempts) Create(context.Context, int64, string, time.Time) error { return errBoom }
func (errAttempts) Recent(context.Context, int64, string, time.Time) (int, time.Time, error) {
	return 0, time.Time{}, errBoom
}
func (errAttempts) DeleteByPair(context.Context, int64, string) (int64, error) { return 0, errBoom }
func (errAttempts) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, errBoom }

type errManager struct {
	repomanager.RepositoryManager
	sweeps atomic.Int32
}

func (m *errManager) FailedAttempts(dbx.DBTX) failedattempts.Repository {
	m.sweeps.Add(1)
	return errAttempts{}
}

func TestTracker_PropagatesStorageErrors(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(nil, &errManager{})

	assert.ErrorIs(t, tr.RecordFailure(ctx, 1, "ip"), errBoom)
	assert.ErrorIs(t, tr.Clear(ctx, 1, "ip"), errBoom)

	_, err := tr.RecentFailureCount(ctx, 1, "ip", DefaultWindow)
	assert.ErrorIs(t, err, errBoom)

	_, err = tr.IsLocked(ctx, 1, "ip", 5, DefaultWindow)
	assert.ErrorIs(t, err, errBoom)

	_, err = tr.Sweep(ctx, DefaultRetention)
	assert.ErrorIs(t, err, errBoom)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	m := &errManager{}
	tr := NewTracker(nil, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.RunSweeper(ctx, 5*time.Millisecond, DefaultRetention, logging.Nop())
		close(done)
	}()

	require.Eventually(t, func() bool { return m.sweeps.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

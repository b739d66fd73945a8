package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDelay(t *testing.T) {
	job := Job{Interval: time.Hour, RetryInterval: time.Minute}

	assert.Equal(t, time.Hour, nextDelay(job, nil))
	assert.Equal(t, time.Minute, nextDelay(job, errors.New("store down")))

	noRetry := Job{Interval: time.Hour}
	assert.Equal(t, time.Hour, nextDelay(noRetry, errors.New("store down")))
}

func TestRunLoopRetriesAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	s := New()
	s.Register(Job{
		Name:          "flaky",
		Interval:      time.Hour,
		RetryInterval: 10 * time.Millisecond,
		Fn: func(context.Context) error {
			if calls.Add(1) == 1 {
				return errors.New("transient")
			}
			return nil
		},
	})

	// Force an immediate first run instead of waiting the full interval.
	s.mu.Lock()
	s.jobs["flaky"].NextRunAt = time.Now()
	s.mu.Unlock()

	s.Start(ctx)

	// First run fails, the retry lands within the short interval; a second
	// success would otherwise be an hour away.
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	res, err := s.GetTask("flaky")
	require.NoError(t, err)
	assert.Equal(t, StatusFulfill, res.Status)
}

func TestRunUnknownJob(t *testing.T) {
	s := New()
	assert.Error(t, s.Run(context.Background(), "missing"))
	_, err := s.GetTask("missing")
	assert.Error(t, err)
}

func TestManualRunAndList(t *testing.T) {
	s := New()
	done := make(chan struct{})
	s.Register(Job{
		Name:        "once",
		Description: "manual trigger test",
		Interval:    time.Hour,
		Fn: func(context.Context) error {
			close(done)
			return nil
		},
	})

	require.NoError(t, s.Run(context.Background(), "once"))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "once", items[0].Name)
}

func TestManualRunSurvivesCallerCancel(t *testing.T) {
	s := New()
	jobCtx := make(chan error, 1)
	s.Register(Job{
		Name:     "detached",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			jobCtx <- ctx.Err()
			return nil
		},
	})

	// A trigger from an HTTP handler hands over a request context that is
	// cancelled as soon as the response is written.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx, "detached"))

	select {
	case err := <-jobCtx:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

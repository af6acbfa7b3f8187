package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidoogle/process-label/constants"
	"github.com/fidoogle/process-label/internal/inference"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChecker calls fn on each status check, tracking call count.
type fakeChecker struct {
	calls int
	fn    func(call int) (*inference.Prediction, error)
}

func (f *fakeChecker) GetPrediction(_ context.Context, _ string) (*inference.Prediction, error) {
	f.calls++
	return f.fn(f.calls)
}

// recordedSleeps replaces the backoff wait and accumulates requested delays.
func recordedSleeps(delays *[]time.Duration) Option {
	return WithSleep(func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	})
}

func pendingJob(id string) Job {
	return Job{ID: id, SubmittedAt: time.Now(), Status: constants.JobStatusPending}
}

func TestAwait_SucceedsAfterProcessing(t *testing.T) {
	checker := &fakeChecker{fn: func(call int) (*inference.Prediction, error) {
		if call <= 3 {
			return &inference.Prediction{ID: "p1", Status: "processing"}, nil
		}
		return &inference.Prediction{ID: "p1", Status: "succeeded", Output: "a label"}, nil
	}}
	var delays []time.Duration
	p := New(checker, discardLogger(), recordedSleeps(&delays))

	opts := Options{MaxAttempts: 10, BaseDelay: 100 * time.Millisecond, DelayGrowth: 50 * time.Millisecond}
	job, err := p.Await(context.Background(), pendingJob("p1"), opts)
	require.NoError(t, err)

	assert.Equal(t, constants.JobStatusSucceeded, job.Status)
	assert.Equal(t, "a label", job.RawOutput)
	assert.Equal(t, 4, checker.calls, "expected exactly 4 status checks")

	// Linear backoff: base, base+growth, base+2*growth.
	require.Equal(t, []time.Duration{
		100 * time.Millisecond,
		150 * time.Millisecond,
		200 * time.Millisecond,
	}, delays)
}

func TestAwait_TimesOutWithoutError(t *testing.T) {
	checker := &fakeChecker{fn: func(int) (*inference.Prediction, error) {
		return &inference.Prediction{ID: "p1", Status: "processing"}, nil
	}}
	var delays []time.Duration
	p := New(checker, discardLogger(), recordedSleeps(&delays))

	job, err := p.Await(context.Background(), pendingJob("p1"), Options{MaxAttempts: 5, BaseDelay: time.Millisecond})
	require.NoError(t, err, "timeout is an outcome, not an error")

	assert.Equal(t, constants.JobStatusTimedOut, job.Status)
	assert.Equal(t, 5, checker.calls)
	assert.Len(t, delays, 4, "no sleep after the final check")
}

func TestAwait_TerminalFailureStopsImmediately(t *testing.T) {
	checker := &fakeChecker{fn: func(call int) (*inference.Prediction, error) {
		if call == 1 {
			return &inference.Prediction{ID: "p1", Status: "processing"}, nil
		}
		return &inference.Prediction{ID: "p1", Status: "failed", Error: "NSFW content detected"}, nil
	}}
	var delays []time.Duration
	p := New(checker, discardLogger(), recordedSleeps(&delays))

	job, err := p.Await(context.Background(), pendingJob("p1"), Options{MaxAttempts: 10, BaseDelay: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.Equal(t, "NSFW content detected", job.ErrorDetail)
	assert.Equal(t, 2, checker.calls, "failure must not be retried")
}

func TestAwait_FailureWithoutDetailGetsDefault(t *testing.T) {
	checker := &fakeChecker{fn: func(int) (*inference.Prediction, error) {
		return &inference.Prediction{ID: "p1", Status: "canceled"}, nil
	}}
	p := New(checker, discardLogger())

	job, err := p.Await(context.Background(), pendingJob("p1"), Options{MaxAttempts: 3, BaseDelay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.ErrorDetail)
}

func TestAwait_TransientCheckFailuresConsumeBudget(t *testing.T) {
	checker := &fakeChecker{fn: func(int) (*inference.Prediction, error) {
		return nil, errors.New("503 service unavailable")
	}}
	var delays []time.Duration
	p := New(checker, discardLogger(), recordedSleeps(&delays))

	job, err := p.Await(context.Background(), pendingJob("p1"), Options{MaxAttempts: 3, BaseDelay: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, constants.JobStatusTimedOut, job.Status)
	assert.Equal(t, 3, checker.calls)
}

func TestAwait_TransientFailureThenSuccess(t *testing.T) {
	checker := &fakeChecker{fn: func(call int) (*inference.Prediction, error) {
		if call == 1 {
			return nil, errors.New("connection reset")
		}
		return &inference.Prediction{ID: "p1", Status: "succeeded", Output: "ok"}, nil
	}}
	p := New(checker, discardLogger(), WithSleep(func(context.Context, time.Duration) error { return nil }))

	job, err := p.Await(context.Background(), pendingJob("p1"), Options{MaxAttempts: 5, BaseDelay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusSucceeded, job.Status)
	assert.Equal(t, 2, checker.calls)
}

func TestAwait_CancelledDuringBackoff(t *testing.T) {
	checker := &fakeChecker{fn: func(int) (*inference.Prediction, error) {
		return &inference.Prediction{ID: "p1", Status: "processing"}, nil
	}}
	p := New(checker, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the first backoff wait must return immediately

	_, err := p.Await(ctx, pendingJob("p1"), Options{MaxAttempts: 5, BaseDelay: time.Hour})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, checker.calls)
}

func TestCheckOnce(t *testing.T) {
	checker := &fakeChecker{fn: func(int) (*inference.Prediction, error) {
		return &inference.Prediction{ID: "p1", Status: "succeeded", Output: "caption text"}, nil
	}}
	p := New(checker, discardLogger())

	job, err := p.CheckOnce(context.Background(), pendingJob("p1"))
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusSucceeded, job.Status)
	assert.Equal(t, "caption text", job.RawOutput)
	assert.Equal(t, 1, checker.calls)
}

func TestCheckOnce_SurfacesCheckError(t *testing.T) {
	checker := &fakeChecker{fn: func(int) (*inference.Prediction, error) {
		return nil, errors.New("boom")
	}}
	p := New(checker, discardLogger())

	job, err := p.CheckOnce(context.Background(), pendingJob("p1"))
	require.Error(t, err)
	assert.Equal(t, constants.JobStatusPending, job.Status, "status unchanged on check failure")
}

func TestNewJobMapsInitialStatus(t *testing.T) {
	submitted := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	job := NewJob(&inference.Prediction{ID: "p2", Status: "starting"}, submitted)

	assert.Equal(t, "p2", job.ID)
	assert.Equal(t, submitted, job.SubmittedAt)
	assert.Equal(t, constants.JobStatusPending, job.Status)
}

func TestNewJobAlreadySucceeded(t *testing.T) {
	job := NewJob(&inference.Prediction{ID: "p3", Status: "succeeded", Output: "fast"}, time.Now())
	assert.Equal(t, constants.JobStatusSucceeded, job.Status)
	assert.Equal(t, "fast", job.RawOutput)
}

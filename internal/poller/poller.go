package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fidoogle/process-label/constants"
	"github.com/fidoogle/process-label/internal/inference"
)

// Job is the caller-side view of one captioning job. It is mutated only by
// the poller as provider status comes in and is immutable once Status is
// terminal or timed out.
type Job struct {
	ID          string
	SubmittedAt time.Time
	Status      constants.JobStatus
	RawOutput   any
	ErrorDetail string
}

// NewJob builds a Job from the handle returned at submission time.
func NewJob(pred *inference.Prediction, submittedAt time.Time) Job {
	job := Job{
		ID:          pred.ID,
		SubmittedAt: submittedAt,
		Status:      constants.FromProvider(pred.Status),
	}
	apply(&job, pred)
	return job
}

// StatusChecker is the single provider operation the poller needs.
type StatusChecker interface {
	GetPrediction(ctx context.Context, id string) (*inference.Prediction, error)
}

// Options bounds the poll loop. Backoff is linear: the wait after attempt i
// is BaseDelay + i*DelayGrowth.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	DelayGrowth time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 30
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	return o
}

type Poller struct {
	checker StatusChecker
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Poller)

// WithSleep replaces the backoff wait. Tests use it to record delays instead
// of actually sleeping.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

func New(checker StatusChecker, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		checker: checker,
		logger:  logger,
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Await drives job to a terminal state or to the attempt budget. A provider
// terminal failure is returned as a FAILED job, never retried; a status check
// that itself errors is transient and only consumes an attempt. The returned
// error is non-nil only when ctx is cancelled mid-wait.
func (p *Poller) Await(ctx context.Context, job Job, opts Options) (Job, error) {
	opts = opts.withDefaults()

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		pred, err := p.checker.GetPrediction(ctx, job.ID)
		if err != nil {
			if ctx.Err() != nil {
				return job, fmt.Errorf("await %s: %w", job.ID, ctx.Err())
			}
			p.logger.Warn("poller.check_failed",
				"prediction_id", job.ID,
				"attempt", attempt+1,
				"max_attempts", opts.MaxAttempts,
				"error", err,
			)
		} else {
			apply(&job, pred)
			p.logger.Info("poller.attempt",
				"prediction_id", job.ID,
				"attempt", attempt+1,
				"max_attempts", opts.MaxAttempts,
				"status", job.Status,
			)
			if job.Status.Terminal() {
				return job, nil
			}
		}

		if attempt == opts.MaxAttempts-1 {
			break
		}
		delay := opts.BaseDelay + time.Duration(attempt)*opts.DelayGrowth
		if err := p.sleep(ctx, delay); err != nil {
			return job, fmt.Errorf("await %s: %w", job.ID, err)
		}
	}

	job.Status = constants.JobStatusTimedOut
	p.logger.Warn("poller.timed_out",
		"prediction_id", job.ID,
		"attempts", opts.MaxAttempts,
	)
	return job, nil
}

// CheckOnce performs exactly one status check and returns immediately, for
// callers that drive their own poll loop across separate requests.
func (p *Poller) CheckOnce(ctx context.Context, job Job) (Job, error) {
	pred, err := p.checker.GetPrediction(ctx, job.ID)
	if err != nil {
		return job, err
	}
	apply(&job, pred)
	return job, nil
}

// apply is the single place provider state is classified onto a Job; Await
// and CheckOnce must never diverge on what counts as terminal.
func apply(job *Job, pred *inference.Prediction) {
	job.Status = constants.FromProvider(pred.Status)
	switch job.Status {
	case constants.JobStatusSucceeded:
		job.RawOutput = pred.Output
	case constants.JobStatusFailed:
		job.ErrorDetail = pred.Error
		if job.ErrorDetail == "" {
			job.ErrorDetail = "provider reported failure without detail"
		}
	}
}

// sleepCtx waits for d or until ctx is cancelled; the timer is stopped either
// way so an abandoned flow leaves nothing scheduled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

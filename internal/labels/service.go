package labels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fidoogle/process-label/constants"
	"github.com/fidoogle/process-label/internal/common"
	"github.com/fidoogle/process-label/internal/extract"
	"github.com/fidoogle/process-label/internal/inference"
	"github.com/fidoogle/process-label/internal/poller"
	"github.com/fidoogle/process-label/internal/render"
)

// Provider is the upstream captioning API as the service needs it.
// *inference.Client implements it; tests substitute fakes.
type Provider interface {
	CreatePrediction(ctx context.Context, image []byte, prompt string) (*inference.Prediction, error)
	GetPrediction(ctx context.Context, id string) (*inference.Prediction, error)
}

const defaultPrompt = "Read this shipping label and transcribe every visible line of text."

// Service is the downstream boundary: one synchronous operation
// (ProcessImage) and a submit/check pair for client-driven polling, all
// backed by the same poller, extractor and renderer.
type Service struct {
	provider  Provider
	poller    *poller.Poller
	extractor *extract.Extractor
	renderer  *render.Renderer
	prompt    string
	pollOpts  poller.Options
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithPrompt(prompt string) Option {
	return func(s *Service) {
		if prompt != "" {
			s.prompt = prompt
		}
	}
}

func WithPollOptions(opts poller.Options) Option {
	return func(s *Service) { s.pollOpts = opts }
}

func WithExtractor(e *extract.Extractor) Option {
	return func(s *Service) {
		if e != nil {
			s.extractor = e
		}
	}
}

func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithClock replaces the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(provider Provider, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		provider:  provider,
		poller:    poller.New(provider, logger),
		extractor: extract.NewExtractor(logger),
		renderer:  render.NewRenderer(),
		prompt:    defaultPrompt,
		logger:    logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ProcessResult is everything a synchronous caller gets back: the summary,
// the printer document, the structured fields and the provider's raw output
// for debugging.
type ProcessResult struct {
	Description string
	Markup      string
	Fields      *extract.ShippingRecord
	RawOutput   any
	Job         poller.Job
}

// ProcessImage runs the full submit, await, extract, render flow for one
// image and blocks until the job reaches a terminal state or the poll budget
// runs out.
func (s *Service) ProcessImage(ctx context.Context, image []byte) (*ProcessResult, error) {
	start := time.Now()

	pred, err := s.provider.CreatePrediction(ctx, image, s.prompt)
	if err != nil {
		return nil, err
	}
	job := poller.NewJob(pred, s.now())

	if !job.Status.Terminal() {
		job, err = s.poller.Await(ctx, job, s.pollOpts)
		if err != nil {
			return nil, err
		}
	}

	switch job.Status {
	case constants.JobStatusSucceeded:
		res, err := s.finish(job)
		if err != nil {
			return nil, err
		}
		s.logger.Info("labels.process.ok",
			"prediction_id", job.ID,
			"tracking", res.Fields.TrackingNumber,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res, nil
	case constants.JobStatusFailed:
		return nil, common.NewAppError("PREDICTION_FAILED",
			fmt.Sprintf("prediction %s: %s", job.ID, job.ErrorDetail),
			common.ErrPredictionFailed)
	case constants.JobStatusTimedOut:
		return nil, common.NewAppError("POLL_TIMEOUT",
			fmt.Sprintf("prediction %s still running after exhausting the poll attempts", job.ID),
			common.ErrPollTimeout)
	default:
		return nil, common.NewAppError("PROVIDER_ERROR",
			fmt.Sprintf("prediction %s: unexpected status %s", job.ID, job.Status),
			common.ErrProvider)
	}
}

// SubmitImage submits the image and returns the provider job id without
// waiting. Pair with CheckJob for client-driven polling.
func (s *Service) SubmitImage(ctx context.Context, image []byte) (string, error) {
	pred, err := s.provider.CreatePrediction(ctx, image, s.prompt)
	if err != nil {
		return "", err
	}
	s.logger.Info("labels.submit.ok", "prediction_id", pred.ID, "status", pred.Status)
	return pred.ID, nil
}

// CheckResult reports one poll of a job. Done is true for provider-terminal
// states; Result is populated only on success. A failed job carries its
// detail in Job.ErrorDetail rather than an error, so callers driving their
// own loop can decide how to present it.
type CheckResult struct {
	Job    poller.Job
	Done   bool
	Result *ProcessResult
}

// CheckJob performs exactly one status check for a previously submitted job.
func (s *Service) CheckJob(ctx context.Context, jobID string) (*CheckResult, error) {
	job, err := s.poller.CheckOnce(ctx, poller.Job{
		ID:          jobID,
		SubmittedAt: s.now(),
		Status:      constants.JobStatusPending,
	})
	if err != nil {
		return nil, err
	}

	out := &CheckResult{Job: job, Done: job.Status.Terminal()}
	if job.Status == constants.JobStatusSucceeded {
		res, err := s.finish(job)
		if err != nil {
			return nil, err
		}
		out.Result = res
	}
	return out, nil
}

func (s *Service) finish(job poller.Job) (*ProcessResult, error) {
	rec, err := s.extractor.Extract(job.RawOutput)
	if err != nil {
		return nil, err
	}
	label := s.renderer.Render(rec)
	return &ProcessResult{
		Description: label.Description,
		Markup:      label.Markup,
		Fields:      rec,
		RawOutput:   job.RawOutput,
		Job:         job,
	}, nil
}

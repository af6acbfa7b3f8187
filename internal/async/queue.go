package async

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fidoogle/process-label/internal/extract"
	"github.com/fidoogle/process-label/internal/labels"
)

// Task is one image file to push through the label pipeline.
type Task struct {
	Path        string
	SubmittedAt time.Time
}

// Result is the outcome for one task. Err is the flow error, if any; a
// partially extracted record is still a result, not an error.
type Result struct {
	Path     string
	Record   *extract.ShippingRecord
	Markup   string
	Err      error
	Duration time.Duration
}

// Queue fans tasks out to a bounded worker pool. Each worker owns its flow
// end to end, so concurrent jobs never share poll state.
type Queue struct {
	svc     *labels.Service
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	resMu   sync.Mutex
	results []Result
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Task, n)
		}
	}
}

func WithTaskTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(svc *labels.Service, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		svc:     svc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Task, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for task := range q.ch {
					q.record(q.process(task, workerID))
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) process(task Task, workerID int) Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	res := Result{Path: task.Path}
	image, err := os.ReadFile(task.Path)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		q.logger.Error("read image failed", "worker_id", workerID, "path", task.Path, "error", err)
		return res
	}

	out, err := q.svc.ProcessImage(ctx, image)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		q.logger.Error("processing failed", "worker_id", workerID, "path", task.Path, "error", err)
		return res
	}

	res.Record = out.Fields
	res.Markup = out.Markup
	q.logger.Info("processed image",
		"worker_id", workerID,
		"path", task.Path,
		"tracking", out.Fields.TrackingNumber,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

// record uses its own lock so a worker finishing a task never waits on an
// Enqueue blocked in backpressure.
func (q *Queue) record(res Result) {
	q.resMu.Lock()
	q.results = append(q.results, res)
	q.resMu.Unlock()
}

func (q *Queue) Enqueue(_ context.Context, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", task.Path)
		return nil
	}
	select {
	case q.ch <- task:
		q.logger.Info("queued image for processing", "path", task.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", task.Path)
		q.ch <- task
	}
	return nil
}

// Shutdown stops intake and waits for in-flight tasks, up to ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

// Results returns the outcomes collected so far, ordered by path for stable
// reporting.
func (q *Queue) Results() []Result {
	q.resMu.Lock()
	out := make([]Result, len(q.results))
	copy(out, q.results)
	q.resMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

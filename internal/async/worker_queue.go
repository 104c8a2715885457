package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/spendify/internal/common"
	"github.com/joseph-ayodele/spendify/internal/observability"
)

// WorkerQueue runs jobs on a fixed pool of workers.
type WorkerQueue struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// senders hold the read lock while pushing so Shutdown never closes ch under them
	mu     sync.RWMutex
	closed bool

	processed atomic.Int64
	failed    atomic.Int64
}

var _ Queue = (*WorkerQueue)(nil)

type Option func(*WorkerQueue)

func WithWorkers(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithJobTimeout bounds each handler call; zero disables the bound.
func WithJobTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		q.timeout = d
	}
}

func NewWorkerQueue(handle Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		handle:  handle,
		logger:  logger,
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					observability.QueueDepth.Dec()
					q.run(workerID, job)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *WorkerQueue) run(workerID int, job Job) {
	ctx, cancel := common.WithTimeout(common.WithRequestID(context.Background(), job.RequestID), q.timeout)
	defer cancel()

	logger := common.LogWith(ctx, q.logger)
	start := time.Now()
	err := q.safeHandle(ctx, job)
	if err != nil {
		q.failed.Add(1)
		logger.Error("queue.job.failed", "worker_id", workerID, "file", job.Filename, "error", err)
		return
	}
	q.processed.Add(1)
	logger.Info("queue.job.ok",
		"worker_id", workerID,
		"file", job.Filename,
		"wait_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

func (q *WorkerQueue) safeHandle(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return q.handle(ctx, job)
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "file", job.Filename)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.enqueue.backpressure", "file", job.Filename)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	observability.QueueDepth.Inc()
	q.logger.Debug("queue.enqueue.ok", "file", job.Filename)
	return nil
}

// Shutdown stops accepting jobs and waits for the queued ones to finish, or for ctx.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("queue.shutdown.interrupted", "pending", len(q.ch))
	case <-done:
		q.logger.Info("queue.shutdown.ok", "processed", q.processed.Load(), "failed", q.failed.Load())
	}
}

// Stats reports how many jobs succeeded and how many failed (errors and panics).
func (q *WorkerQueue) Stats() (processed, failed int64) {
	return q.processed.Load(), q.failed.Load()
}

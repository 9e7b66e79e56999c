package async

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Pool runs submitted jobs on a fixed set of workers so CPU-heavy work
// (OCR) is capped process-wide no matter how many requests are in flight.
type Pool struct {
	logger  *slog.Logger
	workers int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan Job, n)
		}
	}
}

func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		logger:  logger,
		workers: runtime.NumCPU(),
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("async.worker.started", "worker_id", workerID)

				for job := range p.ch {
					job.done <- p.run(workerID, job)
				}

				p.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (p *Pool) run(workerID int, job Job) (err error) {
	// the submitter may have given up while the job sat in the queue
	if cerr := job.ctx.Err(); cerr != nil {
		return cerr
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("async.job.panic", "worker_id", workerID, "label", job.Label, "panic", r)
			err = &PanicError{Value: r}
		}
	}()
	err = job.fn(job.ctx)
	p.logger.Debug("async.job.done",
		"worker_id", workerID,
		"label", job.Label,
		"queued_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
		"ok", err == nil,
	)
	return err
}

// Do enqueues fn and blocks until it has run or ctx is done.
// A full queue applies backpressure; the wait is still bounded by ctx.
func (p *Pool) Do(ctx context.Context, label string, fn func(context.Context) error) error {
	job := Job{ctx: ctx, fn: fn, done: make(chan error, 1), SubmittedAt: time.Now(), Label: label}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.logger.Warn("async.enqueue.rejected", "label", label)
		return ErrPoolClosed
	}
	select {
	case p.ch <- job:
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}
	p.mu.RUnlock()

	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("async.shutdown.interrupted")
	case <-done:
		p.logger.Info("async.shutdown.drained")
	}
}

// PanicError reports a job that panicked instead of returning.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "job panicked"
}

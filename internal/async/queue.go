package async

import (
	"context"
	"errors"
	"time"
)

// ErrPoolClosed is returned by Do after Shutdown has started.
var ErrPoolClosed = errors.New("worker pool is shutting down")

// Job is one unit of CPU-bound work plus the channel its result goes back on.
type Job struct {
	ctx         context.Context
	fn          func(context.Context) error
	done        chan error
	SubmittedAt time.Time
	Label       string
}

// Queue is what request handlers depend on.
type Queue interface {
	Do(ctx context.Context, label string, fn func(context.Context) error) error
	Shutdown(ctx context.Context)
}

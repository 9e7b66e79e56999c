package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DoReturnsJobResult(t *testing.T) {
	p := NewPool(nil, WithWorkers(2), WithQueueSize(4))
	defer p.Shutdown(context.Background())

	require.NoError(t, p.Do(context.Background(), "ok", func(context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, p.Do(context.Background(), "fail", func(context.Context) error { return boom }), boom)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(nil, WithWorkers(2), WithQueueSize(16))
	defer p.Shutdown(context.Background())

	var running, peak int32
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			errs <- p.Do(context.Background(), "ocr", func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-errs)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestPool_DoHonoursContext(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), "blocker", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Do(ctx, "late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestPool_RecoversPanics(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	defer p.Shutdown(context.Background())

	err := p.Do(context.Background(), "panic", func(context.Context) error { panic("bad page") })
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad page", pe.Value)

	assert.NoError(t, p.Do(context.Background(), "after", func(context.Context) error { return nil }))
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	p := NewPool(nil, WithWorkers(1))
	p.Shutdown(context.Background())
	p.Shutdown(context.Background())

	err := p.Do(context.Background(), "late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

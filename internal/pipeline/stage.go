package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
)

// StageError records which stage a request failed in. It unwraps to the
// underlying taxonomy error so callers can still match with errors.Is.
type StageError struct {
	Stage constants.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the failing stage, or "" when err carries none.
func StageOf(err error) constants.Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// tracker logs stage transitions for one request.
type tracker struct {
	logger *slog.Logger
	reqID  string
	start  time.Time
	stage  constants.Stage
}

func newTracker(ctx context.Context, logger *slog.Logger) *tracker {
	t := &tracker{
		logger: common.LoggerFromContext(ctx, logger),
		reqID:  common.RequestIDFromContext(ctx),
		start:  time.Now(),
	}
	t.enter(constants.StageReceived)
	return t
}

func (t *tracker) enter(s constants.Stage) {
	t.stage = s
	t.logger.Debug("pipeline.stage", "stage", s, "req_id", t.reqID, "elapsed_ms", time.Since(t.start).Milliseconds())
}

// fail moves to Failed and returns the error tagged with the stage it happened in.
func (t *tracker) fail(ctx context.Context, err error) error {
	err = upstreamOnDeadline(ctx, err)
	t.logger.Warn("pipeline.failed",
		"stage", t.stage,
		"req_id", t.reqID,
		"elapsed_ms", time.Since(t.start).Milliseconds(),
		"error", err,
	)
	return &StageError{Stage: t.stage, Err: err}
}

func (t *tracker) done() {
	t.stage = constants.StageDone
	t.logger.Info("pipeline.done", "req_id", t.reqID, "elapsed_ms", time.Since(t.start).Milliseconds())
}

// upstreamOnDeadline reports an expired request deadline as an upstream failure
// while keeping context.DeadlineExceeded in the chain.
func upstreamOnDeadline(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrUpstream) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", common.ErrUpstream, context.DeadlineExceeded)
	}
	return err
}

package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// Runner executes one external OCR tool. Tests replace it with a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ErrToolMissing means pdftoppm or tesseract is not on PATH.
var ErrToolMissing = errors.New("ocr tool not installed")

// Lingering children (pdftoppm forks per page) get this long after cancel.
const killGrace = 2 * time.Second

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		r.logger.Error("ocr.exec.missing", "cmd", name, "error", err)
		return nil, nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	// Parallelism comes from the worker pool; one thread per tesseract keeps N workers at N cores.
	cmd.Env = append(os.Environ(), "OMP_THREAD_LIMIT=1")
	cmd.WaitDelay = killGrace
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	switch {
	case ctx.Err() != nil:
		r.logger.Warn("ocr.exec.cancelled", "cmd", name, "elapsed_ms", elapsed, "error", ctx.Err())
	case err != nil:
		r.logger.Error("ocr.exec.failed",
			"cmd", name,
			"args", args,
			"elapsed_ms", elapsed,
			"error", err,
			"stderr", truncate(stderr.String(), 8<<10),
		)
	default:
		r.logger.Debug("ocr.exec.ok", "cmd", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/syncora/internal/async"
	"github.com/joseph-ayodele/syncora/internal/ocr"
)

// OCRAdapter runs the OCR engine on a shared worker pool so concurrent uploads
// queue for CPU instead of each spawning its own engine processes.
type OCRAdapter struct {
	e      *ocr.Extractor
	pool   async.Queue
	logger *slog.Logger
}

// NewOCRAdapter wraps e. A nil pool runs extraction on the caller's goroutine.
func NewOCRAdapter(e *ocr.Extractor, pool async.Queue, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, pool: pool, logger: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, data []byte, mimeType string) (Document, error) {
	var (
		r       ocr.ExtractionResult
		started time.Time
	)
	queued := time.Now()
	run := func(ctx context.Context) error {
		started = time.Now()
		var err error
		r, err = a.e.Extract(ctx, data, mimeType)
		return err
	}

	var err error
	if a.pool == nil {
		err = run(ctx)
	} else {
		err = a.pool.Do(ctx, "ocr", run)
	}
	if err != nil {
		// run may still be executing on a worker, so r and started are off limits.
		a.logger.Warn("extract.failed", "mime", mimeType, "since_ms", time.Since(queued).Milliseconds(), "error", err)
		return Document{}, err
	}
	return Document{
		Text:   r.Text,
		Format: r.SourceType,
		Pages:  r.Pages,
		Method: r.Method,
		Waited: started.Sub(queued),
		Took:   r.Duration,
	}, nil
}

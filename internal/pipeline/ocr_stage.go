package processor

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/extract"
)

type OCRStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewOCRStage(tx extract.TextExtractor, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{TextExtractor: tx, Logger: logger}
}

// Run extracts text from one upload. Unsupported types are rejected before the engine runs.
func (s *OCRStage) Run(ctx context.Context, data []byte, mimeType string) (extract.Document, error) {
	if err := checkMime(mimeType); err != nil {
		return extract.Document{}, err
	}
	res, err := s.TextExtractor.Extract(ctx, data, mimeType)
	if err != nil {
		return res, err
	}
	common.LoggerFromContext(ctx, s.Logger).Info("pipeline.ocr.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"queue_ms", res.Waited.Milliseconds(),
		"ocr_ms", res.Took.Milliseconds(),
	)
	return res, nil
}

func checkMime(mimeType string) error {
	if constants.MapMimeToFormat(mimeType) == "" {
		return common.NewAppError("UNSUPPORTED_MEDIA_TYPE", "unsupported file type "+mimeType, common.ErrUnsupportedMediaType)
	}
	return nil
}

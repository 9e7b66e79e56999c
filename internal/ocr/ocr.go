package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for PDF pages, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir string
	TempDir     string // "" -> os.TempDir()
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
}

// Extractor turns an uploaded image or PDF into plain text with tesseract.
// It keeps no state between calls.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner swaps the command runner, mostly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract picks a strategy based on the declared MIME type.
// Unsupported types fail before any engine runs; undecodable payloads fail with common.ErrDecode.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (ExtractionResult, error) {
	start := time.Now()
	format := constants.MapMimeToFormat(mimeType)
	e.logger.Debug("ocr.extract.start", "mime", mimeType, "format", format, "bytes", len(data))

	var (
		res ExtractionResult
		err error
	)
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, data)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, data)
	default:
		e.logger.Warn("ocr.extract.unsupported", "mime", mimeType)
		return ExtractionResult{}, common.NewAppError("UNSUPPORTED_MEDIA_TYPE",
			fmt.Sprintf("unsupported file type %q; upload a JPEG, PNG or PDF", mimeType), common.ErrUnsupportedMediaType)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.failed", "format", format, "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}
	e.logger.Info("ocr.extract.ok",
		"format", format,
		"method", res.Method,
		"pages", res.Pages,
		"text_len", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// scratch writes data into a fresh temp dir and returns the file path plus a cleanup func.
func (e *Extractor) scratch(data []byte, name string) (string, string, func(), error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "syncora-ocr-*")
	if err != nil {
		return "", "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.tempdir.remove_failed", "dir", dir, "error", err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("write upload: %w", err)
	}
	return dir, path, cleanup, nil
}

func decodeError(msg string, cause error) error {
	if cause != nil {
		msg = msg + ": " + cause.Error()
	}
	return common.NewAppError("DECODE_ERROR", msg, common.ErrDecode)
}

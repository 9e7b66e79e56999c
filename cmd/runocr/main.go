package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/ingest"
	"github.com/joseph-ayodele/syncora/internal/ocr"
)

const usage = "runocr <file.pdf|file.png|file.jpg> | runocr -watch <dir>"

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)

	x := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)

	switch {
	case len(os.Args) == 3 && os.Args[1] == "-watch":
		if err := watch(x, os.Args[2], logger); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
	case len(os.Args) == 2:
		text, err := extractFile(context.Background(), x, os.Args[1], logger)
		if err != nil {
			os.Exit(1)
		}
		fmt.Print(text)
	default:
		logger.Error("usage", "cmd", usage)
		os.Exit(2)
	}
}

// watch prints the text of every supported document dropped under dir.
func watch(x *ocr.Extractor, dir string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := ingest.NewWatcher(ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("watcher stopped", "error", err)
		}
	}()

	for path := range w.Files() {
		text, err := extractFile(ctx, x, path, logger)
		if err != nil {
			continue
		}
		fmt.Printf("==> %s <==\n%s\n", path, text)
	}
	return nil
}

func extractFile(ctx context.Context, x *ocr.Extractor, path string, logger *slog.Logger) (string, error) {
	mimeType := constants.MimeFromPath(path)
	if mimeType == "" {
		logger.Error("unsupported file extension", "path", path)
		return "", fmt.Errorf("unsupported file extension: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	start := time.Now()
	res, err := x.Extract(ctx, data, mimeType)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return "", err
	}
	logger.Info("text extraction OK",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res.Text, nil
}

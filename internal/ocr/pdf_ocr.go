package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/syncora/constants"
)

var pdfMagic = []byte("%PDF-")

// extractPDF rasterizes every page and OCRs them in page order.
// Page texts are joined with no separator.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (ExtractionResult, error) {
	base := ExtractionResult{SourceType: constants.PDF, Method: "pdf-ocr", Language: e.cfg.TesseractLang}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return base, decodeError("file is not a PDF document", nil)
	}

	dir, path, cleanup, err := e.scratch(data, "upload.pdf")
	if err != nil {
		return base, err
	}
	defer cleanup()

	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		if ctx.Err() != nil {
			return base, ctx.Err()
		}
		if errors.Is(err, ErrToolMissing) {
			return base, err
		}
		return base, decodeError("PDF could not be rendered", fmt.Errorf("%w: %s", err, truncate(string(errb), 512)))
	}

	pages, err := renderedPages(prefix)
	if err != nil {
		return base, err
	}
	if len(pages) == 0 {
		return base, decodeError("PDF rendered no pages", nil)
	}

	var b strings.Builder
	for i, img := range pages {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			return base, fmt.Errorf("page %d: %w", i+1, err)
		}
		b.WriteString(txt)
	}
	base.Text = b.String()
	base.Pages = len(pages)
	return base, nil
}

// renderedPages lists prefix-N.png files ordered by page number.
// pdftoppm zero-pads N, but numeric ordering does not rely on that.
func renderedPages(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return pageNumber(prefix, matches[i]) < pageNumber(prefix, matches[j])
	})
	return matches, nil
}

func pageNumber(prefix, path string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"-"), ".png")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

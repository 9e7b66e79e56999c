package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/joseph-ayodele/syncora/constants"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte) (ExtractionResult, error) {
	// A full decode catches bodies truncated after a valid header.
	img, kind, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE}, decodeError("image could not be decoded", err)
	}
	if img.Bounds().Empty() {
		return ExtractionResult{SourceType: constants.IMAGE}, decodeError("image has no pixels", nil)
	}

	_, path, cleanup, err := e.scratch(data, "upload."+kind)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE}, err
	}
	defer cleanup()

	txt, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return ExtractionResult{SourceType: constants.IMAGE}, err
	}
	return ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
	}, nil
}

// tesseractOCR runs `tesseract <file> stdout -l <lang>` and returns stdout untouched.
func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, ErrToolMissing) {
			return "", err
		}
		return "", decodeError("image could not be read by tesseract", fmt.Errorf("%w: %s", err, truncate(string(errb), 512)))
	}
	return string(out), nil
}

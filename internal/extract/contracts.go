package extract

import (
	"context"
	"time"
)

// TextExtractor turns one uploaded assignment document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (Document, error)
}

// Document is the text of an upload plus how it was obtained.
type Document struct {
	Text   string
	Format string // constants.PDF or constants.IMAGE
	Pages  int
	Method string
	Waited time.Duration // time spent queued for an OCR worker
	Took   time.Duration
}

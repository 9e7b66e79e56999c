package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syncora/internal/common"
)

// fakeRunner emulates pdftoppm by writing page files and tesseract by looking up canned text.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	pageNames []string          // files pdftoppm "renders", relative to the prefix dir
	pageText  map[string]string // basename -> OCR text
	pdfErr    error
	tessErr   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	switch name {
	case "pdftoppm":
		if f.pdfErr != nil {
			return nil, []byte("Syntax Error: Couldn't find trailer dictionary"), f.pdfErr
		}
		prefix := args[len(args)-1]
		for _, p := range f.pageNames {
			if err := os.WriteFile(prefix+"-"+p, []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if f.tessErr != nil {
			return nil, []byte("Error in pixReadStreamPng: read fail"), f.tessErr
		}
		return []byte(f.pageText[filepath.Base(args[0])]), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %s", name)
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var samplePDF = []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func TestExtract_PDFConcatenatesPagesWithoutSeparator(t *testing.T) {
	r := &fakeRunner{
		pageNames: []string{"2.png", "1.png"},
		pageText:  map[string]string{"page-1.png": "1. 2+2=? ", "page-2.png": "2. 3+3=?"},
	}
	x := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := x.Extract(context.Background(), samplePDF, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "1. 2+2=? 2. 3+3=?", res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "pdf-ocr", res.Method)
}

func TestExtract_PDFPageOrderIsNumeric(t *testing.T) {
	names := make([]string, 0, 11)
	text := map[string]string{}
	for i := 1; i <= 11; i++ {
		names = append(names, fmt.Sprintf("%d.png", i))
		text[fmt.Sprintf("page-%d.png", i)] = fmt.Sprintf("[%d]", i)
	}
	r := &fakeRunner{pageNames: names, pageText: text}
	x := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := x.Extract(context.Background(), samplePDF, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "[1][2][3][4][5][6][7][8][9][10][11]", res.Text)
}

func TestExtract_ImageMayBeEmpty(t *testing.T) {
	r := &fakeRunner{pageText: map[string]string{}}
	x := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := x.Extract(context.Background(), pngBytes(t), "image/PNG")
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 1, r.count())
}

func TestExtract_ImageText(t *testing.T) {
	r := &fakeRunner{pageText: map[string]string{"upload.png": "Read chapter 3"}}
	x := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := x.Extract(context.Background(), pngBytes(t), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Read chapter 3", res.Text)
}

func TestExtract_UnsupportedTypeRunsNothing(t *testing.T) {
	for _, mt := range []string{"text/plain", "image/gif", "", "application/msword"} {
		r := &fakeRunner{}
		x := NewExtractor(Config{}, nil, WithRunner(r))

		_, err := x.Extract(context.Background(), []byte("hello"), mt)
		assert.ErrorIs(t, err, common.ErrUnsupportedMediaType, mt)
		assert.Zero(t, r.count(), mt)
	}
}

func TestExtract_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		mime string
		r    *fakeRunner
	}{
		{"corrupt png", []byte("\x89PNG garbage"), "image/png", &fakeRunner{}},
		{"corrupt jpeg", []byte{0xff, 0xd8, 0x00}, "image/jpeg", &fakeRunner{}},
		{"not a pdf", []byte("just text"), "application/pdf", &fakeRunner{}},
		{"unrenderable pdf", samplePDF, "application/pdf", &fakeRunner{pdfErr: errors.New("exit status 1")}},
		{"pdf without pages", samplePDF, "application/pdf", &fakeRunner{}},
		{"truncated png", pngBytes(t)[:40], "image/png", &fakeRunner{tessErr: errors.New("exit status 1")}},
		{"unreadable image", pngBytes(t), "image/png", &fakeRunner{tessErr: errors.New("exit status 1")}},
		{"unreadable pdf page", samplePDF, "application/pdf", &fakeRunner{
			pageNames: []string{"1.png"},
			tessErr:   errors.New("exit status 1"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := NewExtractor(Config{}, nil, WithRunner(tt.r))
			_, err := x.Extract(context.Background(), tt.data, tt.mime)
			assert.ErrorIs(t, err, common.ErrDecode)
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	r := &fakeRunner{
		pageNames: []string{"1.png"},
		pageText:  map[string]string{"page-1.png": "Worksheet 5"},
	}
	x := NewExtractor(Config{}, nil, WithRunner(r))

	a, err := x.Extract(context.Background(), samplePDF, "application/pdf")
	require.NoError(t, err)
	b, err := x.Extract(context.Background(), samplePDF, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, a.Text, b.Text)
}

func TestExtract_MissingToolIsNotADecodeError(t *testing.T) {
	x := NewExtractor(Config{}, nil, WithRunner(&fakeRunner{pdfErr: ErrToolMissing}))
	_, err := x.Extract(context.Background(), samplePDF, "application/pdf")
	require.ErrorIs(t, err, ErrToolMissing)
	assert.NotErrorIs(t, err, common.ErrDecode)

	x = NewExtractor(Config{}, nil, WithRunner(&fakeRunner{tessErr: ErrToolMissing}))
	_, err = x.Extract(context.Background(), pngBytes(t), "image/png")
	require.ErrorIs(t, err, ErrToolMissing)
	assert.NotErrorIs(t, err, common.ErrDecode)
}

func TestExtract_TruncatedImageSkipsEngine(t *testing.T) {
	r := &fakeRunner{}
	x := NewExtractor(Config{}, nil, WithRunner(r))
	_, err := x.Extract(context.Background(), pngBytes(t)[:40], "image/png")
	require.ErrorIs(t, err, common.ErrDecode)
	assert.Equal(t, http.StatusBadRequest, common.HTTPStatus(err))
	assert.Zero(t, r.count())
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := execRunner{logger: slog.Default()}
	_, _, err := r.Run(context.Background(), "syncora-no-such-ocr-tool")
	assert.ErrorIs(t, err, ErrToolMissing)
}

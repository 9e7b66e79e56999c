package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/async"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
	"github.com/joseph-ayodele/syncora/internal/extract"
	"github.com/joseph-ayodele/syncora/internal/llm"
	"github.com/joseph-ayodele/syncora/internal/ocr"
)

// pageRunner renders a fixed number of PDF pages and answers tesseract with canned text.
type pageRunner struct {
	mu    sync.Mutex
	calls int
	pages map[string]string // "1.png" -> text
	image string            // text for a directly uploaded image
}

func (r *pageRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for p := range r.pages {
			if err := os.WriteFile(prefix+"-"+p, []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		path := args[0]
		if strings.HasPrefix(filepath.Base(path), "upload.") {
			return []byte(r.image), nil, nil
		}
		return []byte(r.pages[path[strings.LastIndex(path, "-")+1:]]), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

type recordingCompleter struct {
	mu     sync.Mutex
	calls  int
	system string
	user   string
	reply  string
	err    error
	wait   bool
}

func (c *recordingCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.system, c.user = system, user
	c.mu.Unlock()
	if c.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.reply, c.err
}

type countingStore struct {
	mu      sync.Mutex
	created []*entity.Assignment
	err     error
}

func (s *countingStore) Create(_ context.Context, ownerID uuid.UUID, f entity.AssignmentFields) (*entity.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &entity.Assignment{
		ID: uuid.New(), OwnerID: ownerID, Title: f.Title, Subject: f.Subject,
		EstimatedMinutes: f.EstimatedMinutes, Description: f.Description,
	}
	s.created = append(s.created, a)
	return a, nil
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type fixture struct {
	runner *pageRunner
	llm    *recordingCompleter
	store  *countingStore
	proc   *Processor
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	f := &fixture{
		runner: &pageRunner{pages: map[string]string{"1.png": "Q1: solve x+1=2. ", "2.png": "Q2: solve 2x=4."}},
		llm:    &recordingCompleter{reply: reply},
		store:  &countingStore{},
	}
	pool := async.NewPool(nil, async.WithWorkers(2))
	t.Cleanup(func() { pool.Shutdown(context.Background()) })

	x := ocr.NewExtractor(ocr.Config{}, nil, ocr.WithRunner(f.runner))
	f.proc = NewProcessor(nil,
		NewOCRStage(extract.NewOCRAdapter(x, pool, nil), nil),
		NewEstimateStage(f.llm, nil),
		f.store,
		5*time.Second,
	)
	return f
}

var samplePDF = []byte("%PDF-1.4\n%%EOF\n")

func TestCreateFromUpload_PDFHappyPath(t *testing.T) {
	f := newFixture(t, " 5\n")
	owner := uuid.New()

	a, err := f.proc.CreateFromUpload(context.Background(), owner, UploadRequest{
		Data:               samplePDF,
		MimeType:           "application/pdf",
		Title:              "Algebra worksheet",
		Subject:            "Math",
		CustomInstructions: "only even problems",
	})
	require.NoError(t, err)

	assert.Equal(t, owner, a.OwnerID)
	require.NotNil(t, a.EstimatedMinutes)
	assert.Equal(t, 5, *a.EstimatedMinutes)
	require.NotNil(t, a.Subject)
	assert.Equal(t, "Math", *a.Subject)
	assert.Equal(t, 1, f.store.count())

	assert.Equal(t, llm.SystemPrompt, f.llm.system)
	assert.Contains(t, f.llm.user, "Q1: solve x+1=2. Q2: solve 2x=4.")
	assert.Contains(t, f.llm.user, "CUSTOM INSTRUCTIONS:\nonly even problems")
}

func TestCreateFromUpload_UnsupportedTypeTouchesNothing(t *testing.T) {
	f := newFixture(t, "5")

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: []byte("hello"), MimeType: "text/plain", Title: "notes",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedMediaType)
	assert.Equal(t, constants.StageReceived, StageOf(err))

	assert.Zero(t, f.runner.calls)
	assert.Zero(t, f.llm.calls)
	assert.Zero(t, f.store.count())
}

func TestCreateFromUpload_NotDetected(t *testing.T) {
	f := newFixture(t, llm.NotDetectedMarker)

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: samplePDF, MimeType: "application/pdf", Title: "grocery list",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrEstimationUnavailable)
	assert.Equal(t, constants.StageParsing, StageOf(err))
	assert.Zero(t, f.store.count())
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCreateFromUpload_NotDetectedImage(t *testing.T) {
	f := newFixture(t, llm.NotDetectedMarker)
	f.runner.image = "milk, eggs, bread"

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: pngUpload(t), MimeType: "image/png", Title: "grocery list",
	})
	require.ErrorIs(t, err, common.ErrEstimationUnavailable)
	assert.Equal(t, constants.StageParsing, StageOf(err))
	assert.Contains(t, f.llm.user, "milk, eggs, bread")
	assert.Equal(t, 1, f.runner.calls)
	assert.Zero(t, f.store.count())
}

func TestCreateFromUpload_ImageHappyPath(t *testing.T) {
	f := newFixture(t, "25")
	f.runner.image = "Read pages 10-20"
	owner := uuid.New()

	a, err := f.proc.CreateFromUpload(context.Background(), owner, UploadRequest{
		Data: pngUpload(t), MimeType: "image/png", Title: "reading",
	})
	require.NoError(t, err)
	require.NotNil(t, a.EstimatedMinutes)
	assert.Equal(t, 25, *a.EstimatedMinutes)
	assert.Equal(t, owner, a.OwnerID)
}

func TestCreateFromUpload_TruncatedImageIsDecodeError(t *testing.T) {
	f := newFixture(t, "5")

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: pngUpload(t)[:40], MimeType: "image/png", Title: "reading",
	})
	require.ErrorIs(t, err, common.ErrDecode)
	assert.Equal(t, constants.StageExtracting, StageOf(err))
	assert.Zero(t, f.runner.calls)
	assert.Zero(t, f.llm.calls)
}

func TestCreateFromUpload_SubjectTooLong(t *testing.T) {
	f := newFixture(t, "5")

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: samplePDF, MimeType: "application/pdf", Title: "essay",
		Subject: strings.Repeat("s", 101),
	})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, f.runner.calls)
	assert.Zero(t, f.llm.calls)

	_, err = f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: samplePDF, MimeType: "application/pdf", Title: "essay",
		Subject: strings.Repeat("s", 100),
	})
	require.NoError(t, err)
}

func TestCreateFromUpload_MissingTitle(t *testing.T) {
	f := newFixture(t, "5")

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: samplePDF, MimeType: "application/pdf", Title: "   ",
	})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, f.runner.calls)
	assert.Zero(t, f.llm.calls)
}

func TestCreateFromUpload_UpstreamFailure(t *testing.T) {
	f := newFixture(t, "")
	f.llm.err = common.ErrUpstream

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: samplePDF, MimeType: "application/pdf", Title: "essay",
	})
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Equal(t, constants.StageEstimating, StageOf(err))
	assert.Zero(t, f.store.count())
}

func TestCreateFromUpload_DeadlineIsUpstream(t *testing.T) {
	f := newFixture(t, "")
	f.llm.wait = true
	f.proc.Timeout = 20 * time.Millisecond

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: samplePDF, MimeType: "application/pdf", Title: "essay",
	})
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, f.store.count())
}

func TestCreateFromUpload_StoreFailure(t *testing.T) {
	f := newFixture(t, "30")
	f.store.err = common.NewAppError("DATABASE_ERROR", "create assignment", common.ErrDatabase)

	_, err := f.proc.CreateFromUpload(context.Background(), uuid.New(), UploadRequest{
		Data: samplePDF, MimeType: "application/pdf", Title: "essay",
	})
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.Equal(t, constants.StagePersisting, StageOf(err))
}

func TestDecomposedEntryPoints(t *testing.T) {
	f := newFixture(t, "forty-five")
	ctx := context.Background()

	text, err := f.proc.ExtractText(ctx, samplePDF, "application/pdf; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "Q1: solve x+1=2. Q2: solve 2x=4.", text)

	raw, err := f.proc.Estimate(ctx, "read chapter 4", "")
	require.NoError(t, err)
	assert.Equal(t, "forty-five", raw, "raw reply is returned unparsed")
	assert.True(t, strings.HasSuffix(f.llm.user, "CUSTOM INSTRUCTIONS:\nNone"))

	raw, err = f.proc.EstimateUpload(ctx, samplePDF, "application/pdf", "skip Q2")
	require.NoError(t, err)
	assert.Equal(t, "forty-five", raw)
	assert.Zero(t, f.store.count())

	_, err = f.proc.ExtractText(ctx, []byte("x"), "application/zip")
	assert.ErrorIs(t, err, common.ErrUnsupportedMediaType)
}

func TestCreateFromUpload_ConcurrentRequestsAreIndependent(t *testing.T) {
	f := newFixture(t, "12")
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := UploadRequest{Data: samplePDF, MimeType: "application/pdf", Title: "hw"}
			if i%2 == 1 {
				req.MimeType = "text/plain"
			}
			_, errs[i] = f.proc.CreateFromUpload(context.Background(), uuid.New(), req)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if i%2 == 1 {
			assert.ErrorIs(t, err, common.ErrUnsupportedMediaType)
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 4, f.store.count())
}

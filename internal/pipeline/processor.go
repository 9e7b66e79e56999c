package processor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
	"github.com/joseph-ayodele/syncora/internal/llm"
)

// DefaultTimeout bounds OCR and the estimate call together for one request.
const DefaultTimeout = 90 * time.Second

// AssignmentStore is the single write the pipeline performs.
type AssignmentStore interface {
	Create(ctx context.Context, ownerID uuid.UUID, fields entity.AssignmentFields) (*entity.Assignment, error)
}

// UploadRequest is one multipart upload. It is never persisted as-is.
type UploadRequest struct {
	Data               []byte
	MimeType           string
	Title              string
	Subject            string
	Description        *string
	CustomInstructions string
}

// Processor coordinates OCR, the estimate call and persistence.
// It holds no per-request state and is shared by every handler.
type Processor struct {
	Logger  *slog.Logger
	OCR     *OCRStage
	LLM     *EstimateStage
	Store   AssignmentStore
	Timeout time.Duration
}

func NewProcessor(logger *slog.Logger, ocr *OCRStage, est *EstimateStage, store AssignmentStore, timeout time.Duration) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Processor{Logger: logger, OCR: ocr, LLM: est, Store: store, Timeout: timeout}
}

// CreateFromUpload runs the full pipeline and persists one assignment owned by ownerID.
// Nothing is written unless every earlier stage succeeded.
func (p *Processor) CreateFromUpload(ctx context.Context, ownerID uuid.UUID, req UploadRequest) (*entity.Assignment, error) {
	t := newTracker(ctx, p.Logger)

	title := strings.TrimSpace(req.Title)
	v := common.NewValidator()
	v.Field("title", title, common.Required, common.MaxLength(200))
	v.Field("subject", strings.TrimSpace(req.Subject), common.MaxLength(100))
	v.Check(ownerID != uuid.Nil, "owner_id", "is required")
	if err := v.Err(); err != nil {
		return nil, t.fail(ctx, err)
	}
	if err := checkMime(req.MimeType); err != nil {
		return nil, t.fail(ctx, err)
	}

	dctx, cancel := common.WithTimeout(ctx, p.Timeout)
	defer cancel()

	t.enter(constants.StageExtracting)
	res, err := p.OCR.Run(dctx, req.Data, req.MimeType)
	if err != nil {
		return nil, t.fail(dctx, err)
	}

	t.enter(constants.StagePrompting)
	system, user := llm.BuildPrompt(res.Text, req.CustomInstructions)

	t.enter(constants.StageEstimating)
	raw, err := p.LLM.Run(dctx, system, user)
	if err != nil {
		return nil, t.fail(dctx, err)
	}

	t.enter(constants.StageParsing)
	minutes, err := llm.ParseMinutes(raw)
	if err != nil {
		return nil, t.fail(dctx, err)
	}

	t.enter(constants.StagePersisting)
	fields := entity.AssignmentFields{
		Title:            title,
		EstimatedMinutes: &minutes,
		Description:      req.Description,
	}
	if s := strings.TrimSpace(req.Subject); s != "" {
		fields.Subject = &s
	}
	// the deadline covers OCR and the estimate only; a slow write must not be cut off half way
	a, err := p.Store.Create(context.WithoutCancel(ctx), ownerID, fields)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	t.done()
	return a, nil
}

// ExtractText runs OCR only.
func (p *Processor) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	dctx, cancel := common.WithTimeout(ctx, p.Timeout)
	defer cancel()
	res, err := p.OCR.Run(dctx, data, mimeType)
	if err != nil {
		return "", upstreamOnDeadline(dctx, err)
	}
	return res.Text, nil
}

// Estimate builds the prompt for text and returns the raw reply, unparsed.
func (p *Processor) Estimate(ctx context.Context, text, instructions string) (string, error) {
	dctx, cancel := common.WithTimeout(ctx, p.Timeout)
	defer cancel()
	system, user := llm.BuildPrompt(text, instructions)
	raw, err := p.LLM.Run(dctx, system, user)
	if err != nil {
		return "", upstreamOnDeadline(dctx, err)
	}
	return raw, nil
}

// EstimateUpload composes OCR and the estimate call without persisting anything.
func (p *Processor) EstimateUpload(ctx context.Context, data []byte, mimeType, instructions string) (string, error) {
	dctx, cancel := common.WithTimeout(ctx, p.Timeout)
	defer cancel()
	res, err := p.OCR.Run(dctx, data, mimeType)
	if err != nil {
		return "", upstreamOnDeadline(dctx, err)
	}
	system, user := llm.BuildPrompt(res.Text, instructions)
	raw, err := p.LLM.Run(dctx, system, user)
	if err != nil {
		return "", upstreamOnDeadline(dctx, err)
	}
	return raw, nil
}

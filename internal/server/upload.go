package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
	processor "github.com/joseph-ayodele/syncora/internal/pipeline"
)

type uploadForm struct {
	data     []byte
	mimeType string
	filename string
	values   map[string]string
}

// readUpload parses a multipart body bounded by MaxUploadBytes and returns the "file" part.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, common.InvalidArgumentErrorf("upload exceeds %d bytes", h.opts.MaxUploadBytes)
		}
		return nil, common.InvalidArgumentError("expected a multipart/form-data body")
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, common.InvalidArgumentError("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, common.InvalidArgumentError("could not read uploaded file")
	}

	out := &uploadForm{
		data:     data,
		mimeType: partMime(hdr),
		filename: hdr.Filename,
		values:   map[string]string{},
	}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			out.values[k] = v[0]
		}
	}
	return out, nil
}

// partMime trusts the declared part type, falling back to the extension for generic types.
func partMime(hdr *multipart.FileHeader) string {
	declared := constants.NormalizeMime(hdr.Header.Get("Content-Type"))
	if declared == "" || declared == "application/octet-stream" {
		if m := constants.MimeFromPath(hdr.Filename); m != "" {
			return m
		}
	}
	return hdr.Header.Get("Content-Type")
}

// UploadAssignment runs the full pipeline and returns the created assignment.
func (h *Handler) UploadAssignment(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	form, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	req := processor.UploadRequest{
		Data:               form.data,
		MimeType:           form.mimeType,
		Title:              form.values["title"],
		Subject:            form.values["subject"],
		CustomInstructions: form.values["custom_instructions"],
	}
	if d := strings.TrimSpace(form.values["description"]); d != "" {
		req.Description = &d
	}

	a, err := h.pipeline.CreateFromUpload(r.Context(), owner, req)
	if err != nil {
		h.writeErrorStatus(w, r, uploadStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// uploadStatus reports every pre-persistence pipeline failure as a bad request;
// only a failed write is the server's fault.
func uploadStatus(err error) int {
	status := common.HTTPStatus(err)
	if status >= 500 && processor.StageOf(err) == constants.StagePersisting {
		return status
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return status
	}
	return http.StatusBadRequest
}

func (h *Handler) OCR(w http.ResponseWriter, r *http.Request) {
	form, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	text, err := h.pipeline.ExtractText(r.Context(), form.data, form.mimeType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

type llmRequest struct {
	Text               string `json:"text"`
	CustomInstructions string `json:"custom_instructions"`
}

// LLM accepts JSON or form fields and returns the raw model reply.
func (h *Handler) LLM(w http.ResponseWriter, r *http.Request) {
	var req llmRequest
	if strings.HasPrefix(constants.NormalizeMime(r.Header.Get("Content-Type")), "application/json") {
		body, err := readBody(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if err := decodeStrict(body, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
		if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			h.writeError(w, r, common.InvalidArgumentError("could not parse form"))
			return
		}
		req.Text = r.FormValue("text")
		req.CustomInstructions = r.FormValue("custom_instructions")
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, r, common.NewAppError("VALIDATION_FAILED", "text is required", common.ErrValidation))
		return
	}

	raw, err := h.pipeline.Estimate(r.Context(), req.Text, req.CustomInstructions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estimate": raw})
}

func (h *Handler) EstimateTime(w http.ResponseWriter, r *http.Request) {
	form, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	raw, err := h.pipeline.EstimateUpload(r.Context(), form.data, form.mimeType, form.values["custom_instructions"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"estimate": raw})
}

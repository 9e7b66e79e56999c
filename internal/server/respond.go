package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/syncora/internal/common"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("http.response.encode.failed", "error", err)
	}
}

// writeError maps err onto a status and a body that never leaks internals.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorStatus(w, r, common.HTTPStatus(err), err)
}

func (h *Handler) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := common.LoggerFromContext(r.Context(), h.logger)
	if status >= 500 {
		logger.Error("http.request.failed", "status", status, "path", r.URL.Path, "error", err)
	} else {
		logger.Info("http.request.rejected", "status", status, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    common.ErrorCode(err),
		Message: common.PublicMessage(err),
	}})
}

const maxJSONBody = 1 << 20

// readBody reads a bounded JSON body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, common.InvalidArgumentError("request body too large")
		}
		return nil, common.InvalidArgumentError("could not read request body")
	}
	return body, nil
}

func decodeStrict(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return common.InvalidArgumentErrorf("invalid JSON body: %v", err)
	}
	return nil
}

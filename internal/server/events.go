package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
	"github.com/joseph-ayodele/syncora/internal/repository"
)

// parseWindow reads optional RFC 3339 "from" and "to" query parameters.
func parseWindow(r *http.Request) (from, to *time.Time, err error) {
	parse := func(key string) (*time.Time, error) {
		s := strings.TrimSpace(r.URL.Query().Get(key))
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, common.InvalidArgumentErrorf("%s must be an RFC 3339 timestamp", key)
		}
		return &t, nil
	}
	if from, err = parse("from"); err != nil {
		return nil, nil, err
	}
	if to, err = parse("to"); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	from, to, err := parseWindow(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.events.List(r.Context(), owner, repository.EventFilter{From: from, To: to})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*entity.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := entity.ValidateBody(entity.EventCreateSchema, body); err != nil {
		h.writeError(w, r, err)
		return
	}
	var fields entity.EventFields
	if err := decodeStrict(body, &fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	fields.Title = strings.TrimSpace(fields.Title)
	if err := common.NewValidator().Field("title", fields.Title, common.Required).Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.events.Create(r.Context(), owner, fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := h.events.Get(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateEvent serves both PATCH and PUT; either way only the keys present are changed.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := entity.ValidateBody(entity.EventPatchSchema, body); err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch entity.EventPatch
	if err := decodeStrict(body, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	e, err := h.events.Update(r.Context(), owner, id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.events.Delete(r.Context(), owner, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package server

import (
	"net/http"
	"strings"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
)

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.assignments.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*entity.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
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
	if err := entity.ValidateBody(entity.AssignmentCreateSchema, body); err != nil {
		h.writeError(w, r, err)
		return
	}
	var fields entity.AssignmentFields
	if err := decodeStrict(body, &fields); err != nil {
		h.writeError(w, r, err)
		return
	}
	fields.Title = strings.TrimSpace(fields.Title)
	if err := common.NewValidator().Field("title", fields.Title, common.Required).Err(); err != nil {
		h.writeError(w, r, err)
		return
	}

	a, err := h.assignments.Create(r.Context(), owner, fields)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
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
	a, err := h.assignments.Get(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
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
	if err := entity.ValidateBody(entity.AssignmentPatchSchema, body); err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch entity.AssignmentPatch
	if err := decodeStrict(body, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	if patch.Title.Valid {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
		if patch.Title.Value == "" {
			h.writeError(w, r, common.NewAppError("VALIDATION_FAILED", "title is required", common.ErrValidation))
			return
		}
	}

	a, err := h.assignments.Update(r.Context(), owner, id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
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
	if err := h.assignments.Delete(r.Context(), owner, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

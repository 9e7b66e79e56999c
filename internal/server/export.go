package server

import (
	"fmt"
	"net/http"
	"time"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportAssignments streams the caller's planner as an XLSX workbook.
// Optional from/to narrow the Events sheet.
func (h *Handler) ExportAssignments(w http.ResponseWriter, r *http.Request) {
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
	xlsx, err := h.exporter.ExportXLSX(r.Context(), owner, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("assignments-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxMime)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}

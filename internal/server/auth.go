package server

import (
	"net/http"
	"strings"

	"github.com/joseph-ayodele/syncora/internal/common"
)

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := h.login.BeginLogin(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// GoogleCallback finishes the OAuth flow. Browsers are sent back to the frontend
// with the token in the URL fragment; API clients asking for JSON get the session body.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.writeError(w, r, common.UnauthorizedError("google login failed: "+e))
		return
	}
	sess, err := h.login.CompleteLogin(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, sess)
		return
	}
	http.Redirect(w, r, h.opts.PostLoginRedirect+"#token="+sess.Token, http.StatusFound)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

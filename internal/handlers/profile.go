package handlers

import (
	"net/http"
	"strings"

	"FacultyProfile/internal/models"

	"go.uber.org/zap"
)

// ShowProfilePage shows who the visitor is working as.
func (h *Handler) ShowProfilePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "profile", map[string]any{"Title": "Profile"})
}

// SetProfile stores user id and PF number in the session. Both are sent
// along with every later backend call of this visitor.
func (h *Handler) SetProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	o := models.Owner{
		UserID: strings.TrimSpace(r.FormValue("user_id")),
		PFNo:   strings.TrimSpace(r.FormValue("pf_no")),
	}
	if o.UserID == "" || o.PFNo == "" {
		http.Error(w, "user_id and pf_no are required", http.StatusBadRequest)
		return
	}
	if err := h.sessions.SetOwner(w, r, o); err != nil {
		h.log.Error("session save failed", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ResetProfile forgets the visitor: identity falls back to the default and
// the page state of all three pages is dropped.
func (h *Handler) ResetProfile(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := scope(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Clear(w, r); err != nil {
		h.log.Error("session save failed", zap.Error(err))
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	h.workspaces.Forget(ws.Key)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

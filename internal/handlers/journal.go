package handlers

import (
	"net/http"

	"FacultyProfile/internal/profile"
)

// ShowJournalPage fetches the visitor's journals (scoped by PF number) and
// renders them read only.
func (h *Handler) ShowJournalPage(w http.ResponseWriter, r *http.Request) {
	ws, owner, ok := scope(w, r)
	if !ok {
		return
	}
	_ = ws.Journal.Fetch(r.Context(), owner)
	h.render(w, r, "journal", map[string]any{
		"Title":   "Journals",
		"State":   ws.Journal.View(),
		"Columns": profile.JournalColumns,
	})
}

func (h *Handler) GetJournals(w http.ResponseWriter, r *http.Request) {
	ws, owner, ok := scope(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") != "" {
		_ = ws.Journal.Fetch(r.Context(), owner)
	}
	writeJSON(w, ws.Journal.View().Records)
}

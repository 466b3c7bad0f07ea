package handlers

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"FacultyProfile/internal/models"
	"FacultyProfile/internal/workspace"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": models.FormatDate,
	"ago":  humanize.Time,
}

// parsePages builds one template set per page, each on top of base.html.
func parsePages(names ...string) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "template %s", name)
		}
		pages[name] = t
	}
	return pages, nil
}

/* ========= helpers ========= */

// render executes page inside the base layout; Owner and Year are added to
// every page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	_, owner, _ := workspace.FromContext(r.Context())
	data["Owner"] = owner
	data["Year"] = time.Now().Year()

	t, ok := h.pages[page]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		h.log.Error("render failed", zap.String("page", page), zap.Error(err))
	}
}

func jsonError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

// scope returns the workspace attached by middleware.Workspace.
func scope(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, models.Owner, bool) {
	ws, owner, ok := workspace.FromContext(r.Context())
	if !ok {
		http.Error(w, "no workspace", http.StatusInternalServerError)
	}
	return ws, owner, ok
}

/* ========= pages ========= */

func (h *Handler) ShowIndexPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index", map[string]any{"Title": "Home"})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

package handlers

import (
	"net/http"

	"FacultyProfile/internal/crud"
	"FacultyProfile/internal/models"
	"FacultyProfile/internal/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// fromParam marks a GET that follows one of the page's own posts. Such a
// GET shows the state the post left behind; only a plain GET (the page being
// opened) fetches the list, unless the list was never fetched (a reload of
// the redirect target after the workspace was dropped).
const fromParam = "from"

// formPage serves one editable resource: its form, its table and the
// edit/cancel/delete posts.
type formPage[R, F any] struct {
	name    string
	path    string
	title   string
	columns []string
	extra   map[string]any
	manager func(*workspace.Workspace) *crud.Manager[R, F]
	parse   func(get func(string) string) F
}

func (p formPage[R, F]) back(w http.ResponseWriter, r *http.Request, from string) {
	http.Redirect(w, r, p.path+"?"+fromParam+"="+from, http.StatusSeeOther)
}

func (p formPage[R, F]) show(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, owner, ok := scope(w, r)
		if !ok {
			return
		}
		m := p.manager(ws)
		if r.URL.Query().Get(fromParam) == "" || m.View().FetchedAt.IsZero() {
			_ = m.Fetch(r.Context(), owner)
		}
		data := map[string]any{
			"Title":   p.title,
			"State":   m.FormView(),
			"Columns": p.columns,
		}
		for k, v := range p.extra {
			data[k] = v
		}
		h.render(w, r, p.name, data)
	}
}

func (p formPage[R, F]) submit(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, owner, ok := scope(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		// failures are logged by the manager and not shown to the visitor
		err := p.manager(ws).Submit(r.Context(), owner, p.parse(r.PostFormValue))
		if errors.Is(err, crud.ErrBusy) {
			h.log.Debug("submit while loading", zap.String("page", p.name))
		}
		p.back(w, r, "submit")
	}
}

func (p formPage[R, F]) edit(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := scope(w, r)
		if !ok {
			return
		}
		id, err := models.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := p.manager(ws).EditByID(id); err != nil {
			h.log.Debug("edit of unknown record", zap.String("page", p.name), zap.Error(err))
		}
		p.back(w, r, "edit")
	}
}

func (p formPage[R, F]) cancel(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, _, ok := scope(w, r)
		if !ok {
			return
		}
		p.manager(ws).Reset()
		p.back(w, r, "cancel")
	}
}

// remove deletes once the visitor confirmed, either through the browser's
// confirm() (confirmed=yes) or through the confirmation page rendered here.
func (p formPage[R, F]) remove(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, owner, ok := scope(w, r)
		if !ok {
			return
		}
		id, err := models.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		confirmed := r.PostFormValue("confirmed") == "yes"
		var question string
		ask := crud.ConfirmFunc(func(msg string) bool {
			if confirmed {
				return true
			}
			question = msg
			return false
		})
		_ = p.manager(ws).Delete(r.Context(), owner, id, ask)
		if question != "" {
			h.render(w, r, "confirm", map[string]any{
				"Title":   "Confirm",
				"Message": question,
				"Action":  r.URL.Path,
				"Back":    p.path + "?" + fromParam + "=cancel",
			})
			return
		}
		p.back(w, r, "delete")
	}
}

func (p formPage[R, F]) list(h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, owner, ok := scope(w, r)
		if !ok {
			return
		}
		m := p.manager(ws)
		if r.URL.Query().Get("refresh") != "" {
			_ = m.Fetch(r.Context(), owner)
		}
		writeJSON(w, m.View().Records)
	}
}

// mount registers the page under its path.
func (p formPage[R, F]) mount(h *Handler, r chi.Router, limit func(http.Handler) http.Handler) {
	r.Get(p.path, p.show(h))
	r.Get("/api"+p.path, p.list(h))
	r.Group(func(g chi.Router) {
		g.Use(limit)
		g.Post(p.path, p.submit(h))
		g.Post(p.path+"/cancel", p.cancel(h))
		g.Post(p.path+"/{id}/edit", p.edit(h))
		g.Post(p.path+"/{id}/delete", p.remove(h))
	})
}

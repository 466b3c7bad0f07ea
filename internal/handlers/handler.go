package handlers

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"FacultyProfile/internal/audit"
	"FacultyProfile/internal/metrics"
	mw "FacultyProfile/internal/middleware"
	"FacultyProfile/internal/models"
	"FacultyProfile/internal/profile"
	"FacultyProfile/internal/sessions"
	"FacultyProfile/internal/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AuditReader is the read side of the mutation audit trail.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Deps is everything the router needs.
type Deps struct {
	Sessions     *sessions.Store
	Workspaces   *workspace.Cache
	Limiter      *mw.RateLimiter
	DefaultOwner models.Owner
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Leave it off unless a proxy that sets those headers fronts the server;
	// the mutation rate limit is keyed on that address.
	TrustProxy bool
	// Audit may be nil when no database is configured.
	Audit AuditReader
	Log   *zap.Logger
}

// Handler serves the profile pages.
type Handler struct {
	sessions   *sessions.Store
	workspaces *workspace.Cache
	audit      AuditReader
	log      *zap.Logger
	pages    map[string]*template.Template

	conference formPage[models.ConferenceRecord, models.ConferenceForm]
	event      formPage[models.EventRecord, models.EventForm]
}

// New parses the templates and wires the pages.
func New(s *sessions.Store, ws *workspace.Cache, a AuditReader, log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pages, err := parsePages("index", "profile", "confirm", "conference", "event", "journal")
	if err != nil {
		return nil, err
	}
	return &Handler{
		sessions:   s,
		workspaces: ws,
		audit:      a,
		log:        log,
		pages:      pages,
		conference: formPage[models.ConferenceRecord, models.ConferenceForm]{
			name:    "conference",
			path:    "/conference",
			title:   "Conference/Symposium",
			columns: profile.ConferenceColumns,
			manager: func(ws *workspace.Workspace) *workspace.ConferenceManager { return ws.Conference },
			parse:   models.ConferenceFormFrom,
		},
		event: formPage[models.EventRecord, models.EventForm]{
			name:    "event",
			path:    "/events",
			title:   "Events",
			columns: profile.EventColumns,
			extra: map[string]any{
				"Roles": models.EventRoles,
				"Types": models.EventTypes,
			},
			manager: func(ws *workspace.Workspace) *workspace.EventManager { return ws.Event },
			parse:   models.EventFormFrom,
		},
	}, nil
}

// NewRouter builds the full HTTP surface.
func NewRouter(d Deps) (http.Handler, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Sessions == nil || d.Workspaces == nil || d.Limiter == nil {
		return nil, errors.New("handlers: sessions, workspaces and limiter are required")
	}
	h, err := New(d.Sessions, d.Workspaces, d.Audit, d.Log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// base middleware
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(mw.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RedirectSlashes)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/api/audit", h.GetAudit)

	// ---------- pages (per-visitor workspace) ----------
	r.Group(func(g chi.Router) {
		g.Use(mw.Workspace(d.Sessions, d.Workspaces, d.DefaultOwner, d.Log))

		g.Get("/", h.ShowIndexPage)
		g.Get("/profile", h.ShowProfilePage)
		g.Post("/profile", h.SetProfile)
		g.Post("/profile/reset", h.ResetProfile)

		h.conference.mount(h, g, d.Limiter.Limit)
		h.event.mount(h, g, d.Limiter.Limit)

		g.Get("/journals", h.ShowJournalPage)
		g.Get("/api/journals", h.GetJournals)
	})

	return r, nil
}

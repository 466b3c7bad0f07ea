package middleware

import (
	"net/http"
	"time"

	"FacultyProfile/internal/models"
	"FacultyProfile/internal/sessions"
	"FacultyProfile/internal/workspace"

	"github.com/felixge/httpsnoop"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Workspace resolves the visitor's session, creates their workspace on the
// first visit and attaches workspace and owner to the request context.
// Usage: r.Use(middleware.Workspace(store, cache, def, log))
func Workspace(store *sessions.Store, cache *workspace.Cache, def models.Owner, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := store.WorkspaceKey(w, r)
			if err != nil {
				log.Error("session unavailable", zap.Error(err))
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			ws := cache.Get(key)
			owner := store.Owner(r, def)
			next.ServeHTTP(w, r.WithContext(workspace.NewContext(r.Context(), ws, owner)))
		})
	}
}

// RequestLogger logs one line per request with the chi request id.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			lvl := zap.DebugLevel
			if m.Code >= http.StatusInternalServerError {
				lvl = zap.WarnLevel
			} else if r.Method != http.MethodGet {
				lvl = zap.InfoLevel
			}
			if ce := log.Check(lvl, "http request"); ce != nil {
				ce.Write(
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
					zap.Int("status", m.Code),
					zap.Int64("bytes", m.Written),
					zap.Duration("duration", m.Duration.Round(time.Microsecond)),
				)
			}
		})
	}
}

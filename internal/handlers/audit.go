package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type auditRow struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	TargetID   *int64    `json:"target_id"`
	UserID     string    `json:"user_id"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// GetAudit lists recent mutation attempts, failed ones included.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		jsonError(w, http.StatusNotFound, "audit trail is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("audit read failed", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "audit read failed")
		return
	}
	out := make([]auditRow, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditRow{
			ID:         e.ID,
			OccurredAt: e.OccurredAt,
			Resource:   e.Resource,
			Action:     e.Action,
			TargetID:   e.Target(),
			UserID:     e.UserID,
			Outcome:    e.Outcome,
			Error:      e.Error,
		})
	}
	writeJSON(w, out)
}

// Package audit keeps a postgres trail of every insert, update and delete
// sent to the profile backend, including the ones whose failure the pages
// do not show to the visitor.
package audit

import (
	"context"
	"database/sql"
	"time"

	"FacultyProfile/internal/crud"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Entry is one row of mutation_audit.
type Entry struct {
	ID         int64         `db:"id" json:"id"`
	OccurredAt time.Time     `db:"occurred_at" json:"occurred_at"`
	Resource   string        `db:"resource" json:"resource"`
	Action     string        `db:"action" json:"action"`
	TargetID   sql.NullInt64 `db:"target_id" json:"-"`
	UserID     string        `db:"user_id" json:"user_id"`
	Outcome    string        `db:"outcome" json:"outcome"`
	Error      string        `db:"error" json:"error,omitempty"`
}

// Target returns the target id, or nil for inserts.
func (e Entry) Target() *int64 {
	if !e.TargetID.Valid {
		return nil
	}
	return &e.TargetID.Int64
}

// Store writes and reads the trail.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
	// timeout bounds a Record call so a slow database never holds up a page.
	timeout time.Duration
}

// New returns a store on db.
func New(db *sqlx.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log, timeout: 2 * time.Second}
}

// Record implements crud.Recorder. Write errors are logged and dropped.
func (s *Store) Record(ctx context.Context, m crud.Mutation) {
	e := FromMutation(m)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.Insert(ctx, e); err != nil {
		s.log.Warn("audit: write failed", zap.String("resource", e.Resource), zap.String("action", e.Action), zap.Error(err))
	}
}

// FromMutation maps a crud mutation to a row.
func FromMutation(m crud.Mutation) Entry {
	e := Entry{
		Resource: m.Resource,
		Action:   string(m.Action),
		UserID:   m.UserID,
		Outcome:  OutcomeOK,
	}
	if m.Action != crud.ActionInsert {
		e.TargetID = sql.NullInt64{Int64: int64(m.TargetID), Valid: true}
	}
	if m.Err != nil {
		e.Outcome = OutcomeFailed
		e.Error = m.Err.Error()
	}
	return e
}

// Insert writes e.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO mutation_audit (resource, action, target_id, user_id, outcome, error)
		VALUES (:resource, :action, :target_id, :user_id, :outcome, :error)`, e)
	return errors.Wrap(err, "audit: insert")
}

// Recent returns up to limit rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := make([]Entry, 0, limit)
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, occurred_at, resource, action, target_id, user_id, outcome, error
		FROM mutation_audit
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "audit: select")
	}
	return out, nil
}

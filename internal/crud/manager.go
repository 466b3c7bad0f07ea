package crud

import (
	"context"
	"net/url"
	"sync"

	"FacultyProfile/internal/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FormView is a point-in-time copy of a manager's state for rendering.
type FormView[R, F any] struct {
	View[R]
	Form        F
	Mode        Mode
	Loading     bool
	ConfirmText string
}

// Manager adds the form and the insert/update/delete cycle on top of List.
type Manager[R, F any] struct {
	*List[R]

	res Resource[R, F]
	rec Recorder

	mu      sync.Mutex
	form    F
	mode    Mode
	loading bool
}

// NewManager returns a manager in create mode with an empty form. rec may
// be nil.
func NewManager[R, F any](res Resource[R, F], b Backend, rec Recorder, log *zap.Logger) *Manager[R, F] {
	return &Manager[R, F]{
		List: NewList(res.Source, b, log),
		res:  res,
		rec:  rec,
	}
}

// Submit sends form to the backend: an insert in create mode, an update of
// the target in edit mode. After a successful call the manager is back in
// create mode, the list is fetched once and the form is cleared. A failed
// call leaves form and mode as they were.
func (m *Manager[R, F]) Submit(ctx context.Context, owner models.Owner, form F) error {
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return ErrBusy
	}
	m.loading = true
	m.form = form
	mode := m.mode
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	fields := append([]Field{{Name: "user_id", Value: owner.UserID}}, m.res.Encode(form)...)
	action, path := ActionInsert, m.res.Insert
	target, editing := mode.Target()
	if editing {
		fields = append(fields, Field{Name: m.res.KeyField, Value: target.String()})
		action, path = ActionUpdate, m.res.Update
	}

	err := m.backend.PostMultipart(ctx, path, fields)
	m.record(ctx, owner, action, target, err)
	if err != nil {
		m.log.Warn("submit failed", zap.String("action", string(action)), zap.Stringer("mode", mode), zap.Error(err))
		return errors.Wrapf(err, "%s %s", action, m.res.Name)
	}

	m.mu.Lock()
	m.mode = Create()
	m.mu.Unlock()

	// a failed refresh is kept on the list; the submit itself succeeded
	_ = m.Fetch(ctx, owner)

	m.mu.Lock()
	var zero F
	m.form = zero
	m.mu.Unlock()
	return nil
}

// Edit copies rec into the form and targets it for the next submit.
func (m *Manager[R, F]) Edit(rec R) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form = m.res.FromRecord(rec)
	m.mode = Edit(m.res.ID(rec))
}

// EditByID is Edit for a record of the current list.
func (m *Manager[R, F]) EditByID(id models.ID) error {
	rec, ok := m.find(id, m.res.ID)
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s %s", m.res.Name, id)
	}
	m.Edit(rec)
	return nil
}

// Reset clears the form and leaves edit mode.
func (m *Manager[R, F]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero F
	m.form = zero
	m.mode = Create()
}

// Delete removes record id once c confirms it, then fetches the list once.
// Declining is a no-op.
func (m *Manager[R, F]) Delete(ctx context.Context, owner models.Owner, id models.ID, c Confirmer) error {
	if c == nil || !c.Confirm(m.res.ConfirmText) {
		return nil
	}
	err := m.backend.PostForm(ctx, m.res.Delete, url.Values{"pk": {id.String()}})
	m.record(ctx, owner, ActionDelete, id, err)
	if err != nil {
		m.log.Warn("delete failed", zap.Stringer("id", id), zap.Error(err))
		return errors.Wrapf(err, "delete %s %s", m.res.Name, id)
	}
	_ = m.Fetch(ctx, owner)
	return nil
}

// Mode returns the current mode.
func (m *Manager[R, F]) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// FormView returns a copy of the whole state.
func (m *Manager[R, F]) FormView() FormView[R, F] {
	v := m.View()
	m.mu.Lock()
	defer m.mu.Unlock()
	return FormView[R, F]{
		View:        v,
		Form:        m.form,
		Mode:        m.mode,
		Loading:     m.loading,
		ConfirmText: m.res.ConfirmText,
	}
}

func (m *Manager[R, F]) record(ctx context.Context, owner models.Owner, action Action, target models.ID, err error) {
	if m.rec == nil {
		return
	}
	m.rec.Record(ctx, Mutation{
		Resource: m.res.Name,
		Action:   action,
		TargetID: target,
		UserID:   owner.UserID,
		Err:      err,
	})
}

package crud

import (
	"context"
	"net/url"
	"sync"
	"time"

	"FacultyProfile/internal/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// View is a point-in-time copy of a list's state for rendering.
type View[R any] struct {
	Records   []R
	Err       string
	FetchedAt time.Time
	EmptyText string
}

// List holds the fetched records of one resource for one visitor.
type List[R any] struct {
	src     Source[R]
	backend Backend
	log     *zap.Logger

	mu        sync.Mutex
	records   []R
	err       string
	fetchedAt time.Time
	// seq numbers fetches as they start; applied is the newest one whose
	// result is on display. Older results arriving late are dropped.
	seq     uint64
	applied uint64
}

// NewList returns an empty list reading from b.
func NewList[R any](src Source[R], b Backend, log *zap.Logger) *List[R] {
	if log == nil {
		log = zap.NewNop()
	}
	return &List[R]{src: src, backend: b, log: log.With(zap.String("resource", src.Name))}
}

// Fetch reads the whole list from the backend, orders it newest first and
// replaces the current records. On failure the previous records stay and
// the error message is set; there is no retry.
func (l *List[R]) Fetch(ctx context.Context, owner models.Owner) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	var query url.Values
	if l.src.Scope != nil {
		query = l.src.Scope(owner)
	}
	var records []R
	err := l.backend.GetJSON(ctx, l.src.List, query, &records)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq < l.applied {
		l.log.Debug("dropping stale fetch", zap.Uint64("seq", seq), zap.Uint64("applied", l.applied))
		return nil
	}
	l.applied = seq
	if err != nil {
		l.err = FetchFailed
		l.log.Warn("fetch failed", zap.Error(err))
		return errors.Wrapf(err, "fetch %s", l.src.Name)
	}
	if records == nil {
		records = []R{}
	}
	models.SortBySubmission(records, l.src.SubmittedAt)
	l.records = records
	l.err = ""
	l.fetchedAt = time.Now()
	return nil
}

// View returns a copy of the current state.
func (l *List[R]) View() View[R] {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]R, len(l.records))
	copy(out, l.records)
	return View[R]{
		Records:   out,
		Err:       l.err,
		FetchedAt: l.fetchedAt,
		EmptyText: l.src.EmptyText,
	}
}

// find returns the record with the given id from the current list.
func (l *List[R]) find(id models.ID, key func(R) models.ID) (R, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if key(r) == id {
			return r, true
		}
	}
	var zero R
	return zero, false
}

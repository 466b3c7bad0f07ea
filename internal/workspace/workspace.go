// Package workspace keeps the page state of each visitor: the conference
// and event managers and the journal list, created on first use.
package workspace

import (
	"context"
	"sync"

	"FacultyProfile/internal/crud"
	"FacultyProfile/internal/metrics"
	"FacultyProfile/internal/models"
	"FacultyProfile/internal/profile"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	ConferenceManager = crud.Manager[models.ConferenceRecord, models.ConferenceForm]
	EventManager      = crud.Manager[models.EventRecord, models.EventForm]
	JournalList       = crud.List[models.JournalRecord]
)

// Workspace is one visitor's state. Pages never share a workspace.
type Workspace struct {
	Key        string
	Conference *ConferenceManager
	Event      *EventManager
	Journal    *JournalList
}

// Cache holds workspaces by session key. The least recently used one is
// dropped when the cache is full; its visitor starts over with empty forms.
type Cache struct {
	backend  crud.Backend
	recorder crud.Recorder
	log      *zap.Logger

	mu  sync.Mutex
	lru *lru.Cache[string, *Workspace]
}

// New returns a cache of at most size workspaces. Mutations are always
// counted in metrics and then passed to recorder, which may be nil.
func New(size int, b crud.Backend, recorder crud.Recorder, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cache{backend: b, recorder: metrics.CountMutations(recorder), log: log}
	l, err := lru.NewWithEvict[string, *Workspace](size, func(key string, _ *Workspace) {
		c.log.Debug("workspace evicted", zap.String("workspace", key))
	})
	if err != nil {
		return nil, errors.Wrap(err, "workspace cache")
	}
	c.lru = l
	return c, nil
}

// Get returns the workspace for key, creating it if needed.
func (c *Cache) Get(key string) *Workspace {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ws, ok := c.lru.Get(key); ok {
		return ws
	}
	log := c.log.With(zap.String("workspace", key))
	ws := &Workspace{
		Key:        key,
		Conference: crud.NewManager(profile.Conference, c.backend, c.recorder, log),
		Event:      crud.NewManager(profile.Event, c.backend, c.recorder, log),
		Journal:    crud.NewList(profile.Journal, c.backend, log),
	}
	c.lru.Add(key, ws)
	return ws
}

// Forget drops the workspace for key.
func (c *Cache) Forget(key string) {
	c.lru.Remove(key)
}

// Len is the number of live workspaces.
func (c *Cache) Len() int { return c.lru.Len() }

type ctxKey struct{}

type scope struct {
	ws    *Workspace
	owner models.Owner
}

// NewContext attaches the workspace and owner of the current request.
func NewContext(ctx context.Context, ws *Workspace, owner models.Owner) context.Context {
	return context.WithValue(ctx, ctxKey{}, scope{ws: ws, owner: owner})
}

// FromContext returns what NewContext attached.
func FromContext(ctx context.Context) (*Workspace, models.Owner, bool) {
	s, ok := ctx.Value(ctxKey{}).(scope)
	return s.ws, s.owner, ok
}

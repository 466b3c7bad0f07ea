// Package crud implements the create/list/edit/delete cycle shared by the
// profile pages. A page supplies a Resource describing its endpoints and
// field mapping; List and Manager hold the page state for one visitor.
package crud

import (
	"context"
	"net/url"

	"FacultyProfile/internal/models"

	"github.com/pkg/errors"
)

var (
	// ErrBusy is returned by Submit while a previous submit is in flight.
	ErrBusy = errors.New("crud: submit already in progress")
	// ErrNotFound is returned when an id is not in the current list.
	ErrNotFound = errors.New("crud: record not in list")
)

// FetchFailed is the message kept on a list after a failed fetch.
const FetchFailed = "Failed to fetch projects. Please try again later."

// Field is one part of a multipart payload. Order is preserved on the wire.
type Field struct {
	Name  string
	Value string
}

// Backend is the external REST API the pages talk to.
type Backend interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostMultipart(ctx context.Context, path string, fields []Field) error
	PostForm(ctx context.Context, path string, values url.Values) error
}

// Source describes the read side of a resource.
type Source[R any] struct {
	Name string
	// List is the endpoint returning a JSON array of R.
	List string
	// SubmittedAt returns the submission_date used for ordering.
	SubmittedAt func(R) string
	// Scope returns query parameters for the list call, if any.
	Scope func(models.Owner) url.Values
	// EmptyText is the placeholder row shown for an empty list.
	EmptyText string
}

// Resource describes a mutable resource: its endpoints and how records and
// form values map onto the backend payloads.
type Resource[R, F any] struct {
	Source[R]

	Insert string
	Update string
	Delete string
	// KeyField carries the target id on update.
	KeyField string

	// Encode renders form values as payload fields, user_id excluded.
	Encode     func(F) []Field
	FromRecord func(R) F
	ID         func(R) models.ID

	ConfirmText string
}

// Action names a mutation for logs and the audit trail.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Mutation is one attempted insert, update or delete.
type Mutation struct {
	Resource string
	Action   Action
	TargetID models.ID
	UserID   string
	Err      error
}

// Recorder receives every mutation attempt. Implementations must not block
// the caller on failure.
type Recorder interface {
	Record(ctx context.Context, m Mutation)
}

// Confirmer asks the visitor to confirm a destructive action.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

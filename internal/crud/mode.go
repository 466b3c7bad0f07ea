package crud

import "FacultyProfile/internal/models"

// Mode decides what the next submit does: create a record, or update the
// record it targets. The zero Mode is Create.
type Mode struct {
	target models.ID
	edit   bool
}

// Create returns the mode in which a submit inserts a new record.
func Create() Mode { return Mode{} }

// Edit returns the mode in which a submit updates record id.
func Edit(id models.ID) Mode { return Mode{target: id, edit: true} }

// Target returns the record being edited; ok is false in create mode.
func (m Mode) Target() (id models.ID, ok bool) {
	return m.target, m.edit
}

// Editing reports whether the next submit is an update.
func (m Mode) Editing() bool { return m.edit }

// String is "create" or "edit(<id>)", for logs.
func (m Mode) String() string {
	if !m.edit {
		return "create"
	}
	return "edit(" + m.target.String() + ")"
}

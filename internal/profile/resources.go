// Package profile defines the faculty profile resources: conference and
// symposium attendance, organised events, and the read-only journal list.
package profile

import (
	"net/url"

	"FacultyProfile/internal/crud"
	"FacultyProfile/internal/models"
)

// Conference records: free-text role, listed back as "role1".
var Conference = crud.Resource[models.ConferenceRecord, models.ConferenceForm]{
	Source: crud.Source[models.ConferenceRecord]{
		Name:        "conference",
		List:        "conference-list",
		SubmittedAt: func(r models.ConferenceRecord) string { return r.SubmissionDate },
		EmptyText:   "No Conferences/Symposium found.",
	},
	Insert:   "conference-insert",
	Update:   "conference-update",
	Delete:   "conference-delete",
	KeyField: "conferencepk2",
	Encode: func(f models.ConferenceForm) []crud.Field {
		return []crud.Field{
			{Name: "conference_name", Value: f.ConferenceName},
			{Name: "conference_venue", Value: f.Venue},
			{Name: "conference_role", Value: f.Role},
			{Name: "conference_start_date", Value: models.FormatDate(f.StartDate)},
			{Name: "conference_end_date", Value: models.FormatDate(f.EndDate)},
		}
	},
	FromRecord: func(r models.ConferenceRecord) models.ConferenceForm {
		return models.ConferenceForm{
			Role:           r.Role,
			Venue:          r.Venue,
			StartDate:      models.ParseDate(r.StartDate),
			EndDate:        models.ParseDate(r.EndDate),
			ConferenceName: r.Name,
		}
	},
	ID:          func(r models.ConferenceRecord) models.ID { return r.ID },
	ConfirmText: "Are you sure you want to delete this Conference/Symposium?",
}

// Event records: workshops and training programs.
var Event = crud.Resource[models.EventRecord, models.EventForm]{
	Source: crud.Source[models.EventRecord]{
		Name:        "event",
		List:        "event-list",
		SubmittedAt: func(r models.EventRecord) string { return r.SubmissionDate },
		EmptyText:   "No events found.",
	},
	Insert:   "event-insert",
	Update:   "event-update",
	Delete:   "event-delete",
	KeyField: "eventpk",
	Encode: func(f models.EventForm) []crud.Field {
		return []crud.Field{
			{Name: "event_role", Value: f.Role},
			{Name: "event_name", Value: f.Name},
			{Name: "event_venue", Value: f.Venue},
			{Name: "sponsoring_agency", Value: f.SponsoringAgency},
			{Name: "event_type", Value: f.EventType},
			{Name: "event_start_date", Value: models.FormatDate(f.StartDate)},
			{Name: "event_end_date", Value: models.FormatDate(f.EndDate)},
		}
	},
	FromRecord: func(r models.EventRecord) models.EventForm {
		return models.EventForm{
			Role:             r.Role,
			SponsoringAgency: r.SponsoringAgency,
			StartDate:        models.ParseDate(r.StartDate),
			EndDate:          models.ParseDate(r.EndDate),
			Venue:            r.Venue,
			EventType:        r.Type,
			Name:             r.Name,
		}
	},
	ID:          func(r models.EventRecord) models.ID { return r.ID },
	ConfirmText: "Are you sure you want to delete this Event?",
}

// Journal is read only and scoped to the faculty member's PF number.
var Journal = crud.Source[models.JournalRecord]{
	Name:        "journal",
	List:        "journal-list",
	SubmittedAt: func(r models.JournalRecord) string { return r.SubmissionDate },
	Scope: func(o models.Owner) url.Values {
		return url.Values{"pfNo": {o.PFNo}}
	},
	EmptyText: "No journals found.",
}

// JournalColumns are the table headers of the journal page. The cells under
// them are title, rollno, s_name, s_year, a_month; the backend offers no
// author or file columns, so the last header stays empty.
var JournalColumns = []string{"Author", "Co-Author", "Journal Name", "Year", "Title", "Journal File"}

// Column headers of the two editable tables, actions column included.
var (
	ConferenceColumns = []string{"Conference Name", "Venue", "Role", "Start Date", "End Date", "Actions"}
	EventColumns      = []string{"Name", "Role", "Sponsoring Agency", "Event Type", "Venue", "Start Date", "End Date", "Actions"}
)

package models

import (
	"strings"
	"time"
)

// DateLayout is the wire and <input type="date"> format for form dates.
const DateLayout = "2006-01-02"

// FormatDate renders a form date; the zero time is the empty value.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate reads a date coming from a form or a record. Anything that does
// not parse is treated as empty, which is what the date picker shows.
func ParseDate(s string) time.Time {
	t, ok := ParseTime(s)
	if !ok {
		return time.Time{}
	}
	return t
}

// Enumerated values of the event form selectors.
var (
	EventRoles = []string{"Author", "Co-Author"}
	EventTypes = []string{"Workshop", "Training Program"}
)

// ConferenceForm holds the inputs of the conference/symposium form.
type ConferenceForm struct {
	Role           string
	Venue          string
	StartDate      time.Time
	EndDate        time.Time
	ConferenceName string
}

// ConferenceFormFrom reads the posted form values.
func ConferenceFormFrom(get func(string) string) ConferenceForm {
	return ConferenceForm{
		Role:           strings.TrimSpace(get("role")),
		Venue:          strings.TrimSpace(get("venue")),
		StartDate:      ParseDate(get("start_date")),
		EndDate:        ParseDate(get("end_date")),
		ConferenceName: strings.TrimSpace(get("conference_name")),
	}
}

// EventForm holds the inputs of the workshop/event form.
type EventForm struct {
	Role             string
	SponsoringAgency string
	StartDate        time.Time
	EndDate          time.Time
	Venue            string
	EventType        string
	Name             string
}

// EventFormFrom reads the posted form values.
func EventFormFrom(get func(string) string) EventForm {
	return EventForm{
		Role:             strings.TrimSpace(get("role")),
		SponsoringAgency: strings.TrimSpace(get("sponsoring_agency")),
		StartDate:        ParseDate(get("start_date")),
		EndDate:          ParseDate(get("end_date")),
		Venue:            strings.TrimSpace(get("venue")),
		EventType:        strings.TrimSpace(get("event_type")),
		Name:             strings.TrimSpace(get("name")),
	}
}

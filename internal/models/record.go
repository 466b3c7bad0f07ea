package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Text is a scalar from the profile backend. The list endpoints are not
// consistent about quoting (rollno, s_year come back as numbers for some
// rows and strings for others), so it decodes string, number and null.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// ID is a primary key. Accepts both 42 and "42".
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	if t == "" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseID parses a key taken from a URL or form value.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// ConferenceRecord is a row of conference-list.
// The list endpoint renders the role column as "role1".
type ConferenceRecord struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Venue          string `json:"venue"`
	Role           string `json:"role1"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	SubmissionDate string `json:"submission_date"`
}

// EventRecord is a row of event-list (workshops, training programs).
type EventRecord struct {
	ID               ID     `json:"id"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	SponsoringAgency string `json:"sponsoring_agency"`
	Type             string `json:"type"`
	Venue            string `json:"venue"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	SubmissionDate   string `json:"submission_date"`
}

// JournalRecord is a row of journal-list. Read only.
type JournalRecord struct {
	ID             ID     `json:"id"`
	Title          Text   `json:"title"`
	RollNo         Text   `json:"rollno"`
	SName          Text   `json:"s_name"`
	SYear          Text   `json:"s_year"`
	AMonth         Text   `json:"a_month"`
	SubmissionDate string `json:"submission_date"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats the backend emits. ok is false for
// empty or unrecognised input.
func ParseTime(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortBySubmission orders records newest first by the timestamp returned
// from key. Records with an unparseable timestamp go last; ties keep their
// relative order.
func SortBySubmission[R any](records []R, key func(R) string) {
	type keyed struct {
		t  time.Time
		ok bool
	}
	keys := make([]keyed, len(records))
	for i, r := range records {
		keys[i].t, keys[i].ok = ParseTime(key(r))
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		return ka.t.After(kb.t)
	})
	sorted := make([]R, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}

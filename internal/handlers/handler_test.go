package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"FacultyProfile/internal/audit"
	"FacultyProfile/internal/backend"
	mw "FacultyProfile/internal/middleware"
	"FacultyProfile/internal/models"
	"FacultyProfile/internal/sessions"
	"FacultyProfile/internal/workspace"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hit struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
}

// profileAPI fakes the REST backend: list endpoints answer with lists[path],
// everything else is recorded and answered with 200 unless failing is set.
type profileAPI struct {
	mu      sync.Mutex
	hits    []hit
	lists   map[string]any
	failing bool
}

func (p *profileAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profile/")
	h := hit{Method: r.Method, Path: path, Query: r.URL.Query()}
	if r.Method == http.MethodPost {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			_ = r.ParseMultipartForm(1 << 20)
		} else {
			_ = r.ParseForm()
		}
		h.Form = r.PostForm
	}

	p.mu.Lock()
	p.hits = append(p.hits, h)
	list, failing := p.lists[path], p.failing
	p.mu.Unlock()

	if failing {
		http.Error(w, "down", http.StatusBadGateway)
		return
	}
	if r.Method == http.MethodGet {
		if list == nil {
			list = []any{}
		}
		_ = json.NewEncoder(w).Encode(list)
	}
}

func (p *profileAPI) setList(path string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists[path] = v
}

func (p *profileAPI) fail(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = on
}

func (p *profileAPI) calls(method, path string) []hit {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []hit
	for _, h := range p.hits {
		if h.Method == method && h.Path == path {
			out = append(out, h)
		}
	}
	return out
}

type fakeAudit struct {
	entries []audit.Entry
	err     error
}

func (f fakeAudit) Recent(context.Context, int) ([]audit.Entry, error) { return f.entries, f.err }

type harness struct {
	api    *profileAPI
	srv    *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T, reader AuditReader) *harness {
	t.Helper()
	return newHarnessWith(t, func(d *Deps) { d.Audit = reader })
}

func newHarnessWith(t *testing.T, opt func(*Deps)) *harness {
	t.Helper()
	api := &profileAPI{lists: map[string]any{}}
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	client, err := backend.New(apiSrv.URL+"/api/profile/", 5*time.Second, nil)
	require.NoError(t, err)
	cache, err := workspace.New(16, client, nil, nil)
	require.NoError(t, err)
	store, err := sessions.New("test-secret", false)
	require.NoError(t, err)

	deps := Deps{
		Sessions:     store,
		Workspaces:   cache,
		Limiter:      mw.NewRateLimiter(1000, 1000),
		DefaultOwner: models.Owner{UserID: "5318", PFNo: "5318"},
	}
	opt(&deps)
	router, err := NewRouter(deps)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{api: api, srv: srv, client: &http.Client{Jar: jar}}
}

func (h *harness) get(t *testing.T, path string) (int, string) {
	t.Helper()
	res, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(b)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	res, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(b)
}

func TestEmptyPlaceholders(t *testing.T) {
	h := newHarness(t, nil)

	code, body := h.get(t, "/conference")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No Conferences/Symposium found.")
	assert.Contains(t, body, `colspan="6"`)

	_, body = h.get(t, "/events")
	assert.Contains(t, body, "No events found.")
	assert.Contains(t, body, `colspan="8"`)

	_, body = h.get(t, "/journals")
	assert.Contains(t, body, "No journals found.")
}

func TestConferenceInsert(t *testing.T) {
	h := newHarness(t, nil)
	h.get(t, "/conference")

	code, _ := h.post(t, "/conference", url.Values{
		"role":            {"Speaker"},
		"venue":           {"Hall A"},
		"start_date":      {"2024-03-01"},
		"end_date":        {"2024-03-03"},
		"conference_name": {"ICSE"},
	})
	require.Equal(t, http.StatusOK, code)

	inserts := h.api.calls(http.MethodPost, "conference-insert")
	require.Len(t, inserts, 1)
	f := inserts[0].Form
	assert.Equal(t, "5318", f.Get("user_id"))
	assert.Equal(t, "ICSE", f.Get("conference_name"))
	assert.Equal(t, "Hall A", f.Get("conference_venue"))
	assert.Equal(t, "Speaker", f.Get("conference_role"))
	assert.Equal(t, "2024-03-01", f.Get("conference_start_date"))
	assert.Equal(t, "2024-03-03", f.Get("conference_end_date"))

	// one fetch when the page opened, one after the insert; the redirect
	// back to the page does not fetch again
	assert.Len(t, h.api.calls(http.MethodGet, "conference-list"), 2)
}

func TestConferenceEditThenUpdate(t *testing.T) {
	h := newHarness(t, nil)
	h.api.setList("conference-list", []map[string]any{{
		"id": 42, "name": "ICSE", "venue": "Hall A", "role1": "Speaker",
		"start_date": "2024-03-01", "end_date": "2024-03-03",
		"submission_date": "2024-01-01T00:00:00Z",
	}})

	_, body := h.get(t, "/conference")
	assert.Contains(t, body, "ICSE")

	_, body = h.post(t, "/conference/42/edit", nil)
	assert.Contains(t, body, `value="Hall A"`)
	assert.Contains(t, body, `value="2024-03-01"`)
	assert.Contains(t, body, "Cancel edit")
	assert.Len(t, h.api.calls(http.MethodGet, "conference-list"), 1, "edit does not refetch")

	h.post(t, "/conference", url.Values{
		"role":            {"Chair"},
		"venue":           {"Hall A"},
		"conference_name": {"ICSE"},
	})
	assert.Empty(t, h.api.calls(http.MethodPost, "conference-insert"))
	updates := h.api.calls(http.MethodPost, "conference-update")
	require.Len(t, updates, 1)
	assert.Equal(t, "42", updates[0].Form.Get("conferencepk2"))
	assert.Equal(t, "Chair", updates[0].Form.Get("conference_role"))

	_, body = h.get(t, "/conference?from=submit")
	assert.NotContains(t, body, "Cancel edit", "back to create mode")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	h.get(t, "/events")

	code, body := h.post(t, "/events/7/delete", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Are you sure you want to delete this Event?")
	assert.Empty(t, h.api.calls(http.MethodPost, "event-delete"))

	h.post(t, "/events/7/delete", url.Values{"confirmed": {"yes"}})
	deletes := h.api.calls(http.MethodPost, "event-delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "7", deletes[0].Form.Get("pk"))
	assert.Len(t, h.api.calls(http.MethodGet, "event-list"), 2)
}

func TestFailedSubmitKeepsForm(t *testing.T) {
	h := newHarness(t, nil)
	h.get(t, "/events")
	h.api.fail(true)

	_, body := h.post(t, "/events", url.Values{
		"role":       {"Author"},
		"name":       {"Go Bootcamp"},
		"event_type": {"Workshop"},
	})
	assert.Contains(t, body, `value="Go Bootcamp"`)
	assert.NotContains(t, body, "Failed to fetch", "submit failures are not shown")
	assert.Len(t, h.api.calls(http.MethodGet, "event-list"), 1, "no fetch after a failed insert")
}

func TestJournalScopedByPFNo(t *testing.T) {
	h := newHarness(t, nil)
	h.api.setList("journal-list", []map[string]any{{
		"id": 1, "title": "On Caching", "rollno": 17, "s_name": "Systems Journal",
		"s_year": 2023, "a_month": "May",
	}})

	code, _ := h.post(t, "/profile", url.Values{"user_id": {"77"}, "pf_no": {"9001"}})
	require.Equal(t, http.StatusOK, code)

	_, body := h.get(t, "/journals")
	assert.Contains(t, body, "On Caching")
	assert.Contains(t, body, "Systems Journal")
	assert.Contains(t, body, "Profile (9001)")

	calls := h.api.calls(http.MethodGet, "journal-list")
	require.Len(t, calls, 1)
	assert.Equal(t, "9001", calls[0].Query.Get("pfNo"))
}

func TestJournalFetchError(t *testing.T) {
	h := newHarness(t, nil)
	h.api.fail(true)

	_, body := h.get(t, "/journals")
	assert.Contains(t, body, "Failed to fetch projects. Please try again later.")
}

func TestProfileRequiresBothFields(t *testing.T) {
	h := newHarness(t, nil)
	code, _ := h.post(t, "/profile", url.Values{"user_id": {"77"}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListAPI(t *testing.T) {
	h := newHarness(t, nil)
	h.api.setList("event-list", []map[string]any{
		{"id": 1, "name": "old", "submission_date": "2023-01-01"},
		{"id": 2, "name": "new", "submission_date": "2024-01-01"},
	})

	_, body := h.get(t, "/api/events?refresh=1")
	var out []models.EventRecord
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].Name)
}

func TestAudit(t *testing.T) {
	h := newHarness(t, nil)
	code, _ := h.get(t, "/api/audit")
	assert.Equal(t, http.StatusNotFound, code)

	h = newHarness(t, fakeAudit{entries: []audit.Entry{{
		ID: 1, Resource: "event", Action: "delete", UserID: "5318", Outcome: audit.OutcomeOK,
	}}})
	code, body := h.get(t, "/api/audit")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"action":"delete"`)
	assert.Contains(t, body, `"target_id":null`)

	h = newHarness(t, fakeAudit{err: errors.New("db down")})
	code, _ = h.get(t, "/api/audit")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, nil)
	code, body := h.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ok")
}

func TestReloadAfterPostStillFetches(t *testing.T) {
	h := newHarness(t, nil)
	h.api.setList("conference-list", []map[string]any{{"id": 1, "name": "ICSE"}})

	_, body := h.get(t, "/conference?from=submit")
	assert.Contains(t, body, "ICSE")
	assert.NotContains(t, body, "No Conferences/Symposium found.")
	assert.Len(t, h.api.calls(http.MethodGet, "conference-list"), 1)

	h.get(t, "/conference?from=submit")
	assert.Len(t, h.api.calls(http.MethodGet, "conference-list"), 1, "fetched lists are not refetched")
}

func TestResetProfile(t *testing.T) {
	h := newHarness(t, nil)
	h.api.setList("conference-list", []map[string]any{{"id": 42, "name": "ICSE"}})

	h.post(t, "/profile", url.Values{"user_id": {"77"}, "pf_no": {"9001"}})
	h.get(t, "/conference")
	_, body := h.post(t, "/conference/42/edit", nil)
	require.Contains(t, body, "Cancel edit")

	code, body := h.post(t, "/profile/reset", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Profile (5318)")

	_, body = h.get(t, "/conference?from=edit")
	assert.NotContains(t, body, "Cancel edit", "workspace starts over")
	assert.Len(t, h.api.calls(http.MethodGet, "conference-list"), 2, "fresh workspace fetches again")

	h.get(t, "/journals")
	calls := h.api.calls(http.MethodGet, "journal-list")
	require.Len(t, calls, 1)
	assert.Equal(t, "5318", calls[0].Query.Get("pfNo"))
}

func (h *harness) postFrom(t *testing.T, path, forwardedFor string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(""))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	res, err := h.client.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	return res.StatusCode
}

func TestForwardedForIgnoredByDefault(t *testing.T) {
	h := newHarnessWith(t, func(d *Deps) { d.Limiter = mw.NewRateLimiter(0.001, 1) })

	assert.Equal(t, http.StatusOK, h.postFrom(t, "/conference/cancel", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, h.postFrom(t, "/conference/cancel", "10.0.0.2"),
		"a new forwarded address does not buy a new bucket")
}

func TestForwardedForTrustedBehindProxy(t *testing.T) {
	h := newHarnessWith(t, func(d *Deps) {
		d.Limiter = mw.NewRateLimiter(0.001, 1)
		d.TrustProxy = true
	})

	assert.Equal(t, http.StatusOK, h.postFrom(t, "/conference/cancel", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, h.postFrom(t, "/conference/cancel", "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, h.postFrom(t, "/conference/cancel", "10.0.0.1"))
}

package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"FacultyProfile/internal/crud"
	"FacultyProfile/internal/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/profile", 5*time.Second, nil)
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("api/profile", time.Second, nil)
	assert.Error(t, err)
}

func TestURLResolvesUnderBase(t *testing.T) {
	c, err := New("http://backend.local/api/profile", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://backend.local/api/profile/journal-list?pfNo=12",
		c.URL("journal-list", url.Values{"pfNo": {"12"}}))
	assert.Equal(t, "http://backend.local/api/profile/event-list", c.URL("/event-list", nil))
}

func TestGetJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/profile/journal-list", r.URL.Path)
		assert.Equal(t, "5318", r.URL.Query().Get("pfNo"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":3,"title":"T","s_year":2020}]`)
	})

	var out []models.JournalRecord
	require.NoError(t, c.GetJSON(context.Background(), "journal-list", url.Values{"pfNo": {"5318"}}, &out))
	require.Len(t, out, 1)
	assert.Equal(t, models.Text("2020"), out[0].SYear)
}

func TestGetJSONBadBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	var out []models.EventRecord
	assert.Error(t, c.GetJSON(context.Background(), "event-list", nil, &out))
}

func TestPostMultipartKeepsFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/api/profile/conference-insert", r.URL.Path)
		assert.Equal(t, "5318", r.FormValue("user_id"))
		assert.Equal(t, "Hall A", r.FormValue("conference_venue"))
		assert.Equal(t, "", r.FormValue("conference_end_date"))
		_, ok := r.MultipartForm.Value["conference_end_date"]
		assert.True(t, ok, "empty fields are still sent")
		w.WriteHeader(http.StatusCreated)
	})

	err := c.PostMultipart(context.Background(), "conference-insert", []crud.Field{
		{Name: "user_id", Value: "5318"},
		{Name: "conference_venue", Value: "Hall A"},
		{Name: "conference_end_date", Value: ""},
	})
	require.NoError(t, err)
}

func TestPostFormURLEncoded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("pk"))
	})
	require.NoError(t, c.PostForm(context.Background(), "event-delete", url.Values{"pk": {"42"}}))
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "user_id missing", http.StatusBadRequest)
	})
	err := c.PostForm(context.Background(), "conference-delete", url.Values{"pk": {"1"}})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "user_id missing", se.Body)
	assert.Contains(t, se.Error(), "conference-delete")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL, time.Second, nil)
	require.NoError(t, err)
	srv.Close()

	var out []models.ConferenceRecord
	assert.Error(t, c.GetJSON(context.Background(), "conference-list", nil, &out))
}

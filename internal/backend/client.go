// Package backend is the HTTP client of the faculty profile REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FacultyProfile/internal/crud"
	"FacultyProfile/internal/metrics"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Code, http.StatusText(e.Code), e.Body)
}

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// Client calls the profile API relative to a base URL.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ crud.Backend = (*Client)(nil)

// New returns a client for baseURL. Every request is bounded by timeout and
// instrumented under the client name "profile-backend".
func New(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "backend url")
	}
	if !u.IsAbs() {
		return nil, errors.Errorf("backend url %q is not absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Client{
		base: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: metrics.InstrumentRoundTripper("profile-backend", nil, log),
		},
	}, nil
}

// URL resolves an endpoint path against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// GetJSON issues a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path, query), nil)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.do(req, path)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "GET %s: decode", path)
	}
	return nil
}

// PostMultipart posts fields as multipart/form-data, in order.
func (c *Client) PostMultipart(ctx context.Context, path string, fields []crud.Field) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return errors.Wrapf(err, "POST %s: field %s", path, f.Name)
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path, nil), &body)
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.discard(req, path)
}

// PostForm posts values as application/x-www-form-urlencoded.
func (c *Client) PostForm(ctx context.Context, path string, values url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path, nil), strings.NewReader(values.Encode()))
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.discard(req, path)
}

func (c *Client) discard(req *http.Request, path string) error {
	res, err := c.do(req, path)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// do sends req and turns transport failures and non-2xx codes into errors.
// On success the caller owns res.Body.
func (c *Client) do(req *http.Request, path string) (*http.Response, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, path)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &StatusError{
			Method: req.Method,
			Path:   path,
			Code:   res.StatusCode,
			Body:   strings.TrimSpace(string(b)),
		}
	}
	return res, nil
}

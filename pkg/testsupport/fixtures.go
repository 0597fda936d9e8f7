// Package testsupport holds fixture helpers shared by package tests.
package testsupport

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-formwizard/pkg/definition"
)

// MustLoadDefinition parses a wizard definition fixture.
func MustLoadDefinition(t *testing.T, path string) *definition.Definition {
	t.Helper()

	def, err := definition.LoadFile(path)
	if err != nil {
		t.Fatalf("load definition %s: %v", path, err)
	}
	return def
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}

// Client replays requests against a handler and carries cookies between
// them, the way a browser walks a wizard.
type Client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

// NewClient wraps handler.
func NewClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	return &Client{t: t, handler: handler}
}

// Do serves req, sending the stored cookies and keeping any the response sets.
func (c *Client) Do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

// Get issues a GET for path.
func (c *Client) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// Post submits form to path url-encoded.
func (c *Client) Post(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

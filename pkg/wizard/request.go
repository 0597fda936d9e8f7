package wizard

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/formatting"
	"github.com/goliatone/go-formwizard/pkg/step"
)

// EditAction is the route action that puts a step in edit mode.
const EditAction = "edit"

// Request is the per-request working state threaded through the pipeline.
// Options is a deep copy of the controller configuration, so stages and hooks
// may mutate it freely.
type Request struct {
	HTTP    *http.Request
	Writer  http.ResponseWriter
	Options *step.Config
	Values  step.Values
	Errors  Errors
	Locals  map[string]any
	// BaseURL is the mount point of the wizard ("" or "/" for the root).
	BaseURL string
	// Path is the step route relative to BaseURL.
	Path    string
	Params  map[string]string
	Session Session
	Logger  logrus.FieldLogger
	Locale  string

	handled   bool
	formatter *formatting.Chain
}

var _ step.Context = (*Request)(nil)

// Context returns the request context.
func (r *Request) Context() context.Context {
	if r == nil || r.HTTP == nil {
		return context.Background()
	}
	return r.HTTP.Context()
}

func (r *Request) HTTPRequest() *http.Request { return r.HTTP }

func (r *Request) FormValues() step.Values { return r.Values }

func (r *Request) Param(name string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// SessionValue reads a stored value through the session binder.
func (r *Request) SessionValue(key string) (any, bool) {
	if r == nil || r.Session == nil {
		return nil, false
	}
	return r.Session.Get(key)
}

// Action returns the route action parameter ("edit" or empty).
func (r *Request) Action() string { return r.Param("action") }

// Editing reports whether the request runs in edit mode.
func (r *Request) Editing() bool { return r.Action() == EditAction }

// Handled reports whether a stage already wrote the response.
func (r *Request) Handled() bool { return r.handled }

// Redirect writes a redirect after flushing the session. POST requests use
// 303 so the browser follows with a GET.
func (r *Request) Redirect(location string) error {
	if r.Session != nil {
		if err := r.Session.Save(r.Context()); err != nil {
			return fmt.Errorf("wizard: save session: %w", err)
		}
	}
	code := http.StatusFound
	if r.HTTP.Method == http.MethodPost {
		code = http.StatusSeeOther
	}
	http.Redirect(r.Writer, r.HTTP, location, code)
	r.handled = true
	return nil
}

func (r *Request) hasBase() bool {
	return r.BaseURL != "" && r.BaseURL != "/"
}

// URL returns the full path of the current step, without the edit action.
func (r *Request) URL() string {
	if !r.hasBase() {
		return r.Path
	}
	return strings.TrimRight(r.BaseURL, "/") + r.Path
}

// Config returns the request's working copy of the step configuration.
func (r *Request) Config() *step.Config { return r.Options }

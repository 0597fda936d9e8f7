package wizard

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/step"
)

var (
	// ErrMethodNotAllowed is wrapped in a StatusError carrying 405.
	ErrMethodNotAllowed = errors.New("wizard: method not supported")
	// ErrMissingTemplate is returned by the render stage when the step has no
	// template configured.
	ErrMissingTemplate = errors.New("wizard: a template must be provided")
)

// HTTPError is implemented by errors that carry a response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError attaches an HTTP status code to an error.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// ValidationError is a single field (or group) failure. Step is the route
// that produced it and is filled in when the error is persisted.
type ValidationError struct {
	Key      string `json:"key"`
	Group    string `json:"group,omitempty"`
	Type     string `json:"type"`
	Args     []any  `json:"args,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
	Step     string `json:"step,omitempty"`
}

// ErrorKey is the group when set, otherwise the field key.
func (e *ValidationError) ErrorKey() string {
	if e == nil {
		return ""
	}
	if e.Group != "" {
		return e.Group
	}
	return e.Key
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.ErrorKey(), e.Type)
}

// Errors maps an error key (group or field key) to its failure. A non-empty
// Errors value whose entries are all non-nil is a validation failure; the
// pipeline recovers it with a redirect instead of handing it to the host.
type Errors map[string]*ValidationError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "wizard: no validation errors"
	}
	keys := make([]string, 0, len(e))
	for key := range e {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, e[key].Error())
	}
	return "wizard: validation failed: " + strings.Join(parts, "; ")
}

// Add records err under its error key. A later error with the same key
// replaces the earlier one.
func (e Errors) Add(err *ValidationError) {
	if err == nil {
		return
	}
	e[err.ErrorKey()] = err
}

// Ordered lists errors following the declaration order of fields, matching
// each field by group first and key second. Entries not tied to any field
// follow, sorted by key.
func (e Errors) Ordered(fields []step.Field) []*ValidationError {
	if len(e) == 0 {
		return nil
	}
	out := make([]*ValidationError, 0, len(e))
	seen := make(map[string]struct{}, len(e))
	for _, field := range fields {
		key := field.ErrorKey()
		if _, done := seen[key]; done {
			continue
		}
		if err, ok := e[key]; ok && err != nil {
			out = append(out, err)
			seen[key] = struct{}{}
		}
	}
	rest := make([]string, 0, len(e)-len(seen))
	for key, err := range e {
		if _, done := seen[key]; done || err == nil {
			continue
		}
		rest = append(rest, key)
	}
	sort.Strings(rest)
	for _, key := range rest {
		out = append(out, e[key])
	}
	return out
}

// Clone copies the map and each entry.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	out := make(Errors, len(e))
	for key, err := range e {
		if err == nil {
			out[key] = nil
			continue
		}
		cp := *err
		cp.Args = append([]any(nil), err.Args...)
		out[key] = &cp
	}
	return out
}

// IsValidationError reports whether err is a non-empty Errors collection made
// only of ValidationError entries.
func IsValidationError(err error) bool {
	_, ok := AsValidationErrors(err)
	return ok
}

// AsValidationErrors extracts a validation failure from err, looking through
// wrapped errors.
func AsValidationErrors(err error) (Errors, bool) {
	if err == nil {
		return nil, false
	}
	var errs Errors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return nil, false
	}
	for _, entry := range errs {
		if entry == nil {
			return nil, false
		}
	}
	return errs, true
}

func methodNotAllowed(method string) error {
	return StatusError{
		Code: http.StatusMethodNotAllowed,
		Err:  fmt.Errorf("%w: %s", ErrMethodNotAllowed, method),
	}
}

package step

import (
	"context"
	"net/http"
)

// Context is the per-request view handed to fork predicates, hooks and the
// whole-form validator. The wizard request type implements it.
type Context interface {
	Context() context.Context
	HTTPRequest() *http.Request
	FormValues() Values
	Config() *Config
	Param(name string) string
	SessionValue(key string) (any, bool)
}

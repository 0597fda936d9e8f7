package wizard

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/render"
)

var defaultMessages = map[string]string{
	"required":    "{label} is required",
	"email":       "{label} must be a valid email address",
	"minlength":   "{label} must be at least {0} characters",
	"maxlength":   "{label} must be {0} characters or fewer",
	"exactlength": "{label} must be exactly {0} characters",
	"alpha":       "{label} must only contain letters",
	"alphanum":    "{label} must only contain letters and numbers",
	"numeric":     "{label} must be a number",
	"equal":       "{label} must be one of the listed options",
	"regex":       "{label} is not in the expected format",
	"phonenumber": "{label} must be a valid phone number",
	"url":         "{label} must be a valid URL",
	"notUrl":      "{label} must not contain a URL",
	"date":        "{label} must be a valid date",
	"before":      "{label} must be before {0}",
	"after":       "{label} must be after {0}",
	"postcode":    "{label} must be a valid postcode",
}

// FieldView is the template view of a field definition.
type FieldView struct {
	Key        string            `json:"key"`
	Mixin      string            `json:"mixin,omitempty"`
	Label      string            `json:"label,omitempty"`
	Hint       string            `json:"hint,omitempty"`
	Group      string            `json:"group,omitempty"`
	Options    []string          `json:"options,omitempty"`
	Multiple   bool              `json:"multiple,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Error      *ValidationError  `json:"error,omitempty"`
}

// Locals builds the view-model for the current request:
//
//	errors       map of error key to ValidationError
//	errorlist    errors in field order
//	values       current values
//	options      the request's step configuration
//	action       form action URL
//	backLink     resolved back link (absent when none)
//	fields       FieldView list in declaration order
//	errorLength  {"single": true} or {"multiple": true} when errors exist
//	route        the step route
//
// Static step locals are merged next, then every WithLocals extension.
func (c *Controller) Locals(req *Request) map[string]any {
	c.resolveMessages(req)

	fields := make([]FieldView, 0, len(req.Options.Fields))
	for _, field := range req.Options.Fields {
		fields = append(fields, FieldView{
			Key:        field.Key,
			Mixin:      field.Mixin,
			Label:      field.Label,
			Hint:       field.Hint,
			Group:      field.Group,
			Options:    append([]string(nil), field.Options...),
			Multiple:   field.Multiple,
			Attributes: field.Attributes,
			Error:      req.Errors[field.ErrorKey()],
		})
	}

	errs := req.Errors
	if errs == nil {
		errs = Errors{}
	}
	action := req.URL()
	if req.Editing() {
		action = withEdit(action)
	}

	locals := map[string]any{
		"errors":    errs,
		"errorlist": errs.Ordered(req.Options.Fields),
		"values":    req.Values,
		"options":   req.Options,
		"action":    action,
		"fields":    fields,
		"route":     req.Path,
		"editing":   req.Editing(),
		"locale":    req.Locale,
	}
	if link := c.backLink(req); link != nil {
		locals["backLink"] = *link
	}
	switch {
	case len(errs) == 1:
		locals["errorLength"] = map[string]bool{"single": true}
	case len(errs) > 1:
		locals["errorLength"] = map[string]bool{"multiple": true}
	}
	for key, value := range req.Options.Locals {
		locals[key] = value
	}
	for _, fn := range c.opts.locals {
		for key, value := range fn(req) {
			locals[key] = value
		}
	}
	return locals
}

func (c *Controller) backLink(req *Request) *string {
	link := req.Options.BackLink
	if link == nil && c.opts.backLink != nil {
		link = c.opts.backLink(req)
	}
	return BackLink(link, req.BaseURL, req.Editing())
}

// resolveMessages fills the Message of every error that has none.
func (c *Controller) resolveMessages(req *Request) {
	for _, err := range req.Errors {
		if err == nil || err.Message != "" {
			continue
		}
		err.Message = c.message(req, err)
	}
}

func (c *Controller) message(req *Request, err *ValidationError) string {
	label := err.ErrorKey()
	if field, ok := req.Options.Field(err.Key); ok && field.Label != "" {
		label = field.Label
	}
	fallback := DefaultMessage(err.Type, label, err.Args)
	keys := []string{
		"validation." + err.ErrorKey() + "." + err.Type,
		"validation.default." + err.Type,
	}
	msg := render.Translate(c.opts.translator, req.Locale, keys, fallback, c.opts.onMissing, err.Args...)
	return interpolate(msg, label, nil)
}

// DefaultMessage is the built-in English message for a validator type.
func DefaultMessage(errType, label string, args []any) string {
	if msg := interpolate(defaultMessages[errType], label, args); msg != "" {
		return msg
	}
	return fmt.Sprintf("%s is invalid", label)
}

func interpolate(msg, label string, args []any) string {
	if msg == "" {
		return ""
	}
	pairs := []string{"{label}", label}
	for idx, arg := range args {
		pairs = append(pairs, fmt.Sprintf("{%d}", idx), fmt.Sprint(arg))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

package step

import (
	"fmt"
	"strings"
)

// DefaultConfirmStep is the confirmation route used when a step does not
// configure one.
const DefaultConfirmStep = "/confirm"

// DefaultFormatters are applied to every field unless the step overrides the
// list or the field opts out.
var DefaultFormatters = []string{"trim", "singlespaces", "hyphens"}

// FormatterFunc transforms a single raw string value.
type FormatterFunc func(value string) string

// ValidatorFunc reports whether value satisfies a rule. Args carry the rule
// parameters declared on the field.
type ValidatorFunc func(value string, args ...any) bool

// FormValidator runs once per submission after every field passed its own
// rules. Returning a wizard.Errors value reports validation failures; any
// other error is treated as a system fault.
type FormValidator func(ctx Context) error

// Dependency restricts validation of a field to submissions where another
// field holds the given value.
type Dependency struct {
	Field string `json:"field" yaml:"field"`
	Value string `json:"value" yaml:"value"`
}

// Rule is one entry of a field's validator rule set.
type Rule struct {
	Type     string        `json:"type" yaml:"type"`
	Args     []any         `json:"args,omitempty" yaml:"args,omitempty"`
	Redirect string        `json:"redirect,omitempty" yaml:"redirect,omitempty"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`
	Fn       ValidatorFunc `json:"-" yaml:"-"`
}

// Field describes a single input collected by a step. Everything beyond Key
// is passed through to the formatter and validator collaborators or exposed to
// templates; the pipeline itself only reads Key, Group and Multiple.
type Field struct {
	Key                     string            `json:"key" yaml:"key"`
	Label                   string            `json:"label,omitempty" yaml:"label,omitempty"`
	Hint                    string            `json:"hint,omitempty" yaml:"hint,omitempty"`
	Mixin                   string            `json:"mixin,omitempty" yaml:"mixin,omitempty"`
	Group                   string            `json:"group,omitempty" yaml:"group,omitempty"`
	Formatter               []string          `json:"formatter,omitempty" yaml:"formatter,omitempty"`
	IgnoreDefaultFormatters bool              `json:"ignoreDefaultFormatters,omitempty" yaml:"ignoreDefaultFormatters,omitempty"`
	Validate                []Rule            `json:"validate,omitempty" yaml:"validate,omitempty"`
	Options                 []string          `json:"options,omitempty" yaml:"options,omitempty"`
	Dependent               *Dependency       `json:"dependent,omitempty" yaml:"dependent,omitempty"`
	Multiple                bool              `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Default                 string            `json:"default,omitempty" yaml:"default,omitempty"`
	Attributes              map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// ErrorKey returns the key a failure of this field is reported under.
func (f Field) ErrorKey() string {
	if group := strings.TrimSpace(f.Group); group != "" {
		return group
	}
	return f.Key
}

// Config is the static configuration of a step (the FormConfiguration).
type Config struct {
	Route             string                   `json:"route" yaml:"route"`
	Template          string                   `json:"template" yaml:"template"`
	Fields            []Field                  `json:"fields" yaml:"fields"`
	DefaultFormatters []string                 `json:"defaultFormatters" yaml:"defaultFormatters"`
	Formatters        map[string]FormatterFunc `json:"-" yaml:"-"`
	Next              string                   `json:"next,omitempty" yaml:"next,omitempty"`
	Forks             []Fork                   `json:"-" yaml:"-"`
	ContinueOnEdit    bool                     `json:"continueOnEdit,omitempty" yaml:"continueOnEdit,omitempty"`
	ConfirmStep       string                   `json:"confirmStep,omitempty" yaml:"confirmStep,omitempty"`
	Locals            map[string]any           `json:"locals,omitempty" yaml:"locals,omitempty"`
	BackLink          *string                  `json:"backLink,omitempty" yaml:"backLink,omitempty"`
	CheckJourney      bool                     `json:"checkJourney,omitempty" yaml:"checkJourney,omitempty"`
	EntryPoint        bool                     `json:"entryPoint,omitempty" yaml:"entryPoint,omitempty"`
	Hooks             Hooks                    `json:"-" yaml:"-"`
	Validate          FormValidator            `json:"-" yaml:"-"`
}

// Normalize fills construction-time defaults and checks the configuration for
// structural problems (duplicate field keys, forks without a target).
func (c *Config) Normalize() error {
	if c == nil {
		return fmt.Errorf("step: config is nil")
	}
	if c.DefaultFormatters == nil {
		c.DefaultFormatters = append([]string(nil), DefaultFormatters...)
	}
	if strings.TrimSpace(c.ConfirmStep) == "" {
		c.ConfirmStep = DefaultConfirmStep
	}

	seen := make(map[string]struct{}, len(c.Fields))
	for idx, field := range c.Fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			return fmt.Errorf("step %q: field at index %d has an empty key", c.Route, idx)
		}
		if _, exists := seen[key]; exists {
			return fmt.Errorf("step %q: duplicate field %q", c.Route, key)
		}
		seen[key] = struct{}{}
		c.Fields[idx].Key = key
	}
	for idx, fork := range c.Forks {
		if strings.TrimSpace(fork.Target) == "" {
			return fmt.Errorf("step %q: fork at index %d has an empty target", c.Route, idx)
		}
	}
	return nil
}

// Field looks up a field definition by key.
func (c *Config) Field(key string) (Field, bool) {
	if c == nil {
		return Field{}, false
	}
	for _, field := range c.Fields {
		if field.Key == key {
			return field, true
		}
	}
	return Field{}, false
}

// FieldKeys lists field keys in declaration order.
func (c *Config) FieldKeys() []string {
	if c == nil || len(c.Fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Fields))
	for _, field := range c.Fields {
		keys = append(keys, field.Key)
	}
	return keys
}

// Targets returns every route this step can lead to: Next followed by the
// fork targets in declaration order, without duplicates.
func (c *Config) Targets() []string {
	if c == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	add := func(target string) {
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	add(c.Next)
	for _, fork := range c.Forks {
		add(fork.Target)
	}
	return out
}

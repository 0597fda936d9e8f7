// Package prompt walks a wizard definition in the terminal. Each step's
// fields are prompted, formatted and validated with the same chain the HTTP
// controllers use, and the next step is resolved with wizard.ResolveNext.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/formatting"
	"github.com/goliatone/go-formwizard/pkg/step"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

var (
	// ErrAborted signals the user interrupted the walk (Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManySteps stops walks whose forks loop without reaching an end.
	ErrTooManySteps = errors.New("prompt: step limit reached")
)

// DefaultMaxSteps bounds a single walk.
const DefaultMaxSteps = 100

// Option configures a Walker.
type Option func(*Walker)

// WithDriver replaces the survey terminal driver.
func WithDriver(d Driver) Option {
	return func(w *Walker) {
		if d != nil {
			w.driver = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithValidators adds or overrides validator functions.
func WithValidators(validators map[string]step.ValidatorFunc) Option {
	return func(w *Walker) {
		w.validators = validators
	}
}

// WithFormatters adds or overrides formatter functions.
func WithFormatters(formatters map[string]step.FormatterFunc) Option {
	return func(w *Walker) {
		w.formatters = formatters
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.maxSteps = n
		}
	}
}

// Walker walks steps in the terminal.
type Walker struct {
	order      []string
	steps      map[string]*step.Config
	driver     Driver
	logger     logrus.FieldLogger
	validators map[string]step.ValidatorFunc
	formatters map[string]step.FormatterFunc
	maxSteps   int
}

// Result is the outcome of a walk.
type Result struct {
	Values  step.Values
	Visited []string
	// End is the route the walk stopped at: a confirmation step, a route
	// outside the definition or the last step when it has no next.
	End string
}

// NewWalker validates steps and returns a walker starting at the first entry
// point, or the first step.
func NewWalker(steps []step.Config, opts ...Option) (*Walker, error) {
	if len(steps) == 0 {
		return nil, errors.New("prompt: no steps")
	}
	w := &Walker{
		steps:    make(map[string]*step.Config, len(steps)),
		driver:   &SurveyDriver{},
		logger:   logrus.StandardLogger(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	for _, s := range steps {
		cfg := s.Clone()
		if err := cfg.Normalize(); err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
		if _, dup := w.steps[cfg.Route]; dup {
			return nil, fmt.Errorf("prompt: duplicate step %q", cfg.Route)
		}
		if _, err := validation.New(cfg.Fields, validation.WithValidators(w.validators)); err != nil {
			return nil, fmt.Errorf("prompt: step %q: %w", cfg.Route, err)
		}
		w.steps[cfg.Route] = &cfg
		w.order = append(w.order, cfg.Route)
	}
	return w, nil
}

func (w *Walker) start() string {
	for _, route := range w.order {
		if w.steps[route].EntryPoint {
			return route
		}
	}
	return w.order[0]
}

// Walk prompts every step from the start until the walk ends.
func (w *Walker) Walk(ctx context.Context) (Result, error) {
	res := Result{Values: step.Values{}}
	route := w.start()

	for i := 0; ; i++ {
		if i >= w.maxSteps {
			return res, ErrTooManySteps
		}
		cfg, ok := w.steps[route]
		if !ok {
			res.End = route
			return res, nil
		}
		logger := w.logger.WithField("step", route)
		if i > 0 && route == cfg.ConfirmStep {
			logger.Debug("prompt: reached confirmation")
			res.End = route
			return res, nil
		}

		if err := w.walkStep(ctx, cfg, res.Values); err != nil {
			return res, err
		}
		res.Visited = appendVisited(res.Visited, route)

		next := wizard.ResolveNext(cfg, &walkContext{ctx: ctx, cfg: cfg, values: res.Values}, route, false, nil)
		logger.WithField("next", next).Debug("prompt: step complete")
		if next == route {
			res.End = route
			return res, nil
		}
		route = next
	}
}

// walkStep prompts the fields of cfg until they all validate.
func (w *Walker) walkStep(ctx context.Context, cfg *step.Config, values step.Values) error {
	chain := formatting.New(cfg.Fields, cfg.DefaultFormatters, w.overrides(cfg), formatting.WithLogger(w.logger))
	validator, err := validation.New(cfg.Fields, validation.WithValidators(w.validators))
	if err != nil {
		return fmt.Errorf("prompt: step %q: %w", cfg.Route, err)
	}

	pending := cfg.Fields
	for len(pending) > 0 {
		for _, field := range pending {
			raw, err := w.ask(ctx, field, values)
			if err != nil {
				return err
			}
			values[field.Key] = chain.Format(field.Key, raw)
		}

		var failed []step.Field
		for _, field := range cfg.Fields {
			fe := validator.Validate(field.Key, values[field.Key], values, chain.Empty(field.Key))
			if fe == nil {
				continue
			}
			msg := fe.Message
			if msg == "" {
				label := field.Label
				if label == "" {
					label = field.Key
				}
				msg = wizard.DefaultMessage(fe.Type, label, fe.Args)
			}
			if err := w.driver.Info(ctx, "  ! "+msg); err != nil {
				return err
			}
			failed = append(failed, field)
		}
		if len(failed) == 0 && cfg.Validate != nil {
			if err := cfg.Validate(&walkContext{ctx: ctx, cfg: cfg, values: values}); err != nil {
				var errs wizard.Errors
				if !errors.As(err, &errs) {
					return fmt.Errorf("prompt: step %q: %w", cfg.Route, err)
				}
				for _, ve := range errs.Ordered(cfg.Fields) {
					if err := w.driver.Info(ctx, "  ! "+wizard.DefaultMessage(ve.Type, ve.ErrorKey(), ve.Args)); err != nil {
						return err
					}
				}
				failed = cfg.Fields
			}
		}
		pending = failed
	}
	return nil
}

func (w *Walker) ask(ctx context.Context, field step.Field, values step.Values) (any, error) {
	message := field.Label
	if message == "" {
		message = field.Key
	}
	current := values.Strings(field.Key)
	if len(current) == 0 && field.Default != "" {
		current = []string{field.Default}
	}

	switch {
	case field.Mixin == "checkbox" || hasFormatter(field, "boolean"):
		def := len(current) > 0 && current[0] == "true"
		ok, err := w.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: field.Hint, Default: def})
		if err != nil {
			return nil, err
		}
		if ok {
			return "true", nil
		}
		return "false", nil
	case len(field.Options) > 0 && field.Multiple:
		return w.driver.MultiSelect(ctx, SelectConfig{Message: message, Help: field.Hint, Options: field.Options, Defaults: current})
	case len(field.Options) > 0:
		return w.driver.Select(ctx, SelectConfig{Message: message, Help: field.Hint, Options: field.Options, Defaults: current})
	case field.Multiple:
		raw, err := w.driver.Input(ctx, InputConfig{Message: message + " (comma separated)", Help: field.Hint, Default: strings.Join(current, ", ")})
		if err != nil {
			return nil, err
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		def := ""
		if len(current) > 0 {
			def = current[0]
		}
		return w.driver.Input(ctx, InputConfig{Message: message, Help: field.Hint, Default: def})
	}
}

func (w *Walker) overrides(cfg *step.Config) map[string]step.FormatterFunc {
	out := make(map[string]step.FormatterFunc, len(w.formatters)+len(cfg.Formatters))
	for name, fn := range w.formatters {
		out[name] = fn
	}
	for name, fn := range cfg.Formatters {
		out[name] = fn
	}
	return out
}

func hasFormatter(field step.Field, name string) bool {
	for _, f := range field.Formatter {
		if f == name {
			return true
		}
	}
	return false
}

func appendVisited(visited []string, route string) []string {
	out := visited[:0:0]
	for _, r := range visited {
		if r != route {
			out = append(out, r)
		}
	}
	return append(out, route)
}

// walkContext is the step.Context seen by forks and form validators during a
// terminal walk. There is no HTTP request; session values are the values
// collected so far.
type walkContext struct {
	ctx    context.Context
	cfg    *step.Config
	values step.Values
}

func (c *walkContext) Context() context.Context   { return c.ctx }
func (c *walkContext) HTTPRequest() *http.Request { return nil }
func (c *walkContext) FormValues() step.Values    { return c.values }
func (c *walkContext) Config() *step.Config       { return c.cfg }
func (c *walkContext) Param(string) string        { return "" }

func (c *walkContext) SessionValue(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

package definition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/formatting"
	"github.com/goliatone/go-formwizard/pkg/step"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

// Violation is a lint finding for one step.
type Violation struct {
	Step    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Step, v.Message)
}

// LintOptions extends the built-in validator and formatter libraries with
// the custom functions a host registers.
type LintOptions struct {
	Validators []string
	Formatters []string
	// DefaultTemplates skips the missing template check for hosts that
	// fill templates in, like formwizard.New.
	DefaultTemplates bool
}

// Lint reports structural problems a wizard would only surface at request
// time: unknown validators or formatters, targets that name no step, steps
// no other step leads to and steps with fields but no template.
func Lint(def *Definition, opts LintOptions) []Violation {
	if def == nil || len(def.Steps) == 0 {
		return []Violation{{Step: "-", Message: "no steps declared"}}
	}

	known := make(map[string]*step.Config, len(def.Steps))
	for i := range def.Steps {
		known[def.Steps[i].Route] = &def.Steps[i]
	}
	custom := make(map[string]step.ValidatorFunc, len(opts.Validators))
	for _, name := range opts.Validators {
		custom[name] = func(string, ...any) bool { return true }
	}
	formatters := formatting.Library()
	for _, name := range opts.Formatters {
		formatters[name] = nil
	}

	var out []Violation
	add := func(route, format string, args ...any) {
		out = append(out, Violation{Step: route, Message: fmt.Sprintf(format, args...)})
	}

	for _, cfg := range def.Steps {
		if _, err := validation.New(cfg.Fields, validation.WithValidators(custom)); err != nil {
			add(cfg.Route, "%s", strings.TrimPrefix(err.Error(), "validation: "))
		}
		for _, field := range cfg.Fields {
			names := field.Formatter
			if !field.IgnoreDefaultFormatters {
				names = append(append([]string(nil), cfg.DefaultFormatters...), names...)
			}
			for _, name := range names {
				if _, ok := formatters[name]; !ok {
					add(cfg.Route, "field %q uses unknown formatter %q", field.Key, name)
				}
			}
		}
		if len(cfg.Fields) > 0 && cfg.Template == "" && !opts.DefaultTemplates {
			add(cfg.Route, "has fields but no template")
		}
		for _, target := range cfg.Targets() {
			if _, ok := known[target]; !ok && target != cfg.ConfirmStep {
				add(cfg.Route, "target %q is not a declared step", target)
			}
		}
	}

	for _, route := range unreachable(def, known) {
		add(route, "is not reachable from the first step or an entry point")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out
}

func unreachable(def *Definition, known map[string]*step.Config) []string {
	seen := make(map[string]bool, len(def.Steps))
	var queue []string
	push := func(route string) {
		if _, ok := known[route]; ok && !seen[route] {
			seen[route] = true
			queue = append(queue, route)
		}
	}
	push(def.Steps[0].Route)
	for _, cfg := range def.Steps {
		if cfg.EntryPoint {
			push(cfg.Route)
		}
	}
	for len(queue) > 0 {
		route := queue[0]
		queue = queue[1:]
		cfg := known[route]
		for _, target := range cfg.Targets() {
			push(target)
		}
		push(cfg.ConfirmStep)
	}

	var out []string
	for _, cfg := range def.Steps {
		if !seen[cfg.Route] {
			out = append(out, cfg.Route)
		}
	}
	return out
}

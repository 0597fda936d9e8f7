// Package formwizard wires a wizard definition to HTTP handlers: it loads
// the definition, fills default templates and builds the wizard.Wizard that
// serves every step.
package formwizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/definition"
	"github.com/goliatone/go-formwizard/pkg/step"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const (
	// DefaultStepTemplate renders steps that declare fields but no template.
	DefaultStepTemplate = "step"
	// DefaultConfirmTemplate renders the confirmation step when it declares
	// no template.
	DefaultConfirmTemplate = "confirm"
	// DefaultErrorTemplate is the fallback used when a step template fails.
	DefaultErrorTemplate = "fallback"
)

// SummaryStep is one entry of the "summary" local exposed to every step:
// a visited step with its answers and the link that edits them.
type SummaryStep struct {
	Route    string         `json:"route"`
	EditLink string         `json:"editLink"`
	Fields   []SummaryField `json:"fields"`
}

// SummaryField is a labelled answer.
type SummaryField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// New builds the wizard described by def. Options are applied after the
// defaults, so callers can replace the renderer, session binder or any other
// collaborator.
func New(def *definition.Definition, opts ...wizard.Option) (*wizard.Wizard, error) {
	if def == nil {
		return nil, errors.New("formwizard: definition is nil")
	}

	steps := make([]step.Config, 0, len(def.Steps))
	for _, cfg := range def.Steps {
		cfg = cfg.Clone()
		if strings.TrimSpace(cfg.Template) == "" {
			switch {
			case cfg.Route == cfg.ConfirmStep:
				cfg.Template = DefaultConfirmTemplate
			case len(cfg.Fields) > 0:
				cfg.Template = DefaultStepTemplate
			}
		}
		steps = append(steps, cfg)
	}

	defaults := []wizard.Option{
		wizard.WithFallbackTemplate(DefaultErrorTemplate),
		wizard.WithLocals(summaryLocals(def.Base, steps)),
	}
	w, err := wizard.New(def.Base, steps, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("formwizard: %w", err)
	}
	return w, nil
}

// summaryLocals exposes "summary" (answers of visited steps in definition
// order) to templates.
func summaryLocals(base string, steps []step.Config) wizard.LocalsFunc {
	return func(req *wizard.Request) map[string]any {
		visited := make(map[string]bool)
		values := step.Values{}
		if req.Session != nil {
			for _, route := range req.Session.Visited() {
				visited[route] = true
			}
			values = req.Session.Values()
		}

		summary := make([]SummaryStep, 0, len(visited))
		for _, cfg := range steps {
			if !visited[cfg.Route] || len(cfg.Fields) == 0 {
				continue
			}
			entry := SummaryStep{
				Route:    cfg.Route,
				EditLink: joinBase(base, cfg.Route) + "/" + wizard.EditAction,
			}
			for _, field := range cfg.Fields {
				label := field.Label
				if label == "" {
					label = field.Key
				}
				entry.Fields = append(entry.Fields, SummaryField{
					Key:   field.Key,
					Label: label,
					Value: strings.Join(values.Strings(field.Key), ", "),
				})
			}
			summary = append(summary, entry)
		}
		return map[string]any{"summary": summary}
	}
}

func joinBase(base, route string) string {
	if base == "" || base == "/" {
		return route
	}
	return strings.TrimRight(base, "/") + route
}

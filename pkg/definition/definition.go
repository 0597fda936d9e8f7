package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/expr"
	"github.com/goliatone/go-formwizard/pkg/step"
)

// ErrNoSteps is returned for documents without a steps mapping.
var ErrNoSteps = errors.New("definition: no steps declared")

// Definition is a parsed wizard document.
type Definition struct {
	Name        string
	Base        string
	ConfirmStep string
	Steps       []step.Config
}

// Routes lists step routes in declaration order.
func (d *Definition) Routes() []string {
	if d == nil {
		return nil
	}
	routes := make([]string, 0, len(d.Steps))
	for _, cfg := range d.Steps {
		routes = append(routes, cfg.Route)
	}
	return routes
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}
	return Parse(raw)
}

// LoadFS reads and parses name from fsys.
func LoadFS(fsys fs.FS, name string) (*Definition, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", name, err)
	}
	return Parse(raw)
}

type document struct {
	Name        string    `yaml:"name"`
	Base        string    `yaml:"base"`
	ConfirmStep string    `yaml:"confirmStep"`
	Steps       yaml.Node `yaml:"steps"`
}

type stepDoc struct {
	Template          string         `yaml:"template"`
	Next              string         `yaml:"next"`
	Fields            []fieldDoc     `yaml:"fields"`
	Forks             []forkDoc      `yaml:"forks"`
	DefaultFormatters []string       `yaml:"defaultFormatters"`
	ContinueOnEdit    bool           `yaml:"continueOnEdit"`
	ConfirmStep       string         `yaml:"confirmStep"`
	Locals            map[string]any `yaml:"locals"`
	BackLink          *string        `yaml:"backLink"`
	CheckJourney      bool           `yaml:"checkJourney"`
	EntryPoint        bool           `yaml:"entryPoint"`
}

type fieldDoc struct {
	Key                     string            `yaml:"key"`
	Label                   string            `yaml:"label"`
	Hint                    string            `yaml:"hint"`
	Mixin                   string            `yaml:"mixin"`
	Group                   string            `yaml:"group"`
	Formatter               stringList        `yaml:"formatter"`
	IgnoreDefaultFormatters bool              `yaml:"ignoreDefaultFormatters"`
	Validate                rules             `yaml:"validate"`
	Options                 []string          `yaml:"options"`
	Dependent               *step.Dependency  `yaml:"dependent"`
	Multiple                bool              `yaml:"multiple"`
	Default                 string            `yaml:"default"`
	Attributes              map[string]string `yaml:"attributes"`
}

type forkDoc struct {
	Target string    `yaml:"target"`
	Field  string    `yaml:"field"`
	Value  yaml.Node `yaml:"value"`
	When   string    `yaml:"when"`
}

// Parse decodes a YAML or JSON document.
func Parse(raw []byte) (*Definition, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("definition: empty document")
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("definition: decode: %w", err)
	}

	def := &Definition{
		Name:        strings.TrimSpace(doc.Name),
		Base:        strings.TrimSpace(doc.Base),
		ConfirmStep: strings.TrimSpace(doc.ConfirmStep),
	}
	if def.Base == "" {
		def.Base = "/"
	}

	steps := &doc.Steps
	if steps.Kind == 0 || (steps.Kind == yaml.MappingNode && len(steps.Content) == 0) {
		return nil, ErrNoSteps
	}
	if steps.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("definition: line %d: steps must be a mapping of route to step", steps.Line)
	}

	seen := make(map[string]struct{}, len(steps.Content)/2)
	for i := 0; i+1 < len(steps.Content); i += 2 {
		keyNode, valueNode := steps.Content[i], steps.Content[i+1]
		route := strings.TrimSpace(keyNode.Value)
		if route == "" {
			return nil, fmt.Errorf("definition: line %d: empty step route", keyNode.Line)
		}
		if _, dup := seen[route]; dup {
			return nil, fmt.Errorf("definition: line %d: duplicate step %q", keyNode.Line, route)
		}
		seen[route] = struct{}{}

		cfg, err := decodeStep(route, valueNode, def.ConfirmStep)
		if err != nil {
			return nil, err
		}
		def.Steps = append(def.Steps, cfg)
	}

	return def, nil
}

func decodeStep(route string, node *yaml.Node, confirmStep string) (step.Config, error) {
	var doc stepDoc
	if node.Kind != yaml.ScalarNode || node.Tag != "!!null" {
		if err := node.Decode(&doc); err != nil {
			return step.Config{}, fmt.Errorf("definition: step %q: %w", route, err)
		}
	}

	cfg := step.Config{
		Route:             route,
		Template:          strings.TrimSpace(doc.Template),
		Next:              strings.TrimSpace(doc.Next),
		DefaultFormatters: doc.DefaultFormatters,
		ContinueOnEdit:    doc.ContinueOnEdit,
		ConfirmStep:       strings.TrimSpace(doc.ConfirmStep),
		Locals:            doc.Locals,
		BackLink:          doc.BackLink,
		CheckJourney:      doc.CheckJourney,
		EntryPoint:        doc.EntryPoint,
	}
	if cfg.ConfirmStep == "" {
		cfg.ConfirmStep = confirmStep
	}
	for _, f := range doc.Fields {
		cfg.Fields = append(cfg.Fields, f.field())
	}
	for idx, f := range doc.Forks {
		fork, err := f.fork()
		if err != nil {
			return step.Config{}, fmt.Errorf("definition: step %q: fork %d: %w", route, idx, err)
		}
		cfg.Forks = append(cfg.Forks, fork)
	}

	if err := cfg.Normalize(); err != nil {
		return step.Config{}, fmt.Errorf("definition: %w", err)
	}
	return cfg, nil
}

func (f fieldDoc) field() step.Field {
	rules := make([]step.Rule, 0, len(f.Validate))
	for _, r := range f.Validate {
		rules = append(rules, step.Rule(r))
	}
	if len(rules) == 0 {
		rules = nil
	}
	return step.Field{
		Key:                     f.Key,
		Label:                   f.Label,
		Hint:                    f.Hint,
		Mixin:                   f.Mixin,
		Group:                   f.Group,
		Formatter:               []string(f.Formatter),
		IgnoreDefaultFormatters: f.IgnoreDefaultFormatters,
		Validate:                rules,
		Options:                 f.Options,
		Dependent:               f.Dependent,
		Multiple:                f.Multiple,
		Default:                 f.Default,
		Attributes:              f.Attributes,
	}
}

func (f forkDoc) fork() (step.Fork, error) {
	target := strings.TrimSpace(f.Target)
	if target == "" {
		return step.Fork{}, errors.New("target is required")
	}
	field := strings.TrimSpace(f.Field)
	when := strings.TrimSpace(f.When)

	switch {
	case field != "" && when != "":
		return step.Fork{}, errors.New("field and when are mutually exclusive")
	case when != "":
		compiled, err := expr.Compile(when)
		if err != nil {
			return step.Fork{}, err
		}
		return step.Fork{Target: target, Condition: compiled.Condition()}, nil
	case field != "":
		if f.Value.Kind != yaml.ScalarNode {
			return step.Fork{}, fmt.Errorf("line %d: value must be a scalar", f.Value.Line)
		}
		return step.Fork{Target: target, Condition: step.FieldEquals(field, f.Value.Value)}, nil
	default:
		return step.Fork{}, errors.New("either field or when is required")
	}
}

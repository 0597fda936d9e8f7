package validation

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// FieldError describes the first rule a field failed.
type FieldError struct {
	Key      string
	Group    string
	Type     string
	Args     []any
	Redirect string
	Message  string
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("validation: field %q failed %q", e.Key, e.Type)
}

// ErrorKey is the group when set, otherwise the field key.
func (e *FieldError) ErrorKey() string {
	if e == nil {
		return ""
	}
	if e.Group != "" {
		return e.Group
	}
	return e.Key
}

// Validator validates values for a fixed set of field definitions.
type Validator struct {
	fields  map[string]step.Field
	library map[string]step.ValidatorFunc
}

// Option configures a Validator.
type Option func(*Validator)

// WithValidators adds or replaces library validators by rule type.
func WithValidators(validators map[string]step.ValidatorFunc) Option {
	return func(v *Validator) {
		for name, fn := range validators {
			if fn != nil {
				v.library[name] = fn
			}
		}
	}
}

// New builds a Validator. Every rule must either carry its own Fn or name a
// known validator; unknown types are reported here rather than at request
// time.
func New(fields []step.Field, opts ...Option) (*Validator, error) {
	v := &Validator{
		fields:  make(map[string]step.Field, len(fields)),
		library: Library(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	for _, field := range fields {
		for _, rule := range field.Validate {
			if rule.Fn != nil {
				continue
			}
			if _, ok := v.library[rule.Type]; !ok {
				return nil, fmt.Errorf("validation: field %q uses unknown validator %q", field.Key, rule.Type)
			}
		}
		v.fields[field.Key] = field
	}
	return v, nil
}

// Rules returns the effective rules for key: the declared rules followed by
// an implicit "equal" rule when the field restricts its options.
func (v *Validator) Rules(key string) []step.Rule {
	field, ok := v.fields[key]
	if !ok {
		return nil
	}
	rules := append([]step.Rule(nil), field.Validate...)
	if len(field.Options) > 0 {
		args := make([]any, len(field.Options))
		for idx, option := range field.Options {
			args[idx] = option
		}
		rules = append(rules, step.Rule{Type: "equal", Args: args})
	}
	return rules
}

// Validate checks value for key. values is the full set of formatted values
// and empty the formatted representation of an absent value.
func (v *Validator) Validate(key string, value any, values step.Values, empty any) *FieldError {
	field, ok := v.fields[key]
	if !ok {
		return nil
	}
	if dep := field.Dependent; dep != nil && values.String(dep.Field) != dep.Value {
		return nil
	}

	for _, rule := range v.Rules(key) {
		if rule.Type != "required" && isEmpty(value, empty) {
			continue
		}
		fn := rule.Fn
		if fn == nil {
			fn = v.library[rule.Type]
		}
		if fn == nil || passes(fn, rule.Type, value, rule.Args) {
			continue
		}
		return &FieldError{
			Key:      key,
			Group:    strings.TrimSpace(field.Group),
			Type:     rule.Type,
			Args:     rule.Args,
			Redirect: rule.Redirect,
			Message:  rule.Message,
		}
	}
	return nil
}

func passes(fn step.ValidatorFunc, ruleType string, value any, args []any) bool {
	switch typed := value.(type) {
	case nil:
		return fn("", args...)
	case string:
		return fn(typed, args...)
	case []string:
		if ruleType == "required" && len(typed) == 0 {
			return false
		}
		for _, item := range typed {
			if !fn(item, args...) {
				return false
			}
		}
		return true
	default:
		return fn(fmt.Sprint(typed), args...)
	}
}

func isEmpty(value, empty any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case []string:
		return len(typed) == 0
	case string:
		if e, ok := empty.(string); ok {
			return typed == e
		}
		return typed == ""
	default:
		return false
	}
}

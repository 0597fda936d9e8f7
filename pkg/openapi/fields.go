package openapi

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// OrderExtension sets a property's position in the generated field list.
// Properties without it follow in name order.
const OrderExtension = "x-order"

// FieldsFromOperation loads raw and converts the request body of operationID
// into step fields:
//
//	required         -> required rule
//	format           -> email, url or date rule
//	integer, number  -> numeric rule
//	minLength        -> minlength rule
//	maxLength        -> maxlength rule
//	pattern          -> regex rule
//	enum             -> Options with a select (or checkbox group for arrays)
//	boolean          -> boolean formatter and checkbox mixin
//
// Nested objects are skipped since a step posts a flat form.
func FieldsFromOperation(ctx context.Context, raw []byte, operationID string, options ...Option) ([]step.Field, error) {
	ops, err := Operations(ctx, raw, options...)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if op.ID == operationID {
			return op.Fields()
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
}

// Fields converts the operation's request body into step fields.
func (op Operation) Fields() ([]step.Field, error) {
	if op.body == nil || op.body.Value == nil {
		return nil, fmt.Errorf("openapi: operation %q has no request body schema", op.ID)
	}
	schema := op.body.Value
	if t := firstSchemaType(schema.Type); t != "" && t != openapi3.TypeObject {
		return nil, fmt.Errorf("openapi: operation %q request body is %s, want object", op.ID, t)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := orderedProperties(schema.Properties)
	fields := make([]step.Field, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, ok := fieldFromSchema(name, ref.Value, required[name])
		if !ok {
			continue
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func fieldFromSchema(name string, schema *openapi3.Schema, required bool) (step.Field, bool) {
	field := step.Field{
		Key:   name,
		Label: schema.Title,
		Hint:  schema.Description,
	}
	if schema.Default != nil {
		field.Default = fmt.Sprint(schema.Default)
	}
	if required {
		field.Validate = append(field.Validate, step.Rule{Type: "required"})
	}

	switch firstSchemaType(schema.Type) {
	case openapi3.TypeObject:
		return step.Field{}, false
	case openapi3.TypeBoolean:
		field.Formatter = []string{"boolean"}
		field.Mixin = "checkbox"
		return field, true
	case openapi3.TypeInteger, openapi3.TypeNumber:
		field.Validate = append(field.Validate, step.Rule{Type: "numeric"})
	case openapi3.TypeArray:
		field.Multiple = true
		field.Mixin = "checkbox-group"
		if schema.Items != nil && schema.Items.Value != nil {
			field.Options = enumOptions(schema.Items.Value.Enum)
		}
		return field, true
	}

	switch schema.Format {
	case "email":
		field.Validate = append(field.Validate, step.Rule{Type: "email"})
	case "uri", "url":
		field.Validate = append(field.Validate, step.Rule{Type: "url"})
	case "date":
		field.Validate = append(field.Validate, step.Rule{Type: "date"})
	}
	if schema.MinLength > 0 {
		field.Validate = append(field.Validate, step.Rule{Type: "minlength", Args: []any{int(schema.MinLength)}})
	}
	if schema.MaxLength != nil {
		field.Validate = append(field.Validate, step.Rule{Type: "maxlength", Args: []any{int(*schema.MaxLength)}})
	}
	if schema.Pattern != "" {
		field.Validate = append(field.Validate, step.Rule{Type: "regex", Args: []any{schema.Pattern}})
	}
	if options := enumOptions(schema.Enum); len(options) > 0 {
		field.Options = options
		field.Mixin = "select"
	}
	return field, true
}

func enumOptions(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func orderedProperties(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	position := func(name string) (float64, bool) {
		ref := props[name]
		if ref == nil || ref.Value == nil {
			return 0, false
		}
		switch v := ref.Value.Extensions[OrderExtension].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		}
		return 0, false
	}
	sort.SliceStable(names, func(i, j int) bool {
		pi, oki := position(names[i])
		pj, okj := position(names[j])
		switch {
		case oki && okj && pi != pj:
			return pi < pj
		case oki != okj:
			return oki
		}
		return names[i] < names[j]
	})
	return names
}

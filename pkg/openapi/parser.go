package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrOperationNotFound is returned when no operation carries the requested id.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// Operation is the subset of an OpenAPI operation the importer needs.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
	body    *openapi3.SchemaRef
}

// Options tunes document loading.
type Options struct {
	// Validate runs kin-openapi document validation after loading.
	Validate bool
	// MediaTypes lists request body media types in preference order.
	MediaTypes []string
}

// Option mutates Options.
type Option func(*Options)

// WithValidation toggles document validation.
func WithValidation(enabled bool) Option {
	return func(opts *Options) {
		opts.Validate = enabled
	}
}

// WithMediaTypes overrides the request body media type preference.
func WithMediaTypes(types ...string) Option {
	return func(opts *Options) {
		if len(types) > 0 {
			opts.MediaTypes = append([]string(nil), types...)
		}
	}
}

func newOptions(options ...Option) Options {
	cfg := Options{
		Validate:   true,
		MediaTypes: []string{"application/x-www-form-urlencoded", "multipart/form-data", "application/json"},
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Operations loads raw and returns every operation sorted by id. Operations
// without an operationId are keyed "<method>:<path>".
func Operations(ctx context.Context, raw []byte, options ...Option) ([]Operation, error) {
	cfg := newOptions(options...)
	spec, err := load(ctx, raw, cfg)
	if err != nil {
		return nil, err
	}

	var ops []Operation
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			id := operation.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			ops = append(ops, Operation{
				ID:      id,
				Method:  method,
				Path:    path,
				Summary: operation.Summary,
				body:    requestSchema(operation.RequestBody, cfg.MediaTypes),
			})
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })
	return ops, nil
}

func load(ctx context.Context, raw []byte, cfg Options) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}
	if cfg.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return spec, nil
}

func requestSchema(body *openapi3.RequestBodyRef, mediaTypes []string) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range mediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil {
			return mt.Schema
		}
	}
	return nil
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

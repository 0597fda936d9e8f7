package formwizard

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formwizard/pkg/definition"
	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/step"
)

// LoadDefinition parses a YAML or JSON definition file.
func LoadDefinition(path string) (*definition.Definition, error) {
	return definition.LoadFile(path)
}

// LoadDefinitionFS parses a definition stored in fsys.
func LoadDefinitionFS(fsys fs.FS, name string) (*definition.Definition, error) {
	return definition.LoadFS(fsys, name)
}

// FieldsFromOpenAPI derives step fields from the request body of an OpenAPI
// operation.
func FieldsFromOpenAPI(ctx context.Context, raw []byte, operationID string, options ...openapi.Option) ([]step.Field, error) {
	return openapi.FieldsFromOperation(ctx, raw, operationID, options...)
}

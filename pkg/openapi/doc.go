// Package openapi derives wizard fields from the request body schema of an
// OpenAPI 3 operation, so a step can be declared against an existing API
// contract instead of repeating its constraints.
package openapi

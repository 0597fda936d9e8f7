// Package formatting normalises raw submitted values before validation. A
// Chain resolves, per field, the default formatters followed by the field's
// own formatter names and applies them in order. Formatters are pure string
// transforms; multi-valued fields are formatted element by element.
package formatting

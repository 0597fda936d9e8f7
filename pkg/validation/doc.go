// Package validation checks formatted field values against the rule sets
// declared on step fields. Validate returns at most one FieldError per field:
// rules run in declaration order and the first failing rule wins. Rules other
// than "required" are skipped when the value equals the formatted empty
// value, so optional fields left blank never fail format checks.
package validation

// Package expr compiles small boolean expressions used as fork conditions in
// wizard definition files.
//
// Supported syntax:
//   - truthiness: `has-pet`
//   - equality: `colour == "red"`, `age != 18`, `agree == true`, `note == null`
//   - ordering on numbers: `age >= 18`, `income < 1000.50`
//   - composition: `!a`, `a && b`, `a || (b && c)`
//
// Identifiers read form values by default. The `params.` prefix reads route
// parameters and the `session.` prefix reads session values, so
// `session.role == "admin"` is valid.
package expr

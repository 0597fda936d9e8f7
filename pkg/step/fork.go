package step

import "reflect"

// ConditionKind tags the Condition variants.
type ConditionKind int

const (
	// ConditionNone never matches.
	ConditionNone ConditionKind = iota
	// ConditionFieldEquals compares a form value with a fixed value.
	ConditionFieldEquals
	// ConditionPredicate calls an arbitrary function with the request context.
	ConditionPredicate
)

// Condition is a tagged union over the two fork condition shapes. Build one
// with FieldEquals or Predicate; the zero value never matches.
type Condition struct {
	kind  ConditionKind
	field string
	value any
	fn    func(Context) bool
}

// FieldEquals builds a declarative condition matching when the current form
// value of field equals value.
func FieldEquals(field string, value any) Condition {
	return Condition{kind: ConditionFieldEquals, field: field, value: value}
}

// Predicate builds a condition backed by fn. A nil fn never matches.
func Predicate(fn func(Context) bool) Condition {
	if fn == nil {
		return Condition{}
	}
	return Condition{kind: ConditionPredicate, fn: fn}
}

// Kind reports which variant the condition holds.
func (c Condition) Kind() ConditionKind { return c.kind }

// Field returns the compared field for FieldEquals conditions.
func (c Condition) Field() string { return c.field }

// Value returns the expected value for FieldEquals conditions.
func (c Condition) Value() any { return c.value }

// Eval dispatches on the condition variant.
func (c Condition) Eval(ctx Context) bool {
	switch c.kind {
	case ConditionFieldEquals:
		var values Values
		if ctx != nil {
			values = ctx.FormValues()
		}
		return valuesEqual(c.value, values[c.field])
	case ConditionPredicate:
		return c.fn(ctx)
	default:
		return false
	}
}

func valuesEqual(want, got any) bool {
	if ws, ok := want.(string); ok {
		gs, ok := got.(string)
		return ok && gs == ws
	}
	return reflect.DeepEqual(want, got)
}

// Fork overrides the step's next target when its condition holds.
type Fork struct {
	Target    string
	Condition Condition
}

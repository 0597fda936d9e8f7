package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// Expression is a compiled condition. It is immutable and safe for concurrent
// use.
type Expression struct {
	src  string
	root node
}

// Compile parses src into an Expression.
func Compile(src string) (*Expression, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, fmt.Errorf("expr: empty expression")
	}
	tokens, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		tok := p.tokens[p.pos]
		return nil, fmt.Errorf("expr: unexpected %q at %d", tok.text, tok.pos)
	}
	return &Expression{src: trimmed, root: root}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Expression {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.src
}

// Eval evaluates the expression against the request context.
func (e *Expression) Eval(ctx step.Context) (bool, error) {
	if e == nil || e.root == nil {
		return false, nil
	}
	v, err := e.root.eval(ctx)
	if err != nil {
		return false, fmt.Errorf("expr: %q: %w", e.src, err)
	}
	return truthy(v), nil
}

// Condition adapts the expression into a fork condition. Evaluation errors
// count as false.
func (e *Expression) Condition() step.Condition {
	return step.Predicate(func(ctx step.Context) bool {
		ok, err := e.Eval(ctx)
		return err == nil && ok
	})
}

type node interface {
	eval(ctx step.Context) (any, error)
}

type literal struct{ value any }

func (l literal) eval(step.Context) (any, error) { return l.value, nil }

type ident struct {
	scope string
	name  string
}

func (i ident) eval(ctx step.Context) (any, error) {
	if ctx == nil {
		return nil, nil
	}
	switch i.scope {
	case "params":
		v := ctx.Param(i.name)
		if v == "" {
			return nil, nil
		}
		return v, nil
	case "session":
		v, ok := ctx.SessionValue(i.name)
		if !ok {
			return nil, nil
		}
		return v, nil
	}
	values := ctx.FormValues()
	if values == nil {
		return nil, nil
	}
	return values[i.name], nil
}

type unary struct{ operand node }

func (u unary) eval(ctx step.Context) (any, error) {
	v, err := u.operand.eval(ctx)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

type logical struct {
	and         bool
	left, right node
}

func (l logical) eval(ctx step.Context) (any, error) {
	lv, err := l.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	if l.and && !truthy(lv) {
		return false, nil
	}
	if !l.and && truthy(lv) {
		return true, nil
	}
	rv, err := l.right.eval(ctx)
	if err != nil {
		return nil, err
	}
	return truthy(rv), nil
}

type comparison struct {
	op          tokenKind
	left, right node
}

func (c comparison) eval(ctx step.Context) (any, error) {
	lv, err := c.left.eval(ctx)
	if err != nil {
		return nil, err
	}
	rv, err := c.right.eval(ctx)
	if err != nil {
		return nil, err
	}
	switch c.op {
	case tokEq:
		return equal(lv, rv), nil
	case tokNeq:
		return !equal(lv, rv), nil
	}
	lf, lok := number(lv)
	rf, rok := number(rv)
	if !lok || !rok {
		return false, nil
	}
	switch c.op {
	case tokLt:
		return lf < rf, nil
	case tokLte:
		return lf <= rf, nil
	case tokGt:
		return lf > rf, nil
	case tokGte:
		return lf >= rf, nil
	}
	return nil, fmt.Errorf("unsupported operator %d", c.op)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) accept(kind tokenKind) bool {
	if tok, ok := p.peek(); ok && tok.kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logical{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.accept(tokAnd) {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = logical{and: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	tok, ok := p.peek()
	if !ok {
		return left, nil
	}
	switch tok.kind {
	case tokEq, tokNeq, tokLt, tokLte, tokGt, tokGte:
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return comparison{op: tok.kind, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.accept(tokNot) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unary{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("expr: unexpected end of expression")
	}
	p.pos++
	switch tok.kind {
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, fmt.Errorf("expr: missing ')' for '(' at %d", tok.pos)
		}
		return inner, nil
	case tokString:
		return literal{value: tok.text}, nil
	case tokNumber:
		f, _ := strconv.ParseFloat(tok.text, 64)
		return literal{value: f}, nil
	case tokBool:
		return literal{value: tok.text == "true"}, nil
	case tokNull:
		return literal{value: nil}, nil
	case tokIdent:
		return parseIdent(tok.text), nil
	}
	return nil, fmt.Errorf("expr: unexpected %q at %d", tok.text, tok.pos)
}

func parseIdent(text string) ident {
	for _, scope := range []string{"params", "session", "values"} {
		if rest, ok := strings.CutPrefix(text, scope+"."); ok && rest != "" {
			if scope == "values" {
				return ident{name: rest}
			}
			return ident{scope: scope, name: rest}
		}
	}
	return ident{name: text}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "0", "no", "off":
			return false
		}
		return true
	case float64:
		return t != 0
	case int:
		return t != 0
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// equal compares loosely so that submitted strings match typed literals:
// "18" == 18 and "true" == true both hold.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return isEmpty(a) && isEmpty(b)
	}
	switch bv := b.(type) {
	case bool:
		if av, ok := a.(bool); ok {
			return av == bv
		}
		if s, ok := a.(string); ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(s))
			return err == nil && parsed == bv
		}
	case float64:
		if af, ok := number(a); ok {
			return af == bv
		}
		return false
	case string:
		switch av := a.(type) {
		case string:
			return av == bv
		case []string:
			for _, item := range av {
				if item == bv {
					return true
				}
			}
			return false
		case bool, float64:
			return equal(b, a)
		}
	}
	return reflect.DeepEqual(a, b)
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	}
	return false
}

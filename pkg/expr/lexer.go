package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokBool
	tokNull
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isBreak(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return false
}

func lex(src string) ([]token, error) {
	var out []token
	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			out = append(out, token{kind: tokLParen, text: "(", pos: i})
			i++
		case ch == ')':
			out = append(out, token{kind: tokRParen, text: ")", pos: i})
			i++
		case ch == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				out = append(out, token{kind: tokNeq, text: "!=", pos: i})
				i += 2
				continue
			}
			out = append(out, token{kind: tokNot, text: "!", pos: i})
			i++
		case ch == '=':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, fmt.Errorf("expr: unexpected '=' at %d; use '=='", i)
			}
			out = append(out, token{kind: tokEq, text: "==", pos: i})
			i += 2
		case ch == '<' || ch == '>':
			kind, text := tokLt, "<"
			if ch == '>' {
				kind, text = tokGt, ">"
			}
			if i+1 < len(src) && src[i+1] == '=' {
				kind++
				text += "="
				out = append(out, token{kind: kind, text: text, pos: i})
				i += 2
				continue
			}
			out = append(out, token{kind: kind, text: text, pos: i})
			i++
		case ch == '&' || ch == '|':
			if i+1 >= len(src) || src[i+1] != ch {
				return nil, fmt.Errorf("expr: unexpected %q at %d; use %q", ch, i, string([]byte{ch, ch}))
			}
			kind := tokAnd
			if ch == '|' {
				kind = tokOr
			}
			out = append(out, token{kind: kind, text: src[i : i+2], pos: i})
			i += 2
		case ch == '"' || ch == '\'':
			value, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokString, text: value, pos: i})
			i = next
		default:
			start := i
			for i < len(src) && !isBreak(src[i]) {
				i++
			}
			word := src[start:i]
			out = append(out, classifyWord(word, start))
		}
	}
	return out, nil
}

func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	escaped := false
	for i := start + 1; i < len(src); i++ {
		c := src[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := src[start+1 : i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("expr: invalid string literal at %d: %w", start, err)
		}
		return value, i + 1, nil
	}
	return "", 0, errors.New("expr: unterminated string literal")
}

func classifyWord(word string, pos int) token {
	switch strings.ToLower(word) {
	case "true", "false":
		return token{kind: tokBool, text: strings.ToLower(word), pos: pos}
	case "null", "nil":
		return token{kind: tokNull, text: "null", pos: pos}
	}
	if _, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, text: word, pos: pos}
	}
	return token{kind: tokIdent, text: word, pos: pos}
}

package formatting

import (
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formwizard/pkg/step"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenLike    = regexp.MustCompile(`[\x{2010}-\x{2015}\x{2212}\x{FE58}\x{FE63}\x{FF0D}]`)
	roundBrackets = regexp.MustCompile(`[()]`)
	ukPhonePrefix = regexp.MustCompile(`^\+?44\s*(\(0\))?\s*`)

	sanitizePolicyOnce sync.Once
	sanitizePolicy     *bluemonday.Policy
)

// Library returns the built-in formatters keyed by name. The returned map is
// a fresh copy.
func Library() map[string]step.FormatterFunc {
	return map[string]step.FormatterFunc{
		"trim":                strings.TrimSpace,
		"boolean":             Boolean,
		"uppercase":           strings.ToUpper,
		"lowercase":           strings.ToLower,
		"removespaces":        RemoveSpaces,
		"singlespaces":        SingleSpaces,
		"hyphens":             Hyphens,
		"removeroundbrackets": RemoveRoundBrackets,
		"removehyphens":       RemoveHyphens,
		"ukphoneprefix":       UKPhonePrefix,
		"sanitize":            Sanitize,
	}
}

// Boolean maps common truthy and falsy spellings onto "true" and "false" and
// leaves anything else untouched.
func Boolean(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "1":
		return "true"
	case "false", "no", "off", "0":
		return "false"
	default:
		return value
	}
}

// RemoveSpaces drops every whitespace character.
func RemoveSpaces(value string) string {
	return whitespaceRun.ReplaceAllString(value, "")
}

// SingleSpaces collapses whitespace runs into a single space.
func SingleSpaces(value string) string {
	return whitespaceRun.ReplaceAllString(value, " ")
}

// Hyphens replaces typographic dashes with an ASCII hyphen.
func Hyphens(value string) string {
	return hyphenLike.ReplaceAllString(value, "-")
}

// RemoveRoundBrackets strips "(" and ")".
func RemoveRoundBrackets(value string) string {
	return roundBrackets.ReplaceAllString(value, "")
}

// RemoveHyphens strips every hyphen, including typographic variants.
func RemoveHyphens(value string) string {
	return strings.ReplaceAll(Hyphens(value), "-", "")
}

// UKPhonePrefix rewrites an international +44 prefix into the national 0.
func UKPhonePrefix(value string) string {
	if !ukPhonePrefix.MatchString(value) {
		return value
	}
	return ukPhonePrefix.ReplaceAllString(value, "0")
}

// Sanitize removes all markup, keeping only text content.
func Sanitize(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return sanitizer().Sanitize(value)
}

func sanitizer() *bluemonday.Policy {
	sanitizePolicyOnce.Do(func() {
		sanitizePolicy = bluemonday.StrictPolicy()
	})
	return sanitizePolicy
}

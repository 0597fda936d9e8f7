package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// DateLayout is the layout accepted by the date, before and after rules.
const DateLayout = "2006-01-02"

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
	phonePattern    = regexp.MustCompile(`^\(?\+?[\d()-]{0,15}$`)
	postcodePattern = regexp.MustCompile(`(?i)^(GIR ?0AA|[A-PR-UWYZ]([0-9]{1,2}|[A-HK-Y][0-9]([0-9ABEHMNPRV-Y])?|[0-9][A-HJKPS-UW]) ?[0-9][ABD-HJLNP-UW-Z]{2})$`)
	urlLikePattern  = regexp.MustCompile(`(?i)(https?://|www\.)`)
	nowFunc         = time.Now
)

// Library returns the built-in validators keyed by rule type. The returned
// map is a fresh copy.
func Library() map[string]step.ValidatorFunc {
	return map[string]step.ValidatorFunc{
		"required":    Required,
		"email":       Email,
		"minlength":   MinLength,
		"maxlength":   MaxLength,
		"exactlength": ExactLength,
		"alpha":       Alpha,
		"alphanum":    AlphaNum,
		"numeric":     Numeric,
		"equal":       Equal,
		"regex":       Regex,
		"phonenumber": PhoneNumber,
		"url":         URL,
		"notUrl":      NotURL,
		"date":        Date,
		"before":      Before,
		"after":       After,
		"postcode":    Postcode,
	}
}

// Required fails for empty strings.
func Required(value string, _ ...any) bool {
	return value != ""
}

// Email checks the general shape of an address.
func Email(value string, _ ...any) bool {
	return emailPattern.MatchString(value)
}

// MinLength expects args[0] to be the minimum rune count.
func MinLength(value string, args ...any) bool {
	limit, ok := intArg(args, 0)
	return ok && utf8.RuneCountInString(value) >= limit
}

// MaxLength expects args[0] to be the maximum rune count.
func MaxLength(value string, args ...any) bool {
	limit, ok := intArg(args, 0)
	return ok && utf8.RuneCountInString(value) <= limit
}

// ExactLength expects args[0] to be the exact rune count.
func ExactLength(value string, args ...any) bool {
	limit, ok := intArg(args, 0)
	return ok && utf8.RuneCountInString(value) == limit
}

// Alpha accepts letters only.
func Alpha(value string, _ ...any) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// AlphaNum accepts letters and digits only.
func AlphaNum(value string, _ ...any) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Numeric accepts ASCII digits only.
func Numeric(value string, _ ...any) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Equal passes when value matches any of args.
func Equal(value string, args ...any) bool {
	for _, arg := range args {
		if fmt.Sprint(arg) == value {
			return true
		}
	}
	return false
}

// Regex expects args[0] to be a pattern string or *regexp.Regexp.
func Regex(value string, args ...any) bool {
	if len(args) == 0 {
		return false
	}
	switch pattern := args[0].(type) {
	case *regexp.Regexp:
		return pattern.MatchString(value)
	case string:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	default:
		return false
	}
}

// PhoneNumber accepts digits with optional +, brackets and hyphens, ignoring
// spaces.
func PhoneNumber(value string, _ ...any) bool {
	compact := strings.ReplaceAll(value, " ", "")
	if !strings.ContainsAny(compact, "0123456789") {
		return false
	}
	return phonePattern.MatchString(compact)
}

// URL accepts absolute http and https URLs.
func URL(value string, _ ...any) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// NotURL rejects values containing anything that looks like a link.
func NotURL(value string, _ ...any) bool {
	return !urlLikePattern.MatchString(value)
}

// Date accepts YYYY-MM-DD calendar dates.
func Date(value string, _ ...any) bool {
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

// Before passes when value is a date strictly before args[0] (a date string)
// or before today when no argument is given.
func Before(value string, args ...any) bool {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return false
	}
	limit, ok := dateArg(args)
	if !ok {
		return false
	}
	return date.Before(limit)
}

// After passes when value is a date strictly after args[0] (a date string)
// or after today when no argument is given.
func After(value string, args ...any) bool {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return false
	}
	limit, ok := dateArg(args)
	if !ok {
		return false
	}
	return date.After(limit)
}

// Postcode accepts UK postcodes.
func Postcode(value string, _ ...any) bool {
	return postcodePattern.MatchString(strings.TrimSpace(value))
}

func intArg(args []any, idx int) (int, bool) {
	if idx >= len(args) {
		return 0, false
	}
	switch v := args[idx].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return 0, false
	}
}

func dateArg(args []any) (time.Time, bool) {
	if len(args) == 0 {
		now := nowFunc()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	switch v := args[0].(type) {
	case time.Time:
		return v, true
	case string:
		parsed, err := time.Parse(DateLayout, strings.TrimSpace(v))
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

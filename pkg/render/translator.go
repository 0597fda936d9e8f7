package render

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrMissingTranslator is reported to MissingTranslationHandler when no
// Translator is configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// ErrMissingTranslation is returned by Catalog when no locale holds the key.
var ErrMissingTranslation = errors.New("render: missing translation")

// Translator resolves message keys for a locale. Args are positional values
// substituted into the message.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a plain function into a Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (f TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return f(locale, key, args...)
}

// MissingTranslationHandler decides the string used when no key resolved.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	for _, arg := range args {
		if m, ok := arg.(map[string]any); ok {
			if fallback, ok := m["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

// Translate walks keys in order and returns the first translation found.
// When none resolves the onMissing handler (or the default one) receives the
// first key and fallback.
func Translate(t Translator, locale string, keys []string, fallback string, onMissing MissingTranslationHandler, args ...any) string {
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	first := ""
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			first = key
			break
		}
	}
	if first == "" {
		return fallback
	}
	missing := append([]any{map[string]any{"default": fallback}}, args...)
	if t == nil {
		return onMissing(locale, first, missing, ErrMissingTranslator)
	}

	var lastErr error
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		msg, err := t.Translate(locale, key, args...)
		if err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
		lastErr = err
	}
	return onMissing(locale, first, missing, lastErr)
}

// Catalog is an in-memory Translator keyed by locale then message key.
// Messages use {0}, {1}... placeholders for args. Lookups fall back from a
// regional locale ("en-GB") to its base language ("en") and then to the
// catalog's default locale.
type Catalog struct {
	mu            sync.RWMutex
	defaultLocale string
	messages      map[string]map[string]string
}

// NewCatalog returns an empty catalog falling back to defaultLocale.
func NewCatalog(defaultLocale string) *Catalog {
	return &Catalog{
		defaultLocale: strings.TrimSpace(defaultLocale),
		messages:      make(map[string]map[string]string),
	}
}

// Add merges messages into locale.
func (c *Catalog) Add(locale string, messages map[string]string) {
	locale = strings.TrimSpace(locale)
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.messages[locale]
	if !ok {
		bucket = make(map[string]string, len(messages))
		c.messages[locale] = bucket
	}
	for key, msg := range messages {
		bucket[strings.TrimSpace(key)] = msg
	}
}

// Translate implements Translator.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	if c == nil {
		return "", ErrMissingTranslator
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, candidate := range c.localeChain(locale) {
		if msg, ok := c.messages[candidate][key]; ok {
			return interpolate(msg, args), nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingTranslation, key, locale)
}

func (c *Catalog) localeChain(locale string) []string {
	locale = strings.TrimSpace(locale)
	chain := make([]string, 0, 3)
	if locale != "" {
		chain = append(chain, locale)
		if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
			chain = append(chain, base)
		}
	}
	if c.defaultLocale != "" && c.defaultLocale != locale {
		chain = append(chain, c.defaultLocale)
	}
	return chain
}

func interpolate(msg string, args []any) string {
	if len(args) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for idx, arg := range args {
		pairs = append(pairs, fmt.Sprintf("{%d}", idx), fmt.Sprint(arg))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

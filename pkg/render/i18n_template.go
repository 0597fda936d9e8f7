package render

import (
	"fmt"
	"strings"
)

// TemplateI18nConfig configures the template translation helpers.
type TemplateI18nConfig struct {
	// LocaleKey is the view-model key holding the locale when templates pass
	// the whole context instead of a locale string. Defaults to "locale".
	LocaleKey string
	// FuncName renames the translate helper. Defaults to "translate".
	FuncName string
	OnMissing MissingTranslationHandler
}

// TemplateI18nFuncs returns helpers for template engines (see
// template.WithTranslator):
//
//	translate(localeSrc, key, ...args) string
//	current_locale(localeSrc) string
//
// localeSrc is either a locale string or a map carrying one under LocaleKey.
func TemplateI18nFuncs(t Translator, cfg TemplateI18nConfig) map[string]any {
	localeKey := strings.TrimSpace(cfg.LocaleKey)
	if localeKey == "" {
		localeKey = "locale"
	}
	name := strings.TrimSpace(cfg.FuncName)
	if name == "" {
		name = "translate"
	}

	return map[string]any{
		name: func(localeSrc any, key string, args ...any) string {
			return Translate(t, resolveLocale(localeSrc, localeKey), []string{key}, "", cfg.OnMissing, args...)
		},
		"current_locale": func(localeSrc any) string {
			return resolveLocale(localeSrc, localeKey)
		},
	}
}

func resolveLocale(src any, key string) string {
	switch data := src.(type) {
	case nil:
		return ""
	case string:
		return data
	case map[string]string:
		return data[key]
	case map[string]any:
		switch v := data[key].(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

package render_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formwizard/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestTranslateWalksKeysInOrder(t *testing.T) {
	tr := stubTranslator{"validation.default.required": "This field is required"}

	got := render.Translate(tr, "en", []string{"validation.name.required", "validation.default.required"}, "fallback", nil)
	if got != "This field is required" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestTranslateFallsBackWhenNothingResolves(t *testing.T) {
	got := render.Translate(stubTranslator{}, "en", []string{"a", "b"}, "Default text", nil)
	if got != "Default text" {
		t.Fatalf("expected fallback, got %q", got)
	}

	got = render.Translate(nil, "en", []string{"a"}, "", nil)
	if got != "a" {
		t.Fatalf("expected key when no fallback, got %q", got)
	}
}

func TestTranslateReportsMissingTranslator(t *testing.T) {
	var gotErr error
	var gotKey string
	onMissing := func(_ string, key string, _ []any, err error) string {
		gotKey, gotErr = key, err
		return "missing"
	}

	if got := render.Translate(nil, "en", []string{"", "k"}, "", onMissing); got != "missing" {
		t.Fatalf("unexpected result %q", got)
	}
	if gotKey != "k" || !errors.Is(gotErr, render.ErrMissingTranslator) {
		t.Fatalf("unexpected handler args key=%q err=%v", gotKey, gotErr)
	}
}

func TestCatalogLocaleFallbackAndInterpolation(t *testing.T) {
	c := render.NewCatalog("en")
	c.Add("en", map[string]string{"greeting": "Hello {0}", "farewell": "Bye"})
	c.Add("fr", map[string]string{"greeting": "Bonjour {0}"})

	cases := []struct {
		locale, key, want string
	}{
		{"fr-CA", "greeting", "Bonjour Ada"},
		{"fr", "farewell", "Bye"},
		{"", "greeting", "Hello Ada"},
	}
	for _, tc := range cases {
		got, err := c.Translate(tc.locale, tc.key, "Ada")
		if err != nil {
			t.Fatalf("translate %s/%s: %v", tc.locale, tc.key, err)
		}
		if got != tc.want {
			t.Fatalf("translate %s/%s = %q, want %q", tc.locale, tc.key, got, tc.want)
		}
	}

	if _, err := c.Translate("de", "unknown"); !errors.Is(err, render.ErrMissingTranslation) {
		t.Fatalf("expected ErrMissingTranslation, got %v", err)
	}
}

func TestTemplateI18nFuncs(t *testing.T) {
	funcs := render.TemplateI18nFuncs(stubTranslator{"hello": "Hi"}, render.TemplateI18nConfig{FuncName: "t"})

	translate, ok := funcs["t"].(func(any, string, ...any) string)
	if !ok {
		t.Fatalf("expected translate helper under custom name")
	}
	if got := translate(map[string]any{"locale": "en"}, "hello"); got != "Hi" {
		t.Fatalf("unexpected translation %q", got)
	}
	if got := translate("en", "absent"); got != "absent" {
		t.Fatalf("expected key for missing translation, got %q", got)
	}

	current, ok := funcs["current_locale"].(func(any) string)
	if !ok {
		t.Fatalf("expected current_locale helper")
	}
	if got := current(map[string]string{"locale": "fr"}); got != "fr" {
		t.Fatalf("unexpected locale %q", got)
	}
}

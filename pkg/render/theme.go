package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ErrThemeNotFound is returned by ManifestSelector when neither the requested
// nor the default theme is registered.
var ErrThemeNotFound = errors.New("render: theme not found")

// ManifestSelector picks a theme and variant from a fixed set of manifests.
// Empty names fall back to the defaults given at construction.
type ManifestSelector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector indexes manifests by name. The default theme must be
// one of them.
func NewManifestSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*ManifestSelector, error) {
	s := &ManifestSelector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, m := range manifests {
		if m == nil || strings.TrimSpace(m.Name) == "" {
			return nil, errors.New("render: theme manifest needs a name")
		}
		if _, dup := s.manifests[m.Name]; dup {
			return nil, fmt.Errorf("render: theme %q registered twice", m.Name)
		}
		s.manifests[m.Name] = m
	}
	if _, ok := s.manifests[s.defaultTheme]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrThemeNotFound, s.defaultTheme)
	}
	return s, nil
}

// Select resolves name and variant. An unknown variant selects the base
// manifest.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = s.defaultVariant
	}
	if _, ok := m.Variants[variant]; !ok {
		variant = ""
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
}

// ResolveTheme asks selector for name and variant and flattens the result
// into the tokens, partials and asset resolver a renderer needs.
func ResolveTheme(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, errors.New("render: theme selector is nil")
	}
	sel, err := selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	return RendererConfig(sel), nil
}

// RendererConfig merges the selected variant over its manifest. Every token
// is also exposed as a CSS custom property named "--" + token.
func RendererConfig(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Tokens:   map[string]string{},
		Partials: map[string]string{},
		CSSVars:  map[string]string{},
	}
	prefix := ""
	files := map[string]string{}
	if m := sel.Manifest; m != nil {
		mergeStrings(cfg.Tokens, m.Tokens)
		mergeStrings(cfg.Partials, m.Templates)
		mergeStrings(files, m.Assets.Files)
		prefix = m.Assets.Prefix
		if v, ok := m.Variants[sel.Variant]; ok {
			mergeStrings(cfg.Tokens, v.Tokens)
			mergeStrings(cfg.Partials, v.Templates)
			mergeStrings(files, v.Assets.Files)
			if v.Assets.Prefix != "" {
				prefix = v.Assets.Prefix
			}
		}
	}
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
	}
	return cfg
}

// ThemeContext is the "theme" value templates see. Keys: name, variant,
// tokens, css_vars_style and stylesheet.
func ThemeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	ctx := map[string]any{
		"name":           cfg.Theme,
		"variant":        cfg.Variant,
		"tokens":         copyStrings(cfg.Tokens),
		"css_vars_style": cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		ctx["stylesheet"] = cfg.AssetURL("stylesheet")
	}
	return ctx
}

func mergeStrings(dst, src map[string]string) {
	for key, value := range src {
		dst[key] = value
	}
}

func copyStrings(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

package formwizard

import (
	"fmt"
	"os"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard/pkg/render"
)

// DefaultThemeName is the built-in theme. Its tokens feed the CSS custom
// properties read by formwizard.css.
const DefaultThemeName = "formwizard"

// DefaultThemeManifest returns the built-in theme with a "dark" variant.
func DefaultThemeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"fw-font":   "system-ui, sans-serif",
			"fw-text":   "#0b0c0c",
			"fw-bg":     "#ffffff",
			"fw-hint":   "#505a5f",
			"fw-error":  "#d4351c",
			"fw-accent": "#1d70b8",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"fw-text":   "#f3f2f1",
					"fw-bg":     "#0b0c0c",
					"fw-hint":   "#b1b4b6",
					"fw-error":  "#ff6f5c",
					"fw-accent": "#5694ca",
				},
			},
		},
	}
}

// NewThemeSelector selects among the built-in theme and extra. defaultTheme
// and defaultVariant apply when a lookup passes empty names; an empty
// defaultTheme means DefaultThemeName.
func NewThemeSelector(defaultTheme, defaultVariant string, extra ...*theme.Manifest) (*render.ManifestSelector, error) {
	if defaultTheme == "" {
		defaultTheme = DefaultThemeName
	}
	manifests := append([]*theme.Manifest{DefaultThemeManifest()}, extra...)
	return render.NewManifestSelector(defaultTheme, defaultVariant, manifests...)
}

type themeFile struct {
	Name      string                  `yaml:"name"`
	Version   string                  `yaml:"version"`
	Tokens    map[string]string       `yaml:"tokens"`
	Templates map[string]string       `yaml:"templates"`
	Assets    themeAssets             `yaml:"assets"`
	Variants  map[string]themeVariant `yaml:"variants"`
}

type themeVariant struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    themeAssets       `yaml:"assets"`
}

type themeAssets struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

// LoadThemeManifest reads a theme manifest from a YAML file:
//
//	name: acme
//	tokens: {fw-accent: "#6f2dbd"}
//	assets: {prefix: /static/acme, files: {stylesheet: acme.css}}
//	variants:
//	  dark: {tokens: {fw-bg: "#111"}}
func LoadThemeManifest(path string) (*theme.Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", path, err)
	}
	var file themeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("theme %s: %w", path, err)
	}
	if file.Name == "" {
		return nil, fmt.Errorf("theme %s: name is required", path)
	}

	m := &theme.Manifest{
		Name:      file.Name,
		Version:   file.Version,
		Tokens:    file.Tokens,
		Templates: file.Templates,
		Assets:    theme.Assets{Prefix: file.Assets.Prefix, Files: file.Assets.Files},
	}
	if len(file.Variants) > 0 {
		m.Variants = make(map[string]theme.Variant, len(file.Variants))
		for name, v := range file.Variants {
			m.Variants[name] = theme.Variant{
				Tokens:    v.Tokens,
				Templates: v.Templates,
				Assets:    theme.Assets{Prefix: v.Assets.Prefix, Files: v.Assets.Files},
			}
		}
	}
	return m, nil
}

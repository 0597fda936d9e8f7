package template

import (
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

var (
	registerOnce sync.Once
	hintPolicy   *bluemonday.Policy
)

// registerDefaultFilters installs the filters step templates rely on:
//
//	trim      strip surrounding whitespace
//	sanitize  keep the safe subset of author supplied HTML (labels, hints)
//	lookup    index a map by a dynamic key: values|lookup:field.key
func registerDefaultFilters() {
	registerOnce.Do(func() {
		hintPolicy = bluemonday.UGCPolicy()
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", filterTrim)
		}
		if !pongo2.FilterExists("sanitize") {
			_ = pongo2.RegisterFilter("sanitize", filterSanitize)
		}
		if !pongo2.FilterExists("lookup") {
			_ = pongo2.RegisterFilter("lookup", filterLookup)
		}
	})
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsSafeValue(""), nil
	}
	return pongo2.AsSafeValue(hintPolicy.Sanitize(in.String())), nil
}

func filterLookup(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() || param == nil {
		return pongo2.AsValue(nil), nil
	}
	switch m := in.Interface().(type) {
	case map[string]any:
		return pongo2.AsValue(m[param.String()]), nil
	case map[string]string:
		return pongo2.AsValue(m[param.String()]), nil
	}
	return pongo2.AsValue(nil), nil
}

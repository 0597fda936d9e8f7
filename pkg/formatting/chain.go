package formatting

import (
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// Chain formats values for a fixed set of field definitions.
type Chain struct {
	fields   map[string]step.Field
	defaults []string
	library  map[string]step.FormatterFunc
	logger   logrus.FieldLogger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger routes debug output about unknown formatter names.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Chain for fields. Overrides replace or extend the built-in
// library by name.
func New(fields []step.Field, defaults []string, overrides map[string]step.FormatterFunc, opts ...Option) *Chain {
	chain := &Chain{
		fields:   make(map[string]step.Field, len(fields)),
		defaults: append([]string(nil), defaults...),
		library:  Library(),
		logger:   logrus.StandardLogger(),
	}
	for _, field := range fields {
		chain.fields[field.Key] = field
	}
	for name, fn := range overrides {
		if fn == nil {
			continue
		}
		chain.library[name] = fn
	}
	for _, opt := range opts {
		if opt != nil {
			opt(chain)
		}
	}
	return chain
}

// Names returns the formatter names applied to key, in order.
func (c *Chain) Names(key string) []string {
	field, ok := c.fields[key]
	var names []string
	if !ok || !field.IgnoreDefaultFormatters {
		names = append(names, c.defaults...)
	}
	if ok {
		names = append(names, field.Formatter...)
	}
	return names
}

// Format applies the formatters for key to value. Strings and string slices
// are formatted; other values are returned unchanged.
func (c *Chain) Format(key string, value any) any {
	switch typed := value.(type) {
	case string:
		return c.formatString(key, typed)
	case []string:
		out := make([]string, len(typed))
		for idx, item := range typed {
			out[idx] = c.formatString(key, item)
		}
		return out
	default:
		return value
	}
}

// Empty returns the formatted representation of an absent value for key.
func (c *Chain) Empty(key string) any {
	return c.Format(key, "")
}

func (c *Chain) formatString(key, value string) string {
	for _, name := range c.Names(key) {
		fn, ok := c.library[name]
		if !ok {
			c.logger.WithFields(logrus.Fields{"field": key, "formatter": name}).Debug("formatting: unknown formatter skipped")
			continue
		}
		value = fn(value)
	}
	return value
}

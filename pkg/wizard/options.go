package wizard

import (
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/step"
)

// Renderer renders a named template with the step view-model. The
// template.Engine satisfies it.
type Renderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(name string, data any, out ...io.Writer) (string, error)

func (f RendererFunc) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	return f(name, data, out...)
}

// ErrorHandler receives every failure the pipeline does not recover itself.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// LocalsFunc contributes extra view-model entries. Its result is merged last.
type LocalsFunc func(req *Request) map[string]any

// Stage is a named pipeline step. Custom verbs registered with WithMethod are
// built from stages.
type Stage struct {
	Name string
	Run  func(req *Request) error
}

// Option configures a Controller or a Wizard.
type Option func(*options)

type options struct {
	logger           logrus.FieldLogger
	session          SessionBinder
	renderer         Renderer
	fallbackTemplate string
	translator       render.Translator
	onMissing        render.MissingTranslationHandler
	locale           func(r *http.Request) string
	events           *Events
	hooks            []LifecycleHooks
	errorHandler     ErrorHandler
	methods          map[string][]Stage
	locals           []LocalsFunc
	formatters       map[string]step.FormatterFunc
	validators       map[string]step.ValidatorFunc

	// set by Wizard
	baseURL  string
	backLink func(req *Request) *string
	journey  func(req *Request) (string, bool)
}

func newOptions(fns ...Option) options {
	opts := options{
		logger:  logrus.StandardLogger(),
		session: EphemeralSession(),
		locale:  acceptLanguage,
		events:  NewEvents(),
		methods: make(map[string][]Stage),
	}
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.errorHandler == nil {
		opts.errorHandler = defaultErrorHandler(opts.logger)
	}
	return opts
}

// WithLogger sets the logger used for request and stage diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSessionBinder persists values, errors and history across requests.
func WithSessionBinder(binder SessionBinder) Option {
	return func(o *options) {
		if binder != nil {
			o.session = binder
		}
	}
}

// WithRenderer sets the template renderer used by the render stage.
func WithRenderer(renderer Renderer) Option {
	return func(o *options) {
		o.renderer = renderer
	}
}

// WithFallbackTemplate names a template rendered when the step template
// cannot be rendered.
func WithFallbackTemplate(name string) Option {
	return func(o *options) {
		o.fallbackTemplate = strings.TrimSpace(name)
	}
}

// WithTranslator localises validation messages. Keys are tried in order:
// validation.<key>.<type>, validation.default.<type>.
func WithTranslator(t render.Translator) Option {
	return func(o *options) {
		o.translator = t
	}
}

// WithMissingTranslationHandler overrides how unresolved messages are built.
func WithMissingTranslationHandler(fn render.MissingTranslationHandler) Option {
	return func(o *options) {
		o.onMissing = fn
	}
}

// WithLocaleResolver picks the locale of a request. The default reads the
// first Accept-Language tag.
func WithLocaleResolver(fn func(r *http.Request) string) Option {
	return func(o *options) {
		if fn != nil {
			o.locale = fn
		}
	}
}

// WithEvents shares an event registry, for example between the steps of a
// wizard and a metrics collector.
func WithEvents(events *Events) Option {
	return func(o *options) {
		if events != nil {
			o.events = events
		}
	}
}

// WithLifecycleHooks adds controller-wide stage hooks. They run around each
// stage after the step's own hooks.
func WithLifecycleHooks(hooks ...LifecycleHooks) Option {
	return func(o *options) {
		for _, h := range hooks {
			if h != nil {
				o.hooks = append(o.hooks, h)
			}
		}
	}
}

// WithErrorHandler replaces the handler for unrecovered failures.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithMethod serves an extra verb (PUT, DELETE) with the given stages. The
// configure stage always runs first. GET, HEAD and POST cannot be replaced.
func WithMethod(method string, stages ...Stage) Option {
	return func(o *options) {
		method = strings.ToUpper(strings.TrimSpace(method))
		switch method {
		case "", http.MethodGet, http.MethodHead, http.MethodPost:
			return
		}
		if o.methods == nil {
			o.methods = make(map[string][]Stage)
		}
		o.methods[method] = append([]Stage(nil), stages...)
	}
}

// WithLocals adds a view-model extension.
func WithLocals(fn LocalsFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.locals = append(o.locals, fn)
		}
	}
}

// WithFormatters extends the formatter library for every step.
func WithFormatters(formatters map[string]step.FormatterFunc) Option {
	return func(o *options) {
		if o.formatters == nil {
			o.formatters = make(map[string]step.FormatterFunc, len(formatters))
		}
		for name, fn := range formatters {
			o.formatters[name] = fn
		}
	}
}

// WithValidators extends the validator library for every step.
func WithValidators(validators map[string]step.ValidatorFunc) Option {
	return func(o *options) {
		if o.validators == nil {
			o.validators = make(map[string]step.ValidatorFunc, len(validators))
		}
		for name, fn := range validators {
			o.validators[name] = fn
		}
	}
}

// WithBaseURL sets the mount point of a standalone controller. Wizard sets it
// for its own steps.
func WithBaseURL(base string) Option {
	return func(o *options) {
		o.baseURL = normalizeBase(base)
	}
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return base
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(base, "/")
}

func acceptLanguage(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	return strings.TrimSpace(tag)
}

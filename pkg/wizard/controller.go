package wizard

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/formatting"
	"github.com/goliatone/go-formwizard/pkg/step"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

const maxFormMemory = 32 << 20

// Controller serves one step: GET renders the form, POST formats, validates,
// stores and redirects. The configuration is immutable once built; each
// request works on its own deep copy.
type Controller struct {
	cfg  step.Config
	opts options
	get  []Stage
	post []Stage
}

var _ http.Handler = (*Controller)(nil)

// NewController builds the controller for a single step.
func NewController(cfg step.Config, opts ...Option) (*Controller, error) {
	return newController(cfg, newOptions(opts...))
}

func newController(cfg step.Config, opts options) (*Controller, error) {
	cfg = cfg.Clone()
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}
	if cfg.Route != "" && !strings.HasPrefix(cfg.Route, "/") {
		cfg.Route = "/" + cfg.Route
	}
	if strings.TrimSpace(cfg.Template) == "" {
		opts.logger.WithField("step", cfg.Route).Debug("wizard: no template provided")
	}
	if _, err := validation.New(cfg.Fields, validation.WithValidators(opts.validators)); err != nil {
		return nil, fmt.Errorf("wizard: step %q: %w", cfg.Route, err)
	}

	c := &Controller{cfg: cfg, opts: opts}
	c.get = []Stage{
		{Name: StageConfigure, Run: c.configure},
		{Name: StageGetErrors, Run: c.getErrors},
		{Name: StageGetValues, Run: c.getValues},
		{Name: StageLocals, Run: c.locals},
		{Name: StageCheckEmpty, Run: c.checkEmpty},
		{Name: StageRender, Run: c.render},
	}
	c.post = []Stage{
		{Name: StageConfigure, Run: c.configure},
		{Name: StageClearErrors, Run: c.clearErrors},
		{Name: StageProcess, Run: c.process},
		{Name: StageValidate, Run: c.validate},
		{Name: StageSaveValues, Run: c.saveValues},
		{Name: StageSuccessHandler, Run: c.successHandler},
	}
	return c, nil
}

// Route returns the step route.
func (c *Controller) Route() string { return c.cfg.Route }

// Config returns a copy of the step configuration.
func (c *Controller) Config() step.Config { return c.cfg.Clone() }

// Events returns the registry the controller emits to.
func (c *Controller) Events() *Events { return c.opts.events }

func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var stages []Stage
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		stages = c.get
	case http.MethodPost:
		stages = c.post
	default:
		custom, ok := c.opts.methods[r.Method]
		if !ok {
			w.Header().Set("Allow", c.allow())
			c.opts.errorHandler(w, r, methodNotAllowed(r.Method))
			return
		}
		stages = append([]Stage{{Name: StageConfigure, Run: c.configure}}, custom...)
	}

	req, err := c.newRequest(w, r)
	if err != nil {
		c.opts.errorHandler(w, r, err)
		return
	}
	if err := c.run(req, stages); err != nil {
		c.handleError(req, err)
	}
}

func (c *Controller) allow() string {
	methods := []string{http.MethodGet, http.MethodHead, http.MethodPost}
	custom := make([]string, 0, len(c.opts.methods))
	for method := range c.opts.methods {
		custom = append(custom, method)
	}
	sort.Strings(custom)
	return strings.Join(append(methods, custom...), ", ")
}

func (c *Controller) newRequest(w http.ResponseWriter, r *http.Request) (*Request, error) {
	session, err := c.opts.session.Bind(w, r)
	if err != nil {
		return nil, fmt.Errorf("wizard: bind session: %w", err)
	}
	params := c.params(r)
	path := c.routeFor(r, params)
	logger := c.opts.logger.WithFields(logrus.Fields{
		"step":   path,
		"method": r.Method,
		"path":   r.URL.Path,
	})
	return &Request{
		HTTP:    r,
		Writer:  w,
		Values:  step.Values{},
		Locals:  map[string]any{},
		BaseURL: c.opts.baseURL,
		Path:    path,
		Params:  params,
		Session: session,
		Logger:  logger,
		Locale:  c.opts.locale(r),
	}, nil
}

// params reads route variables from gorilla/mux. Requests reaching the
// controller through another router still get the edit action when the URL
// ends in "<route>/edit".
func (c *Controller) params(r *http.Request) map[string]string {
	params := make(map[string]string)
	for key, value := range mux.Vars(r) {
		params[key] = value
	}
	if _, ok := params["action"]; !ok && c.cfg.Route != "" &&
		strings.HasSuffix(r.URL.Path, strings.TrimRight(c.cfg.Route, "/")+"/"+EditAction) {
		params["action"] = EditAction
	}
	return params
}

func (c *Controller) routeFor(r *http.Request, params map[string]string) string {
	if c.cfg.Route != "" {
		return c.cfg.Route
	}
	path := r.URL.Path
	if base := c.opts.baseURL; base != "" && base != "/" {
		path = strings.TrimPrefix(path, base)
	}
	if params["action"] == EditAction {
		path = strings.TrimSuffix(path, "/"+EditAction)
	}
	if path == "" {
		path = "/"
	}
	return path
}

// run executes stages in order with their hooks. The first error aborts the
// remaining stages; a stage that writes the response ends the pipeline.
func (c *Controller) run(req *Request, stages []Stage) error {
	for _, st := range stages {
		if err := c.before(st.Name, req); err != nil {
			return err
		}
		if err := st.Run(req); err != nil {
			return err
		}
		if err := c.after(st.Name, req); err != nil {
			return err
		}
		if req.handled {
			return nil
		}
	}
	return nil
}

func (c *Controller) stepHooks(req *Request) step.Hooks {
	if req.Options != nil {
		return req.Options.Hooks
	}
	return c.cfg.Hooks
}

func (c *Controller) before(stage string, req *Request) error {
	if err := c.stepHooks(req).Run(step.Pre(stage), req); err != nil {
		return err
	}
	for _, h := range c.opts.hooks {
		if err := h.Before(stage, req); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) after(stage string, req *Request) error {
	if err := c.stepHooks(req).Run(step.Post(stage), req); err != nil {
		return err
	}
	for _, h := range c.opts.hooks {
		if err := h.After(stage, req); err != nil {
			return err
		}
	}
	return nil
}

// handleError recovers validation failures with a redirect to the error step
// and hands everything else to the error handler.
func (c *Controller) handleError(req *Request, err error) {
	errs, ok := AsValidationErrors(err)
	if !ok {
		if req.handled {
			req.Logger.WithError(err).Error("wizard: stage failed after response was written")
			return
		}
		c.opts.errorHandler(req.Writer, req.HTTP, err)
		return
	}

	req.Errors = errs
	c.opts.events.Emit(EventValidationFailed, req)
	stored := errs.Clone()
	for _, e := range stored {
		if e != nil && e.Step == "" {
			e.Step = req.Path
		}
	}
	req.Session.SetErrors(stored, req.Values)
	target := ErrorStep(errs, req)
	req.Logger.WithFields(logrus.Fields{
		"errors":   len(errs),
		"redirect": target,
	}).Debug("wizard: validation failed")
	if err := req.Redirect(target); err != nil {
		c.opts.errorHandler(req.Writer, req.HTTP, err)
	}
}

func defaultErrorHandler(logger logrus.FieldLogger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		code := http.StatusInternalServerError
		var httpErr HTTPError
		if errors.As(err, &httpErr) && httpErr != nil {
			code = httpErr.StatusCode()
		}
		entry := logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": code,
		})
		if code >= http.StatusInternalServerError {
			entry.Error("wizard: request failed")
		} else {
			entry.Warn("wizard: request rejected")
		}
		http.Error(w, http.StatusText(code), code)
	}
}

func (c *Controller) configure(req *Request) error {
	cfg := c.cfg.Clone()
	req.Options = &cfg
	if c.opts.journey == nil || !cfg.CheckJourney || cfg.EntryPoint {
		return nil
	}
	if target, allowed := c.opts.journey(req); !allowed {
		req.Logger.WithField("redirect", target).Debug("wizard: step not reachable from journey")
		return req.Redirect(target)
	}
	return nil
}

// getErrors keeps the persisted errors that belong to this step: those keyed
// by one of its fields and those the step itself produced, such as whole-form
// errors returned by Config.Validate.
func (c *Controller) getErrors(req *Request) error {
	stored := req.Session.Errors()
	keys := make(map[string]struct{}, len(req.Options.Fields))
	for _, field := range req.Options.Fields {
		keys[field.ErrorKey()] = struct{}{}
	}
	errs := make(Errors)
	for key, err := range stored {
		if err == nil {
			continue
		}
		if _, ok := keys[key]; ok || err.Step == req.Path {
			errs[key] = err
		}
	}
	req.Errors = errs
	return nil
}

func (c *Controller) getValues(req *Request) error {
	values := req.Session.Values()
	if values == nil {
		values = step.Values{}
	}
	for _, field := range req.Options.Fields {
		if _, ok := values[field.Key]; !ok && field.Default != "" {
			values[field.Key] = field.Default
		}
	}
	req.Values = values
	return nil
}

func (c *Controller) locals(req *Request) error {
	if req.Locals == nil {
		req.Locals = map[string]any{}
	}
	for key, value := range c.Locals(req) {
		req.Locals[key] = value
	}
	return nil
}

func (c *Controller) checkEmpty(req *Request) error {
	// HEAD shares the GET stages but must not advance the journey.
	if req.HTTP.Method == http.MethodHead {
		return nil
	}
	if len(req.Options.Fields) == 0 && req.Options.Next != "" {
		c.complete(req)
	}
	return nil
}

func (c *Controller) render(req *Request) error {
	name := strings.TrimSpace(req.Options.Template)
	if name == "" {
		return fmt.Errorf("%w: step %q", ErrMissingTemplate, req.Path)
	}
	if c.opts.renderer == nil {
		return fmt.Errorf("wizard: step %q: no renderer configured", req.Path)
	}

	body, err := c.opts.renderer.RenderTemplate(name, req.Locals)
	if err != nil && c.opts.fallbackTemplate != "" && c.opts.fallbackTemplate != name {
		req.Logger.WithError(err).WithField("template", name).Warn("wizard: rendering fallback template")
		var fallbackErr error
		body, fallbackErr = c.opts.renderer.RenderTemplate(c.opts.fallbackTemplate, req.Locals)
		if fallbackErr == nil {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("wizard: render %q: %w", name, err)
	}

	if err := req.Session.Save(req.Context()); err != nil {
		return fmt.Errorf("wizard: save session: %w", err)
	}
	req.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	req.Writer.WriteHeader(http.StatusOK)
	req.handled = true
	if req.HTTP.Method == http.MethodHead {
		return nil
	}
	_, err = req.Writer.Write([]byte(body))
	return err
}

func (c *Controller) clearErrors(req *Request) error {
	req.Session.SetErrors(nil, nil)
	return nil
}

func (c *Controller) formatter(req *Request) *formatting.Chain {
	if req.formatter != nil {
		return req.formatter
	}
	overrides := make(map[string]step.FormatterFunc, len(c.opts.formatters)+len(req.Options.Formatters))
	for name, fn := range c.opts.formatters {
		overrides[name] = fn
	}
	for name, fn := range req.Options.Formatters {
		overrides[name] = fn
	}
	req.formatter = formatting.New(req.Options.Fields, req.Options.DefaultFormatters, overrides, formatting.WithLogger(req.Logger))
	return req.formatter
}

// process formats every configured field from the submitted form. Fields
// missing from the submission are formatted from "".
func (c *Controller) process(req *Request) error {
	r := req.HTTP
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("wizard: parse form: %w", err)}
	}

	chain := c.formatter(req)
	if req.Values == nil {
		req.Values = step.Values{}
	}
	for _, field := range req.Options.Fields {
		raw := r.PostForm[field.Key]
		var value any
		if field.Multiple {
			items := make([]string, 0, len(raw))
			for _, item := range raw {
				if item != "" {
					items = append(items, item)
				}
			}
			value = items
		} else {
			first := ""
			if len(raw) > 0 {
				first = raw[0]
			}
			value = first
		}
		req.Values[field.Key] = chain.Format(field.Key, value)
	}
	return nil
}

// validate checks every field in declaration order and collects all
// failures. The whole-form validator only runs when no field failed.
func (c *Controller) validate(req *Request) error {
	req.Logger.Debug("wizard: validating")
	validator, err := validation.New(req.Options.Fields, validation.WithValidators(c.opts.validators))
	if err != nil {
		return fmt.Errorf("wizard: step %q: %w", req.Path, err)
	}
	chain := c.formatter(req)

	errs := make(Errors)
	for _, field := range req.Options.Fields {
		fe := validator.Validate(field.Key, req.Values[field.Key], req.Values, chain.Empty(field.Key))
		if fe == nil {
			continue
		}
		errs.Add(&ValidationError{
			Key:      fe.Key,
			Group:    fe.Group,
			Type:     fe.Type,
			Args:     fe.Args,
			Redirect: fe.Redirect,
			Message:  fe.Message,
		})
	}
	if len(errs) > 0 {
		return errs
	}
	if req.Options.Validate != nil {
		return req.Options.Validate(req)
	}
	return nil
}

func (c *Controller) saveValues(req *Request) error {
	req.Session.SaveValues(req.Values)
	return nil
}

func (c *Controller) successHandler(req *Request) error {
	c.complete(req)
	return req.Redirect(NextStep(req))
}

func (c *Controller) complete(req *Request) {
	req.Session.CompleteStep(req.Path)
	c.opts.events.Emit(EventComplete, req)
}

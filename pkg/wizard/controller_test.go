package wizard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/step"
)

type recordingRenderer struct {
	mu    sync.Mutex
	calls []string
	data  map[string]any
	fail  map[string]error
}

func (r *recordingRenderer) RenderTemplate(name string, data any, _ ...io.Writer) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
	if err := r.fail[name]; err != nil {
		return "", err
	}
	locals, _ := data.(map[string]any)
	r.data = locals
	return "rendered:" + name, nil
}

func (r *recordingRenderer) last() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

func sharedSession() (SessionBinder, *MemorySession) {
	s := NewMemorySession()
	return SessionBinderFunc(func(http.ResponseWriter, *http.Request) (Session, error) {
		return s, nil
	}), s
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func personStep() step.Config {
	return step.Config{
		Route:    "/person",
		Template: "person",
		Next:     "/done",
		Fields: []step.Field{
			{Key: "name", Mixin: "input-text", Label: "Full name", Validate: []step.Rule{{Type: "required"}}},
			{Key: "email", Mixin: "input-email", Validate: []step.Rule{{Type: "required"}, {Type: "email"}}},
		},
		Locals: map[string]any{"heading": "About you"},
	}
}

func mustController(t *testing.T, cfg step.Config, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	c, err := NewController(cfg, opts...)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestGetRendersViewModel(t *testing.T) {
	t.Parallel()

	renderer := &recordingRenderer{}
	binder, session := sharedSession()
	session.SaveValues(step.Values{"name": "Ada"})
	c := mustController(t, personStep(), WithRenderer(renderer), WithSessionBinder(binder),
		WithLocals(func(req *Request) map[string]any {
			return map[string]any{"extra": req.Path}
		}))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/person", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "rendered:person" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	locals := renderer.last()
	if locals["action"] != "/person" || locals["route"] != "/person" {
		t.Fatalf("unexpected action/route: %v / %v", locals["action"], locals["route"])
	}
	if locals["heading"] != "About you" || locals["extra"] != "/person" {
		t.Fatalf("expected static and extension locals, got %v", locals)
	}
	if _, ok := locals["errorLength"]; ok {
		t.Fatalf("errorLength must be absent without errors")
	}
	if _, ok := locals["backLink"]; ok {
		t.Fatalf("backLink must be absent when none is configured")
	}
	values := locals["values"].(step.Values)
	if values.String("name") != "Ada" {
		t.Fatalf("expected stored values, got %v", values)
	}

	fields := locals["fields"].([]FieldView)
	var keys, mixins []string
	for _, f := range fields {
		keys = append(keys, f.Key)
		mixins = append(mixins, f.Mixin)
	}
	if diff := cmp.Diff([]string{"name", "email"}, keys); diff != "" {
		t.Fatalf("field keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"input-text", "input-email"}, mixins); diff != "" {
		t.Fatalf("field mixins mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMissingTemplateIsConfigurationFault(t *testing.T) {
	t.Parallel()

	var got error
	cfg := personStep()
	cfg.Template = ""
	c := mustController(t, cfg, WithRenderer(&recordingRenderer{}),
		WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			got = err
			w.WriteHeader(http.StatusInternalServerError)
		}))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/person", nil))

	if !errors.Is(got, ErrMissingTemplate) {
		t.Fatalf("expected ErrMissingTemplate, got %v", got)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGetRendersFallbackTemplate(t *testing.T) {
	t.Parallel()

	renderer := &recordingRenderer{fail: map[string]error{"person": errors.New("lookup failed")}}
	c := mustController(t, personStep(), WithRenderer(renderer), WithFallbackTemplate("default-template"))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/person", nil))

	if rec.Body.String() != "rendered:default-template" {
		t.Fatalf("expected fallback render, got %q", rec.Body.String())
	}
}

func TestUnsupportedMethodIs405(t *testing.T) {
	t.Parallel()

	c := mustController(t, personStep(), WithRenderer(&recordingRenderer{}))

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := httptest.NewRecorder()
		c.ServeHTTP(rec, httptest.NewRequest(method, "/person", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != "GET, HEAD, POST" {
			t.Fatalf("%s: unexpected Allow header %q", method, got)
		}
	}
}

func TestCustomMethodRunsConfiguredStages(t *testing.T) {
	t.Parallel()

	binder, session := sharedSession()
	session.SaveValues(step.Values{"name": "Ada"})
	c := mustController(t, personStep(), WithSessionBinder(binder),
		WithMethod(http.MethodDelete, Stage{Name: "reset", Run: func(req *Request) error {
			if req.Options == nil {
				return errors.New("configure did not run")
			}
			for _, key := range req.Options.FieldKeys() {
				req.Session.Reset(key)
			}
			req.Writer.WriteHeader(http.StatusNoContent)
			return nil
		}}))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/person", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := session.Get("name"); ok {
		t.Fatalf("expected value reset")
	}

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/person", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for PUT, got %d", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD, POST, DELETE" {
		t.Fatalf("unexpected Allow header %q", got)
	}
}

func TestPostValidRedirectsAndCompletesOnce(t *testing.T) {
	t.Parallel()

	binder, session := sharedSession()
	c := mustController(t, personStep(), WithSessionBinder(binder), WithBaseURL("/apply"))

	var completions []string
	c.Events().On(EventComplete, func(_ Event, req *Request) {
		completions = append(completions, req.Path)
	})

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, postForm("/apply/person", url.Values{"name": {"  Ada   Lovelace "}, "email": {"ada@example.com"}}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/apply/done" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if diff := cmp.Diff([]string{"/person"}, completions); diff != "" {
		t.Fatalf("complete events mismatch (-want +got):\n%s", diff)
	}
	want := step.Values{"name": "Ada Lovelace", "email": "ada@example.com"}
	if diff := cmp.Diff(want, session.Values()); diff != "" {
		t.Fatalf("stored values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/person"}, session.Visited()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestPostAccumulatesErrorsAndSkipsFormValidator(t *testing.T) {
	t.Parallel()

	binder, session := sharedSession()
	cfg := personStep()
	formValidated := false
	cfg.Validate = func(step.Context) error {
		formValidated = true
		return nil
	}
	renderer := &recordingRenderer{}
	c := mustController(t, cfg, WithSessionBinder(binder), WithRenderer(renderer))

	var failed Errors
	completed := 0
	c.Events().On(EventValidationFailed, func(_ Event, req *Request) { failed = req.Errors })
	c.Events().On(EventComplete, func(Event, *Request) { completed++ })

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, postForm("/person", url.Values{"email": {"not-an-email"}}))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/person" {
		t.Fatalf("expected redirect back to the step, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if formValidated {
		t.Fatalf("form validator must not run when fields failed")
	}
	if completed != 0 {
		t.Fatalf("complete must not fire on failure")
	}
	want := Errors{
		"name":  {Key: "name", Type: "required"},
		"email": {Key: "email", Type: "email"},
	}
	if diff := cmp.Diff(want, failed); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	wantStored := Errors{
		"name":  {Key: "name", Type: "required", Step: "/person"},
		"email": {Key: "email", Type: "email", Step: "/person"},
	}
	if diff := cmp.Diff(wantStored, session.Errors()); diff != "" {
		t.Fatalf("persisted errors mismatch (-want +got):\n%s", diff)
	}

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/person", nil))
	locals := renderer.last()
	if diff := cmp.Diff(map[string]bool{"multiple": true}, locals["errorLength"]); diff != "" {
		t.Fatalf("errorLength mismatch (-want +got):\n%s", diff)
	}
	list := locals["errorlist"].([]*ValidationError)
	if len(list) != 2 || list[0].Key != "name" || list[1].Key != "email" {
		t.Fatalf("unexpected errorlist %+v", list)
	}
	if list[0].Message != "Full name is required" || list[1].Message != "email must be a valid email address" {
		t.Fatalf("unexpected messages %q / %q", list[0].Message, list[1].Message)
	}
	if got := locals["values"].(step.Values).String("email"); got != "not-an-email" {
		t.Fatalf("expected failed submission values, got %q", got)
	}

	c.ServeHTTP(httptest.NewRecorder(), postForm("/person", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}}))
	if len(session.Errors()) != 0 {
		t.Fatalf("successful POST must clear errors")
	}
}

func TestPostGroupedErrorsLastWriteWins(t *testing.T) {
	t.Parallel()

	cfg := step.Config{
		Route:    "/dob",
		Template: "dob",
		Next:     "/next",
		Fields: []step.Field{
			{Key: "day", Group: "dob", Validate: []step.Rule{{Type: "required"}}},
			{Key: "month", Group: "dob", Validate: []step.Rule{{Type: "numeric"}}},
		},
	}
	var failed Errors
	c := mustController(t, cfg)
	c.Events().On(EventValidationFailed, func(_ Event, req *Request) { failed = req.Errors })

	c.ServeHTTP(httptest.NewRecorder(), postForm("/dob", url.Values{"month": {"june"}}))

	want := Errors{"dob": {Key: "month", Group: "dob", Type: "numeric"}}
	if diff := cmp.Diff(want, failed); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFormValidatorRunsOnlyWhenFieldsPass(t *testing.T) {
	t.Parallel()

	cfg := personStep()
	cfg.Validate = func(ctx step.Context) error {
		if ctx.FormValues().String("name") == "Bruce" {
			return Errors{"name": {Key: "name", Type: "taken", Redirect: "/taken"}}
		}
		if ctx.FormValues().String("name") == "Crash" {
			return errors.New("database unavailable")
		}
		return nil
	}

	var systemErr error
	c := mustController(t, cfg, WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		systemErr = err
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, postForm("/person", url.Values{"name": {"Bruce"}, "email": {"b@wayne.com"}}))
	if rec.Header().Get("Location") != "/taken" {
		t.Fatalf("expected redirect override, got %q", rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, postForm("/person", url.Values{"name": {"Crash"}, "email": {"c@example.com"}}))
	if rec.Code != http.StatusInternalServerError || systemErr == nil || systemErr.Error() != "database unavailable" {
		t.Fatalf("expected system fault to reach the error handler unchanged, got %d %v", rec.Code, systemErr)
	}
}

func TestWholeFormErrorSurvivesRedirect(t *testing.T) {
	t.Parallel()

	binder, session := sharedSession()
	cfg := step.Config{
		Route:    "/trip",
		Template: "trip",
		Next:     "/done",
		Fields: []step.Field{
			{Key: "from", Mixin: "input-date"},
			{Key: "to", Mixin: "input-date"},
		},
	}
	cfg.Validate = func(ctx step.Context) error {
		if ctx.FormValues().String("from") > ctx.FormValues().String("to") {
			return Errors{"dates": {Key: "dates", Type: "before"}}
		}
		return nil
	}
	renderer := &recordingRenderer{}
	c := mustController(t, cfg, WithSessionBinder(binder), WithRenderer(renderer))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, postForm("/trip", url.Values{"from": {"2024-06-02"}, "to": {"2024-06-01"}}))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/trip" {
		t.Fatalf("expected redirect back to the step, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trip", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d", rec.Code)
	}
	errs := renderer.last()["errors"].(Errors)
	got, ok := errs["dates"]
	if !ok {
		t.Fatalf("whole-form error dropped from the view: %v", errs)
	}
	if got.Type != "before" || got.Step != "/trip" {
		t.Fatalf("unexpected whole-form error %+v", got)
	}
	list := renderer.last()["errorlist"].([]*ValidationError)
	if len(list) != 1 || list[0].Key != "dates" {
		t.Fatalf("unexpected errorlist %+v", list)
	}

	// Another step sharing the session must not pick it up.
	other := mustController(t, personStep(), WithSessionBinder(binder), WithRenderer(renderer))
	other.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/person", nil))
	if errs := renderer.last()["errors"].(Errors); len(errs) != 0 {
		t.Fatalf("errors of /trip leaked into /person: %v", errs)
	}
	if len(session.Errors()) != 1 {
		t.Fatalf("GET must not clear persisted errors")
	}
}

func TestDefaultErrorHandlerUsesStatus(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	handler := defaultErrorHandler(logger)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/x", nil), StatusError{Code: http.StatusBadRequest})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected error log entry, got %+v", entry)
	}
}

func TestFieldlessStepEmitsCompleteOnGet(t *testing.T) {
	t.Parallel()

	renderer := &recordingRenderer{}
	c := mustController(t, step.Config{Route: "/intro", Template: "intro", Next: "/person"}, WithRenderer(renderer))
	count := 0
	c.Events().On(EventComplete, func(Event, *Request) { count++ })

	c.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/intro", nil))
	if count != 1 {
		t.Fatalf("expected one complete event, got %d", count)
	}

	terminal := mustController(t, step.Config{Route: "/end", Template: "end"}, WithRenderer(renderer))
	terminal.Events().On(EventComplete, func(Event, *Request) { count++ })
	terminal.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/end", nil))
	if count != 1 {
		t.Fatalf("fieldless step without next must not complete, got %d", count)
	}
}

func TestHeadOnFieldlessStepDoesNotComplete(t *testing.T) {
	t.Parallel()

	binder, session := sharedSession()
	c := mustController(t, step.Config{Route: "/intro", Template: "intro", Next: "/person"},
		WithSessionBinder(binder), WithRenderer(&recordingRenderer{}))
	count := 0
	c.Events().On(EventComplete, func(Event, *Request) { count++ })

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/intro", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("HEAD = %d", rec.Code)
	}
	if count != 0 {
		t.Fatalf("HEAD must not emit complete, got %d", count)
	}
	if got := session.Visited(); len(got) != 0 {
		t.Fatalf("HEAD must not record a visit, got %v", got)
	}

	c.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/intro", nil))
	if count != 1 {
		t.Fatalf("GET should still complete, got %d", count)
	}
	if diff := cmp.Diff([]string{"/intro"}, session.Visited()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestEditModeThroughRoute(t *testing.T) {
	t.Parallel()

	binder, session := sharedSession()
	session.CompleteStep("/done")
	c := mustController(t, personStep(), WithSessionBinder(binder))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, postForm("/person/edit", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}}))
	if loc := rec.Header().Get("Location"); loc != "/confirm" {
		t.Fatalf("expected confirm redirect, got %q", loc)
	}

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, postForm("/person/edit", url.Values{"email": {"ada@example.com"}}))
	if loc := rec.Header().Get("Location"); loc != "/person/edit" {
		t.Fatalf("expected edit error redirect, got %q", loc)
	}
}

func TestHooksWrapStagesInOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var trace []string
	record := func(name string) step.HookFunc {
		return func(step.Context) error {
			mu.Lock()
			defer mu.Unlock()
			trace = append(trace, name)
			return nil
		}
	}

	cfg := personStep()
	cfg.Hooks.Add(step.Pre(StageProcess), record("step:pre-process"))
	cfg.Hooks.Add(step.Post(StageValidate), record("step:post-validate"))

	var global step.Hooks
	for _, stage := range []string{StageConfigure, StageClearErrors, StageProcess, StageValidate, StageSaveValues, StageSuccessHandler} {
		global.Add(step.Pre(stage), record("pre-"+stage))
	}
	c := mustController(t, cfg, WithLifecycleHooks(HookSet(global)))

	c.ServeHTTP(httptest.NewRecorder(), postForm("/person", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}}))

	want := []string{
		"pre-configure",
		"pre-clearErrors",
		"step:pre-process",
		"pre-process",
		"pre-validate",
		"step:post-validate",
		"pre-saveValues",
		"pre-successHandler",
	}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Fatalf("hook order mismatch (-want +got):\n%s", diff)
	}
}

func TestHookErrorAbortsPipeline(t *testing.T) {
	t.Parallel()

	cfg := personStep()
	saved := false
	cfg.Hooks.Add(step.Pre(StageValidate), func(step.Context) error { return fmt.Errorf("blocked") })
	cfg.Hooks.Add(step.Pre(StageSaveValues), func(step.Context) error {
		saved = true
		return nil
	})

	var got error
	c := mustController(t, cfg, WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c.ServeHTTP(httptest.NewRecorder(), postForm("/person", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}}))

	if got == nil || got.Error() != "blocked" {
		t.Fatalf("expected hook error, got %v", got)
	}
	if saved {
		t.Fatalf("later stages must not run")
	}
}

func TestRequestConfigIsIsolated(t *testing.T) {
	t.Parallel()

	cfg := personStep()
	cfg.Locals = map[string]any{"nested": map[string]any{"count": 0}}
	cfg.Hooks.Add(step.Post(StageConfigure), func(ctx step.Context) error {
		opts := ctx.Config()
		if opts.Next != "/done" || len(opts.Fields) != 2 {
			return fmt.Errorf("observed mutated config: next=%q fields=%d", opts.Next, len(opts.Fields))
		}
		nested := opts.Locals["nested"].(map[string]any)
		if nested["count"] != 0 {
			return fmt.Errorf("observed mutated locals: %v", nested["count"])
		}
		opts.Next = "/hijacked"
		opts.Fields = append(opts.Fields, step.Field{Key: "injected"})
		opts.Fields[0].Validate = nil
		nested["count"] = 1
		return nil
	})

	var mu sync.Mutex
	var failures []error
	c := mustController(t, cfg, WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ServeHTTP(httptest.NewRecorder(), postForm("/person", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}}))
		}()
	}
	wg.Wait()

	if len(failures) != 0 {
		t.Fatalf("requests observed each other's mutations: %v", failures)
	}
	if got := c.Config(); got.Next != "/done" || len(got.Fields) != 2 || len(got.Fields[0].Validate) != 1 {
		t.Fatalf("controller config mutated: %+v", got)
	}
}

func TestRequestLocalsAreDeepCopied(t *testing.T) {
	t.Parallel()

	cfg := personStep()
	cfg.Locals = map[string]any{
		"tags": map[string][]string{"k": {"original"}},
		"nums": []int{1, 2, 3},
	}
	cfg.Hooks.Add(step.Post(StageConfigure), func(ctx step.Context) error {
		locals := ctx.Config().Locals
		tags := locals["tags"].(map[string][]string)
		nums := locals["nums"].([]int)
		if tags["k"][0] != "original" || nums[0] != 1 {
			return fmt.Errorf("observed mutated locals: tags=%v nums=%v", tags, nums)
		}
		tags["k"][0] = "mutated"
		nums[0] = 99
		return nil
	})

	var failures []error
	c := mustController(t, cfg, WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		failures = append(failures, err)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		c.ServeHTTP(rec, postForm("/person", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}}))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("POST %d = %d (%v)", i, rec.Code, failures)
		}
	}
	if len(failures) != 0 {
		t.Fatalf("second request observed the first one's mutations: %v", failures)
	}
	locals := c.Config().Locals
	if diff := cmp.Diff(map[string][]string{"k": {"original"}}, locals["tags"]); diff != "" {
		t.Fatalf("controller tags mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, locals["nums"]); diff != "" {
		t.Fatalf("controller nums mutated (-want +got):\n%s", diff)
	}
}

func TestTranslatorLocalisesMessages(t *testing.T) {
	t.Parallel()

	catalog := render.NewCatalog("en")
	catalog.Add("en", map[string]string{"validation.default.required": "Please fill in {label}"})
	catalog.Add("cy", map[string]string{"validation.name.required": "Rhowch eich enw"})

	binder, session := sharedSession()
	session.SetErrors(Errors{
		"name":  {Key: "name", Type: "required"},
		"email": {Key: "email", Type: "required"},
		"other": {Key: "other", Type: "required"},
	}, nil)
	renderer := &recordingRenderer{}
	c := mustController(t, personStep(), WithSessionBinder(binder), WithRenderer(renderer), WithTranslator(catalog))

	req := httptest.NewRequest(http.MethodGet, "/person", nil)
	req.Header.Set("Accept-Language", "cy-GB,cy;q=0.9,en;q=0.8")
	c.ServeHTTP(httptest.NewRecorder(), req)

	errs := renderer.last()["errors"].(Errors)
	if _, ok := errs["other"]; ok {
		t.Fatalf("errors of other steps must be filtered out")
	}
	if got := errs["name"].Message; got != "Rhowch eich enw" {
		t.Fatalf("unexpected name message %q", got)
	}
	if got := errs["email"].Message; got != "Please fill in email" {
		t.Fatalf("unexpected email message %q", got)
	}
	if diff := cmp.Diff(map[string]bool{"multiple": true}, renderer.last()["errorLength"]); diff != "" {
		t.Fatalf("errorLength mismatch (-want +got):\n%s", diff)
	}
}

package wizard

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-formwizard/pkg/step"
)

func journeySteps() []step.Config {
	return []step.Config{
		{
			Route:      "/name",
			Template:   "name",
			Next:       "/pet",
			EntryPoint: true,
			Fields:     []step.Field{{Key: "name", Validate: []step.Rule{{Type: "required"}}}},
		},
		{
			Route:        "/pet",
			Template:     "pet",
			Next:         "/confirm",
			CheckJourney: true,
			Fields:       []step.Field{{Key: "has-pet", Options: []string{"yes", "no"}}},
			Forks:        []step.Fork{{Target: "/pet-name", Condition: step.FieldEquals("has-pet", "yes")}},
		},
		{
			Route:        "/pet-name",
			Template:     "pet-name",
			Next:         "/confirm",
			CheckJourney: true,
			Fields:       []step.Field{{Key: "pet-name"}},
		},
		{
			Route:        "/confirm",
			Template:     "confirm",
			CheckJourney: true,
		},
	}
}

func newJourney(t *testing.T, opts ...Option) (*Wizard, *MemorySession, *recordingRenderer, http.Handler) {
	t.Helper()
	binder, session := sharedSession()
	renderer := &recordingRenderer{}
	opts = append([]Option{WithLogger(quietLogger()), WithSessionBinder(binder), WithRenderer(renderer)}, opts...)
	w, err := New("/apply", journeySteps(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, session, renderer, w.Handler()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWizardRegisterRoutes(t *testing.T) {
	t.Parallel()

	w, _, _, _ := newJourney(t)
	router := mux.NewRouter()
	got := w.RegisterRoutes(router)
	want := []string{
		"/apply/name", "/apply/name/{action:edit}",
		"/apply/pet", "/apply/pet/{action:edit}",
		"/apply/pet-name", "/apply/pet-name/{action:edit}",
		"/apply/confirm", "/apply/confirm/{action:edit}",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/name", "/pet", "/pet-name", "/confirm"}, w.Routes()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
	if _, ok := w.Step("/pet"); !ok {
		t.Fatalf("expected /pet controller")
	}
}

func TestWizardRejectsInvalidSteps(t *testing.T) {
	t.Parallel()

	if _, err := New("/", nil); err == nil {
		t.Fatalf("expected error for no steps")
	}
	if _, err := New("/", []step.Config{{Route: "/a"}, {Route: "a"}}); err == nil {
		t.Fatalf("expected duplicate route error")
	}
	if _, err := New("/", []step.Config{{Template: "x"}}); err == nil {
		t.Fatalf("expected missing route error")
	}
	bad := []step.Config{{Route: "/a", Fields: []step.Field{{Key: "x", Validate: []step.Rule{{Type: "nope"}}}}}}
	if _, err := New("/", bad); err == nil {
		t.Fatalf("expected unknown validator error")
	}
}

func TestWizardJourney(t *testing.T) {
	t.Parallel()

	_, session, renderer, h := newJourney(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/apply/pet", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/apply/name" {
		t.Fatalf("expected journey redirect to entry point, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = serve(h, postForm("/apply/name", url.Values{"name": {"Ada"}}))
	if rec.Header().Get("Location") != "/apply/pet" {
		t.Fatalf("unexpected redirect %q", rec.Header().Get("Location"))
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/apply/pet-name", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/apply/name" {
		t.Fatalf("expected journey redirect to last visited step, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/apply/pet", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pet step to render, got %d", rec.Code)
	}
	if got := renderer.last()["backLink"]; got != "/apply/name" {
		t.Fatalf("unexpected backLink %v", got)
	}

	rec = serve(h, postForm("/apply/pet", url.Values{"has-pet": {"maybe"}}))
	if rec.Header().Get("Location") != "/apply/pet" {
		t.Fatalf("expected options validation failure, got %q", rec.Header().Get("Location"))
	}

	rec = serve(h, postForm("/apply/pet", url.Values{"has-pet": {"yes"}}))
	if rec.Header().Get("Location") != "/apply/pet-name" {
		t.Fatalf("expected fork redirect, got %q", rec.Header().Get("Location"))
	}

	serve(h, postForm("/apply/pet-name", url.Values{"pet-name": {"Rex"}}))
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/apply/confirm", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected confirm to render, got %d", rec.Code)
	}
	values := renderer.last()["values"].(step.Values)
	if values.String("name") != "Ada" || values.String("pet-name") != "Rex" {
		t.Fatalf("expected values from every step, got %v", values)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/apply/name/edit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected edit route to render, got %d", rec.Code)
	}
	if got := renderer.last()["action"]; got != "/apply/name/edit" {
		t.Fatalf("unexpected edit action %v", got)
	}

	rec = serve(h, postForm("/apply/name/edit", url.Values{"name": {"Grace"}}))
	if rec.Header().Get("Location") != "/apply/confirm" {
		t.Fatalf("expected edit to return to confirm, got %q", rec.Header().Get("Location"))
	}

	rec = serve(h, postForm("/apply/pet/edit", url.Values{"has-pet": {"no"}}))
	if rec.Header().Get("Location") != "/apply/confirm" {
		t.Fatalf("expected visited confirm, got %q", rec.Header().Get("Location"))
	}

	if diff := cmp.Diff([]string{"/pet-name", "/name", "/pet"}, session.Visited()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	rec = serve(h, httptest.NewRequest(http.MethodPatch, "/apply/name", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 through router, got %d", rec.Code)
	}
}

func TestWizardSharesEvents(t *testing.T) {
	t.Parallel()

	events := NewEvents()
	var completed []string
	events.On(EventComplete, func(_ Event, req *Request) { completed = append(completed, req.Path) })
	w, _, _, h := newJourney(t, WithEvents(events))
	if w.Events() != events {
		t.Fatalf("expected shared registry")
	}

	serve(h, postForm("/apply/name", url.Values{"name": {"Ada"}}))
	serve(h, postForm("/apply/pet", url.Values{"has-pet": {"no"}}))
	if diff := cmp.Diff([]string{"/name", "/pet"}, completed); diff != "" {
		t.Fatalf("completions mismatch (-want +got):\n%s", diff)
	}
}

package wizard

import (
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/step"
)

func resolverRequest(base, path string, values step.Values, cfg step.Config, visited ...string) *Request {
	if err := cfg.Normalize(); err != nil {
		panic(err)
	}
	session := NewMemorySession()
	for _, route := range visited {
		session.CompleteStep(route)
	}
	return &Request{
		HTTP:    httptest.NewRequest("POST", base+path, nil),
		Options: &cfg,
		Values:  values,
		BaseURL: base,
		Path:    path,
		Params:  map[string]string{},
		Session: session,
	}
}

func editing(req *Request) *Request {
	req.Params["action"] = EditAction
	return req
}

func radioIs(value string) step.Condition {
	return step.Predicate(func(ctx step.Context) bool {
		return ctx.FormValues().String("example-radio") == value
	})
}

func TestNextStepForkOrdering(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		forks  []step.Fork
		values step.Values
		want   string
	}{
		{
			name:   "no forks uses next",
			values: step.Values{},
			want:   "/next-page",
		},
		{
			name: "matching declarative fork",
			forks: []step.Fork{
				{Target: "/target-page", Condition: step.FieldEquals("example-radio", "superman")},
			},
			values: step.Values{"example-radio": "superman"},
			want:   "/target-page",
		},
		{
			name: "non matching declarative fork",
			forks: []step.Fork{
				{Target: "/target-page", Condition: step.FieldEquals("example-radio", "lex luther")},
			},
			values: step.Values{"example-radio": "superman"},
			want:   "/next-page",
		},
		{
			name: "matching predicate fork",
			forks: []step.Fork{
				{Target: "/target-page", Condition: radioIs("superman")},
			},
			values: step.Values{"example-radio": "superman"},
			want:   "/target-page",
		},
		{
			name: "non matching predicate fork",
			forks: []step.Fork{
				{Target: "/target-page", Condition: radioIs("batman")},
			},
			values: step.Values{"example-radio": "superman"},
			want:   "/next-page",
		},
		{
			name: "last true fork wins",
			forks: []step.Fork{
				{Target: "/superman-page", Condition: step.FieldEquals("example-radio", "superman")},
				{Target: "/batman-page", Condition: step.FieldEquals("example-radio", "superman")},
			},
			values: step.Values{"example-radio": "superman"},
			want:   "/batman-page",
		},
		{
			name: "both conditions on different fields met",
			forks: []step.Fork{
				{Target: "/superman-page", Condition: step.FieldEquals("example-radio", "superman")},
				{Target: "/smallville-page", Condition: step.FieldEquals("example-email", "clarke@smallville.com")},
			},
			values: step.Values{"example-radio": "superman", "example-email": "clarke@smallville.com"},
			want:   "/smallville-page",
		},
		{
			name: "false fork never resets an earlier match",
			forks: []step.Fork{
				{Target: "/superman-page", Condition: step.FieldEquals("example-radio", "superman")},
				{Target: "/smallville-page", Condition: step.FieldEquals("example-email", "clarke@smallville.com")},
			},
			values: step.Values{"example-radio": "superman", "example-email": "kent@smallville.com"},
			want:   "/superman-page",
		},
		{
			name: "predicate and declarative share ordering",
			forks: []step.Fork{
				{Target: "/declared", Condition: step.FieldEquals("example-radio", "superman")},
				{Target: "/predicate", Condition: radioIs("superman")},
			},
			values: step.Values{"example-radio": "superman"},
			want:   "/predicate",
		},
		{
			name: "zero condition never matches",
			forks: []step.Fork{
				{Target: "/declared", Condition: step.FieldEquals("example-radio", "superman")},
				{Target: "/never"},
			},
			values: step.Values{"example-radio": "superman"},
			want:   "/declared",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := resolverRequest("/", "/current", tc.values, step.Config{Next: "/next-page", Forks: tc.forks})
			if got := NextStep(req); got != tc.want {
				t.Fatalf("NextStep() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNextStepBasePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base, next, want string
	}{
		{"/", "/next-page", "/next-page"},
		{"", "/next-page", "/next-page"},
		{"/base", "/next-page", "/base/next-page"},
		{"/base", "https://example.com/done", "https://example.com/done"},
		{"/base", "http://example.com/done", "http://example.com/done"},
	}
	for _, tc := range cases {
		req := resolverRequest(tc.base, "/current", step.Values{}, step.Config{Next: tc.next})
		if got := NextStep(req); got != tc.want {
			t.Fatalf("NextStep(base=%q, next=%q) = %q, want %q", tc.base, tc.next, got, tc.want)
		}
	}
}

func TestNextStepWithoutNextStaysOnCurrentPath(t *testing.T) {
	t.Parallel()

	req := resolverRequest("/base", "/current", step.Values{}, step.Config{})
	if got := NextStep(req); got != "/base/current" {
		t.Fatalf("NextStep() = %q", got)
	}
}

func TestNextStepEditMode(t *testing.T) {
	t.Parallel()

	fork := []step.Fork{{Target: "/target-page", Condition: radioIs("superman")}}

	cases := []struct {
		name           string
		base           string
		values         step.Values
		continueOnEdit bool
		visited        []string
		next           string
		want           string
	}{
		{
			name:    "visited fork target returns confirm",
			base:    "/",
			values:  step.Values{"example-radio": "superman"},
			visited: []string{"/target-page"},
			next:    "/next-page",
			want:    "/confirm",
		},
		{
			name:    "visited fork target returns confirm under base",
			base:    "/a-base-url",
			values:  step.Values{"example-radio": "superman"},
			visited: []string{"/target-page"},
			next:    "/next-page",
			want:    "/a-base-url/confirm",
		},
		{
			name:           "visited fork target continues on edit",
			base:           "/a-base-url",
			values:         step.Values{"example-radio": "superman"},
			continueOnEdit: true,
			visited:        []string{"/target-page"},
			next:           "/next-page",
			want:           "/a-base-url/target-page/edit",
		},
		{
			name:   "unvisited fork target is walked without edit marker",
			base:   "/",
			values: step.Values{"example-radio": "superman"},
			next:   "/next-page",
			want:   "/target-page",
		},
		{
			name:    "visited standard path returns confirm",
			base:    "/",
			values:  step.Values{"example-radio": "clark-kent"},
			visited: []string{"/next-page"},
			next:    "/next-page",
			want:    "/confirm",
		},
		{
			name:   "unvisited standard path is walked",
			base:   "/",
			values: step.Values{"example-radio": "clark-kent"},
			next:   "/next-page",
			want:   "/next-page",
		},
		{
			name:           "continue on edit appends marker",
			base:           "/",
			values:         step.Values{},
			continueOnEdit: true,
			next:           "/next-page",
			want:           "/next-page/edit",
		},
		{
			name:           "confirm never gets the edit marker",
			base:           "/",
			values:         step.Values{},
			continueOnEdit: true,
			next:           "/confirm",
			want:           "/confirm",
		},
		{
			name:    "confirm passthrough under base",
			base:    "/base",
			values:  step.Values{},
			visited: []string{"/confirm"},
			next:    "/confirm",
			want:    "/base/confirm",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := step.Config{Next: tc.next, Forks: fork, ContinueOnEdit: tc.continueOnEdit}
			req := editing(resolverRequest(tc.base, "/current", tc.values, cfg, tc.visited...))
			if got := NextStep(req); got != tc.want {
				t.Fatalf("NextStep() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNextStepEditModeCustomConfirmStep(t *testing.T) {
	t.Parallel()

	cfg := step.Config{Next: "/summary", ConfirmStep: "/summary", ContinueOnEdit: true}
	req := editing(resolverRequest("/", "/current", step.Values{}, cfg))
	if got := NextStep(req); got != "/summary" {
		t.Fatalf("NextStep() = %q", got)
	}
}

func TestErrorStep(t *testing.T) {
	t.Parallel()

	fields := []step.Field{{Key: "first"}, {Key: "second"}}

	cases := []struct {
		name string
		base string
		edit bool
		path string
		errs Errors
		want string
	}{
		{
			name: "no redirect uses current path",
			base: "/",
			path: "/current",
			errs: Errors{"first": {Key: "first", Type: "required"}},
			want: "/current",
		},
		{
			name: "every error redirects uses first in field order",
			base: "/",
			path: "/current",
			errs: Errors{
				"second": {Key: "second", Type: "required", Redirect: "/second-help"},
				"first":  {Key: "first", Type: "required", Redirect: "/first-help"},
			},
			want: "/first-help",
		},
		{
			name: "one error without redirect uses current path",
			base: "/",
			path: "/current",
			errs: Errors{
				"first":  {Key: "first", Type: "required", Redirect: "/first-help"},
				"second": {Key: "second", Type: "required"},
			},
			want: "/current",
		},
		{
			name: "base path prefixed",
			base: "/base",
			path: "/current",
			errs: Errors{"first": {Key: "first", Type: "required", Redirect: "/help"}},
			want: "/base/help",
		},
		{
			name: "absolute redirect not prefixed",
			base: "/base",
			path: "/current",
			errs: Errors{"first": {Key: "first", Type: "required", Redirect: "https://example.com/help"}},
			want: "https://example.com/help",
		},
		{
			name: "edit appends marker",
			base: "/",
			edit: true,
			path: "/",
			errs: Errors{"first": {Key: "first", Type: "required"}},
			want: "/edit",
		},
		{
			name: "edit marker already present at end",
			base: "/",
			edit: true,
			path: "/current",
			errs: Errors{"first": {Key: "first", Type: "required", Redirect: "/a-path/edit"}},
			want: "/a-path/edit",
		},
		{
			name: "edit marker already present in the middle",
			base: "/",
			edit: true,
			path: "/current",
			errs: Errors{"first": {Key: "first", Type: "required", Redirect: "/a-path/edit/id"}},
			want: "/a-path/edit/id",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := resolverRequest(tc.base, tc.path, step.Values{}, step.Config{Fields: fields})
			if tc.edit {
				editing(req)
			}
			if got := ErrorStep(tc.errs, req); got != tc.want {
				t.Fatalf("ErrorStep() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBackLink(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }

	cases := []struct {
		name    string
		link    *string
		base    string
		editing bool
		want    *string
	}{
		{name: "empty stays empty", link: str(""), base: "/base", want: str("")},
		{name: "empty stays empty when editing", link: str(""), base: "/", editing: true, want: str("")},
		{name: "nil stays nil", link: nil, base: "/", editing: true, want: nil},
		{name: "unaltered with base", link: str("backLink"), base: "/base", want: str("backLink")},
		{name: "root base prepends slash", link: str("backLink"), base: "/", want: str("/backLink")},
		{name: "empty base prepends slash", link: str("backLink"), base: "", want: str("/backLink")},
		{name: "slash not doubled", link: str("/backLink"), base: "/", want: str("/backLink")},
		{name: "edit appends marker", link: str("backLink"), base: "/base", editing: true, want: str("backLink/edit")},
		{name: "edit and root base", link: str("backLink"), base: "/", editing: true, want: str("/backLink/edit")},
		{name: "edit marker not doubled", link: str("backLink/edit"), base: "/base", editing: true, want: str("backLink/edit")},
	}

	for _, tc := range cases {
		got := BackLink(tc.link, tc.base, tc.editing)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: BackLink mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestResolveNextIgnoresVisitedOutsideEditMode(t *testing.T) {
	t.Parallel()

	cfg := &step.Config{Next: "/next"}
	if got := ResolveNext(cfg, nil, "/current", false, []string{"/next"}); got != "/next" {
		t.Fatalf("ResolveNext() = %q", got)
	}
	if got := ResolveNext(nil, nil, "/current", true, nil); got != "/current" {
		t.Fatalf("ResolveNext(nil) = %q", got)
	}
}

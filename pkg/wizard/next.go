package wizard

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/step"
)

var absoluteURL = regexp.MustCompile(`^https?://`)

// ResolveNext computes the next route for cfg without any base path. current
// is the route being submitted; visited is the completed-step history
// consulted in edit mode.
//
// Forks are folded in declaration order starting from cfg.Next: every fork
// whose condition holds replaces the result, a failing condition leaves it
// untouched, so the last matching fork wins.
//
// In edit mode the confirmation step is returned unchanged. Otherwise a step
// that continues on edit keeps the user in edit mode on the next step, a
// target that was already visited short-circuits to confirmation and an
// unvisited target is returned as is so the new branch gets walked.
func ResolveNext(cfg *step.Config, ctx step.Context, current string, editing bool, visited []string) string {
	if cfg == nil {
		return current
	}
	next := cfg.Next
	if next == "" {
		next = current
	}
	for _, fork := range cfg.Forks {
		if fork.Condition.Eval(ctx) {
			next = fork.Target
		}
	}
	if !editing {
		return next
	}

	confirm := cfg.ConfirmStep
	if confirm == "" {
		confirm = step.DefaultConfirmStep
	}
	if next == confirm {
		return next
	}
	if cfg.ContinueOnEdit {
		return withEdit(next)
	}
	for _, route := range visited {
		if route == next {
			return confirm
		}
	}
	return next
}

// NextStep resolves where a successful submission redirects to.
func NextStep(req *Request) string {
	var visited []string
	if req.Editing() && req.Session != nil {
		visited = req.Session.Visited()
	}
	next := ResolveNext(req.Options, req, req.Path, req.Editing(), visited)
	return prefixBase(req.BaseURL, next)
}

// ErrorStep resolves where a rejected submission redirects to. When every
// error names a redirect the first one (in field order) is used, otherwise
// the current step. Edit mode keeps the edit action.
func ErrorStep(errs Errors, req *Request) string {
	redirect := req.Path
	var fields []step.Field
	if req.Options != nil {
		fields = req.Options.Fields
	}
	ordered := errs.Ordered(fields)
	all := len(ordered) > 0
	for _, err := range ordered {
		if err.Redirect == "" {
			all = false
			break
		}
	}
	if all {
		redirect = ordered[0].Redirect
	}
	redirect = prefixBase(req.BaseURL, redirect)
	if req.Editing() && !hasEdit(redirect) {
		redirect = withEdit(redirect)
	}
	return redirect
}

// BackLink adjusts a back link for the mount point and edit mode. A nil link
// stays nil and an empty link stays empty. A wizard mounted at the root gets a
// leading slash; edit mode appends the edit action once.
func BackLink(link *string, base string, editing bool) *string {
	if link == nil {
		return nil
	}
	out := *link
	if out == "" {
		return &out
	}
	if (base == "" || base == "/") && !strings.HasPrefix(out, "/") && !absoluteURL.MatchString(out) {
		out = "/" + out
	}
	if editing && !hasEdit(out) {
		out = withEdit(out)
	}
	return &out
}

func prefixBase(base, path string) string {
	if base == "" || base == "/" || absoluteURL.MatchString(path) {
		return path
	}
	return strings.TrimRight(base, "/") + path
}

func hasEdit(path string) bool {
	marker := "/" + EditAction
	return strings.HasSuffix(path, marker) || strings.Contains(path, marker+"/")
}

func withEdit(path string) string {
	return strings.TrimRight(path, "/") + "/" + EditAction
}

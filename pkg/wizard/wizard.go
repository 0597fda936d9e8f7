package wizard

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// Wizard groups the step controllers of one journey under a base path. All
// steps share the session binder, renderer, events and logger.
type Wizard struct {
	base        string
	order       []string
	steps       map[string]*step.Config
	controllers map[string]*Controller
	opts        options
}

// New builds a controller per step. Routes must be unique and non-empty.
func New(base string, steps []step.Config, opts ...Option) (*Wizard, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("wizard: at least one step is required")
	}
	w := &Wizard{
		base:        normalizeBase(base),
		steps:       make(map[string]*step.Config, len(steps)),
		controllers: make(map[string]*Controller, len(steps)),
	}
	w.opts = newOptions(opts...)
	w.opts.baseURL = w.base
	w.opts.backLink = w.previousStep
	w.opts.journey = w.checkJourney

	for idx := range steps {
		cfg := steps[idx].Clone()
		route := strings.TrimSpace(cfg.Route)
		if route == "" {
			return nil, fmt.Errorf("wizard: step at index %d has no route", idx)
		}
		if !strings.HasPrefix(route, "/") {
			route = "/" + route
		}
		if _, exists := w.steps[route]; exists {
			return nil, fmt.Errorf("wizard: duplicate step %q", route)
		}
		cfg.Route = route

		c, err := newController(cfg, w.opts)
		if err != nil {
			return nil, err
		}
		stored := c.cfg
		w.steps[route] = &stored
		w.controllers[route] = c
		w.order = append(w.order, route)
	}
	return w, nil
}

// Base returns the mount point.
func (w *Wizard) Base() string { return w.base }

// Routes lists step routes in declaration order.
func (w *Wizard) Routes() []string { return append([]string(nil), w.order...) }

// Step returns the controller serving route.
func (w *Wizard) Step(route string) (*Controller, bool) {
	c, ok := w.controllers[route]
	return c, ok
}

// Events returns the registry shared by every step.
func (w *Wizard) Events() *Events { return w.opts.events }

// RegisterRoutes mounts every step at base+route and base+route+"/edit".
// Methods are not restricted at the router so the controllers can answer
// unsupported verbs with 405.
func (w *Wizard) RegisterRoutes(router *mux.Router) []string {
	patterns := make([]string, 0, len(w.order)*2)
	for _, route := range w.order {
		c := w.controllers[route]
		pattern := mountPath(w.base, route)
		editPattern := strings.TrimRight(pattern, "/") + "/{action:" + EditAction + "}"
		router.Handle(pattern, c)
		router.Handle(editPattern, c)
		patterns = append(patterns, pattern, editPattern)
	}
	return patterns
}

// Handler returns a router serving only this wizard.
func (w *Wizard) Handler() http.Handler {
	router := mux.NewRouter()
	w.RegisterRoutes(router)
	return router
}

func mountPath(base, route string) string {
	if base == "" || base == "/" {
		return route
	}
	return strings.TrimRight(base, "/") + route
}

// reachable reports whether route can be reached from the visited history:
// it was visited already or a visited step leads to it.
func (w *Wizard) reachable(route string, visited []string) bool {
	for _, done := range visited {
		if done == route {
			return true
		}
		cfg, ok := w.steps[done]
		if !ok {
			continue
		}
		for _, target := range cfg.Targets() {
			if target == route {
				return true
			}
		}
	}
	return false
}

func (w *Wizard) checkJourney(req *Request) (string, bool) {
	visited := req.Session.Visited()
	if w.reachable(req.Path, visited) {
		return "", true
	}
	for i := len(visited) - 1; i >= 0; i-- {
		if _, ok := w.steps[visited[i]]; ok {
			return prefixBase(w.base, visited[i]), false
		}
	}
	return prefixBase(w.base, w.entryPoint()), false
}

func (w *Wizard) entryPoint() string {
	for _, route := range w.order {
		if w.steps[route].EntryPoint {
			return route
		}
	}
	return w.order[0]
}

// previousStep finds the most recently completed step that leads to the
// current one, including the base path.
func (w *Wizard) previousStep(req *Request) *string {
	visited := req.Session.Visited()
	for i := len(visited) - 1; i >= 0; i-- {
		cfg, ok := w.steps[visited[i]]
		if !ok || visited[i] == req.Path {
			continue
		}
		for _, target := range cfg.Targets() {
			if target == req.Path {
				link := prefixBase(w.base, visited[i])
				return &link
			}
		}
	}
	return nil
}

// Package wizard implements the multi-step form controller: the per-verb
// request pipeline, field formatting and validation, next-step resolution
// (forks and edit mode), validation-error redirects and the view-model handed
// to the renderer.
//
// A Controller serves a single step. A Wizard groups the controllers of a
// journey under a base path and mounts them on a gorilla/mux router:
//
//	w, err := wizard.New("/apply", steps,
//		wizard.WithRenderer(engine),
//		wizard.WithSessionBinder(session.NewBinder(store)),
//	)
//	if err != nil {
//		return err
//	}
//	router := mux.NewRouter()
//	w.RegisterRoutes(router)
//
// Every route is also mounted with an "/edit" suffix. Requests on the edit
// route run in edit mode: after a successful POST the user is returned to the
// confirmation step unless the step continues on edit or the answer opened a
// branch that has not been visited yet.
package wizard

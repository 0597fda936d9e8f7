package wizard

import (
	"context"
	"net/http"
	"sync"

	"github.com/goliatone/go-formwizard/pkg/step"
)

// StepsKey is the session key under which the visited-step history is kept.
const StepsKey = "steps"

// SessionBinder attaches session state to an incoming request.
type SessionBinder interface {
	Bind(w http.ResponseWriter, r *http.Request) (Session, error)
}

// Session is the per-request view of the wizard's persisted state. Reads and
// writes act on an in-memory copy; Save flushes it and runs before any
// response is written.
type Session interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Reset(key string)
	// Values returns every stored value, overlaid with the values of the last
	// failed submission when one is pending.
	Values() step.Values
	SaveValues(values step.Values)
	Errors() Errors
	// SetErrors records a failed submission; nil clears it.
	SetErrors(errs Errors, values step.Values)
	// Visited lists completed step routes in completion order.
	Visited() []string
	CompleteStep(route string)
	Save(ctx context.Context) error
}

// SessionBinderFunc adapts a function into a SessionBinder.
type SessionBinderFunc func(w http.ResponseWriter, r *http.Request) (Session, error)

func (f SessionBinderFunc) Bind(w http.ResponseWriter, r *http.Request) (Session, error) {
	return f(w, r)
}

// EphemeralSession returns a binder whose sessions live for a single request.
// It is the default: values, errors and history do not survive redirects.
func EphemeralSession() SessionBinder {
	return SessionBinderFunc(func(http.ResponseWriter, *http.Request) (Session, error) {
		return NewMemorySession(), nil
	})
}

// MemorySession is a Session held entirely in memory. Persistent binders
// load one, hand it to the pipeline and write it back on Save.
type MemorySession struct {
	mu          sync.RWMutex
	values      step.Values
	errors      Errors
	errorValues step.Values
	steps       []string
	onSave      func(ctx context.Context, s *MemorySession) error
}

// NewMemorySession returns an empty session.
func NewMemorySession() *MemorySession {
	return &MemorySession{values: step.Values{}}
}

// SessionSnapshot is the serialisable state of a MemorySession.
type SessionSnapshot struct {
	Values      step.Values `json:"values,omitempty"`
	Errors      Errors      `json:"errors,omitempty"`
	ErrorValues step.Values `json:"errorValues,omitempty"`
	Steps       []string    `json:"steps,omitempty"`
}

// RestoreSession builds a session from a snapshot. onSave, when set, is
// called by Save.
func RestoreSession(snap SessionSnapshot, onSave func(ctx context.Context, s *MemorySession) error) *MemorySession {
	s := &MemorySession{
		values:      snap.Values.Clone(),
		errors:      snap.Errors.Clone(),
		errorValues: snap.ErrorValues.Clone(),
		steps:       append([]string(nil), snap.Steps...),
		onSave:      onSave,
	}
	if s.values == nil {
		s.values = step.Values{}
	}
	return s
}

// Snapshot copies the session state.
func (s *MemorySession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{
		Values:      s.values.Clone(),
		Errors:      s.errors.Clone(),
		ErrorValues: s.errorValues.Clone(),
		Steps:       append([]string(nil), s.steps...),
	}
}

func (s *MemorySession) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key == StepsKey {
		return append([]string(nil), s.steps...), true
	}
	v, ok := s.values[key]
	return v, ok
}

func (s *MemorySession) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == StepsKey {
		if steps, ok := value.([]string); ok {
			s.steps = append([]string(nil), steps...)
		}
		return
	}
	s.values[key] = value
}

func (s *MemorySession) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == StepsKey {
		s.steps = nil
		return
	}
	delete(s.values, key)
}

func (s *MemorySession) Values() step.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.values.Clone()
	if out == nil {
		out = step.Values{}
	}
	for key, value := range s.errorValues {
		out[key] = value
	}
	return out
}

func (s *MemorySession) SaveValues(values step.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values.Clone() {
		s.values[key] = value
	}
}

func (s *MemorySession) Errors() Errors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors.Clone()
}

func (s *MemorySession) SetErrors(errs Errors, values step.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(errs) == 0 {
		s.errors = nil
		s.errorValues = nil
		return
	}
	s.errors = errs.Clone()
	s.errorValues = values.Clone()
}

func (s *MemorySession) Visited() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.steps...)
}

// CompleteStep appends route to the history. A route completed again moves
// to the end so the history reflects the latest walk.
func (s *MemorySession) CompleteStep(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := s.steps[:0:0]
	for _, visited := range s.steps {
		if visited != route {
			steps = append(steps, visited)
		}
	}
	s.steps = append(steps, route)
}

func (s *MemorySession) Save(ctx context.Context) error {
	if s.onSave == nil {
		return nil
	}
	return s.onSave(ctx, s)
}

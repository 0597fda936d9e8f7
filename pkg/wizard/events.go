package wizard

import "sync"

// Event names a pipeline notification.
type Event string

const (
	// EventComplete fires once per successful POST and once per GET of a
	// step without fields that has a next step.
	EventComplete Event = "complete"
	// EventValidationFailed fires when a submission is rejected, before the
	// redirect to the error step. Request.Errors holds the failures.
	EventValidationFailed Event = "validation-failed"
)

// Listener receives event notifications. Listeners run synchronously on the
// request goroutine and must not write the response.
type Listener func(event Event, req *Request)

// Events is a listener registry shared by the controllers of a wizard.
type Events struct {
	mu        sync.RWMutex
	listeners map[Event][]Listener
}

// NewEvents returns an empty registry.
func NewEvents() *Events {
	return &Events{listeners: make(map[Event][]Listener)}
}

// On registers fn for event.
func (e *Events) On(event Event, fn Listener) {
	if e == nil || fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], fn)
}

// Emit calls the listeners of event in registration order.
func (e *Events) Emit(event Event, req *Request) {
	if e == nil {
		return
	}
	e.mu.RLock()
	listeners := append([]Listener(nil), e.listeners[event]...)
	e.mu.RUnlock()
	for _, fn := range listeners {
		fn(event, req)
	}
}

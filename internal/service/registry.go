package service

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/alanyoungcy/algostream/internal/domain"
)

// Event names the listener callback being invoked.
type Event string

const (
	EventAdd    Event = "add"
	EventRemove Event = "remove"
	EventUpdate Event = "update"
)

// NotifyError reports the listener that stopped a fan-out. Listeners before
// Position have already seen the event; listeners after it have not.
type NotifyError struct {
	Event    Event
	Position int
	Err      error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: listener %d: %v", e.Event, e.Position, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// Registry is an insertion-ordered list of listeners. Registering the same
// listener twice yields two callbacks per event.
type Registry[V any] struct {
	mu        sync.RWMutex
	listeners []domain.ServiceListener[V]
}

// NewRegistry creates an empty Registry.
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{}
}

// Add appends a listener. It panics on a nil listener, including a typed nil
// pointer.
func (r *Registry[V]) Add(listener domain.ServiceListener[V]) {
	if isNilListener(listener) {
		panic(fmt.Sprintf("service: nil listener %T", listener))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

// Snapshot returns a copy of the listeners in registration order.
func (r *Registry[V]) Snapshot() []domain.ServiceListener[V] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ServiceListener[V], len(r.listeners))
	copy(out, r.listeners)
	return out
}

// Len returns the number of registrations.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// Notify delivers event to every listener in registration order. The first
// listener error stops the fan-out and is returned as a *NotifyError.
func (r *Registry[V]) Notify(ctx context.Context, event Event, data V) error {
	for i, l := range r.Snapshot() {
		var err error
		switch event {
		case EventAdd:
			err = l.ProcessAdd(ctx, data)
		case EventRemove:
			err = l.ProcessRemove(ctx, data)
		case EventUpdate:
			err = l.ProcessUpdate(ctx, data)
		default:
			return fmt.Errorf("notify: unknown event %q", event)
		}
		if err != nil {
			return &NotifyError{Event: event, Position: i, Err: err}
		}
	}
	return nil
}

func isNilListener(listener any) bool {
	if listener == nil {
		return true
	}
	v := reflect.ValueOf(listener)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

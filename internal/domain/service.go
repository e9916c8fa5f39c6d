package domain

import "context"

// ServiceListener receives add, remove, and update events from a Service.
// Callbacks run synchronously on the publishing goroutine; a returned error is
// propagated back to the publisher.
type ServiceListener[V any] interface {
	ProcessAdd(ctx context.Context, data V) error
	ProcessRemove(ctx context.Context, data V) error
	ProcessUpdate(ctx context.Context, data V) error
}

// Service is a keyed store of V that notifies listeners of changes.
type Service[K comparable, V any] interface {
	// GetData returns the value for key, or an error wrapping ErrNotFound.
	GetData(key K) (V, error)

	// OnMessage is the entry point a connector uses to push new or updated
	// data into the service.
	OnMessage(ctx context.Context, data V) error

	AddListener(listener ServiceListener[V])
	GetListeners() []ServiceListener[V]
}

// ListenerFuncs adapts plain functions to ServiceListener. Nil fields are
// no-ops.
type ListenerFuncs[V any] struct {
	OnAdd    func(ctx context.Context, data V) error
	OnRemove func(ctx context.Context, data V) error
	OnUpdate func(ctx context.Context, data V) error
}

// ProcessAdd calls OnAdd.
func (f ListenerFuncs[V]) ProcessAdd(ctx context.Context, data V) error {
	if f.OnAdd == nil {
		return nil
	}
	return f.OnAdd(ctx, data)
}

// ProcessRemove calls OnRemove.
func (f ListenerFuncs[V]) ProcessRemove(ctx context.Context, data V) error {
	if f.OnRemove == nil {
		return nil
	}
	return f.OnRemove(ctx, data)
}

// ProcessUpdate calls OnUpdate.
func (f ListenerFuncs[V]) ProcessUpdate(ctx context.Context, data V) error {
	if f.OnUpdate == nil {
		return nil
	}
	return f.OnUpdate(ctx, data)
}

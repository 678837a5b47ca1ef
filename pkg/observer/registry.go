package observer

import "sync"

// Handle identifies a subscription so it can be removed without comparing
// callback values.
type Handle uint64

// Registry is a subscriber list keyed by handle. Publish invokes callbacks
// in registration order; a callback that panics does not prevent delivery
// to the remaining subscribers.
type Registry[T any] struct {
	mu    sync.Mutex
	next  Handle
	order []Handle
	subs  map[Handle]func(T)
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		subs: make(map[Handle]func(T)),
	}
}

// Subscribe registers a callback and returns its handle.
func (r *Registry[T]) Subscribe(fn func(T)) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.order = append(r.order, h)
	r.subs[h] = fn
	return h
}

// Unsubscribe removes the subscription for the given handle. Unknown
// handles are a no-op.
func (r *Registry[T]) Unsubscribe(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[h]; !ok {
		return
	}
	delete(r.subs, h)
	for i, existing := range r.order {
		if existing == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Publish delivers v to every subscriber in registration order. Each
// dispatch is isolated so one failing subscriber cannot starve the rest.
func (r *Registry[T]) Publish(v T) {
	r.mu.Lock()
	callbacks := make([]func(T), 0, len(r.order))
	for _, h := range r.order {
		callbacks = append(callbacks, r.subs[h])
	}
	r.mu.Unlock()

	for _, fn := range callbacks {
		dispatch(fn, v)
	}
}

// Len returns the number of active subscriptions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Clear drops all subscriptions.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.subs = make(map[Handle]func(T))
}

func dispatch[T any](fn func(T), v T) {
	defer func() {
		_ = recover()
	}()
	fn(v)
}

// Package store holds the process-wide state containers shared by the audio
// engine, the frame driver and the renderers.
package store

import "sync"

// Topic fans a value out to subscribers. The zero value is ready to use.
// Delivery is synchronous on the publisher's goroutine.
type Topic[T any] struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]func(T)
}

// Subscribe registers fn and returns a func that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	if t.listeners == nil {
		t.listeners = make(map[uint64]func(T))
	}
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.listeners, id)
			t.mu.Unlock()
		})
	}
}

// Publish calls every subscriber with v. Subscribers may (un)subscribe
// from inside the callback.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	if len(t.listeners) == 0 {
		t.mu.RUnlock()
		return
	}
	fns := make([]func(T), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners)
}

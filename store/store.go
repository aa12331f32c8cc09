// Package store provides a minimal reactive state container with a
// composable middleware protocol. A Store holds one state value, accepts
// mutations through a single entry point, and notifies subscribers
// synchronously, in registration order, once per accepted mutation.
package store

import "sync"

// Listener receives the new and previous state after an accepted mutation.
type Listener[T any] func(next, prev T)

// Initializer builds the initial state. It runs exactly once, with the
// store's bound set and get plus the api object itself, so actions kept
// inside state may close over any entry point at definition time.
type Initializer[T any] func(set func(T), get func() T, api *Store[T]) T

// EqualFunc compares two values for equality.
type EqualFunc[T any] func(a, b T) bool

// Store holds one state value and notifies subscribers on change.
//
// The exported function fields are the public entry points. Middlewares
// replace them before the base initializer runs, so every later call --
// including calls from actions that closed over the api -- passes through
// the middleware chain. The value form (Set, Replace) and the function
// form (Update) are distinct named operations.
type Store[T any] struct {
	mu        sync.Mutex
	state     T
	initial   T
	listeners []listenerEntry[T]
	nextID    int
	ext       map[string]any
	deferred  []func()
	ready     bool

	// Get returns the current state.
	Get func() T
	// GetInitial returns the snapshot captured at construction. It is
	// never reassigned, so pre-hydration and server-rendered reads agree.
	GetInitial func() T
	// Set applies a value-form mutation under the merge rule: map states
	// take the candidate's keys over a shallow copy of the current map,
	// any other kind is replaced wholesale.
	Set func(next T)
	// Replace applies a value-form mutation wholesale.
	Replace func(next T)
	// Update computes the next state from the current one, then applies
	// it under the merge rule.
	Update func(fn func(T) T)
	// Subscribe registers a listener and returns its unsubscribe closure.
	Subscribe func(fn Listener[T]) func()
	// Destroy clears all listeners. State stays readable afterwards.
	Destroy func()
}

type listenerEntry[T any] struct {
	id int
	fn Listener[T]
}

// New constructs a store by invoking init exactly once. The returned
// state is captured as the initial snapshot before any deferred work
// scheduled by middlewares runs.
func New[T any](init Initializer[T]) *Store[T] {
	s := &Store[T]{}
	s.Get = s.get
	s.GetInitial = s.getInitial
	s.Set = func(next T) { s.apply(next, false) }
	s.Replace = func(next T) { s.apply(next, true) }
	s.Update = func(fn func(T) T) { s.apply(fn(s.get()), false) }
	s.Subscribe = s.subscribe
	s.Destroy = s.destroy

	s.state = init(s.Set, s.get, s)
	s.initial = s.state

	s.mu.Lock()
	s.ready = true
	deferred := s.deferred
	s.deferred = nil
	s.mu.Unlock()
	for _, fn := range deferred {
		fn()
	}
	return s
}

func (s *Store[T]) get() T {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	return state
}

func (s *Store[T]) getInitial() T {
	s.mu.Lock()
	initial := s.initial
	s.mu.Unlock()
	return initial
}

// apply is the single mutation entry point. A candidate identical to the
// current state by same-value semantics is a no-op: no write, no
// notification. Listener panics propagate to the caller and may skip
// listeners later in the pass.
func (s *Store[T]) apply(next T, replace bool) {
	s.mu.Lock()
	prev := s.state
	if sameAny(next, prev) {
		s.mu.Unlock()
		return
	}
	if !replace {
		next = mergeValue(prev, next)
	}
	s.state = next
	fns := make([]Listener[T], len(s.listeners))
	for i, entry := range s.listeners {
		fns[i] = entry.fn
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next, prev)
	}
}

func (s *Store[T]) subscribe(fn Listener[T]) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			for i, entry := range s.listeners {
				if entry.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
		})
	}
}

func (s *Store[T]) destroy() {
	s.mu.Lock()
	s.listeners = nil
	s.mu.Unlock()
}

// Defer schedules fn to run after construction completes. Middlewares use
// this for work that must not observe a half-built store, such as kicking
// off asynchronous hydration. After construction fn runs immediately.
func (s *Store[T]) Defer(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	if !s.ready {
		s.deferred = append(s.deferred, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

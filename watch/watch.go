// Package watch provides derived-value subscriptions: a selector
// projects store state to a value, and a listener fires only when that
// value changes under a chosen equality. Selectors introduce a second
// type parameter, so they are free functions rather than an overload of
// the store's Subscribe.
package watch

import (
	"sync"

	"github.com/ripplestate/ripple/store"
)

// Options holds the resolved configuration of one watch subscription.
type Options[S any] struct {
	// Equal detects selected-value change. Defaults to same-value
	// identity: a selector that allocates a fresh value on every
	// evaluation appears always-changed unless paired with a structural
	// equality such as store.Shallow.
	Equal store.EqualFunc[S]
	// FireImmediately invokes the listener once at subscription time
	// with the current selected value as both arguments.
	FireImmediately bool
}

// Option configures a watch subscription.
type Option[S any] func(*Options[S])

// WithEquality substitutes the change comparator.
func WithEquality[S any](fn store.EqualFunc[S]) Option[S] {
	return func(o *Options[S]) {
		o.Equal = fn
	}
}

// FireImmediately invokes the listener once at subscription time.
func FireImmediately[S any]() Option[S] {
	return func(o *Options[S]) {
		o.FireImmediately = true
	}
}

// Watch subscribes listener to changes of selector's projection of the
// store's state. It returns the unsubscribe closure.
func Watch[T, S any](api *store.Store[T], selector func(T) S, listener func(next, prev S), opts ...Option[S]) func() {
	if api == nil || selector == nil || listener == nil {
		return func() {}
	}
	o := Options[S]{Equal: store.Identical[S]}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Equal == nil {
		o.Equal = store.Identical[S]
	}

	var mu sync.Mutex
	current := selector(api.Get())

	unsub := api.Subscribe(func(next, _ T) {
		selected := selector(next)
		mu.Lock()
		prev := current
		if o.Equal(selected, prev) {
			mu.Unlock()
			return
		}
		current = selected
		mu.Unlock()
		listener(selected, prev)
	})

	if o.FireImmediately {
		listener(current, current)
	}
	return unsub
}

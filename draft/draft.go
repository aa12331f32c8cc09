// Package draft provides mutation-style update ergonomics. The store's
// function-form entry point is rewired so the updater receives a deep
// copy of the current state: it may mutate nested maps and slices of the
// copy in place and return it, and the store still sees a fresh top-level
// value with intact change detection. The structural-sharing proxy of
// draft libraries in other ecosystems is rendered here as copy-then-
// mutate over a pluggable deep-copy engine.
package draft

import (
	"fmt"
	"log/slog"

	"github.com/mitchellh/copystructure"

	"github.com/ripplestate/ripple/store"
)

// Cloner produces a mutable copy of a state value. The default engine
// handles maps, slices, and exported-field structs; action closures are
// carried over by reference.
type Cloner func(state any) (any, error)

// Options holds the resolved configuration of a draft middleware.
type Options struct {
	// Clone is the deep-copy engine.
	Clone Cloner
	// Logger receives clone faults. Defaults to a discard logger.
	Logger *slog.Logger
}

// Option configures a draft middleware.
type Option func(*Options)

// WithCloner substitutes the deep-copy engine.
func WithCloner(fn Cloner) Option {
	return func(o *Options) {
		o.Clone = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}

func resolve(opts []Option) Options {
	o := Options{Clone: copystructure.Copy}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Clone == nil {
		o.Clone = copystructure.Copy
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Middleware rewires the api's function-form entry point so updaters
// receive a copy instead of the live state. Actions that closed over the
// api before the base initializer ran observe the rewired version. When
// cloning fails the updater falls back to the live state, which is the
// undecorated contract.
func Middleware[T any](opts ...Option) store.Middleware[T] {
	o := resolve(opts)
	return func(next store.Initializer[T]) store.Initializer[T] {
		return func(set func(T), get func() T, api *store.Store[T]) T {
			orig := api.Update
			api.Update = func(fn func(T) T) {
				orig(func(cur T) T {
					return fn(clone(o, cur))
				})
			}
			return next(set, get, api)
		}
	}
}

// Mutate applies recipe to a copy of the current state and stores the
// result. It works with or without the middleware installed.
func Mutate[T any](api *store.Store[T], recipe func(draft *T), opts ...Option) {
	if api == nil || recipe == nil {
		return
	}
	o := resolve(opts)
	api.Update(func(cur T) T {
		next := clone(o, cur)
		recipe(&next)
		return next
	})
}

func clone[T any](o Options, cur T) T {
	copied, err := o.Clone(cur)
	if err != nil {
		o.Logger.Warn("clone failed", "error", err)
		return cur
	}
	next, ok := copied.(T)
	if !ok {
		o.Logger.Warn("clone returned unexpected type", "type", fmt.Sprintf("%T", copied))
		return cur
	}
	return next
}

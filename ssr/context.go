// Package ssr supports server-rendered applications: one store instance
// per render pass, carried on the request context, and a hydration gate
// that keeps pre-hydration reads consistent with the server-rendered
// snapshot.
package ssr

import (
	"context"
	"errors"
	"net/http"

	"github.com/ripplestate/ripple/store"
)

// ErrNoStore is returned when no store is attached to the context.
var ErrNoStore = errors.New("ssr: no store in context")

type ctxKey struct{}

// NewContext returns a child context carrying st.
func NewContext[T any](ctx context.Context, st *store.Store[T]) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the store attached to ctx.
func FromContext[T any](ctx context.Context) (*store.Store[T], error) {
	st, ok := ctx.Value(ctxKey{}).(*store.Store[T])
	if !ok {
		return nil, ErrNoStore
	}
	return st, nil
}

// MustFromContext returns the store attached to ctx and panics when
// there is none. Calling it outside a provider scope is a structural
// wiring mistake, not a recoverable runtime condition.
func MustFromContext[T any](ctx context.Context) *store.Store[T] {
	st, err := FromContext[T](ctx)
	if err != nil {
		panic(err)
	}
	return st
}

// Handler gives every request its own store built by factory, attached
// to the request context and destroyed when the request completes. One
// render pass owns one store; nothing is shared across requests.
func Handler[T any](factory func() *store.Store[T], next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := factory()
		defer st.Destroy()
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), st)))
	})
}

package ssr

import (
	"context"
	"sync"

	"github.com/ripplestate/ripple/persist"
	"github.com/ripplestate/ripple/store"
)

// Gate coordinates not-yet-hydrated reads with asynchronous hydration.
// Until the store's first hydration completes, Snapshot serves the
// initial (server-rendered) state so client reads cannot tear against
// a half-loaded store; afterwards it serves the live state.
type Gate[T any] struct {
	api  *store.Store[T]
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	unsub func()
}

// NewGate builds a gate over a store and its persistence handle. With a
// nil handle, or one that already hydrated, the gate opens immediately.
func NewGate[T any](api *store.Store[T], p *persist.Persist[T]) *Gate[T] {
	g := &Gate[T]{api: api, done: make(chan struct{})}
	if p == nil || p.HasHydrated() {
		g.open()
		return g
	}
	// The registration is published under the mutex so a hydration pass
	// completing concurrently cannot observe a half-registered gate.
	g.mu.Lock()
	g.unsub = p.OnFinishHydration(func(T) {
		g.open()
	})
	g.mu.Unlock()
	// Hydration may have finished between the check and the registration.
	if p.HasHydrated() {
		g.open()
	}
	return g
}

func (g *Gate[T]) open() {
	g.once.Do(func() {
		close(g.done)
	})
	g.mu.Lock()
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Ready reports whether hydration has completed.
func (g *Gate[T]) Ready() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when hydration completes.
func (g *Gate[T]) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until hydration completes or ctx is cancelled.
func (g *Gate[T]) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the state a renderer should read right now: the
// fixed initial snapshot before hydration, the live state after.
func (g *Gate[T]) Snapshot() T {
	if g.Ready() {
		return g.api.Get()
	}
	return g.api.GetInitial()
}

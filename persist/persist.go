// Package persist provides write-through persistence middleware for a
// store: debounced writes of a versioned record to a key/value storage
// adapter, migration between record versions, and hydration that may be
// deferred for server-rendered flows.
//
// Persistence is a best-effort side channel. Storage faults are caught at
// the adapter boundary, logged, and surfaced only through the
// WithOnRehydrate callback's error argument; they never escape Rehydrate
// or a store mutation. States that carry action closures need a
// WithPartialize projection (and usually a WithMerge counterpart), since
// closures do not survive JSON.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/ripplestate/ripple/store"
)

// ExtKey is the extension-registry key the middleware registers its
// handle under.
const ExtKey = "persist"

// Persist drives persistence for one store instance. A handle serves a
// single store; build one per store.
type Persist[T any] struct {
	opts Options[T]
	log  *slog.Logger

	mu        sync.Mutex
	api       *store.Store[T]
	unsub     func()
	hydrated  bool
	destroyed bool

	pending    T
	hasPending bool
	timer      *time.Timer

	hydrateSubs map[int]func(T)
	finishSubs  map[int]func(T)
	nextSubID   int
}

// New creates a persistence handle writing under the given storage key.
func New[T any](name string, opts ...Option[T]) *Persist[T] {
	o := Options[T]{
		Name:    name,
		Storage: NewMemoryStorage(),
		Codec:   JSONCodec{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	log := o.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Persist[T]{
		opts:        o,
		log:         log,
		hydrateSubs: make(map[int]func(T)),
		finishSubs:  make(map[int]func(T)),
	}
}

// Middleware wires the handle into a store's initializer chain. The
// middleware subscribes to accepted mutations and, unless hydration is
// skipped, schedules the first hydration pass once construction
// completes.
func (p *Persist[T]) Middleware() store.Middleware[T] {
	return func(next store.Initializer[T]) store.Initializer[T] {
		return func(set func(T), get func() T, api *store.Store[T]) T {
			p.mu.Lock()
			p.api = api
			p.mu.Unlock()
			api.SetExt(ExtKey, p)

			state := next(set, get, api)

			unsub := api.Subscribe(func(nextState, _ T) {
				p.scheduleWrite(nextState)
			})
			p.mu.Lock()
			p.unsub = unsub
			p.mu.Unlock()

			if !p.opts.SkipHydration {
				api.Defer(func() {
					go p.Rehydrate(context.Background())
				})
			}
			return state
		}
	}
}

// FromStore returns the persistence handle attached to api, if any.
func FromStore[T any](api *store.Store[T]) (*Persist[T], bool) {
	v, ok := api.Ext(ExtKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Persist[T])
	return p, ok
}

// HasHydrated reports whether the first hydration pass has completed,
// successfully or not.
func (p *Persist[T]) HasHydrated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hydrated
}

// Options returns a copy of the resolved configuration.
func (p *Persist[T]) Options() Options[T] {
	return p.opts
}

// OnHydrate registers a callback invoked with the pre-hydration state
// each time a hydration pass begins. Returns an unsubscribe closure.
func (p *Persist[T]) OnHydrate(fn func(T)) func() {
	return p.addSub(p.hydrateSubs, fn)
}

// OnFinishHydration registers a callback invoked with the post-hydration
// state each time a hydration pass completes. Returns an unsubscribe
// closure.
func (p *Persist[T]) OnFinishHydration(fn func(T)) func() {
	return p.addSub(p.finishSubs, fn)
}

func (p *Persist[T]) addSub(subs map[int]func(T), fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return func() {}
	}
	id := p.nextSubID
	p.nextSubID++
	subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(subs, id)
			p.mu.Unlock()
		})
	}
}

// Rehydrate runs the read/migrate/merge path and marks hydration
// complete whether or not it succeeded. It is idempotent and safe to call
// repeatedly; errors surface only through the WithOnRehydrate callback
// and the logger.
func (p *Persist[T]) Rehydrate(ctx context.Context) {
	p.mu.Lock()
	if p.destroyed || p.api == nil {
		p.mu.Unlock()
		return
	}
	api := p.api
	begin := snapshotSubs(p.hydrateSubs)
	p.mu.Unlock()

	before := api.Get()
	for _, fn := range begin {
		fn(before)
	}
	var done func(T, error)
	if p.opts.OnRehydrate != nil {
		done = p.opts.OnRehydrate(before)
	}

	err := p.hydrate(ctx, api)
	if err != nil {
		p.log.Warn("hydration failed", "name", p.opts.Name, "error", err)
	}

	p.mu.Lock()
	p.hydrated = true
	finish := snapshotSubs(p.finishSubs)
	p.mu.Unlock()

	after := api.Get()
	if done != nil {
		done(after, err)
	}
	for _, fn := range finish {
		fn(after)
	}
}

func snapshotSubs[T any](subs map[int]func(T)) []func(T) {
	out := make([]func(T), 0, len(subs))
	for _, fn := range subs {
		out = append(out, fn)
	}
	return out
}

func (p *Persist[T]) hydrate(ctx context.Context, api *store.Store[T]) error {
	data, found, err := p.opts.Storage.GetItem(ctx, p.opts.Name)
	if err != nil {
		return fmt.Errorf("read %q: %w", p.opts.Name, err)
	}
	if !found {
		return nil
	}
	rec, err := p.opts.Codec.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("record %q: %w", p.opts.Name, err)
	}
	payload := []byte(rec.State)
	if rec.Version != p.opts.Version {
		if p.opts.Migrate == nil {
			return fmt.Errorf("record %q has version %d, want %d, and no migration is configured", p.opts.Name, rec.Version, p.opts.Version)
		}
		payload, err = p.opts.Migrate(payload, rec.Version)
		if err != nil {
			return fmt.Errorf("migrate %q from version %d: %w", p.opts.Name, rec.Version, err)
		}
	}
	merged, err := p.merge(payload, api.Get())
	if err != nil {
		return fmt.Errorf("merge %q: %w", p.opts.Name, err)
	}
	api.Replace(merged)
	return nil
}

func (p *Persist[T]) merge(payload []byte, current T) (T, error) {
	if p.opts.Merge != nil {
		return p.opts.Merge(payload, current)
	}
	clone, err := copystructure.Copy(current)
	if err != nil {
		return current, fmt.Errorf("clone current state: %w", err)
	}
	next, ok := clone.(T)
	if !ok {
		return current, fmt.Errorf("clone current state: unexpected type %T", clone)
	}
	if err := json.Unmarshal(payload, &next); err != nil {
		return current, fmt.Errorf("decode persisted state: %w", err)
	}
	return next, nil
}

// scheduleWrite records an accepted mutation for persistence. Before the
// first hydration completes nothing is written; within a debounce window
// the latest state wins.
func (p *Persist[T]) scheduleWrite(next T) {
	p.mu.Lock()
	if p.destroyed || !p.hydrated {
		p.mu.Unlock()
		return
	}
	if p.opts.Debounce <= 0 {
		p.mu.Unlock()
		p.write(context.Background(), next)
		return
	}
	p.pending = next
	p.hasPending = true
	if p.timer == nil {
		p.timer = time.AfterFunc(p.opts.Debounce, func() {
			p.Flush(context.Background())
		})
	} else {
		p.timer.Reset(p.opts.Debounce)
	}
	p.mu.Unlock()
}

// Flush forces a pending debounced write to execute now. Safe to call
// when nothing is pending.
func (p *Persist[T]) Flush(ctx context.Context) {
	p.mu.Lock()
	if p.destroyed || !p.hasPending {
		p.mu.Unlock()
		return
	}
	next := p.pending
	p.hasPending = false
	var zero T
	p.pending = zero
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()
	p.write(ctx, next)
}

func (p *Persist[T]) write(ctx context.Context, state T) {
	projected := any(state)
	if p.opts.Partialize != nil {
		projected = p.opts.Partialize(state)
	}
	payload, err := json.Marshal(projected)
	if err != nil {
		p.log.Warn("encode state failed", "name", p.opts.Name, "error", err)
		return
	}
	data, err := p.opts.Codec.Marshal(Record{State: payload, Version: p.opts.Version})
	if err != nil {
		p.log.Warn("encode record failed", "name", p.opts.Name, "error", err)
		return
	}
	if err := p.opts.Storage.SetItem(ctx, p.opts.Name, data); err != nil {
		p.log.Warn("write failed", "name", p.opts.Name, "error", err)
	}
}

// ClearStorage removes the persisted record. A storage fault is logged,
// never returned.
func (p *Persist[T]) ClearStorage(ctx context.Context) {
	if err := p.opts.Storage.RemoveItem(ctx, p.opts.Name); err != nil {
		p.log.Warn("clear failed", "name", p.opts.Name, "error", err)
	}
}

// Destroy cancels any pending debounced write, drops the middleware's own
// store subscription, and clears the hydration listener registries. The
// underlying store and its listeners are untouched. Safe to call more
// than once.
func (p *Persist[T]) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.hasPending = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	unsub := p.unsub
	p.unsub = nil
	p.hydrateSubs = make(map[int]func(T))
	p.finishSubs = make(map[int]func(T))
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

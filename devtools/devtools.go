// Package devtools provides time-travel debug middleware: every store
// mutation is mirrored to an external inspection tool as a labeled
// action, and replay commands from the tool (reset, commit, rollback,
// jump) are applied back onto the store.
//
// The tool is optional. Without a connector, with the middleware
// disabled, or when the connection fails, the store behaves exactly as if
// the middleware were absent.
package devtools

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ripplestate/ripple/store"
)

// ExtKey is the extension-registry key the middleware registers its
// handle under.
const ExtKey = "devtools"

// Devtools mirrors one store's transitions to an inspection tool.
type Devtools[T any] struct {
	opts Options[T]
	log  *slog.Logger

	mu        sync.Mutex
	api       *store.Store[T]
	conn      Conn
	unsubConn func()
	label     string
	muted     bool
}

// New creates a devtools handle.
func New[T any](opts ...Option[T]) *Devtools[T] {
	o := Options[T]{AnonymousLabel: "anonymous"}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	log := o.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Devtools[T]{opts: o, log: log}
}

// Middleware wires the handle into a store's initializer chain. When the
// tool is unavailable the chain is passed through untouched.
func (d *Devtools[T]) Middleware() store.Middleware[T] {
	return func(next store.Initializer[T]) store.Initializer[T] {
		return func(set func(T), get func() T, api *store.Store[T]) T {
			api.SetExt(ExtKey, d)
			conn := d.connect()
			if conn == nil {
				return next(set, get, api)
			}

			d.mu.Lock()
			d.api = api
			d.conn = conn
			d.mu.Unlock()

			origSet, origReplace, origUpdate := api.Set, api.Replace, api.Update
			api.Set = func(v T) {
				origSet(v)
				d.record()
			}
			api.Replace = func(v T) {
				origReplace(v)
				d.record()
			}
			api.Update = func(fn func(T) T) {
				origUpdate(fn)
				d.record()
			}

			state := next(set, get, api)

			if payload, ok := d.serialize(state); ok {
				if err := conn.Init(payload); err != nil {
					d.log.Warn("init failed", "name", d.opts.Name, "error", err)
				}
			}
			d.mu.Lock()
			d.unsubConn = conn.Subscribe(d.handle)
			d.mu.Unlock()
			return state
		}
	}
}

// FromStore returns the devtools handle attached to api, if any.
func FromStore[T any](api *store.Store[T]) (*Devtools[T], bool) {
	v, ok := api.Ext(ExtKey)
	if !ok {
		return nil, false
	}
	d, ok := v.(*Devtools[T])
	return d, ok
}

func (d *Devtools[T]) connect() Conn {
	if d.opts.Connector == nil || d.opts.Disabled {
		return nil
	}
	conn, err := d.opts.Connector.Connect(d.opts.Name)
	if err != nil {
		d.log.Warn("connect failed", "name", d.opts.Name, "error", err)
		return nil
	}
	return conn
}

// Do labels every mutation performed inside fn. Outside a Do scope
// mutations carry the anonymous label.
func (d *Devtools[T]) Do(label string, fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	prev := d.label
	d.label = label
	d.mu.Unlock()

	fn()

	d.mu.Lock()
	d.label = prev
	d.mu.Unlock()
}

// Disconnect unsubscribes from the tool and stops the outbound mirror.
// The wrapped entry points stay in place as inert pass-throughs, so
// wrapping installed by middlewares later in the chain is unaffected.
// Safe to call more than once.
func (d *Devtools[T]) Disconnect() {
	d.mu.Lock()
	conn := d.conn
	unsub := d.unsubConn
	d.conn = nil
	d.unsubConn = nil
	d.mu.Unlock()

	if conn == nil {
		return
	}
	if unsub != nil {
		unsub()
	}
	conn.Unsubscribe()
}

// record mirrors the current state to the tool after a mutation.
func (d *Devtools[T]) record() {
	d.mu.Lock()
	conn := d.conn
	muted := d.muted
	label := d.label
	api := d.api
	d.mu.Unlock()

	if conn == nil || muted || api == nil {
		return
	}
	if label == "" {
		label = d.opts.AnonymousLabel
	}
	payload, ok := d.serialize(api.Get())
	if !ok {
		return
	}
	if err := conn.Send(newAction(label), payload); err != nil {
		d.log.Debug("send failed", "name", d.opts.Name, "error", err)
	}
}

func (d *Devtools[T]) serialize(state T) ([]byte, bool) {
	projected := any(state)
	if d.opts.Sanitize != nil {
		projected = d.opts.Sanitize(state)
	}
	payload, err := json.Marshal(projected)
	if err != nil {
		d.log.Warn("encode state failed", "name", d.opts.Name, "error", err)
		return nil, false
	}
	return payload, true
}

// handle applies an inbound replay command. Reapplied states bypass the
// outbound mirror so replay cannot feed back into itself.
func (d *Devtools[T]) handle(msg Message) {
	if msg.Type != MessageDispatch {
		return
	}
	d.mu.Lock()
	conn := d.conn
	api := d.api
	d.mu.Unlock()
	if conn == nil || api == nil {
		return
	}

	switch msg.Payload.Type {
	case PayloadReset:
		initial := api.GetInitial()
		d.replay(initial)
		d.rebase(conn, initial)
	case PayloadCommit:
		d.rebase(conn, api.Get())
	case PayloadRollback, PayloadJumpToState, PayloadJumpToAction:
		var next T
		if err := json.Unmarshal([]byte(msg.State), &next); err != nil {
			conn.Error("invalid state payload: " + err.Error())
			return
		}
		d.replay(next)
		if msg.Payload.Type == PayloadRollback {
			d.rebase(conn, next)
		}
	}
}

// rebase re-announces state to the tool as its new baseline.
func (d *Devtools[T]) rebase(conn Conn, state T) {
	if payload, ok := d.serialize(state); ok {
		if err := conn.Init(payload); err != nil {
			d.log.Debug("init failed", "name", d.opts.Name, "error", err)
		}
	}
}

// replay applies a tool-provided state wholesale with the outbound
// mirror suppressed.
func (d *Devtools[T]) replay(next T) {
	d.mu.Lock()
	api := d.api
	d.muted = true
	d.mu.Unlock()

	if api != nil {
		api.Replace(next)
	}

	d.mu.Lock()
	d.muted = false
	d.mu.Unlock()
}

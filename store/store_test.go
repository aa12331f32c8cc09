package store

import (
	"testing"
)

func newMapStore(initial map[string]int) *Store[map[string]int] {
	return New(func(set func(map[string]int), get func() map[string]int, api *Store[map[string]int]) map[string]int {
		return initial
	})
}

func TestStore_GetAndInitial(t *testing.T) {
	st := newMapStore(map[string]int{"a": 1})

	if st.Get()["a"] != 1 {
		t.Fatalf("expected initial value 1, got %d", st.Get()["a"])
	}
	st.Set(map[string]int{"a": 2})
	if st.Get()["a"] != 2 {
		t.Fatalf("expected updated value 2, got %d", st.Get()["a"])
	}
	if st.GetInitial()["a"] != 1 {
		t.Fatalf("expected initial snapshot to survive mutation")
	}
}

func TestStore_InitialSnapshotSameReference(t *testing.T) {
	st := newMapStore(map[string]int{"a": 1})

	first := st.GetInitial()
	st.Set(map[string]int{"a": 2})
	st.Replace(map[string]int{"b": 3})
	second := st.GetInitial()

	if !Identical(first, second) {
		t.Fatalf("expected initial snapshot to keep the same reference")
	}
}

func TestStore_IdentityShortCircuit(t *testing.T) {
	st := newMapStore(map[string]int{"a": 1})
	calls := 0
	st.Subscribe(func(next, prev map[string]int) { calls++ })

	before := st.Get()
	st.Set(before)
	if calls != 0 {
		t.Fatalf("expected no notifications for identical candidate, got %d", calls)
	}
	if !Identical(st.Get(), before) {
		t.Fatalf("expected state reference unchanged")
	}
}

func TestStore_MergeAndReplace(t *testing.T) {
	st := newMapStore(map[string]int{"a": 1, "b": 2})

	st.Set(map[string]int{"b": 3})
	got := st.Get()
	if got["a"] != 1 || got["b"] != 3 || len(got) != 2 {
		t.Fatalf("expected merged {a:1,b:3}, got %v", got)
	}

	st.Replace(map[string]int{"b": 3})
	got = st.Get()
	if _, ok := got["a"]; ok || got["b"] != 3 || len(got) != 1 {
		t.Fatalf("expected replaced {b:3}, got %v", got)
	}
}

func TestStore_NotificationOrderAndPayload(t *testing.T) {
	st := newMapStore(map[string]int{"x": 0})
	var order []int
	check := func(id int) Listener[map[string]int] {
		return func(next, prev map[string]int) {
			order = append(order, id)
			if next["x"] != 1 || prev["x"] != 0 {
				t.Fatalf("listener %d got next=%v prev=%v", id, next, prev)
			}
		}
	}
	st.Subscribe(check(1))
	st.Subscribe(check(2))
	st.Subscribe(check(3))

	st.Set(map[string]int{"x": 1})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected notification order [1 2 3], got %v", order)
	}
}

func TestStore_UnsubscribeIdempotent(t *testing.T) {
	st := newMapStore(map[string]int{"x": 0})
	first := 0
	second := 0
	unsub := st.Subscribe(func(next, prev map[string]int) { first++ })
	st.Subscribe(func(next, prev map[string]int) { second++ })

	unsub()
	unsub()
	st.Set(map[string]int{"x": 1})

	if first != 0 {
		t.Fatalf("expected unsubscribed listener to stay silent, got %d", first)
	}
	if second != 1 {
		t.Fatalf("expected surviving listener to fire once, got %d", second)
	}
}

func TestStore_DestroyClearsListeners(t *testing.T) {
	st := newMapStore(map[string]int{"x": 0})
	calls := 0
	st.Subscribe(func(next, prev map[string]int) { calls++ })

	st.Destroy()
	st.Destroy()
	st.Set(map[string]int{"x": 1})

	if calls != 0 {
		t.Fatalf("expected no notifications after destroy, got %d", calls)
	}
	if st.Get()["x"] != 1 {
		t.Fatalf("expected state to stay writable after destroy")
	}
}

func TestStore_UpdateUsesCurrentState(t *testing.T) {
	st := newMapStore(map[string]int{"count": 0})

	st.Update(func(cur map[string]int) map[string]int {
		return map[string]int{"count": cur["count"] + 1}
	})
	st.Update(func(cur map[string]int) map[string]int {
		return map[string]int{"count": cur["count"] + 1}
	})

	if st.Get()["count"] != 2 {
		t.Fatalf("expected count 2, got %d", st.Get()["count"])
	}
}

type counterState struct {
	Count     int
	Increment func()
}

func TestStore_CounterLifecycle(t *testing.T) {
	st := New(func(set func(counterState), get func() counterState, api *Store[counterState]) counterState {
		return counterState{
			Increment: func() {
				api.Update(func(cur counterState) counterState {
					cur.Count++
					return cur
				})
			},
		}
	})
	calls := 0
	st.Subscribe(func(next, prev counterState) { calls++ })

	st.Get().Increment()
	st.Get().Increment()
	st.Get().Increment()

	if st.Get().Count != 3 {
		t.Fatalf("expected count 3, got %d", st.Get().Count)
	}
	if calls != 3 {
		t.Fatalf("expected 3 notifications, got %d", calls)
	}
}

func TestStore_MiddlewareInterceptsActions(t *testing.T) {
	seen := 0
	logging := Middleware[counterState](func(next Initializer[counterState]) Initializer[counterState] {
		return func(set func(counterState), get func() counterState, api *Store[counterState]) counterState {
			origUpdate := api.Update
			api.Update = func(fn func(counterState) counterState) {
				seen++
				origUpdate(fn)
			}
			return next(set, get, api)
		}
	})
	base := Initializer[counterState](func(set func(counterState), get func() counterState, api *Store[counterState]) counterState {
		return counterState{
			Increment: func() {
				api.Update(func(cur counterState) counterState {
					cur.Count++
					return cur
				})
			},
		}
	})

	st := New(Compose(base, logging))
	st.Get().Increment()

	if seen != 1 {
		t.Fatalf("expected action to pass through middleware, got %d", seen)
	}
	if st.Get().Count != 1 {
		t.Fatalf("expected count 1, got %d", st.Get().Count)
	}
}

func TestStore_ComposeOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware[map[string]int] {
		return func(next Initializer[map[string]int]) Initializer[map[string]int] {
			return func(set func(map[string]int), get func() map[string]int, api *Store[map[string]int]) map[string]int {
				origSet := api.Set
				api.Set = func(v map[string]int) {
					origSet(v)
					order = append(order, name)
				}
				return next(set, get, api)
			}
		}
	}
	base := Initializer[map[string]int](func(set func(map[string]int), get func() map[string]int, api *Store[map[string]int]) map[string]int {
		return map[string]int{}
	})

	st := New(Compose(base, tag("outer"), tag("inner")))
	st.Set(map[string]int{"x": 1})

	// The inner middleware wrapped last, so its side effect observes the
	// outer one's completed call.
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("expected side-effect order [outer inner], got %v", order)
	}
}

func TestStore_ExtRegistry(t *testing.T) {
	st := newMapStore(map[string]int{})
	st.SetExt("persist", 42)

	v, ok := st.Ext("persist")
	if !ok || v.(int) != 42 {
		t.Fatalf("expected extension value 42, got %v (%v)", v, ok)
	}
	if _, ok := st.Ext("missing"); ok {
		t.Fatalf("expected missing extension to report absent")
	}
}

func TestStore_DeferRunsAfterConstruction(t *testing.T) {
	var capturedDuringInit bool
	ran := false
	st := New(func(set func(map[string]int), get func() map[string]int, api *Store[map[string]int]) map[string]int {
		api.Defer(func() {
			ran = true
			capturedDuringInit = api.GetInitial() != nil
		})
		return map[string]int{"x": 0}
	})

	if !ran {
		t.Fatalf("expected deferred work to run during New")
	}
	if !capturedDuringInit {
		t.Fatalf("expected deferred work to observe the captured initial snapshot")
	}
	late := false
	st.Defer(func() { late = true })
	if !late {
		t.Fatalf("expected post-construction Defer to run immediately")
	}
}

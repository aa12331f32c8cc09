package store

// Combined pairs a bare data value with the actions that mutate it.
type Combined[D, A any] struct {
	Data    D
	Actions A
}

// Combine builds an initializer whose state carries initial alongside the
// actions object produced by build. The actions object is constructed
// once and survives every mutation; its set and get see only the data
// half. Mutations run through the store's function-form entry point, so
// middleware interception applies.
func Combine[D, A any](initial D, build func(set func(func(D) D), get func() D) A) Initializer[Combined[D, A]] {
	return func(set func(Combined[D, A]), get func() Combined[D, A], api *Store[Combined[D, A]]) Combined[D, A] {
		setData := func(fn func(D) D) {
			api.Update(func(cur Combined[D, A]) Combined[D, A] {
				cur.Data = fn(cur.Data)
				return cur
			})
		}
		getData := func() D {
			return get().Data
		}
		return Combined[D, A]{Data: initial, Actions: build(setData, getData)}
	}
}

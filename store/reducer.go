package store

// Reducible carries reducer-managed state plus its dispatch entry point.
type Reducible[S, A any] struct {
	State    S
	Dispatch func(action A)
}

// Reducer builds an initializer that funnels every mutation through a
// single reduce function. Dispatch goes through the store's function-form
// entry point, so middleware interception applies.
func Reducer[S, A any](reduce func(S, A) S, initial S) Initializer[Reducible[S, A]] {
	return func(set func(Reducible[S, A]), get func() Reducible[S, A], api *Store[Reducible[S, A]]) Reducible[S, A] {
		dispatch := func(action A) {
			api.Update(func(cur Reducible[S, A]) Reducible[S, A] {
				cur.State = reduce(cur.State, action)
				return cur
			})
		}
		return Reducible[S, A]{State: initial, Dispatch: dispatch}
	}
}

package store

// Middleware wraps an initializer to inject cross-cutting behavior.
//
// A middleware body runs before the initializer it wraps. It may replace
// the api's Set, Replace, Update, or Subscribe fields so that every
// future caller passes through its interception first, attach a
// namespaced capability via SetExt, and invoke the wrapped initializer
// with either the original or its own replacement set. Wrapping order
// changes side-effect order, never the resolved state shape. Two
// middlewares claiming the same extension key is a configuration error
// the protocol does not guard against.
type Middleware[T any] func(Initializer[T]) Initializer[T]

// Compose folds middlewares around init, first argument outermost:
// Compose(init, a, b) behaves like a(b(init)).
func Compose[T any](init Initializer[T], mws ...Middleware[T]) Initializer[T] {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		init = mws[i](init)
	}
	return init
}

// SetExt attaches a namespaced capability to the store.
func (s *Store[T]) SetExt(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.ext == nil {
		s.ext = make(map[string]any)
	}
	s.ext[key] = value
	s.mu.Unlock()
}

// Ext returns the capability a middleware attached under key.
func (s *Store[T]) Ext(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	value, ok := s.ext[key]
	s.mu.Unlock()
	return value, ok
}

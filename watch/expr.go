package watch

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/ripplestate/ripple/store"
)

// ExprSelector compiles an expression evaluated against the state value
// and returns it as a selector. The state type must be a struct or a
// map, the environments the expression engine accepts. Evaluation faults
// select nil.
func ExprSelector[T any](code string) (func(T) any, error) {
	var env T
	program, err := expr.Compile(code, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("watch: compile %q: %w", code, err)
	}
	return func(state T) any {
		out, err := expr.Run(program, state)
		if err != nil {
			return nil
		}
		return out
	}, nil
}

// ExprWatch subscribes listener to changes of an expression's value over
// the store's state. It returns the unsubscribe closure.
func ExprWatch[T any](api *store.Store[T], code string, listener func(next, prev any), opts ...Option[any]) (func(), error) {
	selector, err := ExprSelector[T](code)
	if err != nil {
		return nil, err
	}
	return Watch(api, selector, listener, opts...), nil
}

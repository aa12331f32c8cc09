package store

import "testing"

type countAction struct {
	Kind string
	By   int
}

func TestReducer_Dispatch(t *testing.T) {
	reduce := func(s int, a countAction) int {
		switch a.Kind {
		case "add":
			return s + a.By
		case "reset":
			return 0
		}
		return s
	}
	st := New(Reducer(reduce, 10))

	st.Get().Dispatch(countAction{Kind: "add", By: 5})
	if st.Get().State != 15 {
		t.Fatalf("expected state 15, got %d", st.Get().State)
	}

	st.Get().Dispatch(countAction{Kind: "reset"})
	if st.Get().State != 0 {
		t.Fatalf("expected state 0 after reset, got %d", st.Get().State)
	}
}

func TestReducer_UnknownActionKeepsState(t *testing.T) {
	reduce := func(s int, a countAction) int { return s }
	st := New(Reducer(reduce, 3))

	st.Get().Dispatch(countAction{Kind: "noop"})

	if st.Get().State != 3 {
		t.Fatalf("expected state 3, got %d", st.Get().State)
	}
}

func TestReducer_NotifiesSubscribers(t *testing.T) {
	reduce := func(s int, a countAction) int { return s + a.By }
	st := New(Reducer(reduce, 0))
	calls := 0
	st.Subscribe(func(next, prev Reducible[int, countAction]) {
		calls++
		if next.State != prev.State+1 {
			t.Fatalf("expected state to advance by 1, got %d -> %d", prev.State, next.State)
		}
	})

	st.Get().Dispatch(countAction{By: 1})
	st.Get().Dispatch(countAction{By: 1})

	if calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", calls)
	}
}

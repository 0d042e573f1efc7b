package reducer

import (
	"maps"

	"github.com/roach88/redg/internal/action"
	"github.com/roach88/redg/internal/toolbox"
)

// InitType is the action type a host store uses to obtain a reducer's
// initial state. No handler should be registered for it.
const InitType = "@@redg/INIT"

// Handler reduces a state and an action into a new state.
type Handler[S any] func(state S, a action.Action) S

// Func is a reducer as called by a host store. A nil state means there is
// no state yet and is replaced by the reducer's initial state. Func never
// writes through state.
type Func[S any] func(state *S, a action.Action) S

// Apply reduces an existing state.
func (f Func[S]) Apply(state S, a action.Action) S {
	return f(&state, a)
}

// Init returns the state f produces when there is no state yet.
func (f Func[S]) Init() S {
	return f(nil, action.EmptyAction{Type: InitType})
}

// CreateReducer returns a configurator building a table-dispatch reducer.
//
// The produced reducer substitutes initState for a nil state, looks up the
// action type in handlers and runs the match, or def when nothing matches.
// A nil def returns the state unchanged. handlers is copied; later changes
// to the caller's map do not affect the reducer.
func CreateReducer[S any](initState S) func(handlers map[string]Handler[S], def Handler[S]) Func[S] {
	return func(handlers map[string]Handler[S], def Handler[S]) Func[S] {
		if def == nil {
			def = identity[S]
		}
		table := maps.Clone(handlers)

		return func(state *S, a action.Action) S {
			s := initState
			if state != nil {
				s = *state
			}
			return toolbox.Choose(a.ActionType(), table, def)(s, a)
		}
	}
}

func identity[S any](state S, _ action.Action) S {
	return toolbox.Identity(state)
}

// Combine builds a root reducer from named slice reducers. The root state
// maps each slice name to that slice's state; every slice sees every action
// but only its own sub-state.
func Combine[S any](slices *toolbox.OrderedMap[Func[S]]) Func[map[string]S] {
	return func(state *map[string]S, a action.Action) map[string]S {
		var prev map[string]S
		if state != nil {
			prev = *state
		}

		next := make(map[string]S, slices.Len())
		for name, r := range slices.All() {
			var sub *S
			if v, ok := prev[name]; ok {
				sub = &v
			}
			next[name] = r(sub, a)
		}
		return next
	}
}

// Package reducer builds pure reducers from action handlers.
//
// Two builders are provided. CreateReducer is a plain type-keyed table with a
// fallback:
//
//	r := reducer.CreateReducer(0)(map[string]reducer.Handler[int]{
//	    "counter/inc": func(n int, _ action.Action) int { return n + 1 },
//	}, nil)
//
// SliceReducer is the chainable form working from action creators. Handlers
// receive the payload already unwrapped, and matchers run as an ordered
// post-processing pass over every action:
//
//	counter := reducer.SliceReducer(0)(func(s *reducer.Slice[int]) {
//	    s.Handle(inc, reducer.Empty(func(n int) int { return n + 1 })).
//	        Handle(add, reducer.WithPayload(func(n, by int) int { return n + by })).
//	        Match(reducer.TypePrefix("counter/"), reducer.Empty(clamp))
//	})
//
// Reducers produced here hold no mutable state after construction and are
// safe to call from multiple goroutines, provided the handlers are.
// Panics raised by handlers are not recovered; the host store decides what
// a failed dispatch means.
package reducer

// Package action defines dispatchable actions and the creators that build them.
//
// An Action is a closed union of two variants:
//
//	EmptyAction{Type}              HasPayload() == false
//	PayloadAction[P]{Type, Payload} HasPayload() == true
//
// The variant itself is the discriminant. There is no hidden marker field, so
// two actions compare equal exactly when their type and payload do, and an
// action whose payload happens to be nil is still reported as carrying one.
//
// Creators are values, not bare functions: they expose Type() and
// HasPayload() so callers can tell what a creator builds without invoking it.
//
//	inc := action.Define("counter/inc")
//	add := action.DefineWithPayload("counter/add", func(n int) int { return n })
//
//	inc.Create()   // EmptyAction{Type: "counter/inc"}
//	add.Create(3)  // PayloadAction[int]{Type: "counter/add", Payload: 3}
//
// Aggregated creators are built from an ordered Enum of action types:
//
//	enum := action.MustEnum(action.E("inc", "counter/inc"), action.E("add", "counter/add"))
//	creators := action.ActionCreators(enum, map[string]action.PayloadFunc{
//	    "add": func(args ...any) any { return args[0] },
//	})
//
// This package imports only internal/toolbox.
package action

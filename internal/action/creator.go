package action

import "github.com/roach88/redg/internal/toolbox"

// Descriptor is what can be learned about a creator without invoking it.
type Descriptor interface {
	// Type returns the action type the creator produces.
	Type() string

	// HasPayload reports whether the creator produces payload actions.
	HasPayload() bool
}

// Creator is any action creator.
type Creator interface {
	Descriptor

	// Call invokes the creator with dynamically typed arguments.
	Call(args ...any) (Action, error)
}

// PayloadFunc computes a payload from arbitrary arguments. It is the untyped
// form accepted by DefineActionCreator and PayloadActionCreators.
type PayloadFunc func(args ...any) any

// EmptyCreator builds EmptyAction values of a fixed type.
type EmptyCreator struct {
	actionType string
}

// Define returns an EmptyCreator for actionType.
func Define(actionType string) EmptyCreator {
	return EmptyCreator{actionType: actionType}
}

// Type implements Creator.
func (c EmptyCreator) Type() string { return c.actionType }

// HasPayload implements Creator. Always false.
func (EmptyCreator) HasPayload() bool { return false }

// Create builds the action.
func (c EmptyCreator) Create() EmptyAction {
	return EmptyAction{Type: c.actionType}
}

// Call implements Creator. Arguments are ignored.
func (c EmptyCreator) Call(args ...any) (Action, error) {
	return c.Create(), nil
}

// Match reports whether a has this creator's type.
func (c EmptyCreator) Match(a Action) bool {
	return toolbox.ToBool(a) && a.ActionType() == c.actionType
}

// PayloadCreator builds PayloadAction values whose payload is computed from
// a single argument of type A. Use A = []any for an arbitrary argument list.
type PayloadCreator[A, P any] struct {
	actionType string
	create     func(A) P
}

// DefineWithPayload returns a PayloadCreator for actionType. A panic raised by
// create surfaces from Create or Call, not from DefineWithPayload.
func DefineWithPayload[A, P any](actionType string, create func(A) P) PayloadCreator[A, P] {
	return PayloadCreator[A, P]{actionType: actionType, create: create}
}

// Type implements Creator.
func (c PayloadCreator[A, P]) Type() string { return c.actionType }

// HasPayload implements Creator. Always true.
func (PayloadCreator[A, P]) HasPayload() bool { return true }

// Create builds the action from arg.
func (c PayloadCreator[A, P]) Create(arg A) PayloadAction[P] {
	return PayloadAction[P]{Type: c.actionType, Payload: c.create(arg)}
}

// Call implements Creator.
//
// Arguments are mapped onto A as follows: a single argument assignable to A
// is used directly; when A is []any the whole argument list is passed; no
// arguments (or a single nil) yield A's zero value. Anything else is an
// ArgumentError.
func (c PayloadCreator[A, P]) Call(args ...any) (Action, error) {
	arg, err := argsAs[A](c.actionType, args)
	if err != nil {
		return nil, err
	}
	return c.Create(arg), nil
}

// Match reports whether a has this creator's type.
func (c PayloadCreator[A, P]) Match(a Action) bool {
	return toolbox.ToBool(a) && a.ActionType() == c.actionType
}

// DefineActionCreator is the untyped definer. A nil fn yields an EmptyCreator;
// otherwise the creator forwards all arguments to fn and wraps the result as
// payload.
func DefineActionCreator(actionType string, fn PayloadFunc) Creator {
	if !toolbox.ToBool(fn) {
		return Define(actionType)
	}
	return DefineWithPayload(actionType, func(args []any) any {
		return fn(args...)
	})
}

func argsAs[A any](actionType string, args []any) (A, error) {
	var zero A
	// A list argument type receives the whole argument list, even when the
	// only argument is itself a list.
	if _, isList := any(zero).([]any); isList {
		v, _ := any(args).(A)
		return v, nil
	}
	if len(args) == 1 {
		if v, ok := args[0].(A); ok {
			return v, nil
		}
	}
	if len(args) == 0 || (len(args) == 1 && args[0] == nil) {
		return zero, nil
	}
	return zero, &ArgumentError{
		ActionType: actionType,
		Want:       typeName[A](),
		Got:        args,
	}
}

package compiler

import (
	"fmt"

	"github.com/roach88/redg/internal/action"
	"github.com/roach88/redg/internal/reducer"
	"github.com/roach88/redg/internal/toolbox"
	"github.com/roach88/redg/internal/wire"
)

// checkedCreator is the creator of a declared payload action. Call
// normalises its single argument and checks it against the declared kind.
type checkedCreator struct {
	action.PayloadCreator[any, any]
	kind PayloadKind
}

func (c checkedCreator) Call(args ...any) (action.Action, error) {
	if len(args) > 1 {
		return nil, &action.ArgumentError{ActionType: c.Type(), Want: string(c.kind), Got: args}
	}
	var raw any
	if len(args) == 1 {
		raw = args[0]
	}
	payload, err := wire.ToValue(raw)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", c.Type(), err)
	}
	if !c.kind.Accepts(payload) {
		return nil, &PayloadError{ActionType: c.Type(), Want: c.kind, Got: payload}
	}
	return c.Create(payload), nil
}

// Enum lists the slice's actions in declaration order.
func (d *SliceDef) Enum() action.Enum {
	entries := make([]action.EnumEntry, len(d.Actions))
	for i, a := range d.Actions {
		entries[i] = action.E(a.Key, a.Type)
	}
	return action.MustEnum(entries...)
}

// Creators returns one creator per action, keyed and ordered like Enum.
func (d *SliceDef) Creators() *action.Creators {
	creators := action.EmptyActionCreators(d.Enum())
	for _, a := range d.Actions {
		if a.Payload == PayloadNone {
			continue
		}
		creators.Set(a.Key, checkedCreator{
			PayloadCreator: action.DefineWithPayload(a.Type, toolbox.Identity[any]),
			kind:           a.Payload,
		})
	}
	return creators
}

// NewAction builds the action declared under key. Empty actions reject a
// non-nil payload.
func (d *SliceDef) NewAction(key string, payload any) (action.Action, error) {
	a, ok := d.Action(key)
	if !ok {
		return nil, fmt.Errorf("slice %s: unknown action %q", d.Name, key)
	}
	if a.Payload == PayloadNone && payload != nil {
		return nil, &PayloadError{ActionType: a.Type, Want: PayloadNone, Got: payload}
	}
	c, _ := d.Creators().Get(key)
	if a.Payload == PayloadNone {
		return c.Call()
	}
	return c.Call(payload)
}

// Reducer builds the slice reducer. Handled actions run their ops, other
// actions run the default ops, then every selected matcher runs in order.
// The init action a store reduces first is unhandled, so default ops (and
// any matcher selecting it) also run on init.
// Ops that do not fit the state panic with *OpError.
func (d *SliceDef) Reducer(opts ...reducer.SliceOption) reducer.Func[any] {
	creators := d.Creators()
	name := d.Name

	return reducer.SliceReducer[any](cloneValue(d.Initial), opts...)(func(s *reducer.Slice[any]) {
		for _, a := range d.Actions {
			ops, ok := d.Handle[a.Key]
			if !ok {
				continue
			}
			c, _ := creators.Get(a.Key)
			if a.Payload == PayloadNone {
				s.Handle(c, reducer.Empty(func(state any) any {
					return applyOps(name, state, ops, nil)
				}))
				continue
			}
			s.Handle(c, reducer.WithPayload(func(state any, payload any) any {
				return applyOps(name, state, ops, payload)
			}))
		}

		if d.Default != nil {
			ops := d.Default
			s.Default(func(state any, a action.Action) any {
				return applyOps(name, state, ops, a.PayloadValue())
			})
		}

		for _, m := range d.Match {
			ops := m.Ops
			s.Match(m.predicate(), reducer.WithPayload(func(state any, payload any) any {
				return applyOps(name, state, ops, payload)
			}))
		}
	})
}

func (m MatchDef) predicate() reducer.Predicate {
	var preds []reducer.Predicate
	if m.Prefix != "" {
		preds = append(preds, reducer.TypePrefix(m.Prefix))
	}
	if len(m.Types) > 0 {
		preds = append(preds, reducer.OfType(m.Types...))
	}
	if m.PayloadOnly {
		preds = append(preds, reducer.Carrying)
	}
	return reducer.All(preds...)
}

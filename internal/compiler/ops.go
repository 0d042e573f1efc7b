package compiler

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// OpKind names a state operation.
type OpKind string

const (
	OpSet    OpKind = "set"    // field = operand
	OpAdd    OpKind = "add"    // field += operand (integers)
	OpAppend OpKind = "append" // field = append(field, operand)
	OpRemove OpKind = "remove" // drop elements equal to operand from field
	OpUnset  OpKind = "unset"  // delete field
	OpToggle OpKind = "toggle" // field = !field
)

// Op is one compiled state operation.
//
// Field is a path of object keys; empty means the whole slice state. The
// operand is Value unless FromPayload is set, in which case it is read
// from the action payload at PayloadPath (empty = the payload itself).
type Op struct {
	Kind        OpKind
	Field       []string
	Value       any
	FromPayload bool
	PayloadPath []string
}

func (op Op) needsOperand() bool {
	return op.Kind != OpUnset && op.Kind != OpToggle
}

func (op Op) fieldName() string {
	return strings.Join(op.Field, ".")
}

// applyOps runs ops in order. States are never modified in place: every
// object or list on the updated path is copied.
func applyOps(slice string, state any, ops []Op, payload any) any {
	for _, op := range ops {
		next, err := op.apply(state, payload)
		if err != nil {
			panic(&OpError{Slice: slice, Op: op.Kind, Field: op.fieldName(), Message: err.Error()})
		}
		state = next
	}
	return state
}

func (op Op) apply(state, payload any) (any, error) {
	if op.Kind == OpUnset {
		return unsetPath(state, op.Field)
	}

	var operand any
	if op.needsOperand() {
		v, err := op.operand(payload)
		if err != nil {
			return nil, err
		}
		operand = v
	}

	return updatePath(state, true, op.Field, func(cur any, exists bool) (any, error) {
		switch op.Kind {
		case OpSet:
			return operand, nil

		case OpAdd:
			n, ok := operand.(int64)
			if !ok {
				return nil, fmt.Errorf("operand %v is not an integer", operand)
			}
			if !exists || cur == nil {
				return n, nil
			}
			c, ok := cur.(int64)
			if !ok {
				return nil, fmt.Errorf("current value %v is not an integer", cur)
			}
			return c + n, nil

		case OpAppend:
			list, err := asList(cur, exists)
			if err != nil {
				return nil, err
			}
			return append(slices.Clone(list), operand), nil

		case OpRemove:
			list, err := asList(cur, exists)
			if err != nil {
				return nil, err
			}
			return slices.DeleteFunc(slices.Clone(list), func(x any) bool {
				return reflect.DeepEqual(x, operand)
			}), nil

		case OpToggle:
			if !exists || cur == nil {
				return true, nil
			}
			b, ok := cur.(bool)
			if !ok {
				return nil, fmt.Errorf("current value %v is not a boolean", cur)
			}
			return !b, nil
		}
		return nil, fmt.Errorf("unknown op %q", op.Kind)
	})
}

func (op Op) operand(payload any) (any, error) {
	if !op.FromPayload {
		return cloneValue(op.Value), nil
	}
	v := payload
	for i, key := range op.PayloadPath {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("payload.%s is not an object", strings.Join(op.PayloadPath[:i], "."))
		}
		if v, ok = m[key]; !ok {
			return nil, fmt.Errorf("payload has no field %q", strings.Join(op.PayloadPath[:i+1], "."))
		}
	}
	return v, nil
}

func asList(cur any, exists bool) ([]any, error) {
	if !exists || cur == nil {
		return nil, nil
	}
	list, ok := cur.([]any)
	if !ok {
		return nil, fmt.Errorf("current value %v is not a list", cur)
	}
	return list, nil
}

// updatePath replaces the value at path with fn(current). Missing objects
// along the path are created.
func updatePath(state any, exists bool, path []string, fn func(cur any, exists bool) (any, error)) (any, error) {
	if len(path) == 0 {
		return fn(state, exists)
	}

	var m map[string]any
	switch s := state.(type) {
	case map[string]any:
		m = s
	case nil:
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", state, path[0])
	}

	child, ok := m[path[0]]
	next, err := updatePath(child, ok, path[1:], fn)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(m)+1)
	maps.Copy(out, m)
	out[path[0]] = next
	return out, nil
}

func unsetPath(state any, path []string) (any, error) {
	m, ok := state.(map[string]any)
	if !ok {
		if state == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot descend into %T at %q", state, path[0])
	}

	child, exists := m[path[0]]
	if !exists {
		return state, nil
	}

	out := maps.Clone(m)
	if len(path) == 1 {
		delete(out, path[0])
		return out, nil
	}
	next, err := unsetPath(child, path[1:])
	if err != nil {
		return nil, err
	}
	out[path[0]] = next
	return out, nil
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

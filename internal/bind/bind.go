// Package bind wraps action creators and thunks so that calling them sends
// their result straight through a host dispatch function.
//
// Bound values keep a type label for diagnostics. A creator's own type is
// preferred; thunks fall back to an explicit hint or to their function name:
//
//	inc := bind.BindActionCreator(action.Define("counter/inc"), store.Dispatcher(ctx), "")
//	inc.Type()  // "counter/inc"
//
//	load := bind.BindActionCreator(bind.Thunk[action.Action](loadUser), dispatch, "")
//	load.Type() // "loadUser()"
package bind

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/roach88/redg/internal/toolbox"
)

// Callable is anything invocable with dynamically typed arguments.
// action.Creator satisfies Callable[action.Action].
type Callable[T any] interface {
	Call(args ...any) (T, error)
}

// Thunk adapts a plain function to Callable.
type Thunk[T any] func(args ...any) (T, error)

// Call implements Callable.
func (f Thunk[T]) Call(args ...any) (T, error) {
	return f(args...)
}

// Bound is a callable whose result is dispatched on every call.
// Bound values are themselves Callable and can be bound again.
type Bound[R any] struct {
	actionType string
	call       func(args ...any) (R, error)
}

// Type returns the type label of the bound callable.
func (b Bound[R]) Type() string { return b.actionType }

// Call invokes the wrapped callable and dispatches its result. An error from
// the callable is returned without dispatching.
func (b Bound[R]) Call(args ...any) (R, error) {
	return b.call(args...)
}

// BindActionCreator returns g such that g.Call(args...) == dispatch(fn.Call(args...)).
//
// g.Type() is fn's own type when fn exposes one (a Type() method or a string
// Type field), otherwise typeHint when non-empty, otherwise "<name>()" built
// from fn's function or type name.
func BindActionCreator[T, R any](fn Callable[T], dispatch func(T) (R, error), typeHint string) Bound[R] {
	b := Bound[R]{
		call: func(args ...any) (R, error) {
			v, err := fn.Call(args...)
			if err != nil {
				var zero R
				return zero, err
			}
			return dispatch(v)
		},
	}

	if t, ok := typeField(fn); ok {
		b.actionType = t
	} else if typeHint != "" {
		b.actionType = typeHint
	} else {
		b.actionType = nameOf(fn) + "()"
	}
	return b
}

// BindActionCreators binds every entry of m. Entries without their own type
// are labelled "<treeName>.<key>()" (or "<key>()" when treeName is empty).
// The result has the same keys in the same order.
func BindActionCreators[C Callable[T], T, R any](
	m *toolbox.OrderedMap[C],
	dispatch func(T) (R, error),
	treeName string,
) *toolbox.OrderedMap[Bound[R]] {
	return toolbox.MapEntries(m, func(key string, c C) (string, Bound[R]) {
		hint := key + "()"
		if treeName != "" {
			hint = treeName + "." + hint
		}
		return key, BindActionCreator[T, R](c, dispatch, hint)
	})
}

// BindActionCreatorsTree binds a two-level tree of creator groups. Each group
// is bound with its own key as tree name.
func BindActionCreatorsTree[C Callable[T], T, R any](
	tree *toolbox.OrderedMap[*toolbox.OrderedMap[C]],
	dispatch func(T) (R, error),
) *toolbox.OrderedMap[*toolbox.OrderedMap[Bound[R]]] {
	return toolbox.MapEntries(tree, func(key string, group *toolbox.OrderedMap[C]) (string, *toolbox.OrderedMap[Bound[R]]) {
		return key, BindActionCreators[C, T, R](group, dispatch, key)
	})
}

// typeField looks up a type label on v. It never panics.
func typeField(v any) (label string, ok bool) {
	defer func() {
		if recover() != nil {
			label, ok = "", false
		}
	}()

	if t, isTyped := v.(interface{ Type() string }); isTyped {
		return t.Type(), true
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	f := rv.FieldByName("Type")
	if !f.IsValid() || !f.CanInterface() || !toolbox.IsString(f.Interface()) {
		return "", false
	}
	return f.String(), true
}

// nameOf returns the short name of a function value, or the type name of
// any other value.
func nameOf(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func && !rv.IsNil() {
		if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
			name := fn.Name()
			name = name[strings.LastIndex(name, "/")+1:]
			if i := strings.Index(name, "."); i >= 0 {
				name = name[i+1:]
			}
			return strings.TrimSuffix(name, "-fm")
		}
	}
	if !rv.IsValid() {
		return ""
	}
	t := rv.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

package action

import (
	"errors"
	"fmt"
	"reflect"
)

// ArgumentError reports arguments that cannot be mapped onto a typed
// creator's parameter in Call.
type ArgumentError struct {
	ActionType string
	Want       string
	Got        []any
}

func (e *ArgumentError) Error() string {
	got := make([]string, len(e.Got))
	for i, a := range e.Got {
		got[i] = fmt.Sprintf("%T", a)
	}
	return fmt.Sprintf("action %q: cannot use arguments %v as %s", e.ActionType, got, e.Want)
}

// IsArgumentError reports whether err is (or wraps) an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// EnumError reports an invalid Enum definition.
type EnumError struct {
	Key     string
	Message string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("enum key %q: %s", e.Key, e.Message)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

package toolbox

import "reflect"

// ToBool coerces x to a boolean using the usual truthiness rules:
// nil (including typed nil pointers, funcs, maps, slices, channels and
// interfaces), false, numeric zero and "" are false; everything else is true.
func ToBool(x any) bool {
	if x == nil {
		return false
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f != 0 && f == f // NaN is falsy
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return !v.IsNil()
	default:
		return true
	}
}

// IsString reports whether x holds a string (or a type whose underlying
// type is string).
func IsString(x any) bool {
	if x == nil {
		return false
	}
	return reflect.TypeOf(x).Kind() == reflect.String
}

// Identity returns its argument unchanged.
func Identity[T any](x T) T {
	return x
}

// Choose looks key up in table and returns the entry, or def when the key
// is absent. It is the table-with-fallback primitive reducers are built on.
func Choose[K comparable, F any](key K, table map[K]F, def F) F {
	if f, ok := table[key]; ok {
		return f
	}
	return def
}

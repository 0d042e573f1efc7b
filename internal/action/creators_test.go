package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var counterEnum = MustEnum(
	E("inc", "counter/INC"),
	E("add", "counter/ADD"),
	E("reset", "counter/RESET"),
)

func TestNewEnum(t *testing.T) {
	e, err := NewEnum(E("a", "A"), E("b", "B"))
	require.NoError(t, err)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, []string{"a", "b"}, e.Keys())

	typ, ok := e.Type("b")
	assert.True(t, ok)
	assert.Equal(t, "B", typ)

	_, ok = e.Type("c")
	assert.False(t, ok)
}

func TestNewEnum_RejectsDuplicatesAndEmptyKeys(t *testing.T) {
	_, err := NewEnum(E("a", "A"), E("a", "B"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")

	_, err = NewEnum(E("", "A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")

	assert.Panics(t, func() { MustEnum(E("x", "X"), E("x", "Y")) })
}

func TestEnumOf(t *testing.T) {
	e, err := EnumOf("OPEN", "CLOSE")
	require.NoError(t, err)
	assert.Equal(t, []EnumEntry{E("OPEN", "OPEN"), E("CLOSE", "CLOSE")}, e.Entries())
}

func TestEmptyActionCreators(t *testing.T) {
	creators := EmptyActionCreators(counterEnum)

	assert.Equal(t, counterEnum.Keys(), creators.Keys())
	for _, entry := range counterEnum.Entries() {
		c, ok := creators.Get(entry.Key)
		require.True(t, ok)
		assert.Equal(t, entry.Type, c.Type())
		assert.False(t, c.HasPayload())
	}
}

func TestEmptyActionCreators_EmptyEnum(t *testing.T) {
	creators := EmptyActionCreators(Enum{})
	assert.Equal(t, 0, creators.Len())
}

func TestPayloadActionCreators_MergeRules(t *testing.T) {
	eac := EmptyActionCreators(counterEnum)

	out := PayloadActionCreators(eac, map[string]PayloadFunc{
		"add":     func(args ...any) any { return args[0] },
		"unknown": func(args ...any) any { return "ignored" },
	})

	// mutated in place
	assert.Same(t, eac, out)
	assert.Equal(t, []string{"inc", "add", "reset"}, out.Keys())
	assert.False(t, out.Has("unknown"))

	add, _ := out.Get("add")
	assert.True(t, add.HasPayload())
	assert.Equal(t, "counter/ADD", add.Type(), "type comes from the registered creator, not the key")

	inc, _ := out.Get("inc")
	assert.False(t, inc.HasPayload())
	assert.Equal(t, "counter/INC", inc.Type())

	a, err := add.Call(5)
	require.NoError(t, err)
	assert.Equal(t, PayloadAction[any]{Type: "counter/ADD", Payload: 5}, a)
}

func TestPayloadActionCreators_UsesRegisteredType(t *testing.T) {
	eac := EmptyActionCreators(counterEnum)
	eac.Set("add", Define("custom/ADD"))

	PayloadActionCreators(eac, map[string]PayloadFunc{
		"add": func(args ...any) any { return nil },
	})

	add, _ := eac.Get("add")
	assert.Equal(t, "custom/ADD", add.Type())
}

func TestActionCreators(t *testing.T) {
	plain := ActionCreators(counterEnum, nil)
	for _, c := range plain.All() {
		assert.False(t, c.HasPayload())
	}

	mixed := ActionCreators(counterEnum, map[string]PayloadFunc{
		"add": func(args ...any) any { return args[0] },
	})
	add, _ := mixed.Get("add")
	assert.True(t, add.HasPayload())
	reset, _ := mixed.Get("reset")
	assert.False(t, reset.HasPayload())
}

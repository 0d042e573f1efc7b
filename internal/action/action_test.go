package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookalike struct {
	Type    string
	Payload any
}

func TestDefine_EmptyCreator(t *testing.T) {
	for _, actionType := range []string{"", "counter/inc", "Ünïcode/ACTION"} {
		t.Run(actionType, func(t *testing.T) {
			c := Define(actionType)

			a := c.Create()
			assert.Equal(t, EmptyAction{Type: actionType}, a)
			assert.False(t, a.HasPayload())
			assert.False(t, IsWithPayload(a))
			assert.Equal(t, actionType, c.Type())
			assert.False(t, c.HasPayload())
		})
	}
}

func TestDefineWithPayload(t *testing.T) {
	c := DefineWithPayload("todo/add", func(text string) map[string]any {
		return map[string]any{"text": text, "done": false}
	})

	a := c.Create("write tests")

	assert.Equal(t, "todo/add", a.Type)
	assert.Equal(t, map[string]any{"text": "write tests", "done": false}, a.Payload)
	assert.True(t, IsWithPayload(a))
	assert.True(t, c.HasPayload())
	assert.Equal(t, "todo/add", c.Type())
}

func TestDefineActionCreator_OptionalFunc(t *testing.T) {
	empty := DefineActionCreator("ping", nil)
	assert.False(t, empty.HasPayload())
	assert.IsType(t, EmptyCreator{}, empty)

	sum := DefineActionCreator("sum", func(args ...any) any {
		total := 0
		for _, a := range args {
			total += a.(int)
		}
		return total
	})
	require.True(t, sum.HasPayload())

	a, err := sum.Call(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, PayloadAction[any]{Type: "sum", Payload: 6}, a)
	assert.True(t, IsWithPayload(a))
}

func TestDefineActionCreator_PanicSurfacesAtCall(t *testing.T) {
	boom := func(args ...any) any { panic("boom") }

	var c Creator
	assert.NotPanics(t, func() { c = DefineActionCreator("x", boom) })
	assert.PanicsWithValue(t, "boom", func() { _, _ = c.Call() })
}

func TestPayloadCreator_NilPayloadStillCarriesPayload(t *testing.T) {
	c := DefineWithPayload("maybe", func(v *int) *int { return v })

	a := c.Create(nil)

	assert.True(t, a.HasPayload())
	assert.True(t, IsWithPayload(a))
	assert.Nil(t, a.PayloadValue())
}

func TestPayloadCreator_CallArgumentMapping(t *testing.T) {
	double := DefineWithPayload("double", func(n int) int { return n * 2 })

	a, err := double.Call(21)
	require.NoError(t, err)
	assert.Equal(t, PayloadAction[int]{Type: "double", Payload: 42}, a)

	a, err = double.Call()
	require.NoError(t, err)
	assert.Equal(t, PayloadAction[int]{Type: "double", Payload: 0}, a)

	_, err = double.Call("21")
	require.Error(t, err)
	assert.True(t, IsArgumentError(err))
	assert.Contains(t, err.Error(), `"double"`)
	assert.Contains(t, err.Error(), "int")

	_, err = double.Call(1, 2)
	assert.True(t, IsArgumentError(err))

	list := DefineWithPayload("list", func(args []any) int { return len(args) })
	a, err = list.Call("a", "b", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, a.PayloadValue())

	a, err = list.Call([]any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, a.PayloadValue(), "a single list argument is one argument")

	count := DefineActionCreator("count", func(args ...any) any { return len(args) })
	a, err = count.Call([]any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, a.PayloadValue())

	echo := DefineActionCreator("echo", func(args ...any) any { return args[0] })
	a, err = echo.Call([]any{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, a.PayloadValue())
}

func TestIsWithPayload_UnknownProvenance(t *testing.T) {
	var nilEmpty *EmptyAction

	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"nil pointer", nilEmpty},
		{"lookalike struct", lookalike{Type: "x", Payload: 1}},
		{"map", map[string]any{"type": "x", "payload": 1}},
		{"string", "x"},
		{"empty action", EmptyAction{Type: "x"}},
		{"empty action pointer", &EmptyAction{Type: "x"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, IsWithPayload(tc.in))
		})
	}
}

func TestPayloadOf(t *testing.T) {
	typed := PayloadAction[int]{Type: "n", Payload: 5}
	n, ok := PayloadOf[int](typed)
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	untyped := PayloadAction[any]{Type: "n", Payload: 7}
	n, ok = PayloadOf[int](untyped)
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = PayloadOf[string](typed)
	assert.False(t, ok)

	_, ok = PayloadOf[int](EmptyAction{Type: "n"})
	assert.False(t, ok)
}

func TestCreatorMatch(t *testing.T) {
	inc := Define("inc")
	add := DefineWithPayload("add", func(n int) int { return n })

	assert.True(t, inc.Match(inc.Create()))
	assert.False(t, inc.Match(add.Create(1)))
	assert.True(t, add.Match(PayloadAction[any]{Type: "add"}))
	assert.False(t, add.Match(nil))
}

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func programOf(t *testing.T, src string, paths ...string) *Program {
	t.Helper()
	defs := make([]*SliceDef, len(paths))
	for i, p := range paths {
		defs[i] = mustCompile(t, src, p)
	}
	p, err := NewProgram(defs...)
	require.NoError(t, err)
	return p
}

func TestValidateCleanProgram(t *testing.T) {
	p := programOf(t, counterSrc, "slice.counter")
	assert.Empty(t, Validate(p))
}

func TestValidateFindings(t *testing.T) {
	const src = `
slice: a: {
	actions: {
		go: {type: "a/go"}
		idle: {type: "a/idle"}
		noop: {type: "a/noop"}
	}
	handle: {
		go: [{op: "toggle", field: "on"}]
		noop: []
	}
	match: [
		{types: ["b/ping", "b/typo"], ops: [{op: "add", field: "n", value: 1}]},
		{prefix: "zzz/", ops: [{op: "unset", field: "n"}]},
		{prefix: "a/", payload: true, ops: [{op: "unset", field: "n"}]},
	]
}
slice: b: {
	actions: ping: {type: "b/ping"}
}
`
	p := programOf(t, src, "slice.a", "slice.b")

	errs := Validate(p)
	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code + " " + e.Slice + "." + e.Field
	}
	assert.Equal(t, []string{
		"E120 a.actions.idle",
		"E121 a.handle.noop",
		"E123 a.match[0]",
		"E122 a.match[1]",
		"E122 a.match[2]",
	}, codes)
	assert.Contains(t, errs[0].Message, `"a/idle"`)
	assert.Contains(t, errs[2].Message, `"b/typo"`)
	assert.Equal(t, `[E120] slice.a.actions.idle: no slice handles or matches "a/idle"`, errs[0].Error())
}

func TestValidateDefaultReachesEveryAction(t *testing.T) {
	const src = `
slice: log: {
	actions: note: {type: "log/note", payload: "string"}
	default: [{op: "add", field: "seen", value: 1}]
}
slice: other: {
	actions: tick: {type: "other/tick"}
}
`
	p := programOf(t, src, "slice.log", "slice.other")
	assert.Empty(t, Validate(p))
}

func TestMatchDefSelects(t *testing.T) {
	add := ActionDef{Key: "add", Type: "counter/add", Payload: PayloadInt}
	inc := ActionDef{Key: "inc", Type: "counter/inc"}

	tests := []struct {
		name string
		m    MatchDef
		a    ActionDef
		want bool
	}{
		{"prefix hit", MatchDef{Prefix: "counter/"}, inc, true},
		{"prefix miss", MatchDef{Prefix: "todos/"}, inc, false},
		{"types hit", MatchDef{Types: []string{"counter/add"}}, add, true},
		{"types miss", MatchDef{Types: []string{"counter/add"}}, inc, false},
		{"payload only", MatchDef{PayloadOnly: true}, inc, false},
		{"all conditions", MatchDef{Prefix: "counter/", Types: []string{"counter/add"}, PayloadOnly: true}, add, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Selects(tt.a))
		})
	}
}

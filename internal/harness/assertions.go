package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/redg/internal/wire"
)

// AssertionError is returned when an assertion fails. It carries the
// committed trace for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			if ev.HasPayload {
				fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.Type, render(ev.Payload))
			} else {
				fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, ev.Type)
			}
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	trace := result.Committed()

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(trace, a)
		case AssertTraceCount:
			err = assertTraceCount(trace, a)
		case AssertFinalState:
			err = assertFinalState(result.State, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// matchesAction reports whether ev is the action named by name, either as
// its type or as its "slice.key" reference.
func matchesAction(ev TraceEvent, name string) bool {
	return ev.Type == name || ev.Ref == name
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if !matchesAction(ev, a.Action) {
			continue
		}
		if a.Payload == nil || matchValue(ev.Payload, a.Payload) {
			return nil
		}
	}

	expected := "action " + a.Action
	if a.Payload != nil {
		expected += " with payload " + render(a.Payload)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the named actions
// appear in the given order. Other actions may sit in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make([]int, len(a.Actions))
	for i, name := range a.Actions {
		positions[i] = slices.IndexFunc(trace, func(ev TraceEvent) bool {
			return matchesAction(ev, name)
		})
		if positions[i] < 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   "missing action: " + name,
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(positions); i++ {
		if positions[i-1] >= positions[i] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					a.Actions[i-1], positions[i-1]+1, a.Actions[i], positions[i]+1),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matchesAction(ev, a.Action) {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalState(state map[string]any, a Assertion) error {
	var actual any = state
	label := "root state"
	if a.Slice != "" {
		sub, ok := state[a.Slice]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("slice %q in state", a.Slice),
				Actual:   fmt.Sprintf("slices: %v", sortedKeys(state)),
			}
		}
		actual, label = sub, "slice "+a.Slice
	}

	if !matchValue(actual, a.Expect) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s to contain %s", label, render(a.Expect)),
			Actual:   render(actual),
		}
	}
	return nil
}

// matchValue compares actual against expected with subset semantics for
// objects: keys missing from expected are ignored. Lists must match element
// by element. Both sides are normalised first, so YAML ints and journaled
// int64s compare equal.
func matchValue(actual, expected any) bool {
	a, err := wire.Normalize(actual)
	if err != nil {
		return false
	}
	e, err := wire.Normalize(expected)
	if err != nil {
		return false
	}
	return subset(a, e)
}

func subset(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, want := range exp {
			got, ok := act[k]
			if !ok || !subset(got, want) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !subset(act[i], exp[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(actual, expected)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

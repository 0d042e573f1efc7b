package reducer

import (
	"slices"
	"strings"

	"github.com/roach88/redg/internal/action"
)

// Predicate selects actions for Slice.Match. Creator Match methods
// (action.EmptyCreator.Match, action.PayloadCreator.Match) are predicates.
type Predicate func(a action.Action) bool

// OfType matches actions whose type is one of types.
func OfType(types ...string) Predicate {
	return func(a action.Action) bool {
		return slices.Contains(types, a.ActionType())
	}
}

// TypePrefix matches actions whose type starts with prefix.
func TypePrefix(prefix string) Predicate {
	return func(a action.Action) bool {
		return strings.HasPrefix(a.ActionType(), prefix)
	}
}

// Carrying matches actions with payload.
func Carrying(a action.Action) bool {
	return action.IsWithPayload(a)
}

// Any matches when at least one of preds does.
func Any(preds ...Predicate) Predicate {
	return func(a action.Action) bool {
		for _, p := range preds {
			if p(a) {
				return true
			}
		}
		return false
	}
}

// All matches when every one of preds does. All() matches everything.
func All(preds ...Predicate) Predicate {
	return func(a action.Action) bool {
		for _, p := range preds {
			if !p(a) {
				return false
			}
		}
		return true
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(a action.Action) bool {
		return !p(a)
	}
}

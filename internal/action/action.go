package action

import "github.com/roach88/redg/internal/toolbox"

// Action is an empty action or an action carrying payload.
// Only EmptyAction and PayloadAction implement it.
type Action interface {
	// ActionType returns the action's type string.
	ActionType() string

	// HasPayload reports which variant the action is.
	HasPayload() bool

	// PayloadValue returns the payload, or nil for empty actions.
	PayloadValue() any

	sealed()
}

// EmptyAction consists of just a type.
type EmptyAction struct {
	Type string `json:"type"`
}

// ActionType implements Action.
func (a EmptyAction) ActionType() string { return a.Type }

// HasPayload implements Action. Always false.
func (EmptyAction) HasPayload() bool { return false }

// PayloadValue implements Action. Always nil.
func (EmptyAction) PayloadValue() any { return nil }

func (EmptyAction) sealed() {}

// PayloadAction is an action carrying a typed payload.
type PayloadAction[P any] struct {
	Type    string `json:"type"`
	Payload P      `json:"payload"`
}

// ActionType implements Action.
func (a PayloadAction[P]) ActionType() string { return a.Type }

// HasPayload implements Action. Always true, even for a nil payload.
func (PayloadAction[P]) HasPayload() bool { return true }

// PayloadValue implements Action.
func (a PayloadAction[P]) PayloadValue() any { return a.Payload }

func (PayloadAction[P]) sealed() {}

// IsWithPayload reports whether v is an action carrying payload.
//
// Values of unknown provenance are accepted: nil, nil pointers and anything
// that is not an Action report false rather than failing.
func IsWithPayload(v any) bool {
	if !toolbox.ToBool(v) {
		return false
	}
	a, ok := v.(Action)
	return ok && a.HasPayload()
}

// PayloadOf extracts a typed payload from a. The second result is false when
// a is empty or its payload is not a P.
func PayloadOf[P any](a Action) (P, bool) {
	var zero P
	if !IsWithPayload(a) {
		return zero, false
	}
	if p, ok := a.(PayloadAction[P]); ok {
		return p.Payload, true
	}
	p, ok := a.PayloadValue().(P)
	return p, ok
}

package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/redg/internal/action"
)

// Record is the serialised form of an action.
type Record struct {
	Type       string
	Payload    any
	HasPayload bool
}

// Encode converts an action to a Record, normalising its payload.
func Encode(a action.Action) (Record, error) {
	if a == nil {
		return Record{}, errors.New("encode: nil action")
	}
	r := Record{Type: a.ActionType(), HasPayload: a.HasPayload()}
	if !r.HasPayload {
		return r, nil
	}
	p, err := ToValue(a.PayloadValue())
	if err != nil {
		return Record{}, fmt.Errorf("encode %q payload: %w", r.Type, err)
	}
	r.Payload = p
	return r, nil
}

// Decode rebuilds an action from a Record. Payload actions come back as
// action.PayloadAction[any].
func Decode(r Record) action.Action {
	if r.HasPayload {
		return action.PayloadAction[any]{Type: r.Type, Payload: r.Payload}
	}
	return action.EmptyAction{Type: r.Type}
}

// MarshalJSON emits the payload key only when HasPayload is set.
func (r Record) MarshalJSON() ([]byte, error) {
	if !r.HasPayload {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{r.Type})
	}
	return json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{r.Type, r.Payload})
}

// UnmarshalJSON accepts {"type": ..., "payload"?: ...}. Unknown keys are
// rejected.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	rawType, ok := fields["type"]
	if !ok {
		return errors.New("record: missing \"type\"")
	}
	var out Record
	if err := json.Unmarshal(rawType, &out.Type); err != nil {
		return fmt.Errorf("record: type: %w", err)
	}
	for k := range fields {
		if k != "type" && k != "payload" {
			return fmt.Errorf("record: unknown field %q", k)
		}
	}
	if rawPayload, ok := fields["payload"]; ok {
		p, err := DecodeJSON(bytes.TrimSpace(rawPayload))
		if err != nil {
			return fmt.Errorf("record: payload: %w", err)
		}
		out.Payload = p
		out.HasPayload = true
	}
	*r = out
	return nil
}

package action

import "slices"

// EnumEntry maps a symbolic key to an action type string.
type EnumEntry struct {
	Key  string `json:"key"`
	Type string `json:"type"`
}

// E is shorthand for EnumEntry.
// Example: MustEnum(E("inc", "counter/inc"), E("dec", "counter/dec"))
func E(key, actionType string) EnumEntry {
	return EnumEntry{Key: key, Type: actionType}
}

// Enum is an ordered set of action types addressed by unique keys.
// Entry order drives creator construction order only; it carries no meaning.
type Enum struct {
	entries []EnumEntry
	index   map[string]int
}

// NewEnum builds an Enum. Keys must be non-empty and unique.
func NewEnum(entries ...EnumEntry) (Enum, error) {
	e := Enum{
		entries: make([]EnumEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		if entry.Key == "" {
			return Enum{}, &EnumError{Key: entry.Key, Message: "key must not be empty"}
		}
		if _, dup := e.index[entry.Key]; dup {
			return Enum{}, &EnumError{Key: entry.Key, Message: "duplicate key"}
		}
		e.index[entry.Key] = len(e.entries)
		e.entries = append(e.entries, entry)
	}
	return e, nil
}

// MustEnum is NewEnum that panics on error. Intended for package-level vars.
func MustEnum(entries ...EnumEntry) Enum {
	e, err := NewEnum(entries...)
	if err != nil {
		panic(err)
	}
	return e
}

// EnumOf builds an Enum whose keys are the type strings themselves.
func EnumOf(types ...string) (Enum, error) {
	entries := make([]EnumEntry, len(types))
	for i, t := range types {
		entries[i] = E(t, t)
	}
	return NewEnum(entries...)
}

// Len returns the number of entries.
func (e Enum) Len() int { return len(e.entries) }

// Entries returns a copy of the entries in order.
func (e Enum) Entries() []EnumEntry { return slices.Clone(e.entries) }

// Keys returns the keys in order.
func (e Enum) Keys() []string {
	keys := make([]string, len(e.entries))
	for i, entry := range e.entries {
		keys[i] = entry.Key
	}
	return keys
}

// Type returns the action type registered under key.
func (e Enum) Type(key string) (string, bool) {
	i, ok := e.index[key]
	if !ok {
		return "", false
	}
	return e.entries[i].Type, true
}

package action

import "github.com/roach88/redg/internal/toolbox"

// Creators maps enum keys to action creators, in enum order.
type Creators = toolbox.OrderedMap[Creator]

// EmptyActionCreators builds one EmptyCreator per enum entry, in enum order.
// An empty enum yields an empty mapping.
func EmptyActionCreators(e Enum) *Creators {
	creators := toolbox.NewOrderedMap[Creator]()
	for _, entry := range e.entries {
		creators.Set(entry.Key, Define(entry.Type))
	}
	return creators
}

// PayloadActionCreators replaces, for every key present in both eac and pcs,
// the creator in eac with a payload creator built from pcs[key]. The type
// string already registered in eac is reused, never derived from the key.
//
// Keys only in eac are left alone; keys only in pcs are ignored. eac is
// modified in place and returned.
func PayloadActionCreators(eac *Creators, pcs map[string]PayloadFunc) *Creators {
	matched := toolbox.NewOrderedMap[PayloadFunc]()
	for _, key := range eac.Keys() {
		if fn, ok := pcs[key]; ok {
			matched.Set(key, fn)
		}
	}

	return eac.Assign(toolbox.MapEntries(matched, func(key string, fn PayloadFunc) (string, Creator) {
		registered, _ := eac.Get(key)
		return key, DefineActionCreator(registered.Type(), fn)
	}))
}

// ActionCreators builds creators for every enum entry, then merges in payload
// creators when pcs is non-empty.
func ActionCreators(e Enum, pcs map[string]PayloadFunc) *Creators {
	eac := EmptyActionCreators(e)
	if len(pcs) == 0 {
		return eac
	}
	return PayloadActionCreators(eac, pcs)
}

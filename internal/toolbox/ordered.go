package toolbox

import (
	"iter"
	"slices"
)

// OrderedMap is a string-keyed mapping that remembers insertion order.
//
// Re-setting an existing key replaces its value but keeps its position.
// The zero value is not usable; create maps with NewOrderedMap.
type OrderedMap[V any] struct {
	keys  []string
	items map[string]V
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{items: make(map[string]V)}
}

// Set stores v under key.
func (m *OrderedMap[V]) Set(key string, v V) {
	if _, exists := m.items[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	v, ok := m.items[key]
	return v, ok
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key. Missing keys are ignored.
func (m *OrderedMap[V]) Delete(key string) {
	if _, exists := m.items[key]; !exists {
		return
	}
	delete(m.items, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Len returns the number of entries. A nil map has length 0.
func (m *OrderedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates entries in insertion order.
func (m *OrderedMap[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.items[k]) {
				return
			}
		}
	}
}

// Assign copies every entry of src into m (shallow merge, src wins).
// Returns m for chaining.
func (m *OrderedMap[V]) Assign(src *OrderedMap[V]) *OrderedMap[V] {
	for k, v := range src.All() {
		m.Set(k, v)
	}
	return m
}

// MapEntries applies f to every (key, value) pair of m and collects the
// results into a new OrderedMap, preserving order. If f maps two entries to
// the same key the later one wins.
func MapEntries[V, W any](m *OrderedMap[V], f func(key string, v V) (string, W)) *OrderedMap[W] {
	out := NewOrderedMap[W]()
	for k, v := range m.All() {
		nk, nv := f(k, v)
		out.Set(nk, nv)
	}
	return out
}

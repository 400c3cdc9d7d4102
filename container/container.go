// Package container provides collection abstractions that serialize
// structurally rather than by concrete type. Any value implementing
// Sequence or Mapping is written as an ordered stream of child
// elements and rebuilt the same way on read.
package container

// Sequence is an ordered collection of values. Implementations are
// serialized as a run of child elements, one per value, in order.
type Sequence interface {
	Len() int
	At(i int) any
	Append(v any)
}

// Mapping is a key/value collection. Implementations are serialized
// as alternating Key/Value child elements in iteration order.
type Mapping interface {
	Len() int
	Range(fn func(k, v any) bool)
	Put(k, v any)
}

// List is a growable Sequence backed by a slice. The zero value is
// ready to use.
type List struct {
	items []any
}

// NewList returns a List seeded with the given values.
func NewList(items ...any) *List {
	return &List{items: items}
}

func (l *List) Len() int { return len(l.items) }

func (l *List) At(i int) any { return l.items[i] }

func (l *List) Append(v any) { l.items = append(l.items, v) }

// Values returns the backing slice. Mutating it mutates the list.
func (l *List) Values() []any { return l.items }

// OrderedMap is a Mapping that preserves insertion order. The zero
// value is ready to use.
type OrderedMap struct {
	keys   []any
	values map[any]any
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[any]any)}
}

func (m *OrderedMap) Len() int { return len(m.keys) }

// Get returns the value stored under k, and whether it was present.
func (m *OrderedMap) Get(k any) (any, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Put stores v under k. Inserting an existing key updates the value
// in place without changing its position.
func (m *OrderedMap) Put(k, v any) {
	if m.values == nil {
		m.values = make(map[any]any)
	}
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

// Range calls fn for each entry in insertion order until fn returns
// false.
func (m *OrderedMap) Range(fn func(k, v any) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

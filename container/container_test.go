package container

import (
	"reflect"
	"testing"
)

func TestList_AppendAndAt(t *testing.T) {
	var l List
	l.Append("a")
	l.Append(2)

	if l.Len() != 2 {
		t.Fatalf("Len() = %d", l.Len())
	}
	if l.At(0) != "a" || l.At(1) != 2 {
		t.Errorf("items = %v", l.Values())
	}
}

func TestNewList_Seeded(t *testing.T) {
	l := NewList(1, 2, 3)
	if !reflect.DeepEqual(l.Values(), []any{1, 2, 3}) {
		t.Errorf("Values() = %v", l.Values())
	}
}

func TestOrderedMap_PutGet(t *testing.T) {
	var m OrderedMap
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("a", 10) // update in place

	if m.Len() != 2 {
		t.Fatalf("Len() = %d", m.Len())
	}
	if v, ok := m.Get("a"); !ok || v != 10 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get() of an absent key should report false")
	}
}

func TestOrderedMap_RangeOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Put("c", 3)
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("a", 9) // must not move

	var keys []any
	m.Range(func(k, _ any) bool {
		keys = append(keys, k)
		return true
	})
	if !reflect.DeepEqual(keys, []any{"c", "a", "b"}) {
		t.Errorf("iteration order = %v", keys)
	}
}

func TestOrderedMap_RangeStops(t *testing.T) {
	m := NewOrderedMap()
	m.Put("a", 1)
	m.Put("b", 2)

	calls := 0
	m.Range(func(_, _ any) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Errorf("Range visited %d entries after stop", calls)
	}
}

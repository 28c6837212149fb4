package capability

import "encoding/json"

// Set is an immutable, insertion-ordered set.
type Set[T comparable] struct {
	items []T
}

// NewSet returns a set of items with duplicates removed.
func NewSet[T comparable](items ...T) Set[T] {
	out := make([]T, 0, len(items))
	seen := make(map[T]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return Set[T]{items: out}
}

// Contains reports whether v is in the set.
func (s Set[T]) Contains(v T) bool {
	for _, item := range s.items {
		if item == v {
			return true
		}
	}
	return false
}

// Len returns the number of items.
func (s Set[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the items in insertion order.
func (s Set[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// MarshalJSON encodes the set as a JSON array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

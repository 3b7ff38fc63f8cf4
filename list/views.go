package list

import (
	"sort"

	"github.com/m93a/sklep/store"
)

// Sorted is a derived view of the list ordered by less. It recomputes
// whenever the list publishes a new snapshot and never reorders the
// list itself.
func (l *List[T]) Sorted(less func(a, b T) bool) *store.Derived[[]T] {
	return store.Derive[[]T, []T](l.cell, func(items []T) []T {
		out := append([]T(nil), items...)
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
		return out
	})
}

// Reversed is a derived view with the elements in reverse order.
func (l *List[T]) Reversed() *store.Derived[[]T] {
	return store.Derive[[]T, []T](l.cell, func(items []T) []T {
		out := make([]T, len(items))
		for i, v := range items {
			out[len(items)-1-i] = v
		}
		return out
	})
}

// Slice is a derived view of the half-open range [lo, hi), clamped to
// the list's current bounds.
func (l *List[T]) Slice(lo, hi int) *store.Derived[[]T] {
	return store.Derive[[]T, []T](l.cell, func(items []T) []T {
		from, to := lo, hi
		if from < 0 {
			from = 0
		}
		if to > len(items) {
			to = len(items)
		}
		if from >= to {
			return nil
		}
		return append([]T(nil), items[from:to]...)
	})
}

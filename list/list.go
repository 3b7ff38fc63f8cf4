// Package list is a reactive ordered container built on the store
// engine. Every structural edit publishes one immutable snapshot
// through an internal cell, so subscribers and derived views observe
// whole-list waves with the engine's invalidate-then-notify ordering.
package list

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/m93a/sklep/store"
)

// List holds an ordered sequence of values. Reads are positional;
// edits re-index any tracked entries and then publish a fresh
// snapshot.
type List[T any] struct {
	items   []T
	cell    *store.Writable[[]T]
	tracked mapset.Set[*Entry[T]]
}

// New creates a list seeded with items.
func New[T any](items ...T) *List[T] {
	l := &List[T]{
		items:   append([]T(nil), items...),
		tracked: mapset.NewSet[*Entry[T]](),
	}
	l.cell = store.NewWritable(l.snapshot())
	return l
}

func (l *List[T]) snapshot() []T { return append([]T(nil), l.items...) }

func (l *List[T]) publish() { l.cell.Set(l.snapshot()) }

// Len returns the number of elements.
func (l *List[T]) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *List[T]) At(i int) T { return l.items[i] }

// Snapshot returns a copy of the current contents.
func (l *List[T]) Snapshot() []T { return l.snapshot() }

// SetAt replaces the element at index i.
func (l *List[T]) SetAt(i int, v T) {
	l.items[i] = v
	l.publish()
}

// Push appends v at the end.
func (l *List[T]) Push(v T) {
	l.items = append(l.items, v)
	l.publish()
}

// Insert places v at index i, shifting later elements right. Tracked
// entries at or past i follow their elements.
func (l *List[T]) Insert(i int, v T) {
	l.items = append(l.items, v)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	for _, e := range l.tracked.ToSlice() {
		if e.index >= i {
			e.index++
		}
	}
	l.publish()
}

// RemoveAt deletes and returns the element at index i. A tracked entry
// at i stops tracking; entries past i follow their elements left.
func (l *List[T]) RemoveAt(i int) T {
	v := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	for _, e := range l.tracked.ToSlice() {
		switch {
		case e.index == i:
			e.index = removed
			l.tracked.Remove(e)
		case e.index > i:
			e.index--
		}
	}
	l.publish()
	return v
}

// Move relocates the element at from to index to. Tracked entries,
// including one on the moved element itself, follow their elements.
func (l *List[T]) Move(from, to int) {
	if from == to {
		return
	}
	v := l.items[from]
	if from < to {
		copy(l.items[from:], l.items[from+1:to+1])
	} else {
		copy(l.items[to+1:], l.items[to:from])
	}
	l.items[to] = v
	for _, e := range l.tracked.ToSlice() {
		switch {
		case e.index == from:
			e.index = to
		case from < to && e.index > from && e.index <= to:
			e.index--
		case from > to && e.index >= to && e.index < from:
			e.index++
		}
	}
	l.publish()
}

// Subscribe registers over the snapshot cell and immediately delivers
// the current snapshot.
func (l *List[T]) Subscribe(run store.Subscriber[[]T], invalidate ...store.Invalidator) store.Unsubscriber {
	return l.cell.Subscribe(run, invalidate...)
}

// Listen registers over the snapshot cell without the immediate call.
func (l *List[T]) Listen(run store.Subscriber[[]T], invalidate ...store.Invalidator) store.Unsubscriber {
	return l.cell.Listen(run, invalidate...)
}

const removed = -1

// Entry follows one element through structural edits. Index reports
// the element's current position, -1 once it has been removed.
type Entry[T any] struct {
	list  *List[T]
	index int
}

// Track starts following the element currently at index i.
func (l *List[T]) Track(i int) *Entry[T] {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	e := &Entry[T]{list: l, index: i}
	l.tracked.Add(e)
	return e
}

func (e *Entry[T]) Index() int { return e.index }

// Value returns the tracked element, or the zero value once removed.
func (e *Entry[T]) Value() T {
	if e.index == removed {
		var zero T
		return zero
	}
	return e.list.items[e.index]
}

// Release stops tracking. Releasing twice is a no-op.
func (e *Entry[T]) Release() {
	e.list.tracked.Remove(e)
	e.index = removed
}

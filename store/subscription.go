package store

// Subscriber receives a cell's newly committed value together with the
// value committed before it. On the initial synchronous call made by
// Subscribe both arguments are the current value.
type Subscriber[T any] func(value, previous T)

// Invalidator is told that a change is coming, before the value itself
// is delivered. Within one wave every invalidator fires before any
// subscriber sees the new value.
type Invalidator func()

// Unsubscriber cancels a subscription. It can be invoked directly as a
// plain cancel function or through the named Unsubscribe method; the
// first call removes the subscription and reports true, every later
// call reports false.
type Unsubscriber func() bool

// Unsubscribe is the named form of calling the Unsubscriber itself.
func (u Unsubscriber) Unsubscribe() bool { return u() }

type entry[T any] struct {
	run        Subscriber[T]
	invalidate Invalidator
	removed    bool
}

// registry is the ordered subscriber list shared by mutable and
// derived cells. Notification walks a snapshot of the entries taken at
// wave start, so a callback may subscribe or unsubscribe without
// corrupting the in-progress iteration.
type registry[T any] struct {
	entries []*entry[T]
}

func (r *registry[T]) add(run Subscriber[T], invalidate Invalidator) *entry[T] {
	e := &entry[T]{run: run, invalidate: invalidate}
	r.entries = append(r.entries, e)
	return e
}

// remove scans by entry identity, not callback equality, so the same
// callback may be registered more than once.
func (r *registry[T]) remove(e *entry[T]) bool {
	if e.removed {
		return false
	}
	for i, cur := range r.entries {
		if cur == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			e.removed = true
			return true
		}
	}
	return false
}

func (r *registry[T]) len() int { return len(r.entries) }

func (r *registry[T]) snapshot() []*entry[T] {
	return append([]*entry[T](nil), r.entries...)
}

func (r *registry[T]) invalidateAll() {
	for _, e := range r.snapshot() {
		if e.removed || e.invalidate == nil {
			continue
		}
		e.invalidate()
	}
}

func (r *registry[T]) notifyAll(value, previous T) {
	for _, e := range r.snapshot() {
		if e.removed {
			continue
		}
		e.run(value, previous)
	}
}

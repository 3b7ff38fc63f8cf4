// Package store is a reactive value propagation engine: mutable cells
// whose changes are observed by subscribers, plus derived cells that
// compose one or more sources into a computed value without stale or
// duplicate notifications. All propagation is synchronous; every Set,
// Invalidate and Subscribe runs to completion before returning.
package store

// StartStopNotifier runs when a cell gains its first subscriber. It
// receives set and invalidate bound to the cell; a non-nil returned
// func is remembered as the stop action and runs exactly once when the
// last subscriber leaves.
type StartStopNotifier[T any] func(set func(T) T, invalidate func()) func()

// Readable is the read surface shared by mutable and derived cells.
type Readable[T any] interface {
	// Get returns the last committed value, dirty or not.
	Get() T
	// IsDirty reports whether a change has been announced but not yet
	// committed.
	IsDirty() bool
	// Subscribe registers the pair and immediately calls run with the
	// current value as both arguments.
	Subscribe(run Subscriber[T], invalidate ...Invalidator) Unsubscriber
	// Listen registers like Subscribe without the immediate call.
	Listen(run Subscriber[T], invalidate ...Invalidator) Unsubscriber
}

// Writable is a mutable cell: one value slot, an ordered subscriber
// list, a dirty flag and an optional lifecycle hook.
type Writable[T any] struct {
	value    T
	dirty    bool
	equality Equality
	subs     registry[T]
	start    StartStopNotifier[T]
	stop     func()
	// active is set once the start hook has returned and cleared when
	// the last subscriber leaves; notifications fire only while set.
	active bool
}

// WritableOption configures a cell at construction.
type WritableOption[T any] func(*Writable[T])

// WithEquality overrides the cell's equality mode. The default,
// EqualityPrimitive, skips notification for unchanged scalars while
// still re-notifying reassigned non-primitives.
func WithEquality[T any](mode Equality) WritableOption[T] {
	return func(w *Writable[T]) { w.equality = mode }
}

// WithStart installs the lifecycle hook run on the 0→1 subscriber
// transition.
func WithStart[T any](start StartStopNotifier[T]) WritableOption[T] {
	return func(w *Writable[T]) { w.start = start }
}

// NewWritable creates a mutable cell holding initial.
func NewWritable[T any](initial T, opts ...WritableOption[T]) *Writable[T] {
	w := &Writable[T]{value: initial}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewReadable creates a cell whose value can only change from inside
// its lifecycle hook; the returned surface exposes no Set.
func NewReadable[T any](initial T, start StartStopNotifier[T]) Readable[T] {
	return NewWritable(initial, WithStart[T](start))
}

// Get returns the current value slot. Dirtiness is advisory only: a
// dirty cell still returns the last committed value, never a
// half-updated one.
func (w *Writable[T]) Get() T { return w.value }

func (w *Writable[T]) IsDirty() bool { return w.dirty }

// Invalidate marks the cell dirty and tells every subscriber, in
// subscription order, that a change is imminent. It is idempotent: a
// second call before the next commit is a no-op, so an invalidation
// callback may itself invalidate this or another cell without
// re-entrant double-firing.
func (w *Writable[T]) Invalidate() {
	if w.dirty {
		return
	}
	w.dirty = true
	if w.active {
		w.subs.invalidateAll()
	}
}

// Set commits a new value and returns it. When the cell is clean and
// the equality mode deems the value unchanged, nothing happens and the
// existing value is returned. Otherwise all invalidators fire, the
// value is stored, the dirty flag clears, and every subscriber
// receives (value, previous), in subscription order. Subscriber
// panics are not isolated; a panicking callback propagates and later
// entries in the wave are not notified.
func (w *Writable[T]) Set(value T) T {
	if !w.dirty && !shouldNotify(any(w.value), any(value), w.equality) {
		return w.value
	}
	w.Invalidate()
	previous := w.value
	w.value = value
	w.dirty = false
	if w.active {
		w.subs.notifyAll(value, previous)
	}
	return value
}

// Update is Set(fn(Get())).
func (w *Writable[T]) Update(fn func(T) T) T { return w.Set(fn(w.value)) }

// Subscribe registers the pair and then synchronously calls run with
// the current value as both value and previous. Registration happens
// first, so a lifecycle hook triggered by this being the first
// subscriber can Set before the initial notification fires.
func (w *Writable[T]) Subscribe(run Subscriber[T], invalidate ...Invalidator) Unsubscriber {
	unsub := w.Listen(run, invalidate...)
	run(w.value, w.value)
	return unsub
}

// Listen registers like Subscribe but performs no immediate call.
func (w *Writable[T]) Listen(run Subscriber[T], invalidate ...Invalidator) Unsubscriber {
	var inv Invalidator
	if len(invalidate) > 0 {
		inv = invalidate[0]
	}
	e := w.subs.add(run, inv)
	if w.subs.len() == 1 {
		w.activate()
	}
	return func() bool {
		if !w.subs.remove(e) {
			return false
		}
		if w.subs.len() == 0 {
			w.deactivate()
		}
		return true
	}
}

func (w *Writable[T]) activate() {
	if w.start != nil {
		w.stop = w.start(w.Set, w.Invalidate)
	}
	w.active = true
}

// deactivate runs the stop action at most once per 1→0 transition,
// even when teardown is triggered from inside a notification wave.
func (w *Writable[T]) deactivate() {
	w.active = false
	if w.stop != nil {
		stop := w.stop
		w.stop = nil
		stop()
	}
}

package store

// Cleanup undoes whatever an update func set up. It runs before the
// next dispatch and at teardown.
type Cleanup func()

// UpdateFunc computes a derived cell. values holds the current source
// values in source order, previous is the cell's last committed value
// and previousValues the source values observed when an update was
// last dispatched. The func may call set zero or more times and may
// return a Cleanup.
type UpdateFunc[T any] func(values []any, set func(T) T, previous T, previousValues []any) Cleanup

// DerivedConfig is the single canonical construction record for
// derived cells; the Derive builders are thin wrappers over it.
type DerivedConfig[T any] struct {
	// Sources are subscribed to, in order, when the cell gains its
	// first subscriber, and detached when the last one leaves.
	Sources []Readable[any]
	Update  UpdateFunc[T]
	// Initial is the committed value before the first dispatch, and
	// again after teardown.
	Initial T
	// SkipUnchanged suppresses a dispatch when no source value differs
	// from the values of the previous dispatch.
	SkipUnchanged bool
	// RunWithDirtySources dispatches on every source delivery, even
	// while other sources are still dirty for the current wave. Leave
	// false to recompute only once every source has settled; that is
	// what keeps a shared-ancestor diamond from computing with one
	// fresh and one stale input.
	RunWithDirtySources bool
}

// Derived composes source cells into one computed cell. While it has
// subscribers it stays attached to its sources; with none it detaches
// completely and Get recomputes from live sources on every call.
type Derived[T any] struct {
	cell       *Writable[T]
	cfg        DerivedConfig[T]
	slots      []depSlot
	cleanup    Cleanup
	dispatched bool
}

// depSlot is the per-source bookkeeping: the last delivered value, the
// value at the previous dispatched update, dirtiness for the current
// wave, and the detach handle for the source subscription.
type depSlot struct {
	value    any
	previous any
	dirty    bool
	// seen flips once the source has delivered at least one value; no
	// dispatch may run before every slot has, whatever the policy.
	seen   bool
	detach Unsubscriber
}

// NewDerived creates a derived cell from the canonical config.
func NewDerived[T any](cfg DerivedConfig[T]) *Derived[T] {
	if len(cfg.Sources) == 0 {
		panic("store: derived cell needs at least one source")
	}
	if cfg.Update == nil {
		panic("store: derived cell needs an update func")
	}
	d := &Derived[T]{cfg: cfg}
	d.cell = NewWritable(cfg.Initial, WithStart[T](d.attach))
	return d
}

// attach is the lifecycle hook of the inner cell. Each source gets a
// value callback and an invalidation callback: invalidation marks the
// slot dirty and cascades dirtiness upward before any value moves, so
// every downstream subscriber hears "something upstream is changing"
// first.
func (d *Derived[T]) attach(set func(T) T, invalidate func()) func() {
	d.slots = make([]depSlot, len(d.cfg.Sources))
	for i := range d.slots {
		d.slots[i].dirty = true
	}
	for i, src := range d.cfg.Sources {
		i := i
		d.slots[i].detach = src.Subscribe(
			func(v, _ any) {
				d.markClean(i, v)
				d.maybeDispatch(set)
			},
			func() {
				d.markDirty(i)
				invalidate()
			},
		)
	}
	return d.detachAll
}

// maybeDispatch runs the update func unless a policy holds it back:
// by default a still-dirty sibling source defers the dispatch until
// that source has re-delivered for the current wave.
func (d *Derived[T]) maybeDispatch(set func(T) T) {
	if !d.allSeen() {
		return
	}
	if !d.cfg.RunWithDirtySources && d.anyDirty() {
		return
	}
	if d.cfg.SkipUnchanged && d.dispatched && !d.changedSinceDispatch() {
		return
	}
	if d.cleanup != nil {
		d.cleanup()
		d.cleanup = nil
	}
	d.cleanup = d.cfg.Update(d.currentValues(), set, d.cell.value, d.previousValues())
	d.snapshotPrevious()
}

func (d *Derived[T]) anyDirty() bool {
	for i := range d.slots {
		if d.slots[i].dirty {
			return true
		}
	}
	return false
}

func (d *Derived[T]) markDirty(i int) { d.slots[i].dirty = true }

func (d *Derived[T]) markClean(i int, v any) {
	d.slots[i].value = v
	d.slots[i].dirty = false
	d.slots[i].seen = true
}

func (d *Derived[T]) allSeen() bool {
	for i := range d.slots {
		if !d.slots[i].seen {
			return false
		}
	}
	return true
}

// snapshotPrevious records the dispatched source values. It runs only
// after an actual dispatch, so skipped updates do not corrupt the
// previous-value history.
func (d *Derived[T]) snapshotPrevious() {
	for i := range d.slots {
		d.slots[i].previous = d.slots[i].value
	}
	d.dispatched = true
}

func (d *Derived[T]) changedSinceDispatch() bool {
	for i := range d.slots {
		if !identical(d.slots[i].value, d.slots[i].previous) {
			return true
		}
	}
	return false
}

func (d *Derived[T]) currentValues() []any {
	values := make([]any, len(d.slots))
	for i := range d.slots {
		values[i] = d.slots[i].value
	}
	return values
}

func (d *Derived[T]) previousValues() []any {
	values := make([]any, len(d.slots))
	for i := range d.slots {
		values[i] = d.slots[i].previous
	}
	return values
}

// detachAll is the stop action of the inner cell. An idle derived cell
// does not track live updates, so its snapshot must not be trusted:
// every source is unsubscribed, the pending cleanup runs, slots are
// discarded and the committed value resets to Initial.
func (d *Derived[T]) detachAll() {
	for i := range d.slots {
		if d.slots[i].detach != nil {
			d.slots[i].detach()
		}
	}
	if d.cleanup != nil {
		d.cleanup()
		d.cleanup = nil
	}
	d.slots = nil
	d.dispatched = false
	d.cell.value = d.cfg.Initial
	d.cell.dirty = false
}

// Get returns the committed value while the cell is active. With no
// subscribers it performs a one-shot pull instead: every source is
// read through the read helper, the update func runs once with a
// setter writing into a local slot, and that slot is returned without
// touching lifecycle state or leaving subscriptions behind.
func (d *Derived[T]) Get() T {
	if d.cell.active {
		return d.cell.Get()
	}
	values := make([]any, len(d.cfg.Sources))
	for i, src := range d.cfg.Sources {
		values[i] = MustGet[any](src)
	}
	out := d.cfg.Initial
	set := func(v T) T {
		out = v
		return v
	}
	if cleanup := d.cfg.Update(values, set, out, values); cleanup != nil {
		cleanup()
	}
	return out
}

func (d *Derived[T]) IsDirty() bool { return d.cell.IsDirty() }

// Subscribe attaches to the sources on the 0→1 transition, computes
// the first value, and then delivers it as (value, value).
func (d *Derived[T]) Subscribe(run Subscriber[T], invalidate ...Invalidator) Unsubscriber {
	return d.cell.Subscribe(run, invalidate...)
}

// Listen is Subscribe without the immediate call.
func (d *Derived[T]) Listen(run Subscriber[T], invalidate ...Invalidator) Unsubscriber {
	return d.cell.Listen(run, invalidate...)
}

package store

// AsAny erases a typed readable so it can serve as a derived source.
func AsAny[T any](src Readable[T]) Readable[any] {
	return anyReadable[T]{src}
}

type anyReadable[T any] struct {
	src Readable[T]
}

func (a anyReadable[T]) Get() any      { return a.src.Get() }
func (a anyReadable[T]) IsDirty() bool { return a.src.IsDirty() }

func (a anyReadable[T]) Subscribe(run Subscriber[any], invalidate ...Invalidator) Unsubscriber {
	return a.src.Subscribe(func(v, prev T) { run(v, prev) }, invalidate...)
}

func (a anyReadable[T]) Listen(run Subscriber[any], invalidate ...Invalidator) Unsubscriber {
	return a.src.Listen(func(v, prev T) { run(v, prev) }, invalidate...)
}

// Derive maps one source through a pure function.
func Derive[S, T any](source Readable[S], fn func(S) T) *Derived[T] {
	return NewDerived(DerivedConfig[T]{
		Sources: []Readable[any]{AsAny(source)},
		Update: func(values []any, set func(T) T, _ T, _ []any) Cleanup {
			set(fn(values[0].(S)))
			return nil
		},
	})
}

// Derive2 combines two sources through a pure function.
func Derive2[A, B, T any](a Readable[A], b Readable[B], fn func(A, B) T) *Derived[T] {
	return NewDerived(DerivedConfig[T]{
		Sources: []Readable[any]{AsAny(a), AsAny(b)},
		Update: func(values []any, set func(T) T, _ T, _ []any) Cleanup {
			set(fn(values[0].(A), values[1].(B)))
			return nil
		},
	})
}

// Derive3 combines three sources through a pure function.
func Derive3[A, B, C, T any](a Readable[A], b Readable[B], c Readable[C], fn func(A, B, C) T) *Derived[T] {
	return NewDerived(DerivedConfig[T]{
		Sources: []Readable[any]{AsAny(a), AsAny(b), AsAny(c)},
		Update: func(values []any, set func(T) T, _ T, _ []any) Cleanup {
			set(fn(values[0].(A), values[1].(B), values[2].(C)))
			return nil
		},
	})
}

// Derive4 combines four sources through a pure function.
func Derive4[A, B, C, D, T any](a Readable[A], b Readable[B], c Readable[C], d Readable[D], fn func(A, B, C, D) T) *Derived[T] {
	return NewDerived(DerivedConfig[T]{
		Sources: []Readable[any]{AsAny(a), AsAny(b), AsAny(c), AsAny(d)},
		Update: func(values []any, set func(T) T, _ T, _ []any) Cleanup {
			set(fn(values[0].(A), values[1].(B), values[2].(C), values[3].(D)))
			return nil
		},
	})
}

// DeriveUpdate gives a single-source derivation full control: the
// setter, the cell's last committed value, and an initial value for
// before the first set. The returned Cleanup, if any, runs before the
// next dispatch and at teardown.
func DeriveUpdate[S, T any](source Readable[S], initial T, fn func(value S, set func(T) T, previous T) Cleanup) *Derived[T] {
	return NewDerived(DerivedConfig[T]{
		Sources: []Readable[any]{AsAny(source)},
		Initial: initial,
		Update: func(values []any, set func(T) T, previous T, _ []any) Cleanup {
			return fn(values[0].(S), set, previous)
		},
	})
}

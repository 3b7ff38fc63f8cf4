package store

import (
	"errors"
	"fmt"
)

// ErrNoSyncEmit reports a foreign store whose subscribe never called
// back synchronously, violating the minimal store contract.
var ErrNoSyncEmit = errors.New("store: subscribe did not emit synchronously")

// Store is the minimal capability this system consumes and produces:
// a Subscribe that synchronously delivers the current value at least
// once before returning, and hands back a cancel handle.
type Store[T any] interface {
	Subscribe(run Subscriber[T], invalidate ...Invalidator) Unsubscriber
}

// Getter is the optional fast path Get prefers over a subscribe round
// trip.
type Getter[T any] interface {
	Get() T
}

// Get reads a store's current value once. It uses Get when the store
// exposes one; otherwise it subscribes, captures the first synchronous
// callback and unsubscribes immediately. A store that never calls back
// synchronously yields ErrNoSyncEmit.
func Get[T any](s Store[T]) (T, error) {
	if g, ok := s.(Getter[T]); ok {
		return g.Get(), nil
	}
	var value T
	emitted := false
	unsub := s.Subscribe(func(v, _ T) {
		value = v
		emitted = true
	})
	unsub()
	if !emitted {
		return value, fmt.Errorf("reading %T: %w", s, ErrNoSyncEmit)
	}
	return value, nil
}

// MustGet is Get, panicking on a store that breaks the contract.
func MustGet[T any](s Store[T]) T {
	v, err := Get(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Wrap normalizes the smallest foreign store shape, a bare
// single-argument subscribe function, into a Readable. Get performs a
// one-shot subscribe per call while idle; Subscribe and Listen hold
// the foreign subscription open through the cell's lifecycle hook.
func Wrap[T any](subscribe func(run func(T)) func()) Readable[T] {
	f := &foreign[T]{subscribe: subscribe}
	var zero T
	f.Writable = NewWritable(zero, WithStart[T](func(set func(T) T, _ func()) func() {
		return subscribe(func(v T) { set(v) })
	}))
	return f
}

type foreign[T any] struct {
	*Writable[T]
	subscribe func(run func(T)) func()
}

func (f *foreign[T]) Get() T {
	if f.Writable.active {
		return f.Writable.Get()
	}
	var value T
	emitted := false
	cancel := f.subscribe(func(v T) {
		value = v
		emitted = true
	})
	if cancel != nil {
		cancel()
	}
	if !emitted {
		panic(fmt.Errorf("reading foreign store: %w", ErrNoSyncEmit))
	}
	return value
}

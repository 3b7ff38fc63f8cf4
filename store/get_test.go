package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m93a/sklep/store"
)

// minimal conforming store without a Get fast path
type syncOnly[T any] struct {
	value T
}

func (s syncOnly[T]) Subscribe(run store.Subscriber[T], _ ...store.Invalidator) store.Unsubscriber {
	run(s.value, s.value)
	done := false
	return func() bool {
		if done {
			return false
		}
		done = true
		return true
	}
}

// store that breaks the contract: never calls back synchronously
type neverEmits[T any] struct{}

func (neverEmits[T]) Subscribe(store.Subscriber[T], ...store.Invalidator) store.Unsubscriber {
	return func() bool { return false }
}

// should prefer the Get fast path when the store has one
func TestGetFastPath(t *testing.T) {
	c := store.NewWritable(11)
	v, err := store.Get[int](c)
	require.NoError(t, err)
	assert.Equal(t, 11, v)
}

// should fall back to subscribe-capture-unsubscribe
func TestGetSubscribeFallback(t *testing.T) {
	v, err := store.Get[int](syncOnly[int]{value: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

// should surface the contract violation instead of swallowing it
func TestGetNoSyncEmit(t *testing.T) {
	_, err := store.Get[int](neverEmits[int]{})
	require.ErrorIs(t, err, store.ErrNoSyncEmit)

	assert.Panics(t, func() { store.MustGet[int](neverEmits[int]{}) })
}

// Wrap should normalize a bare subscribe function into a readable cell
func TestWrapForeignStore(t *testing.T) {
	current := 3
	var emit func(int)
	cancelled := 0
	subscribe := func(run func(int)) func() {
		emit = run
		run(current)
		return func() { cancelled++ }
	}

	w := store.Wrap(subscribe)
	assert.Equal(t, 3, store.MustGet[int](w))
	assert.Equal(t, 1, cancelled, "idle get cancels its one-shot subscription")

	var got []int
	unsub := w.Subscribe(func(v, _ int) { got = append(got, v) })
	assert.Equal(t, []int{3}, got)

	current = 5
	emit(5)
	assert.Equal(t, []int{3, 5}, got)

	unsub()
	assert.Equal(t, 2, cancelled, "teardown releases the foreign subscription")
}

// wrapped stores can feed derived cells
func TestWrapAsDerivedSource(t *testing.T) {
	var emit func(int)
	subscribe := func(run func(int)) func() {
		emit = run
		run(10)
		return func() {}
	}

	w := store.Wrap(subscribe)
	d := store.Derive[int, int](w, func(x int) int { return x * 3 })

	var got []int
	unsub := d.Subscribe(func(v, _ int) { got = append(got, v) })
	defer unsub()
	assert.Equal(t, []int{30}, got)

	emit(20)
	assert.Equal(t, []int{30, 60}, got)
}

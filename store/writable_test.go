package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m93a/sklep/store"
)

// should call run synchronously on subscribe with previous == current
func TestSubscribeImmediateCall(t *testing.T) {
	c := store.NewWritable(5)

	var got []int
	unsub := c.Subscribe(func(v, prev int) {
		got = append(got, v, prev)
	})
	defer unsub()

	assert.Equal(t, []int{5, 5}, got)
}

// should not call run on listen
func TestListenNoImmediateCall(t *testing.T) {
	c := store.NewWritable(5)

	calls := 0
	unsub := c.Listen(func(v, prev int) { calls++ })
	defer unsub()

	assert.Equal(t, 0, calls)
	c.Set(6)
	assert.Equal(t, 1, calls)
}

// should fire all invalidators before any value callback, in subscription order
func TestInvalidateThenNotifyOrdering(t *testing.T) {
	c := store.NewWritable(1)

	var events []string
	c.Listen(
		func(v, prev int) { events = append(events, "val1") },
		func() { events = append(events, "inv1") },
	)
	c.Listen(
		func(v, prev int) { events = append(events, "val2") },
		func() { events = append(events, "inv2") },
	)

	c.Set(2)
	assert.Equal(t, []string{"inv1", "inv2", "val1", "val2"}, events)
}

// should deliver new and previous values to subscribers
func TestSetDeliversPrevious(t *testing.T) {
	c := store.NewWritable(1)

	type pair struct{ v, prev int }
	var got []pair
	c.Listen(func(v, prev int) { got = append(got, pair{v, prev}) })

	c.Set(2)
	c.Set(7)
	assert.Equal(t, []pair{{2, 1}, {7, 2}}, got)
}

// invalidate should be idempotent until the next commit
func TestInvalidateIdempotent(t *testing.T) {
	c := store.NewWritable(1)

	invs := 0
	c.Listen(func(int, int) {}, func() { invs++ })

	c.Invalidate()
	c.Invalidate()
	assert.Equal(t, 1, invs)
	assert.True(t, c.IsDirty())
	assert.Equal(t, 1, c.Get(), "dirty read returns last committed value")

	c.Set(2)
	assert.False(t, c.IsDirty())
	c.Invalidate()
	assert.Equal(t, 2, invs)
}

// an invalidation callback may invalidate the same cell without double-firing
func TestReentrantInvalidate(t *testing.T) {
	c := store.NewWritable(1)

	invs := 0
	c.Listen(func(int, int) {}, func() {
		invs++
		c.Invalidate()
	})

	c.Set(2)
	assert.Equal(t, 1, invs)
	assert.Equal(t, 2, c.Get())
}

// update should behave as set(fn(get()))
func TestUpdate(t *testing.T) {
	c := store.NewWritable(3)

	var got []int
	c.Listen(func(v, _ int) { got = append(got, v) })

	result := c.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 30, result)
	assert.Equal(t, []int{30}, got)
}

// unsubscribing twice should report false, not fail
func TestUnsubscribeTwice(t *testing.T) {
	c := store.NewWritable(1)

	unsub := c.Listen(func(int, int) {})
	assert.True(t, unsub())
	assert.False(t, unsub())
	assert.False(t, unsub.Unsubscribe())
}

// the same callback may be registered twice and removed independently
func TestDuplicateCallbackRegistration(t *testing.T) {
	c := store.NewWritable(1)

	calls := 0
	run := func(int, int) { calls++ }
	unsubA := c.Listen(run)
	unsubB := c.Listen(run)

	c.Set(2)
	assert.Equal(t, 2, calls)

	require.True(t, unsubA())
	c.Set(3)
	assert.Equal(t, 3, calls)

	require.True(t, unsubB())
	c.Set(4)
	assert.Equal(t, 3, calls)
}

// a subscriber removed mid-wave should not be notified in that wave
func TestUnsubscribeDuringNotification(t *testing.T) {
	c := store.NewWritable(1)

	var unsubB store.Unsubscriber
	aCalls, bCalls := 0, 0
	c.Listen(func(int, int) {
		aCalls++
		unsubB()
	})
	unsubB = c.Listen(func(int, int) { bCalls++ })

	c.Set(2)
	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 0, bCalls)
}

// a subscriber added mid-wave should only see the following wave
func TestSubscribeDuringNotification(t *testing.T) {
	c := store.NewWritable(1)

	lateCalls := 0
	first := true
	c.Listen(func(int, int) {
		if first {
			first = false
			c.Listen(func(int, int) { lateCalls++ })
		}
	})

	c.Set(2)
	assert.Equal(t, 0, lateCalls)
	c.Set(3)
	assert.Equal(t, 1, lateCalls)
}

// the lifecycle hook runs on 0→1 and may set before the initial notification
func TestStartStopNotifier(t *testing.T) {
	started, stopped := 0, 0
	c := store.NewWritable(0, store.WithStart[int](func(set func(int) int, _ func()) func() {
		started++
		set(42)
		return func() { stopped++ }
	}))

	var got []int
	unsub := c.Subscribe(func(v, prev int) { got = append(got, v, prev) })
	assert.Equal(t, 1, started)
	assert.Equal(t, []int{42, 42}, got, "hook's set lands before the initial call")

	unsub2 := c.Listen(func(int, int) {})
	assert.Equal(t, 1, started, "hook only runs on the 0→1 transition")

	unsub()
	assert.Equal(t, 0, stopped)
	unsub2()
	assert.Equal(t, 1, stopped)

	c.Subscribe(func(int, int) {})
	assert.Equal(t, 2, started, "hook runs again after a full teardown")
}

// the stop action must run exactly once even when teardown happens inside a wave
func TestStopOnceWhenTornDownMidWave(t *testing.T) {
	stopped := 0
	c := store.NewWritable(0, store.WithStart[int](func(func(int) int, func()) func() {
		return func() { stopped++ }
	}))

	var unsub store.Unsubscriber
	unsub = c.Listen(func(int, int) {
		unsub()
		unsub()
	})

	c.Set(1)
	assert.Equal(t, 1, stopped)
}

// NewReadable should expose no Set but still update from its hook
func TestReadable(t *testing.T) {
	r := store.NewReadable(0, func(set func(int) int, _ func()) func() {
		set(9)
		return nil
	})

	var got []int
	unsub := r.Subscribe(func(v, _ int) { got = append(got, v) })
	defer unsub()

	assert.Equal(t, []int{9}, got)
	v, err := store.Get[int](r)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

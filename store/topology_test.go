package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m93a/sklep/store"
)

// diamond: C must see A and B post-update together, exactly once per wave
func TestTopologyDiamondNoGlitch(t *testing.T) {
	//     S
	//   /   \
	//  A     B
	//   \   /
	//     C
	s := store.NewWritable(1)
	a := store.Derive[int, int](s, func(x int) int { return x + 1 })
	b := store.Derive[int, int](s, func(x int) int { return x * 2 })

	type seen struct{ a, b int }
	var computes []seen
	c := store.Derive2[int, int, int](a, b, func(x, y int) int {
		computes = append(computes, seen{x, y})
		return x + y
	})

	unsub := c.Subscribe(func(int, int) {})
	defer unsub()
	require.Equal(t, []seen{{2, 2}}, computes)

	computes = nil
	s.Set(5)
	require.Equal(t, []seen{{6, 10}}, computes, "never one stale and one fresh input")
	assert.Equal(t, 16, c.Get())

	computes = nil
	s.Set(7)
	require.Equal(t, []seen{{8, 14}}, computes)
}

// flag shape: C depends on S both directly and through B
func TestTopologyFlag(t *testing.T) {
	//     S
	//   / |
	//  B  |
	//   \ |
	//     C
	s := store.NewWritable(2)
	b := store.Derive[int, int](s, func(x int) int { return x - 1 })

	computeCount := 0
	c := store.Derive2[int, int, int](s, b, func(x, y int) int {
		computeCount++
		return x + y
	})

	unsub := c.Subscribe(func(int, int) {})
	defer unsub()
	require.Equal(t, 1, computeCount)

	s.Set(4)
	assert.Equal(t, 2, computeCount, "one compute despite two paths from S")
	assert.Equal(t, 7, c.Get())
}

// wide diamond: many middle layers still collapse into one compute per wave
func TestTopologyWideDiamond(t *testing.T) {
	s := store.NewWritable(1)

	const width = 10
	middles := make([]store.Readable[any], width)
	for i := 0; i < width; i++ {
		offset := i
		middles[i] = store.AsAny[int](store.Derive[int, int](s, func(x int) int { return x + offset }))
	}

	computeCount := 0
	sink := store.NewDerived(store.DerivedConfig[int]{
		Sources: middles,
		Update: func(values []any, set func(int) int, _ int, _ []any) store.Cleanup {
			computeCount++
			sum := 0
			for _, v := range values {
				sum += v.(int)
			}
			set(sum)
			return nil
		},
	})

	unsub := sink.Listen(func(int, int) {})
	defer unsub()
	require.Equal(t, 1, computeCount)

	s.Set(2)
	assert.Equal(t, 2, computeCount)
	assert.Equal(t, 2*width+width*(width-1)/2, sink.Get())
}

// subscribers of every diamond corner hear the invalidation before any value
func TestTopologyDiamondOrdering(t *testing.T) {
	s := store.NewWritable(1)
	a := store.Derive[int, int](s, func(x int) int { return x + 1 })
	b := store.Derive[int, int](s, func(x int) int { return x * 2 })
	c := store.Derive2[int, int, int](a, b, func(x, y int) int { return x + y })

	var events []string
	unsub := c.Listen(
		func(v, _ int) { events = append(events, "val") },
		func() { events = append(events, "inv") },
	)
	defer unsub()

	s.Set(3)
	assert.Equal(t, []string{"inv", "val"}, events)
}

package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/deckpack/internal/testutil"
)

func TestAllocatorNext(t *testing.T) {
	t.Run("same millisecond yields increasing ids", func(t *testing.T) {
		clock := testutil.FixedClock()
		a := NewAllocator(clock)

		first := a.Next()
		second := a.Next()
		third := a.Next()

		assert.Equal(t, clock.Now().UnixMilli(), first)
		assert.Equal(t, first+1, second)
		assert.Equal(t, second+1, third)
	})

	t.Run("follows the clock when it moves ahead", func(t *testing.T) {
		clock := testutil.FixedClock()
		a := NewAllocator(clock)

		a.Next()
		clock.Advance(time.Second)
		assert.Equal(t, clock.Now().UnixMilli(), a.Next())
	})

	t.Run("never goes backwards with the clock", func(t *testing.T) {
		clock := testutil.FixedClock()
		a := NewAllocator(clock)

		first := a.Next()
		clock.Advance(-time.Hour)
		assert.Greater(t, a.Next(), first)
	})

	t.Run("ids are unique under concurrent use", func(t *testing.T) {
		a := NewAllocator(testutil.FixedClock())
		const n = 200
		results := make(chan int64, n)
		for i := 0; i < n; i++ {
			go func() { results <- a.Next() }()
		}

		seen := make(map[int64]bool, n)
		for i := 0; i < n; i++ {
			id := <-results
			require.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	})
}

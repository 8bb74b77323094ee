package rng

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleKeepsElements(t *testing.T) {
	r := New(42)
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	out := Shuffle(r, append([]int(nil), in...))

	require.Len(t, out, len(in))
	sorted := append([]int(nil), out...)
	sort.Ints(sorted)
	assert.Equal(t, in, sorted)
}

func TestShuffleDeterministic(t *testing.T) {
	a := Shuffle(New(7), []string{"a", "b", "c", "d", "e", "f"})
	b := Shuffle(New(7), []string{"a", "b", "c", "d", "e", "f"})
	assert.Equal(t, a, b)
}

func TestShuffleShortSlices(t *testing.T) {
	r := New(1)
	assert.Empty(t, Shuffle(r, []int{}))
	assert.Equal(t, []int{9}, Shuffle(r, []int{9}))
}

func TestCoinIsRoughlyFair(t *testing.T) {
	r := New(99)
	heads := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if Coin(r) {
			heads++
		}
	}
	assert.InDelta(t, 0.5, float64(heads)/n, 0.03)
}

func TestSeedStreamReproducible(t *testing.T) {
	a := NewSeedStream(12345)
	b := NewSeedStream(12345)
	seen := map[uint64]bool{}
	for i := 0; i < 100; i++ {
		x, y := a.Next(), b.Next()
		require.Equal(t, x, y)
		require.False(t, seen[x], "seed repeated at step %d", i)
		seen[x] = true
	}
}

func TestNextRandIndependentStreams(t *testing.T) {
	s := NewSeedStream(1)
	r1 := s.NextRand()
	r2 := s.NextRand()
	same := true
	for i := 0; i < 8; i++ {
		if r1.Int63() != r2.Int63() {
			same = false
		}
	}
	assert.False(t, same)
}

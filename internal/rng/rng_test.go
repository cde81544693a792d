package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dtnsim/dtnsim/internal/rng"
)

func TestSameSeedYieldsIdenticalSequence(t *testing.T) {
	a := rng.New(42)
	b := rng.New(42)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := rng.New(1)
	b := rng.New(2)

	diverged := false
	for i := 0; i < 20; i++ {
		if a.Float64() != b.Float64() {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "two distinct seeds should not produce the exact same draw every time")
}

func TestFloat64StaysInUnitInterval(t *testing.T) {
	r := rng.New(7)
	for i := 0; i < 1000; i++ {
		v := r.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestShuffleIsAPermutation(t *testing.T) {
	r := rng.New(99)
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	seen := map[int]bool{}
	for _, v := range items {
		seen[v] = true
	}
	assert.Len(t, seen, 10, "shuffle must not duplicate or drop elements")
}

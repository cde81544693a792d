package movement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/movement"
)

func TestStaticNextPathReturnsFixedPoint(t *testing.T) {
	s := movement.NewStatic(10, 20)
	path := s.NextPath()
	require.Len(t, path, 1)
	assert.Equal(t, movement.Waypoint{X: 10, Y: 20, Speed: 0}, path[0])
}

func TestStaticIsActiveAlwaysTrueWithoutWindows(t *testing.T) {
	s := movement.NewStatic(0, 0)
	assert.True(t, s.IsActive(0))
	assert.True(t, s.IsActive(1e9))
}

func TestStaticIsActiveHonorsWindows(t *testing.T) {
	s := movement.NewStatic(0, 0)
	s.ActiveWindows = []movement.Window{{Start: 10, End: 20}, {Start: 30, End: 40}}

	assert.False(t, s.IsActive(5))
	assert.True(t, s.IsActive(10))
	assert.True(t, s.IsActive(19.9))
	assert.False(t, s.IsActive(20), "End is exclusive")
	assert.True(t, s.IsActive(30))
	assert.False(t, s.IsActive(41))
}

func TestLinearNextPathReturnsAFreshCopyEachTime(t *testing.T) {
	path := []movement.Waypoint{{X: 0, Y: 0, Speed: 1}, {X: 0, Y: 100, Speed: 1}}
	l := movement.NewLinear(path)

	first := l.NextPath()
	require.Len(t, first, 2)
	first[0].X = 999 // mutate the returned slice

	second := l.NextPath()
	assert.Equal(t, 0.0, second[0].X, "NextPath must not expose the internal slice for mutation")
}

func TestLinearIsActiveAlwaysTrue(t *testing.T) {
	l := movement.NewLinear([]movement.Waypoint{{X: 0, Y: 0, Speed: 1}})
	assert.True(t, l.IsActive(0))
	assert.True(t, l.IsActive(1e9))
}
